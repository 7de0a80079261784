// Package metrics exposes control-loop Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sweeney/greenhouse-controller/internal/logic"
)

var phases = []logic.Phase{
	logic.PhaseIdle,
	logic.PhaseWatering,
	logic.PhaseBurstOn,
	logic.PhaseBurstOff,
	logic.PhaseFault,
}

// Metrics holds the collectors updated once per cycle.
type Metrics struct {
	cycles         prometheus.Counter
	sensorFailures prometheus.Counter
	pumpStarts     prometheus.Counter
	pumpStops      prometheus.Counter
	reportErrors   *prometheus.CounterVec
	score          prometheus.Gauge
	pumpOn         prometheus.Gauge
	factors        *prometheus.GaugeVec
	phase          *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_cycles_total",
			Help: "Control cycles executed.",
		}),
		sensorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_sensor_failures_total",
			Help: "Cycles that fell back to the safe command because sensors were unavailable.",
		}),
		pumpStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_pump_starts_total",
			Help: "Pump off-to-on transitions.",
		}),
		pumpStops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_pump_stops_total",
			Help: "Pump on-to-off transitions.",
		}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "irrigation_report_errors_total",
			Help: "Failed writes to reporting sinks.",
		}, []string{"sink"}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigation_demand_score",
			Help: "Water demand score of the last valid cycle.",
		}),
		pumpOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "irrigation_pump_on",
			Help: "1 if the pump was commanded on in the last cycle.",
		}),
		factors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irrigation_factor",
			Help: "Normalized demand factors of the last valid cycle.",
		}, []string{"factor"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "irrigation_phase",
			Help: "1 for the current activation phase, 0 otherwise.",
		}, []string{"phase"}),
	}

	reg.MustRegister(m.cycles, m.sensorFailures, m.pumpStarts, m.pumpStops,
		m.reportErrors, m.score, m.pumpOn, m.factors, m.phase)
	return m
}

// Observe updates the collectors from one cycle.
func (m *Metrics) Observe(d logic.Decision) {
	m.cycles.Inc()
	if d.Fallback {
		m.sensorFailures.Inc()
	} else {
		m.score.Set(d.Score)
		m.factors.WithLabelValues("soil").Set(d.Factors.Soil)
		m.factors.WithLabelValues("temp").Set(d.Factors.Temp)
		m.factors.WithLabelValues("humidity").Set(d.Factors.Humidity)
		m.factors.WithLabelValues("light").Set(d.Factors.Light)
		m.factors.WithLabelValues("evaporation").Set(d.Factors.Evaporation)
	}
	if d.Started {
		m.pumpStarts.Inc()
	}
	if d.Stopped {
		m.pumpStops.Inc()
	}

	m.pumpOn.Set(boolToFloat(d.Command.Pump))
	for _, p := range phases {
		m.phase.WithLabelValues(string(p)).Set(boolToFloat(p == d.Phase))
	}
}

// ReportError counts a failed write to sink (e.g. "mqtt", "influx", "gpio").
func (m *Metrics) ReportError(sink string) {
	m.reportErrors.WithLabelValues(sink).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
