package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Phase         string     `json:"phase"`
	Pump          bool       `json:"pump"`
	Fallback      bool       `json:"fallback"`
	Score         *float64   `json:"score,omitempty"`
	LastCycle     string     `json:"last_cycle,omitempty"`
	Readings      *Readings  `json:"readings,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"cycle_counts"`
	Config        ConfigJSON `json:"config"`
}

// Readings is the JSON representation of the last raw snapshot.
type Readings struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	SoilRaw      int     `json:"soil_raw"`
	LightRaw     int     `json:"light_raw"`
	Valid        bool    `json:"valid"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counts.
type CountsJSON struct {
	Cycles         int `json:"cycles"`
	SensorFailures int `json:"sensor_failures"`
	PumpStarts     int `json:"pump_starts"`
	PumpStops      int `json:"pump_stops"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	IntervalMs     int64  `json:"interval_ms"`
	RetryDelayMs   int64  `json:"retry_delay_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Model          string `json:"model"`
	Policy         string `json:"policy"`
	RelayActiveLow bool   `json:"relay_active_low"`
	Broker         string `json:"broker"`
	HTTPAddr       string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Phase:         "UNKNOWN",
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:         snap.Counts.Cycles,
			SensorFailures: snap.Counts.SensorFailures,
			PumpStarts:     snap.Counts.PumpStarts,
			PumpStops:      snap.Counts.PumpStops,
		},
		Config: ConfigJSON{
			IntervalMs:     snap.Config.IntervalMs,
			RetryDelayMs:   snap.Config.RetryDelayMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Model:          snap.Config.Model,
			Policy:         snap.Config.Policy,
			RelayActiveLow: snap.Config.RelayActiveLow,
			Broker:         snap.Config.Broker,
			HTTPAddr:       snap.Config.HTTPAddr,
		},
	}

	if !snap.HasCycle {
		return inner
	}
	d := snap.Last
	inner.Phase = string(d.Phase)
	inner.Pump = d.Command.Pump
	inner.Fallback = d.Fallback
	inner.LastCycle = d.Time.UTC().Format(time.RFC3339)
	inner.Readings = &Readings{
		TemperatureC: d.Snapshot.TemperatureC,
		HumidityPct:  d.Snapshot.HumidityPct,
		SoilRaw:      d.Snapshot.SoilRaw,
		LightRaw:     d.Snapshot.LightRaw,
		Valid:        d.Snapshot.Valid,
	}
	if !d.Fallback {
		score := d.Score
		inner.Score = &score
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
