package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// InfluxConfig configures the InfluxDB v2 destination.
type InfluxConfig struct {
	URL          string
	Token        string
	Org          string
	Bucket       string
	WriteTimeout time.Duration
	// Tags are added to every point (e.g. model, policy).
	Tags map[string]string
}

// pointWriter is the part of api.WriteAPIBlocking we use.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxRecorder writes cycle points through a circuit breaker so that an
// unreachable database does not stall the control loop once tripped.
type InfluxRecorder struct {
	client  influxdb2.Client
	writer  pointWriter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	tags    map[string]string
}

// NewInfluxRecorder creates a recorder writing to cfg.Bucket.
func NewInfluxRecorder(cfg InfluxConfig) (*InfluxRecorder, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	r := newRecorder(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.WriteTimeout, cfg.Tags)
	r.client = client
	return r, nil
}

func newRecorder(w pointWriter, timeout time.Duration, tags map[string]string) *InfluxRecorder {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &InfluxRecorder{
		writer:  w,
		breaker: newBreaker(),
		timeout: timeout,
		tags:    tags,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "influx",
		Timeout: time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("history: %s breaker %s -> %s", name, from, to)
		},
	})
}

// Record writes one point. Returns gobreaker.ErrOpenState without touching
// the network while the breaker is open.
func (r *InfluxRecorder) Record(ctx context.Context, d logic.Decision) error {
	p := PointFor(d, r.tags)
	_, err := r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return nil, r.writer.WritePoint(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *InfluxRecorder) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

// PointFor converts a decision into an InfluxDB point. Factors and score are
// only present on cycles where they were computed.
func PointFor(d logic.Decision, tags map[string]string) *write.Point {
	t := map[string]string{"phase": string(d.Phase)}
	for k, v := range tags {
		t[k] = v
	}

	fields := map[string]interface{}{
		"soil_raw":  d.Snapshot.SoilRaw,
		"light_raw": d.Snapshot.LightRaw,
		"valid":     d.Snapshot.Valid,
		"fallback":  d.Fallback,
		"pump":      d.Command.Pump,
	}
	if d.Snapshot.Valid {
		fields["temperature_c"] = d.Snapshot.TemperatureC
		fields["humidity_pct"] = d.Snapshot.HumidityPct
	}
	if !d.Fallback {
		fields["score"] = d.Score
		fields["soil_factor"] = d.Factors.Soil
		fields["temp_factor"] = d.Factors.Temp
		fields["humidity_factor"] = d.Factors.Humidity
		fields["light_factor"] = d.Factors.Light
		fields["evaporation_factor"] = d.Factors.Evaporation
	}
	return influxdb2.NewPoint(Measurement, t, fields, d.Time)
}
