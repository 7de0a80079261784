package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
	"github.com/sweeney/greenhouse-controller/internal/logic"
)

type fakeWriter struct {
	points []*write.Point
	err    error
	calls  int
}

func (w *fakeWriter) WritePoint(_ context.Context, p ...*write.Point) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.points = append(w.points, p...)
	return nil
}

var cycleTime = time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC)

func fieldsOf(p *write.Point) map[string]interface{} {
	out := map[string]interface{}{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagsOf(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, tg := range p.TagList() {
		out[tg.Key] = tg.Value
	}
	return out
}

func TestPointFor(t *testing.T) {
	d := logic.Decision{
		Time:     cycleTime,
		Snapshot: logic.SensorSnapshot{TemperatureC: 30, HumidityPct: 40, SoilRaw: 3800, LightRaw: 2500, Valid: true},
		Factors:  logic.Factors{Soil: 0.8, Evaporation: 0.3},
		Score:    0.7,
		Phase:    logic.PhaseWatering,
		Command:  logic.CommandFor(true),
	}
	p := PointFor(d, map[string]string{"policy": "hysteresis"})

	if p.Name() != Measurement {
		t.Errorf("measurement: got %q", p.Name())
	}
	if !p.Time().Equal(cycleTime) {
		t.Errorf("time: got %v", p.Time())
	}
	tags := tagsOf(p)
	if tags["phase"] != "WATERING" || tags["policy"] != "hysteresis" {
		t.Errorf("tags: got %v", tags)
	}
	fields := fieldsOf(p)
	if fields["score"] != 0.7 {
		t.Errorf("score: got %v", fields["score"])
	}
	if fields["soil_factor"] != 0.8 {
		t.Errorf("soil_factor: got %v", fields["soil_factor"])
	}
	if fields["pump"] != true {
		t.Errorf("pump: got %v", fields["pump"])
	}
	if fields["temperature_c"] != 30.0 {
		t.Errorf("temperature_c: got %v", fields["temperature_c"])
	}
}

func TestPointForFallback(t *testing.T) {
	d := logic.Decision{
		Time:     cycleTime,
		Snapshot: logic.SensorSnapshot{HumidityPct: 40, SoilRaw: 3800},
		Phase:    logic.PhaseFault,
		Command:  logic.SafeCommand(),
		Fallback: true,
	}
	fields := fieldsOf(PointFor(d, nil))

	for _, k := range []string{"score", "soil_factor", "temperature_c", "humidity_pct"} {
		if _, ok := fields[k]; ok {
			t.Errorf("field %q should be absent on fallback", k)
		}
	}
	if fields["fallback"] != true {
		t.Errorf("fallback: got %v", fields["fallback"])
	}
}

func TestRecordWritesPoint(t *testing.T) {
	w := &fakeWriter{}
	r := newRecorder(w, time.Second, nil)

	if err := r.Record(context.Background(), logic.Decision{Time: cycleTime, Phase: logic.PhaseIdle}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(w.points) != 1 {
		t.Errorf("expected 1 point, got %d", len(w.points))
	}
}

func TestRecordBreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	r := newRecorder(w, time.Second, nil)
	d := logic.Decision{Time: cycleTime, Phase: logic.PhaseIdle}

	for i := 0; i < 3; i++ {
		if err := r.Record(context.Background(), d); err == nil {
			t.Fatalf("attempt %d: expected error", i)
		}
	}
	if r.breaker.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state: got %s, want open", r.breaker.State())
	}

	err := r.Record(context.Background(), d)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if w.calls != 3 {
		t.Errorf("writer should not be called while open, calls=%d", w.calls)
	}
}

func TestNewInfluxRecorderIncompleteConfig(t *testing.T) {
	if _, err := NewInfluxRecorder(InfluxConfig{URL: "http://localhost:8086"}); err == nil {
		t.Error("expected error for incomplete config")
	}
}

func TestFakeRecorder(t *testing.T) {
	f := &FakeRecorder{}
	f.Record(context.Background(), logic.Decision{Phase: logic.PhaseIdle})
	if len(f.Decisions) != 1 {
		t.Errorf("expected 1 decision, got %d", len(f.Decisions))
	}
	f.RecordError = errors.New("down")
	if err := f.Record(context.Background(), logic.Decision{}); err == nil {
		t.Error("expected error")
	}
	f.Close()
	if !f.Closed {
		t.Error("should be closed")
	}
}
