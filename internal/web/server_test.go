package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sweeney/greenhouse-controller/internal/logic"
	"github.com/sweeney/greenhouse-controller/internal/metrics"
	"github.com/sweeney/greenhouse-controller/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *metrics.Metrics) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		IntervalMs:     3000,
		RetryDelayMs:   2000,
		HeartbeatMs:    900000,
		Model:          "additive",
		Policy:         "hysteresis",
		RelayActiveLow: true,
		Broker:         "tcp://192.168.1.200:1883",
		HTTPAddr:       ":80",
	}
	tr := status.NewTracker(start, cfg)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := New(":0", tr, reg)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr, m
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func wateringDecision() logic.Decision {
	return logic.Decision{
		Time:     time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		Snapshot: logic.SensorSnapshot{TemperatureC: 31.5, HumidityPct: 35, SoilRaw: 3900, LightRaw: 2800, Valid: true},
		Factors:  logic.Factors{Soil: 0.9, Temp: 0.575, Humidity: 0.35, Light: 0.68, Evaporation: 0.37},
		Score:    0.71,
		Phase:    logic.PhaseWatering,
		Command:  logic.CommandFor(true),
		Started:  true,
	}
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(wateringDecision(), logic.Counts{Cycles: 5, PumpStarts: 2, PumpStops: 1})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Phase != "WATERING" || !sj.Status.Pump {
		t.Errorf("phase/pump: got %s/%v", sj.Status.Phase, sj.Status.Pump)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.PumpStarts != 2 {
		t.Errorf("Counts.PumpStarts: got %d, want 2", sj.Status.Counts.PumpStarts)
	}
	if sj.Status.Config.IntervalMs != 3000 {
		t.Errorf("Config.IntervalMs: got %d, want 3000", sj.Status.Config.IntervalMs)
	}
}

func TestJSONUnknownBeforeFirstCycle(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := get(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	json.Unmarshal([]byte(body), &sj)

	if sj.Status.Phase != "UNKNOWN" {
		t.Errorf("phase before first cycle: got %q, want UNKNOWN", sj.Status.Phase)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(wateringDecision(), logic.Counts{Cycles: 1})

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	for _, want := range []string{"WATERING", "0.710", "31.5", "3900", "active-low"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLSensorFault(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(logic.Decision{
		Time:     time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		Snapshot: logic.SensorSnapshot{SoilRaw: 3500},
		Phase:    logic.PhaseFault,
		Command:  logic.SafeCommand(),
		Fallback: true,
	}, logic.Counts{Cycles: 1, SensorFailures: 1})

	_, body := get(t, ts.URL+"/index.html")
	if !strings.Contains(body, "SENSOR_FAULT") {
		t.Error("body should show the fault phase")
	}
	if !strings.Contains(body, "unavailable") {
		t.Error("body should report the climate sensor unavailable")
	}
	if strings.Contains(body, "Demand score") {
		t.Error("no score should be shown for a fallback cycle")
	}
}

func TestHTMLBeforeFirstCycle(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/index.html")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "UNKNOWN") {
		t.Error("expected UNKNOWN phase")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.Observe(wateringDecision())

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{"irrigation_cycles_total 1", "irrigation_pump_on 1", `irrigation_phase{phase="WATERING"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, _ := get(t, ts.URL+"/nonexistent")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	tr.Update(wateringDecision(), logic.Counts{Cycles: 1})
	_, body := get(t, ts.URL+"/index.json")
	var sj1 status.StatusJSON
	json.Unmarshal([]byte(body), &sj1)
	if !sj1.Status.Pump {
		t.Fatal("expected pump on")
	}

	idle := wateringDecision()
	idle.Phase = logic.PhaseIdle
	idle.Command = logic.CommandFor(false)
	tr.Update(idle, logic.Counts{Cycles: 2})

	_, body = get(t, ts.URL+"/index.json")
	var sj2 status.StatusJSON
	json.Unmarshal([]byte(body), &sj2)
	if sj2.Status.Pump || sj2.Status.Phase != "IDLE" {
		t.Errorf("expected IDLE/off, got %s/%v", sj2.Status.Phase, sj2.Status.Pump)
	}
}
