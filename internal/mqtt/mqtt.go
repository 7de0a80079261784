// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// Topic is the MQTT topic for per-cycle irrigation telemetry.
const Topic = "greenhouse/irrigation/cycle"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "greenhouse/irrigation/system"

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// Publish sends one cycle record to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(d logic.Decision) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the per-cycle MQTT message.
type Payload struct {
	Irrigation CyclePayload `json:"irrigation"`
}

// CyclePayload contains one cycle's readings, factors and decision.
type CyclePayload struct {
	Timestamp string          `json:"timestamp"`
	Phase     string          `json:"phase"`
	Fallback  bool            `json:"fallback"`
	Readings  ReadingsPayload `json:"readings"`
	Factors   *FactorsPayload `json:"factors,omitempty"`
	Score     *float64        `json:"score,omitempty"`
	Command   CommandPayload  `json:"command"`
}

// ReadingsPayload carries the raw snapshot.
type ReadingsPayload struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	SoilRaw      int     `json:"soil_raw"`
	LightRaw     int     `json:"light_raw"`
	Valid        bool    `json:"valid"`
}

// FactorsPayload carries the normalized factors.
type FactorsPayload struct {
	Soil        float64 `json:"soil"`
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity"`
	Light       float64 `json:"light"`
	Evaporation float64 `json:"evaporation"`
}

// CommandPayload carries the actuator command.
type CommandPayload struct {
	Pump          bool `json:"pump"`
	Alert         bool `json:"alert"`
	IndicatorOK   bool `json:"indicator_ok"`
	IndicatorWarn bool `json:"indicator_warn"`
}

// FormatPayload creates the JSON payload for a cycle. Factors and score are
// omitted on fallback cycles, where they were never computed.
func FormatPayload(d logic.Decision) ([]byte, error) {
	s := d.Snapshot
	c := CyclePayload{
		Timestamp: d.Time.UTC().Format(time.RFC3339),
		Phase:     string(d.Phase),
		Fallback:  d.Fallback,
		Readings: ReadingsPayload{
			TemperatureC: s.TemperatureC,
			HumidityPct:  s.HumidityPct,
			SoilRaw:      s.SoilRaw,
			LightRaw:     s.LightRaw,
			Valid:        s.Valid,
		},
		Command: CommandPayload{
			Pump:          d.Command.Pump,
			Alert:         d.Command.Alert,
			IndicatorOK:   d.Command.IndicatorOK,
			IndicatorWarn: d.Command.IndicatorWarn,
		},
	}
	if !d.Fallback {
		score := d.Score
		c.Score = &score
		c.Factors = &FactorsPayload{
			Soil:        d.Factors.Soil,
			Temp:        d.Factors.Temp,
			Humidity:    d.Factors.Humidity,
			Light:       d.Factors.Light,
			Evaporation: d.Factors.Evaporation,
		}
	}
	return json.Marshal(Payload{Irrigation: c})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// NopPublisher discards everything. Used when no broker is reachable at start-up.
type NopPublisher struct{}

func (NopPublisher) Publish(logic.Decision) error    { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }
func (NopPublisher) Close() error                    { return nil }
func (NopPublisher) IsConnected() bool               { return false }
