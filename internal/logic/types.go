// Package logic contains the pure irrigation decision engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// SensorSnapshot is one cycle's worth of raw readings.
// Valid is false iff the temperature or humidity reading failed; soil and
// light are always numeric.
type SensorSnapshot struct {
	TemperatureC float64
	HumidityPct  float64
	SoilRaw      int
	LightRaw     int
	Valid        bool
}

// Factors are the normalized demand factors, each in [0,1].
type Factors struct {
	Soil        float64
	Temp        float64
	Humidity    float64
	Light       float64
	Evaporation float64
}

// PolicyInput is what an activation policy sees each cycle.
type PolicyInput struct {
	Score   float64
	Factors Factors
}

// ActivationState is the only state carried across cycles.
type ActivationState struct {
	PumpOn bool
	// BurstActive is only used by the burst policy.
	BurstActive bool
	// EnteredAt is when the current pump state began (the burst timer in burst mode).
	EnteredAt time.Time
}

// Phase is a human-readable view of ActivationState.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseWatering Phase = "WATERING"
	PhaseBurstOn  Phase = "BURST_ON"
	PhaseBurstOff Phase = "BURST_OFF"
	PhaseFault    Phase = "SENSOR_FAULT"
)

// Phase returns the state machine phase for s.
func (s ActivationState) Phase() Phase {
	switch {
	case s.BurstActive && s.PumpOn:
		return PhaseBurstOn
	case s.BurstActive:
		return PhaseBurstOff
	case s.PumpOn:
		return PhaseWatering
	default:
		return PhaseIdle
	}
}

// Command is the actuator command set for one cycle.
type Command struct {
	Pump          bool
	Alert         bool
	IndicatorOK   bool
	IndicatorWarn bool
}

// CommandFor projects the pump state onto the full actuator command set.
// The alert mirrors the pump; exactly one indicator is lit.
func CommandFor(pumpOn bool) Command {
	return Command{
		Pump:          pumpOn,
		Alert:         pumpOn,
		IndicatorOK:   !pumpOn,
		IndicatorWarn: pumpOn,
	}
}

// IdleCommand is the boot and shutdown state: everything off, ok indicator lit.
func IdleCommand() Command {
	return CommandFor(false)
}

// SafeCommand is emitted when sensors are unavailable: pump and alert off,
// warning indicator lit.
func SafeCommand() Command {
	return Command{IndicatorWarn: true}
}

// Decision is the full record of one control cycle.
type Decision struct {
	Time     time.Time
	Snapshot SensorSnapshot
	Factors  Factors
	Score    float64
	State    ActivationState
	Phase    Phase
	Command  Command
	// Fallback is set when the snapshot was invalid and the pipeline was bypassed.
	Fallback bool
	// Started and Stopped report a pump transition in this cycle.
	Started bool
	Stopped bool
}

// Counts tracks cycle outcomes since startup.
type Counts struct {
	Cycles         int
	SensorFailures int
	PumpStarts     int
	PumpStops      int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
