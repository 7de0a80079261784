package logic

import "time"

// Policy names accepted in Config.Policy.
const (
	PolicyHysteresis = "hysteresis"
	PolicyBurst      = "burst"
)

// Policy is a pure activation state transition.
// Next must not retain prev; the caller owns the state.
type Policy interface {
	Name() string
	Next(prev ActivationState, in PolicyInput, now time.Time) ActivationState
}

// HysteresisPolicy switches the pump on above On and off below Off, holding
// the pump on for at least MinOn once started.
type HysteresisPolicy struct {
	On    float64
	Off   float64
	MinOn time.Duration
}

// DefaultHysteresisPolicy returns the default band and dwell time.
func DefaultHysteresisPolicy() HysteresisPolicy {
	return HysteresisPolicy{On: 0.55, Off: 0.45, MinOn: 10 * time.Second}
}

func (p HysteresisPolicy) Name() string { return PolicyHysteresis }

// Next applies the hysteresis band and minimum on-time.
func (p HysteresisPolicy) Next(prev ActivationState, in PolicyInput, now time.Time) ActivationState {
	if !prev.PumpOn {
		if in.Score > p.On {
			return ActivationState{PumpOn: true, EnteredAt: now}
		}
		return prev
	}

	// Dwell is re-checked every cycle until it has elapsed.
	if in.Score < p.Off && now.Sub(prev.EnteredAt) >= p.MinOn {
		return ActivationState{PumpOn: false, EnteredAt: now}
	}
	return prev
}

// BurstPolicy duty-cycles the pump while the soil is dry and it is daytime.
type BurstPolicy struct {
	OnDuration   time.Duration
	OffMax       time.Duration // rest interval with no evaporative demand
	OffMin       time.Duration // rest interval at full evaporative demand
	DryGate      float64       // soil factor above which watering is allowed
	DayThreshold float64       // light factor above which it is considered daytime
}

// DefaultBurstPolicy returns 5s bursts separated by 5-20s rests.
func DefaultBurstPolicy() BurstPolicy {
	return BurstPolicy{
		OnDuration:   5 * time.Second,
		OffMax:       20 * time.Second,
		OffMin:       5 * time.Second,
		DryGate:      0.3,
		DayThreshold: 0.2,
	}
}

func (p BurstPolicy) Name() string { return PolicyBurst }

// Allowed reports whether the irrigation gate holds for f.
func (p BurstPolicy) Allowed(f Factors) bool {
	return f.Soil > p.DryGate && f.Light > p.DayThreshold
}

// OffDuration returns the rest interval between bursts. Higher evaporative
// demand shortens it, from OffMax down to OffMin.
func (p BurstPolicy) OffDuration(evaporation float64) time.Duration {
	span := float64(p.OffMax - p.OffMin)
	return p.OffMax - time.Duration(clamp01(evaporation)*span)
}

// Next advances the burst cycle. Leaving the gate always clears the burst so
// that re-entry starts a fresh one.
func (p BurstPolicy) Next(prev ActivationState, in PolicyInput, now time.Time) ActivationState {
	if !p.Allowed(in.Factors) {
		if prev.PumpOn || prev.BurstActive {
			return ActivationState{EnteredAt: now}
		}
		return prev
	}

	if !prev.BurstActive {
		return ActivationState{PumpOn: true, BurstActive: true, EnteredAt: now}
	}

	elapsed := now.Sub(prev.EnteredAt)
	if prev.PumpOn {
		if elapsed >= p.OnDuration {
			return ActivationState{PumpOn: false, BurstActive: true, EnteredAt: now}
		}
		return prev
	}

	if elapsed >= p.OffDuration(in.Factors.Evaporation) {
		return ActivationState{PumpOn: true, BurstActive: true, EnteredAt: now}
	}
	return prev
}
