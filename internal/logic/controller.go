package logic

import (
	"fmt"
	"time"
)

// Controller is the per-loop decision context. It owns the activation state
// and must only be driven by one cycle at a time.
type Controller struct {
	calibration   Calibration
	model         DemandModel
	policy        Policy
	state         ActivationState
	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewController validates cfg and returns a controller in the IDLE state.
// The startTime is used for calculating uptime in heartbeat events.
func NewController(cfg Config, startTime time.Time) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	model, err := cfg.DemandModel()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.ActivationPolicy()
	if err != nil {
		return nil, err
	}
	return &Controller{
		calibration:   cfg.Calibration,
		model:         model,
		policy:        policy,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}, nil
}

// Cycle runs one sample through the pipeline. now is the single time
// reference for the whole cycle.
//
// An invalid snapshot bypasses normalization, scoring and the policy: the
// activation state is left as it was and the safe command is returned.
func (c *Controller) Cycle(snap SensorSnapshot, now time.Time) Decision {
	c.counts.Cycles++

	if !snap.Valid {
		c.counts.SensorFailures++
		return Decision{
			Time:     now,
			Snapshot: snap,
			State:    c.state,
			Phase:    PhaseFault,
			Command:  SafeCommand(),
			Fallback: true,
		}
	}

	factors := Normalize(c.calibration, snap)
	score := c.model.Score(factors)

	prev := c.state
	c.state = c.policy.Next(prev, PolicyInput{Score: score, Factors: factors}, now)

	d := Decision{
		Time:     now,
		Snapshot: snap,
		Factors:  factors,
		Score:    score,
		State:    c.state,
		Phase:    c.state.Phase(),
		Command:  CommandFor(c.state.PumpOn),
	}
	if !prev.PumpOn && c.state.PumpOn {
		d.Started = true
		c.counts.PumpStarts++
	}
	if prev.PumpOn && !c.state.PumpOn {
		d.Stopped = true
		c.counts.PumpStops++
	}
	return d
}

// State returns the current activation state.
func (c *Controller) State() ActivationState {
	return c.state
}

// Counts returns a copy of the cycle counters.
func (c *Controller) Counts() Counts {
	return c.counts
}

// ModelName returns the active demand model name.
func (c *Controller) ModelName() string {
	return c.model.Name()
}

// PolicyName returns the active activation policy name.
func (c *Controller) PolicyName() string {
	return c.policy.Name()
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
