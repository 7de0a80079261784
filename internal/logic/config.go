package logic

import (
	"errors"
	"fmt"
)

// Config selects and parameterizes the decision pipeline.
// It is fixed at start-up.
type Config struct {
	Calibration Calibration

	Model       string
	Additive    AdditiveModel
	Evaporation EvaporationModel

	Policy     string
	Hysteresis HysteresisPolicy
	Burst      BurstPolicy
}

// DefaultConfig returns the additive model with simple hysteresis.
func DefaultConfig() Config {
	return Config{
		Calibration: DefaultCalibration(),
		Model:       ModelAdditive,
		Additive:    DefaultAdditiveModel(),
		Evaporation: DefaultEvaporationModel(),
		Policy:      PolicyHysteresis,
		Hysteresis:  DefaultHysteresisPolicy(),
		Burst:       DefaultBurstPolicy(),
	}
}

// Validate checks calibration, weights, thresholds and durations.
func (c Config) Validate() error {
	cal := c.Calibration
	if cal.SoilDryRaw <= cal.SoilWetRaw {
		return fmt.Errorf("soil dry raw (%d) must be above soil wet raw (%d)", cal.SoilDryRaw, cal.SoilWetRaw)
	}
	if !(cal.TempHighC > cal.TempLowC) {
		return fmt.Errorf("temp high (%v) must be above temp low (%v)", cal.TempHighC, cal.TempLowC)
	}
	if cal.ADCMax <= 0 {
		return fmt.Errorf("adc max must be positive, got %d", cal.ADCMax)
	}

	model, err := c.DemandModel()
	if err != nil {
		return err
	}
	var weights []float64
	switch m := model.(type) {
	case AdditiveModel:
		weights = m.weights()
	case EvaporationModel:
		weights = m.weights()
	}
	for _, w := range weights {
		if !inUnit(w) {
			return fmt.Errorf("%s model: weight %v outside [0,1]", model.Name(), w)
		}
	}

	switch c.Policy {
	case PolicyHysteresis:
		h := c.Hysteresis
		if !inUnit(h.On) || !inUnit(h.Off) {
			return errors.New("hysteresis thresholds must lie in [0,1]")
		}
		if h.On <= h.Off {
			return fmt.Errorf("on threshold (%v) must be above off threshold (%v)", h.On, h.Off)
		}
		if h.MinOn < 0 {
			return fmt.Errorf("min on time must not be negative, got %v", h.MinOn)
		}
	case PolicyBurst:
		b := c.Burst
		if b.OnDuration <= 0 {
			return fmt.Errorf("burst on duration must be positive, got %v", b.OnDuration)
		}
		if b.OffMin <= 0 || b.OffMax < b.OffMin {
			return fmt.Errorf("burst off range invalid: min=%v max=%v", b.OffMin, b.OffMax)
		}
		if !inUnit(b.DryGate) || !inUnit(b.DayThreshold) {
			return fmt.Errorf("burst gate thresholds must lie in [0,1]: dry=%v day=%v", b.DryGate, b.DayThreshold)
		}
	default:
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	return nil
}

// inUnit reports whether v lies in [0,1]. NaN is outside.
func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// DemandModel returns the configured demand model.
func (c Config) DemandModel() (DemandModel, error) {
	switch c.Model {
	case ModelAdditive:
		return c.Additive, nil
	case ModelEvaporation:
		return c.Evaporation, nil
	}
	return nil, fmt.Errorf("unknown model %q", c.Model)
}

// ActivationPolicy returns the configured activation policy.
func (c Config) ActivationPolicy() (Policy, error) {
	switch c.Policy {
	case PolicyHysteresis:
		return c.Hysteresis, nil
	case PolicyBurst:
		return c.Burst, nil
	}
	return nil, fmt.Errorf("unknown policy %q", c.Policy)
}
