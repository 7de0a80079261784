package logic

// Calibration holds the fixed breakpoints used to normalize raw readings.
type Calibration struct {
	SoilWetRaw int     // raw soil reading of saturated soil
	SoilDryRaw int     // raw soil reading of dry soil
	TempLowC   float64 // temperature contributing no demand
	TempHighC  float64 // temperature contributing full demand
	ADCMax     int     // full-scale ADC reading
}

// DefaultCalibration returns breakpoints for a capacitive soil probe and an
// LDR on a 12-bit ADC.
func DefaultCalibration() Calibration {
	return Calibration{
		SoilWetRaw: 3000,
		SoilDryRaw: 4000,
		TempLowC:   20,
		TempHighC:  40,
		ADCMax:     4095,
	}
}

// Normalize maps a valid snapshot to demand factors in [0,1].
func Normalize(c Calibration, s SensorSnapshot) Factors {
	f := Factors{
		Soil:     clamp01(float64(s.SoilRaw-c.SoilWetRaw) / float64(c.SoilDryRaw-c.SoilWetRaw)),
		Temp:     clamp01((s.TemperatureC - c.TempLowC) / (c.TempHighC - c.TempLowC)),
		Humidity: clamp01(s.HumidityPct / 100),
		Light:    clamp01(float64(s.LightRaw) / float64(c.ADCMax)),
	}
	f.Evaporation = clamp01(f.Temp * (1 - f.Humidity))
	return f
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
