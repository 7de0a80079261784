package logic

// Model names accepted in Config.Model.
const (
	ModelAdditive    = "additive"
	ModelEvaporation = "evaporation"
)

// DemandModel combines normalized factors into a water demand score in [0,1].
type DemandModel interface {
	Name() string
	Score(f Factors) float64
}

// AdditiveModel sums weighted factors; humidity reduces demand.
type AdditiveModel struct {
	Soil     float64
	Temp     float64
	Light    float64
	Humidity float64
}

// DefaultAdditiveModel returns the default additive weights.
func DefaultAdditiveModel() AdditiveModel {
	return AdditiveModel{Soil: 0.5, Temp: 0.2, Light: 0.2, Humidity: 0.3}
}

func (m AdditiveModel) Name() string { return ModelAdditive }

// Score returns the clamped additive demand.
func (m AdditiveModel) Score(f Factors) float64 {
	return clamp01(m.Soil*f.Soil + m.Temp*f.Temp + m.Light*f.Light - m.Humidity*f.Humidity)
}

func (m AdditiveModel) weights() []float64 {
	return []float64{m.Soil, m.Temp, m.Light, m.Humidity}
}

// EvaporationModel weights soil dryness against modeled evaporative demand.
type EvaporationModel struct {
	Soil        float64
	Evaporation float64
	Light       float64
}

// DefaultEvaporationModel returns the default evaporation weights.
func DefaultEvaporationModel() EvaporationModel {
	return EvaporationModel{Soil: 0.6, Evaporation: 0.3, Light: 0.1}
}

func (m EvaporationModel) Name() string { return ModelEvaporation }

// Score returns the clamped evaporation-weighted demand.
func (m EvaporationModel) Score(f Factors) float64 {
	return clamp01(m.Soil*f.Soil + m.Evaporation*f.Evaporation + m.Light*f.Light)
}

func (m EvaporationModel) weights() []float64 {
	return []float64{m.Soil, m.Evaporation, m.Light}
}
