package mlmodels

import (
	"math"
)

// Prediction is the serving-layer output for one line evaluation.
type Prediction struct {
	Prediction      float64 `json:"prediction"`
	Confidence      float64 `json:"confidence"` // 0-100
	ValuePercentage float64 `json:"value_percentage"`
	Recommendation  string  `json:"recommendation"` // "over" or "under"
	ModelKey        string  `json:"model_key"`
}

// Evaluate runs the model against a feature vector and compares the
// output to the offered line. historyGames is the number of real games
// behind the features; zero means the default vector was used.
func Evaluate(m *Model, features []float64, line float64, historyGames int) (*Prediction, error) {
	value, err := m.Predict(features)
	if err != nil {
		return nil, err
	}

	rec := "under"
	if value > line {
		rec = "over"
	}

	valuePct := 0.0
	if line != 0 {
		valuePct = (value - line) / math.Abs(line) * 100
	}

	return &Prediction{
		Prediction:      value,
		Confidence:      blendConfidence(value, line, historyGames),
		ValuePercentage: valuePct,
		Recommendation:  rec,
		ModelKey:        registryKey(m.Sport, m.Stat),
	}, nil
}

// blendConfidence combines how much history backs the features with how
// far the prediction sits from the line. More games and a wider edge
// both raise confidence; the result is capped at 85 because no model
// here earns more than that.
func blendConfidence(value, line float64, historyGames int) float64 {
	history := float64(historyGames)
	if history > 20 {
		history = 20
	}
	historyScore := 50 + history*1.25 // 50 cold, 75 fully warmed

	divergence := 0.0
	if line != 0 {
		divergence = math.Abs(value-line) / math.Abs(line) * 40
	}
	if divergence > 15 {
		divergence = 15
	}

	conf := historyScore*0.7 + (50+divergence)*0.3
	if conf > 85 {
		conf = 85
	}
	if conf < 0 {
		conf = 0
	}
	return math.Round(conf*10) / 10
}
