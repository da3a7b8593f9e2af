package web

import (
	"fmt"

	"score-predictor/internal/common"
	"score-predictor/internal/features"
	"score-predictor/internal/ml"
)

// gauge titles per model
var modelTitles = map[string]string{
	common.ModelAdaBoost:      "AdaBoost",
	common.ModelGradientBoost: "Gradient Boost",
}

// PredictionView is one model output as returned by the API
type PredictionView struct {
	Model string  `json:"model"`
	Title string  `json:"title"`
	Value float64 `json:"value"`
	Band  Band    `json:"band"`
	// NeedleX and NeedleY position the gauge needle tip
	NeedleX float64 `json:"needle_x"`
	NeedleY float64 `json:"needle_y"`
}

// Result is the response to a prediction request
type Result struct {
	Input       features.Record  `json:"input"`
	Predictions []PredictionView `json:"predictions"`
	Low         float64          `json:"low"`
	High        float64          `json:"high"`
	Summary     string           `json:"summary"`
}

// Summary renders the sentence shown under the gauges
func Summary(p ml.Pair) string {
	return fmt.Sprintf("Based on your inputs, the predicted average score ranges between %.2f and %.2f.", p.Low(), p.High())
}

func newResult(r features.Record, p ml.Pair) Result {
	views := make([]PredictionView, 0, len(p))
	for _, pred := range p {
		x, y := needlePoint(pred.Value)
		views = append(views, PredictionView{
			Model:   pred.Model,
			Title:   titleFor(pred.Model),
			Value:   pred.Value,
			Band:    BandFor(pred.Value),
			NeedleX: x,
			NeedleY: y,
		})
	}

	return Result{
		Input:       r,
		Predictions: views,
		Low:         p.Low(),
		High:        p.High(),
		Summary:     Summary(p),
	}
}

// Gauges returns the render models of the result, in prediction order
func (r Result) Gauges() []Gauge {
	gauges := make([]Gauge, 0, len(r.Predictions))
	for _, p := range r.Predictions {
		gauges = append(gauges, NewGauge("gauge-"+p.Model, p.Title, p.Value))
	}
	return gauges
}

func titleFor(model string) string {
	if t, ok := modelTitles[model]; ok {
		return t
	}
	return model
}
