package web

import (
	"fmt"
	"math"

	"score-predictor/internal/common"
)

// Band is the qualitative range a score falls in
type Band string

const (
	BandFail    Band = "fail"
	BandAverage Band = "average"
	BandPass    Band = "pass"
)

// Band colors match the gauge steps: red, yellow, green
var bandColors = map[Band]string{
	BandFail:    "#ff6666",
	BandAverage: "#ffe066",
	BandPass:    "#66ff66",
}

// BandFor classifies a score. Values below the gauge minimum are fail and
// values above the maximum are pass.
func BandFor(v float64) Band {
	switch {
	case v >= common.BandPassFrom:
		return BandPass
	case v >= common.BandAverageFrom:
		return BandAverage
	default:
		return BandFail
	}
}

// Color returns the fill color of the band
func (b Band) Color() string {
	return bandColors[b]
}

// gauge geometry, in SVG user units
const (
	gaugeCX     = 100.0
	gaugeCY     = 100.0
	gaugeRadius = 80.0
	needleLen   = 70.0
)

// Segment is one colored arc of the gauge
type Segment struct {
	Band  Band
	Color string
	Path  string
}

// Gauge is the render model of a dial showing one prediction. Value is the
// raw model output; the needle position is clamped to the dial range.
type Gauge struct {
	ID       string
	Title    string
	Value    float64
	Band     Band
	NeedleX  float64
	NeedleY  float64
	Segments []Segment
}

// NewGauge builds the dial for a prediction
func NewGauge(id, title string, value float64) Gauge {
	x, y := needlePoint(value)
	return Gauge{
		ID:       id,
		Title:    title,
		Value:    value,
		Band:     BandFor(value),
		NeedleX:  x,
		NeedleY:  y,
		Segments: gaugeSegments(),
	}
}

// Display formats the raw value for the gauge label
func (g Gauge) Display() string {
	return fmt.Sprintf("%.2f", g.Value)
}

func gaugeSegments() []Segment {
	return []Segment{
		{Band: BandFail, Color: BandFail.Color(), Path: arcPath(common.GaugeMin, common.BandAverageFrom)},
		{Band: BandAverage, Color: BandAverage.Color(), Path: arcPath(common.BandAverageFrom, common.BandPassFrom)},
		{Band: BandPass, Color: BandPass.Color(), Path: arcPath(common.BandPassFrom, common.GaugeMax)},
	}
}

// clampGauge limits a value to the dial range for drawing only
func clampGauge(v float64) float64 {
	if math.IsNaN(v) {
		return common.GaugeMin
	}
	return math.Max(common.GaugeMin, math.Min(common.GaugeMax, v))
}

// angle maps a dial value to radians: minimum on the left, maximum on the right
func angle(v float64) float64 {
	frac := (clampGauge(v) - common.GaugeMin) / (common.GaugeMax - common.GaugeMin)
	return math.Pi * (1 - frac)
}

func pointAt(v, r float64) (float64, float64) {
	a := angle(v)
	return round2(gaugeCX + r*math.Cos(a)), round2(gaugeCY - r*math.Sin(a))
}

func needlePoint(v float64) (float64, float64) {
	return pointAt(v, needleLen)
}

func arcPath(from, to float64) string {
	x1, y1 := pointAt(from, gaugeRadius)
	x2, y2 := pointAt(to, gaugeRadius)
	return fmt.Sprintf("M %.2f %.2f A %.0f %.0f 0 0 1 %.2f %.2f", x1, y1, gaugeRadius, gaugeRadius, x2, y2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
