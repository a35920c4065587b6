package forecast

import "math"

// conditionBand is one row of the condition table. A temperature t matches
// the band when low < t <= high, in Fahrenheit.
type conditionBand struct {
	low   float64
	high  float64
	label string
}

// conditionBands covers the full real line in ascending order, so the
// first match wins and a boundary value maps to the lower band.
var conditionBands = []conditionBand{
	{math.Inf(-1), 32, "freezing"},
	{32, 50, "cold"},
	{50, 65, "cool"},
	{65, 75, "mild"},
	{75, 85, "warm"},
	{85, 95, "hot"},
	{95, math.Inf(1), "very_hot"},
}

// DefaultCondition is the label used when a temperature is NaN or
// otherwise fails to match a band.
const DefaultCondition = "mild"

// ConditionForTemp maps a day's predicted average temperature to its
// weather condition label.
func ConditionForTemp(t float64) string {
	for _, band := range conditionBands {
		if t > band.low && t <= band.high {
			return band.label
		}
	}
	return DefaultCondition
}
