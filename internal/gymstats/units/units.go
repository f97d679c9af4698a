package units

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Unit is a user facing measurement unit. Weights are stored in pounds
// and distances in miles; everything else is a display conversion.
type Unit string

const (
	Pounds     Unit = "lb"
	Kilograms  Unit = "kg"
	Miles      Unit = "mi"
	Kilometers Unit = "km"
	Minutes    Unit = "min"
)

type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionWeight
	DimensionDistance
	DimensionTime
)

const (
	kilogramsPerPound = 0.45359237
	kilometersPerMile = 1.609344
)

func (u Unit) String() string {
	return string(u)
}

func (u Unit) Dimension() Dimension {
	switch u {
	case Pounds, Kilograms:
		return DimensionWeight
	case Miles, Kilometers:
		return DimensionDistance
	case Minutes:
		return DimensionTime
	default:
		return DimensionUnknown
	}
}

func (u Unit) IsValid() bool {
	return u.Dimension() != DimensionUnknown
}

// Parse accepts the short unit symbols and a few common spellings.
func Parse(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lb", "lbs", "pound", "pounds":
		return Pounds, true
	case "kg", "kgs", "kilogram", "kilograms":
		return Kilograms, true
	case "mi", "mile", "miles":
		return Miles, true
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return Kilometers, true
	case "min", "mins", "minute", "minutes":
		return Minutes, true
	default:
		return "", false
	}
}

// Convert converts value from one unit to another of the same dimension.
// Weights are rounded to the nearest 0.5 and distances to the nearest 0.01
// in the destination unit. Same-unit and cross-dimension conversions return
// the value untouched.
func Convert(value float64, from, to Unit) float64 {
	if from == to || from.Dimension() != to.Dimension() {
		return value
	}

	switch from.Dimension() {
	case DimensionWeight:
		if from == Pounds {
			return RoundWeight(value * kilogramsPerPound)
		}
		return RoundWeight(value / kilogramsPerPound)
	case DimensionDistance:
		if from == Miles {
			return RoundDistance(value * kilometersPerMile)
		}
		return RoundDistance(value / kilometersPerMile)
	default:
		return value
	}
}

// RoundWeight rounds to the nearest half unit.
func RoundWeight(v float64) float64 {
	return math.Round(v*2) / 2
}

// RoundDistance rounds to the nearest hundredth.
func RoundDistance(v float64) float64 {
	return math.Round(v*100) / 100
}

// Format renders value in the given unit without the unit symbol.
// Whole numbers never get a decimal part; fractional weights get one decimal,
// fractional distances two.
func Format(value float64, unit Unit) string {
	switch unit.Dimension() {
	case DimensionWeight:
		return formatTrimmed(RoundWeight(value), 1)
	case DimensionDistance:
		return formatTrimmed(RoundDistance(value), 2)
	default:
		return formatTrimmed(value, 1)
	}
}

// FormatWithUnit is Format followed by the unit symbol, e.g. "135.5 lb".
func FormatWithUnit(value float64, unit Unit) string {
	return Format(value, unit) + " " + unit.String()
}

func formatTrimmed(v float64, decimals int) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

var largeTiers = []struct {
	threshold float64
	word      string
}{
	{threshold: 1e12, word: "trillion"},
	{threshold: 1e9, word: "billion"},
	{threshold: 1e6, word: "million"},
}

// FormatLarge renders big totals for humans: values under a million are
// comma grouped, anything bigger is scaled to million/billion/trillion with
// 2, 1 or 0 decimals as the scaled number grows.
func FormatLarge(value float64) string {
	abs := math.Abs(value)
	for _, tier := range largeTiers {
		if abs < tier.threshold {
			continue
		}
		scaled := value / tier.threshold
		return strconv.FormatFloat(scaled, 'f', largeDecimals(math.Abs(scaled)), 64) + " " + tier.word
	}
	return humanize.Comma(int64(math.Round(value)))
}

func largeDecimals(scaled float64) int {
	switch {
	case scaled < 10:
		return 2
	case scaled < 100:
		return 1
	default:
		return 0
	}
}
