// Package trend derives direction, daily statistics and change rates from
// station time series ordered most recent first.
package trend

import (
	"math"
	"time"
)

// Point is one observation. A NaN value marks a missing reading.
type Point struct {
	ObservedAt time.Time `json:"observed_at"`
	Value      float64   `json:"value"`
}

func (p Point) finite() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// Direction of change between two readings.
type Direction string

const (
	Rising           Direction = "rising"
	Falling          Direction = "falling"
	Stable           Direction = "stable"
	InsufficientData Direction = "insufficient_data"
)

// Threshold is the minimum absolute change counted as movement.
const Threshold = 0.1

// Trend compares the latest reading with the one before it.
type Trend struct {
	Direction Direction `json:"direction"`
	Change    *float64  `json:"change,omitempty"`
	Current   *float64  `json:"current,omitempty"`
	Previous  *float64  `json:"previous,omitempty"`
}

// AnalyzeTrend compares index 0 with index 1. Both must be finite.
func AnalyzeTrend(points []Point) Trend {
	if len(points) < 2 || !points[0].finite() || !points[1].finite() {
		return Trend{Direction: InsufficientData}
	}
	return compare(points[0].Value, points[1].Value)
}

func compare(current, previous float64) Trend {
	change := round2(current - previous)
	out := Trend{Change: &change, Current: &current, Previous: &previous}
	switch {
	case change >= Threshold:
		out.Direction = Rising
	case change <= -Threshold:
		out.Direction = Falling
	default:
		out.Direction = Stable
	}
	return out
}

// Summary holds statistics over every finite reading of a series.
type Summary struct {
	Current *float64  `json:"current,omitempty"`
	Min     *float64  `json:"min,omitempty"`
	Max     *float64  `json:"max,omitempty"`
	Average *float64  `json:"average,omitempty"`
	MinAt   time.Time `json:"min_at,omitempty"`
	MaxAt   time.Time `json:"max_at,omitempty"`
	Count   int       `json:"count"`
}

// DailySummary returns current, min, max and mean plus when the extremes occurred.
// Current is index 0 and stays nil if that reading is missing.
func DailySummary(points []Point) Summary {
	var out Summary
	if len(points) > 0 && points[0].finite() {
		current := points[0].Value
		out.Current = &current
	}
	var sum float64
	for _, p := range points {
		if !p.finite() {
			continue
		}
		v := p.Value
		if out.Min == nil || v < *out.Min {
			out.Min = &v
			out.MinAt = p.ObservedAt
		}
		if out.Max == nil || v > *out.Max {
			out.Max = &v
			out.MaxAt = p.ObservedAt
		}
		sum += v
		out.Count++
	}
	if out.Count > 0 {
		avg := round2(sum / float64(out.Count))
		out.Average = &avg
	}
	return out
}

// Changes holds deltas between the latest reading and earlier ones. Field
// names assume an hourly series.
type Changes struct {
	OneHour  *float64 `json:"1h,omitempty"`
	SixHours *float64 `json:"6h,omitempty"`
	DayAgo   *float64 `json:"24h,omitempty"`
}

// ChangeRates returns the delta from index 0 to indices 1, 6 and 23. Each is
// nil when the index is out of range or either reading is missing.
func ChangeRates(points []Point) Changes {
	return Changes{
		OneHour:  deltaAt(points, 1),
		SixHours: deltaAt(points, 6),
		DayAgo:   deltaAt(points, 23),
	}
}

func deltaAt(points []Point, idx int) *float64 {
	if len(points) <= idx || !points[0].finite() || !points[idx].finite() {
		return nil
	}
	d := round2(points[0].Value - points[idx].Value)
	return &d
}

// Horizon is a trend over a prefix of one cadence's series.
type Horizon struct {
	Name    string  `json:"name"`
	Cadence Cadence `json:"cadence"`
	Samples int     `json:"samples"`
	Trend   Trend   `json:"trend"`
}

type horizonSpec struct {
	name    string
	cadence Cadence
	samples int
}

var horizonSpecs = []horizonSpec{
	{name: "short", cadence: TenMinute, samples: 6},
	{name: "medium", cadence: Hourly, samples: 24},
	{name: "long", cadence: Daily, samples: 720},
}

// MultiHorizon compares the first and last finite readings within each
// horizon's prefix: 6 ten-minute, 24 hourly and 720 daily samples.
func MultiHorizon(series map[Cadence][]Point) []Horizon {
	out := make([]Horizon, 0, len(horizonSpecs))
	for _, spec := range horizonSpecs {
		prefix := series[spec.cadence]
		if len(prefix) > spec.samples {
			prefix = prefix[:spec.samples]
		}
		out = append(out, Horizon{
			Name:    spec.name,
			Cadence: spec.cadence,
			Samples: len(prefix),
			Trend:   AnalyzeTrend(endpoints(prefix)),
		})
	}
	return out
}

// endpoints reduces a prefix to [first, last finite] so AnalyzeTrend spans it.
func endpoints(prefix []Point) []Point {
	if len(prefix) < 2 {
		return prefix
	}
	for i := len(prefix) - 1; i > 0; i-- {
		if prefix[i].finite() {
			return []Point{prefix[0], prefix[i]}
		}
	}
	return prefix[:1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
