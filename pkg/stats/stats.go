// Package stats computes aggregate glucose statistics over a value series.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"glyco/defs"
)

type Summary struct {
	Count    int     `json:"reading_count"`
	Mean     float64 `json:"mean_mg_dl"`
	MeanMmol float64 `json:"mean_mmol_l"`
	StdDev   float64 `json:"std_dev"`
	CV       float64 `json:"cv_percent"`
	Min      int     `json:"min_mg_dl"`
	Max      int     `json:"max_mg_dl"`
}

// Distribution holds the five-band split plus the overlapping totals.
// Bands use the literal comparison semantics: VeryLow and Low, High and
// VeryHigh are separated by subtraction, so inconsistent threshold orderings
// produce exactly what the comparisons say, including negative bands.
type Distribution struct {
	InRange  float64 `json:"time_in_range_percent"`
	Below    float64 `json:"time_below_percent"`
	Above    float64 `json:"time_above_percent"`
	VeryLow  float64 `json:"time_very_low_percent"`
	VeryHigh float64 `json:"time_very_high_percent"`
	Low      float64 `json:"time_low_percent"`
	High     float64 `json:"time_high_percent"`
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Compute summarizes a non-empty series. Sample standard deviation is
// defined as 0 for a single element; CV guards a zero mean.
func Compute(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}

	avg, _ := mstats.Mean(fs)
	sd := 0.0
	if len(fs) > 1 {
		sd, _ = mstats.StandardDeviationSample(fs)
	}
	cv := 0.0
	if avg > 0 {
		cv = sd / avg * 100
	}
	min, _ := mstats.Min(fs)
	max, _ := mstats.Max(fs)

	return Summary{
		Count:    len(values),
		Mean:     Round1(avg),
		MeanMmol: Round1(avg / defs.MgDlPerMmol),
		StdDev:   Round1(sd),
		CV:       Round1(cv),
		Min:      int(min),
		Max:      int(max),
	}
}

// Ranges computes the time-in-range percentages against the supplied
// thresholds, each count/total*100 rounded to one decimal. No normalization
// pass forces the bands to sum to exactly 100.
func Ranges(values []int, t defs.Thresholds) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	var in, below, above, veryLow, veryHigh int
	for _, v := range values {
		if v >= t.Low && v <= t.High {
			in++
		}
		if v < t.Low {
			below++
		}
		if v > t.High {
			above++
		}
		if v < t.UrgentLow {
			veryLow++
		}
		if v > t.UrgentHigh {
			veryHigh++
		}
	}

	total := float64(len(values))
	pct := func(n int) float64 { return Round1(float64(n) / total * 100) }

	return Distribution{
		InRange:  pct(in),
		Below:    pct(below),
		Above:    pct(above),
		VeryLow:  pct(veryLow),
		VeryHigh: pct(veryHigh),
		Low:      pct(below - veryLow),
		High:     pct(above - veryHigh),
	}
}
