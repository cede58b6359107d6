// Package agp generates Ambulatory Glucose Profile reports: percentile
// bands per hour of day plus whole-span metrics and clinical target
// comparisons.
package agp

import (
	"sort"

	mstats "github.com/montanaflynn/stats"

	"glyco/defs"
	"glyco/pkg/stats"
)

// Percentiles reported per hourly bin.
var percentileLevels = [5]int{5, 25, 50, 75, 95}

// HourProfile is one hourly bin. Percentiles are nil for hours without
// data. Binning is by local hour only, so multi-day spans merge same-hour
// readings across calendar days (the clinical AGP convention).
type HourProfile struct {
	Hour  int  `json:"hour"`
	P5    *int `json:"p5"`
	P25   *int `json:"p25"`
	P50   *int `json:"p50"`
	P75   *int `json:"p75"`
	P95   *int `json:"p95"`
	Count int  `json:"readings_count"`
}

type Metrics struct {
	Mean   float64 `json:"mean_mg_dl"`
	GMI    float64 `json:"gmi_percent"`
	CV     float64 `json:"cv_percent"`
	StdDev float64 `json:"std_dev"`
}

// TimeInRanges is the five-band split at the fixed 70/180/54/250
// boundaries; this report is not threshold-configurable.
type TimeInRanges struct {
	VeryLow  float64 `json:"very_low_below_54"`
	Low      float64 `json:"low_54_70"`
	Target   float64 `json:"target_70_180"`
	High     float64 `json:"high_180_250"`
	VeryHigh float64 `json:"very_high_above_250"`
}

type ClinicalTargets struct {
	TIRTarget string  `json:"tir_target"`
	TIRActual float64 `json:"tir_actual"`
	TBRTarget string  `json:"tbr_target"`
	TBRActual float64 `json:"tbr_actual"`
	CVTarget  string  `json:"cv_target"`
	CVActual  float64 `json:"cv_actual"`
}

type Report struct {
	Metrics       Metrics         `json:"glucose_metrics"`
	TimeInRanges  TimeInRanges    `json:"time_in_ranges"`
	Targets       ClinicalTargets `json:"clinical_targets"`
	HourlyProfile []HourProfile   `json:"hourly_profile"`
}

// percentile is the nearest-rank selection the profile is defined with:
// sort ascending, index floor(n*p/100) clamped to n-1.
func percentile(sorted []int, p int) int {
	idx := len(sorted) * p / 100
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Generate builds the AGP report for a non-empty reading sequence.
func Generate(rs []defs.Reading) Report {
	hourly := make([][]int, 24)
	for _, r := range rs {
		h := r.Time.Hour()
		hourly[h] = append(hourly[h], r.MgDl)
	}

	profile := make([]HourProfile, 24)
	for h := 0; h < 24; h++ {
		hp := HourProfile{Hour: h, Count: len(hourly[h])}
		if hp.Count > 0 {
			vals := append([]int(nil), hourly[h]...)
			sort.Ints(vals)
			ps := make([]*int, len(percentileLevels))
			for i, p := range percentileLevels {
				v := percentile(vals, p)
				ps[i] = &v
			}
			hp.P5, hp.P25, hp.P50, hp.P75, hp.P95 = ps[0], ps[1], ps[2], ps[3], ps[4]
		}
		profile[h] = hp
	}

	fs := make([]float64, len(rs))
	values := make([]int, len(rs))
	for i, r := range rs {
		fs[i] = float64(r.MgDl)
		values[i] = r.MgDl
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

	dist := stats.Ranges(values, defs.DefaultThresholds())

	return Report{
		Metrics: Metrics{
			Mean:   stats.Round1(avg),
			GMI:    stats.Round1(3.31 + 0.02392*avg),
			CV:     stats.Round1(cv),
			StdDev: stats.Round1(sd),
		},
		TimeInRanges: TimeInRanges{
			VeryLow:  dist.VeryLow,
			Low:      dist.Low,
			Target:   dist.InRange,
			High:     dist.High,
			VeryHigh: dist.VeryHigh,
		},
		Targets: ClinicalTargets{
			TIRTarget: ">70%",
			TIRActual: dist.InRange,
			TBRTarget: "<4%",
			TBRActual: dist.Below,
			CVTarget:  "<36%",
			CVActual:  stats.Round1(cv),
		},
		HourlyProfile: profile,
	}
}
