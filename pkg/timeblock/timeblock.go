// Package timeblock partitions a day into four fixed 6-hour clock windows
// and compares glycemic control across them.
package timeblock

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"glyco/defs"
	"glyco/pkg/stats"
)

// BlockNames is the fixed iteration order; best/worst ties resolve to the
// earlier block in this order.
var BlockNames = [4]string{"overnight", "morning", "afternoon", "evening"}

var blockRanges = map[string]string{
	"overnight": "00:00-06:00",
	"morning":   "06:00-12:00",
	"afternoon": "12:00-18:00",
	"evening":   "18:00-24:00",
}

// Block is one clock window. The percentage fields are nil for windows
// without data so that no_data blocks carry only their range, status and
// count on the wire.
type Block struct {
	TimeRange  string   `json:"time_range"`
	Status     string   `json:"status,omitempty"`
	Count      int      `json:"readings_count"`
	Mean       float64  `json:"average_mg_dl,omitempty"`
	Min        int      `json:"min_mg_dl,omitempty"`
	Max        int      `json:"max_mg_dl,omitempty"`
	InRange    *float64 `json:"time_in_range_percent,omitempty"`
	Below      *float64 `json:"time_below_percent,omitempty"`
	Above      *float64 `json:"time_above_percent,omitempty"`
	Assessment string   `json:"assessment,omitempty"`
}

type Report struct {
	Blocks  map[string]Block `json:"blocks"`
	Best    string           `json:"best_block,omitempty"`
	Worst   string           `json:"worst_block,omitempty"`
	Insight string           `json:"insight,omitempty"`
}

// blockFor assigns a reading by its local hour alone. No timezone
// normalization happens beyond what the timestamp already encodes, and
// multi-day spans merge same-hour readings.
func blockFor(hour int) string {
	switch {
	case hour < 6:
		return "overnight"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func assess(tir float64) string {
	switch {
	case tir >= 80:
		return "excellent"
	case tir >= 70:
		return "good"
	case tir >= 50:
		return "needs attention"
	default:
		return "problematic"
	}
}

// Analyze buckets the readings into the four blocks and reports per-block
// statistics plus a strict best/worst comparison on time in range. Empty
// blocks carry a no_data status and never win either slot.
func Analyze(rs []defs.Reading, t defs.Thresholds) Report {
	buckets := make(map[string][]int, 4)
	for _, r := range rs {
		name := blockFor(r.Time.Hour())
		buckets[name] = append(buckets[name], r.MgDl)
	}

	rep := Report{Blocks: make(map[string]Block, 4)}
	bestTIR, worstTIR := -1.0, 101.0

	for _, name := range BlockNames {
		values := buckets[name]
		if len(values) == 0 {
			rep.Blocks[name] = Block{
				TimeRange: blockRanges[name],
				Status:    defs.StatusNoData,
			}
			continue
		}

		fs := make([]float64, len(values))
		min, max := values[0], values[0]
		for i, v := range values {
			fs[i] = float64(v)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		avg, _ := mstats.Mean(fs)

		dist := stats.Ranges(values, t)
		if dist.InRange > bestTIR {
			bestTIR = dist.InRange
			rep.Best = name
		}
		if dist.InRange < worstTIR {
			worstTIR = dist.InRange
			rep.Worst = name
		}

		inRange, below, above := dist.InRange, dist.Below, dist.Above
		rep.Blocks[name] = Block{
			TimeRange:  blockRanges[name],
			Count:      len(values),
			Mean:       stats.Round1(avg),
			Min:        min,
			Max:        max,
			InRange:    &inRange,
			Below:      &below,
			Above:      &above,
			Assessment: assess(dist.InRange),
		}
	}

	if rep.Best != "" && rep.Worst != "" {
		rep.Insight = insight(rep.Best, bestTIR, rep.Worst, worstTIR)
	}
	return rep
}

func insight(best string, bestTIR float64, worst string, worstTIR float64) string {
	return fmt.Sprintf("Best control during %s (%.1f%% TIR), worst during %s (%.1f%% TIR)",
		best, bestTIR, worst, worstTIR)
}
