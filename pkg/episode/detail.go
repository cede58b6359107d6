package episode

import (
	"time"

	"glyco/defs"
	"glyco/pkg/readings"
	"glyco/pkg/stats"
)

// ContextWindow is how many readings of lead-up and recovery context are
// examined around an episode, about 30 minutes at the native cadence.
const ContextWindow = 6

type Overcorrection struct {
	Type  string `json:"type"` // rebound_high or overcorrect_low
	Value int    `json:"value"`
}

// Detail enriches an episode with extremum location, approach and recovery
// rates, lead-up context and overcorrection detection. Rates are mg/dL per
// 5-minute interval; nil means undefined (extremum at an endpoint, or no
// qualifying reading).
type Detail struct {
	Kind            Kind            `json:"type"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	DurationMinutes int             `json:"duration_minutes"`
	ExtremeValue    int             `json:"extreme_value"`
	ExtremeTime     time.Time       `json:"extreme_time"`
	RateToExtreme   *float64        `json:"rate_to_extreme_per_5min"`
	RateFromExtreme *float64        `json:"rate_from_extreme_per_5min"`
	RecoveryMinutes *int            `json:"recovery_minutes"`
	RecoveryRate    *float64        `json:"recovery_rate_per_5min"`
	Overcorrection  *Overcorrection `json:"overcorrection"`
	LeadupValues    []int           `json:"leadup_values"`
}

// Analyze detects episodes and computes the per-episode context. The
// lead-up and recovery windows reach outside the episode bounds, which is
// why the full sequence is consumed here rather than the episode values
// alone.
func Analyze(rs []defs.Reading, t defs.Thresholds) []Detail {
	sorted := readings.SortAscending(rs)
	eps := Detect(sorted, t)

	details := make([]Detail, 0, len(eps))
	for _, ep := range eps {
		details = append(details, analyzeOne(sorted, ep, t))
	}
	return details
}

func analyzeOne(sorted []defs.Reading, ep Episode, t defs.Thresholds) Detail {
	d := Detail{
		Kind:            ep.Kind,
		Start:           ep.Start,
		End:             ep.End,
		DurationMinutes: ep.DurationMinutes,
		ExtremeValue:    ep.ExtremeValue,
	}

	// First occurrence of the extremum within the episode.
	extremeIdx := 0
	for i, v := range ep.Values {
		if v == ep.ExtremeValue {
			extremeIdx = i
			break
		}
	}
	d.ExtremeTime = sorted[ep.StartIdx+extremeIdx].Time

	if extremeIdx > 0 {
		mins := d.ExtremeTime.Sub(ep.Start).Minutes()
		if mins > 0 {
			d.RateToExtreme = ratePer5(float64(ep.ExtremeValue-ep.Values[0]), mins)
		}
	}
	if extremeIdx < len(ep.Values)-1 {
		mins := ep.End.Sub(d.ExtremeTime).Minutes()
		if mins > 0 {
			d.RateFromExtreme = ratePer5(float64(ep.Values[len(ep.Values)-1]-ep.ExtremeValue), mins)
		}
	}

	leadupStart := ep.StartIdx - ContextWindow
	if leadupStart < 0 {
		leadupStart = 0
	}
	d.LeadupValues = readings.Values(sorted[leadupStart:ep.StartIdx])

	recoveryEnd := ep.EndIdx + 1 + ContextWindow
	if recoveryEnd > len(sorted) {
		recoveryEnd = len(sorted)
	}
	recovery := sorted[ep.EndIdx+1 : recoveryEnd]
	if len(recovery) == 0 {
		return d
	}

	for _, r := range recovery {
		if r.MgDl >= t.Low && r.MgDl <= t.High {
			mins := int(r.Time.Sub(ep.End).Minutes())
			d.RecoveryMinutes = &mins
			break
		}
	}

	last := recovery[len(recovery)-1]
	if mins := last.Time.Sub(ep.End).Minutes(); mins > 0 {
		lastEpisodeValue := ep.Values[len(ep.Values)-1]
		d.RecoveryRate = ratePer5(float64(last.MgDl-lastEpisodeValue), mins)
	}

	recoveryValues := readings.Values(recovery)
	min, max := recoveryValues[0], recoveryValues[0]
	for _, v := range recoveryValues {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if ep.Kind.IsLow() && max > t.High {
		d.Overcorrection = &Overcorrection{Type: "rebound_high", Value: max}
	} else if !ep.Kind.IsLow() && min < t.Low {
		d.Overcorrection = &Overcorrection{Type: "overcorrect_low", Value: min}
	}

	return d
}

func ratePer5(delta, minutes float64) *float64 {
	r := stats.Round1(delta / minutes * 5)
	return &r
}
