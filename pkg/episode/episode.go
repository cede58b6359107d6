// Package episode segments a glucose series into excursion episodes and
// enriches them with recovery context.
package episode

import (
	"time"

	"glyco/defs"
	"glyco/pkg/readings"
	"glyco/pkg/stats"
)

type Kind string

const (
	KindLow      Kind = "low"
	KindVeryLow  Kind = "very_low"
	KindHigh     Kind = "high"
	KindVeryHigh Kind = "very_high"
)

func (k Kind) IsLow() bool {
	return k == KindLow || k == KindVeryLow
}

func (k Kind) Severe() bool {
	return k == KindVeryLow || k == KindVeryHigh
}

// classify applies the literal cascade: severity bounds win over the
// caller-supplied thresholds.
func classify(v int, t defs.Thresholds) (Kind, bool) {
	switch {
	case v < defs.VeryLowBound:
		return KindVeryLow, true
	case v < t.Low:
		return KindLow, true
	case v > defs.VeryHighBound:
		return KindVeryHigh, true
	case v > t.High:
		return KindHigh, true
	}
	return "", false
}

// Episode is a maximal run of consecutive same-direction out-of-range
// readings. StartIdx/EndIdx index into the ascending-sorted sequence the
// detector ran over.
type Episode struct {
	Kind            Kind      `json:"type"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	ExtremeValue    int       `json:"extreme_value"`
	MeanValue       float64   `json:"mean_value"`
	Ongoing         bool      `json:"ongoing"`

	StartIdx int   `json:"-"`
	EndIdx   int   `json:"-"`
	Values   []int `json:"-"`
}

// MinDurationMinutes floors single-point episodes at one native sample
// interval.
const MinDurationMinutes = 5

// Detect runs the segmentation state machine over the readings. The input
// is re-sorted ascending (stable), and the emitted indices refer to that
// ordering. Adjacent out-of-range points on the same side of range merge
// into one episode; the kind may escalate to its severe variant but never
// de-escalates and never changes direction.
func Detect(rs []defs.Reading, t defs.Thresholds) []Episode {
	sorted := readings.SortAscending(rs)

	var eps []Episode
	var cur *Episode

	flush := func() {
		if cur == nil {
			return
		}
		eps = append(eps, finalize(*cur))
		cur = nil
	}

	for i, r := range sorted {
		kind, out := classify(r.MgDl, t)
		if !out {
			flush()
			continue
		}

		if cur != nil && cur.Kind.IsLow() == kind.IsLow() {
			cur.End = r.Time
			cur.EndIdx = i
			cur.Values = append(cur.Values, r.MgDl)
			if kind.Severe() {
				cur.Kind = kind
			}
			continue
		}

		flush()
		cur = &Episode{
			Kind:     kind,
			Start:    r.Time,
			End:      r.Time,
			StartIdx: i,
			EndIdx:   i,
			Values:   []int{r.MgDl},
		}
	}

	if cur != nil {
		cur.Ongoing = true
		flush()
	}

	return eps
}

func finalize(ep Episode) Episode {
	mins := int(ep.End.Sub(ep.Start).Minutes())
	if mins < MinDurationMinutes {
		mins = MinDurationMinutes
	}
	ep.DurationMinutes = mins

	extreme := ep.Values[0]
	sum := 0
	for _, v := range ep.Values {
		if (ep.Kind.IsLow() && v < extreme) || (!ep.Kind.IsLow() && v > extreme) {
			extreme = v
		}
		sum += v
	}
	ep.ExtremeValue = extreme
	ep.MeanValue = stats.Round1(float64(sum) / float64(len(ep.Values)))

	return ep
}

// Summary aggregates a detection run.
type Summary struct {
	Total            int `json:"total_episodes"`
	LowEpisodes      int `json:"low_episodes"`
	HighEpisodes     int `json:"high_episodes"`
	TotalLowMinutes  int `json:"total_low_minutes"`
	TotalHighMinutes int `json:"total_high_minutes"`
	SevereLows       int `json:"severe_lows"`
	SevereHighs      int `json:"severe_highs"`
}

func Summarize(eps []Episode) Summary {
	var s Summary
	s.Total = len(eps)
	for _, ep := range eps {
		if ep.Kind.IsLow() {
			s.LowEpisodes++
			s.TotalLowMinutes += ep.DurationMinutes
			if ep.Kind.Severe() {
				s.SevereLows++
			}
		} else {
			s.HighEpisodes++
			s.TotalHighMinutes += ep.DurationMinutes
			if ep.Kind.Severe() {
				s.SevereHighs++
			}
		}
	}
	return s
}
