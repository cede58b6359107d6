// Package readings normalizes heterogeneous input into canonical, time-sorted
// reading sequences. Externally supplied batches are validated strictly: a
// record with a missing field or an unparseable timestamp fails the whole
// batch, there is no best-effort parsing.
package readings

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"glyco/defs"
)

// ErrValidation wraps every malformed-record failure.
var ErrValidation = errors.New("invalid reading record")

// Record is the wire schema for externally supplied batches.
type Record struct {
	GlucoseMgDl int    `json:"glucose_mg_dl"`
	Timestamp   string `json:"timestamp"`
}

// Timestamps arrive as ISO-8601, with or without an offset. A literal Z
// designator is handled by RFC 3339; naive stamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrValidation, s)
}

// Parse converts an external batch into canonical readings, in input order.
func Parse(records []Record) ([]defs.Reading, error) {
	rs := make([]defs.Reading, len(records))
	for i, rec := range records {
		if rec.GlucoseMgDl <= 0 {
			return nil, fmt.Errorf("%w: record %d missing glucose_mg_dl", ErrValidation, i)
		}
		if rec.Timestamp == "" {
			return nil, fmt.Errorf("%w: record %d missing timestamp", ErrValidation, i)
		}
		t, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rs[i] = defs.NewReading(t, rec.GlucoseMgDl)
	}
	return rs, nil
}

// SortAscending returns a copy sorted oldest first.
func SortAscending(rs []defs.Reading) []defs.Reading {
	out := make([]defs.Reading, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// SortDescending returns a copy sorted newest first.
func SortDescending(rs []defs.Reading) []defs.Reading {
	out := make([]defs.Reading, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out
}

// CapNewest keeps at most max readings, preferring the most recent, and
// returns them newest first.
func CapNewest(rs []defs.Reading, max int) []defs.Reading {
	out := SortDescending(rs)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Values projects the mg/dL series out of a reading sequence.
func Values(rs []defs.Reading) []int {
	vals := make([]int, len(rs))
	for i, r := range rs {
		vals[i] = r.MgDl
	}
	return vals
}
