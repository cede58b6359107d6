package defs

import (
	"math"
	"time"
)

// MgDlPerMmol converts between the two common glucose units.
const MgDlPerMmol = 18.0

// Severity bounds are fixed clinical constants, independent of whatever
// low/high thresholds a caller supplies.
const (
	VeryLowBound  = 54
	VeryHighBound = 250
)

// Reading is a single canonical glucose sample. Sequences of readings are
// only meaningful once sorted by Time.
type Reading struct {
	Time       time.Time `json:"timestamp"`
	MgDl       int       `json:"glucose_mg_dl"`
	Mmol       float64   `json:"glucose_mmol_l"`
	Trend      string    `json:"trend,omitempty"`
	TrendArrow string    `json:"trend_arrow,omitempty"`
}

// NewReading derives the mmol/L value from mg/dL.
func NewReading(t time.Time, mgdl int) Reading {
	return Reading{
		Time: t,
		MgDl: mgdl,
		Mmol: MmolFromMgDl(mgdl),
	}
}

func MmolFromMgDl(mgdl int) float64 {
	return math.Round(float64(mgdl)/MgDlPerMmol*10) / 10
}

// Thresholds are caller-supplied per call and never mutated. Ordering
// (UrgentLow < Low < High < UrgentHigh) is assumed but deliberately not
// enforced; all comparisons follow the literal values.
type Thresholds struct {
	Low        int `json:"low"`
	High       int `json:"high"`
	UrgentLow  int `json:"urgent_low"`
	UrgentHigh int `json:"urgent_high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Low: 70, High: 180, UrgentLow: VeryLowBound, UrgentHigh: VeryHighBound}
}

const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
	StatusAlert  = "alert"
)

// ReportMeta tags every report as either populated or no_data. Data absence
// is a result, not an error.
type ReportMeta struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func NoData(msg string) ReportMeta {
	return ReportMeta{Status: StatusNoData, Message: msg}
}

func (m ReportMeta) IsNoData() bool {
	return m.Status == StatusNoData
}
