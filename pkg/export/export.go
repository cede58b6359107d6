// Package export renders reading sequences into the flat schema used for
// persistence-layer handoff.
package export

import (
	"fmt"
	"strings"
	"time"

	"glyco/defs"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Record is the stable export schema, newest first.
type Record struct {
	GlucoseMgDl int     `json:"glucose_mg_dl"`
	GlucoseMmol float64 `json:"glucose_mmol_l"`
	Trend       string  `json:"trend,omitempty"`
	TrendArrow  string  `json:"trend_arrow,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

func Records(rs []defs.Reading) []Record {
	records := make([]Record, len(rs))
	for i, r := range rs {
		records[i] = Record{
			GlucoseMgDl: r.MgDl,
			GlucoseMmol: r.Mmol,
			Trend:       r.Trend,
			TrendArrow:  r.TrendArrow,
			Timestamp:   r.Time.Format(time.RFC3339),
		}
	}
	return records
}

var csvHeader = []string{"timestamp", "glucose_mg_dl", "glucose_mmol_l", "trend", "trend_arrow"}

// CSV renders records as fixed-order comma-joined rows. The wire format is
// a plain join, no quoting.
func CSV(records []Record) string {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, r := range records {
		rows = append(rows, fmt.Sprintf("%s,%d,%g,%s,%s",
			r.Timestamp, r.GlucoseMgDl, r.GlucoseMmol, r.Trend, r.TrendArrow))
	}
	return strings.Join(rows, "\n")
}
