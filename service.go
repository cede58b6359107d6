package glyco

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"glyco/defs"
	"glyco/dexcom"
	"glyco/pkg/agp"
	"glyco/pkg/episode"
	"glyco/pkg/export"
	"glyco/pkg/readings"
	"glyco/pkg/stats"
	"glyco/pkg/timeblock"
)

// Service exposes each analysis operation as a plain callable over the
// acquisition source. All operations are pure over their input sequence;
// the only I/O is the collaborator fetch, and an externally supplied batch
// always takes precedence over it.
//
// Thresholds are the configured per-call defaults; a zero value falls back
// to the clinical defaults. Location, when set, decides the local hour used
// for time-of-day binning.
type Service struct {
	Source     dexcom.Source
	Logger     *zap.Logger
	Thresholds defs.Thresholds
	Location   *time.Location
}

// Params is the shared operation input shape. Zero fields take the
// per-operation defaults; minutes clamps to [1,1440] and max_count to
// [1,288] on the acquisition path.
type Params struct {
	Minutes    int               `json:"minutes"`
	MaxCount   int               `json:"max_count"`
	Low        int               `json:"low"`
	High       int               `json:"high"`
	UrgentLow  int               `json:"urgent_low"`
	UrgentHigh int               `json:"urgent_high"`
	Format     string            `json:"format"`
	Data       []readings.Record `json:"data"`
}

func (s *Service) baseThresholds() defs.Thresholds {
	if s.Thresholds != (defs.Thresholds{}) {
		return s.Thresholds
	}
	return defs.DefaultThresholds()
}

func (s *Service) thresholds(p Params) defs.Thresholds {
	t := s.baseThresholds()
	if p.Low > 0 {
		t.Low = p.Low
	}
	if p.High > 0 {
		t.High = p.High
	}
	if p.UrgentLow > 0 {
		t.UrgentLow = p.UrgentLow
	}
	if p.UrgentHigh > 0 {
		t.UrgentHigh = p.UrgentHigh
	}
	return t
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// acquire resolves the input sequence for an operation: parse the external
// batch when one is supplied, otherwise fetch from the source.
func (s *Service) acquire(ctx context.Context, minutes, maxCount int, data []readings.Record) ([]defs.Reading, error) {
	if len(data) > 0 {
		rs, err := readings.Parse(data)
		if err != nil {
			return nil, err
		}
		s.Logger.Debug("using externally supplied batch", zap.Int("count", len(rs)))
		return rs, nil
	}

	minutes = clamp(minutes, 1, defs.MinuteLimit)
	maxCount = clamp(maxCount, 1, defs.CountLimit)

	rs, err := s.Source.Readings(ctx, minutes, maxCount)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch readings: %w", err)
	}

	s.Logger.Debug("fetched readings",
		zap.Int("minutes", minutes),
		zap.Int("count", len(rs)),
	)
	return rs, nil
}

// localize shifts reading times into the configured timezone so that
// hour-of-day binning follows the patient's clock rather than the
// collaborator's.
func (s *Service) localize(rs []defs.Reading) []defs.Reading {
	if s.Location == nil {
		return rs
	}
	out := make([]defs.Reading, len(rs))
	for i, r := range rs {
		out[i] = r
		out[i].Time = r.Time.In(s.Location)
	}
	return out
}

// CurrentInfo is the wire shape of a single reading.
type CurrentInfo struct {
	GlucoseMgDl      int     `json:"glucose_mg_dl,omitempty"`
	GlucoseMmol      float64 `json:"glucose_mmol_l,omitempty"`
	Trend            string  `json:"trend,omitempty"`
	TrendArrow       string  `json:"trend_arrow,omitempty"`
	TrendDescription string  `json:"trend_description,omitempty"`
	Timestamp        string  `json:"timestamp,omitempty"`
}

func currentInfo(r defs.Reading) CurrentInfo {
	return CurrentInfo{
		GlucoseMgDl:      r.MgDl,
		GlucoseMmol:      r.Mmol,
		Trend:            r.Trend,
		TrendArrow:       r.TrendArrow,
		TrendDescription: dexcom.TrendDescription(r.Trend),
		Timestamp:        r.Time.Format(time.RFC3339),
	}
}

type CurrentReport struct {
	defs.ReportMeta
	CurrentInfo
}

// CurrentGlucose returns the most recent reading, no_data when nothing is
// available within the freshness window.
func (s *Service) CurrentGlucose(ctx context.Context) (*CurrentReport, error) {
	r, err := s.Source.CurrentReading(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &CurrentReport{
			ReportMeta: defs.NoData("No current glucose reading available (must be within 10 minutes)"),
		}, nil
	}
	return &CurrentReport{CurrentInfo: currentInfo(*r)}, nil
}

type ReadingsReport struct {
	defs.ReportMeta
	Count    int             `json:"count"`
	Readings []export.Record `json:"readings"`
}

// Readings returns recent readings newest first, capped at max_count.
func (s *Service) Readings(ctx context.Context, p Params) (*ReadingsReport, error) {
	if p.Minutes == 0 {
		p.Minutes = 60
	}
	if p.MaxCount == 0 {
		p.MaxCount = 12
	}

	rs, err := s.acquire(ctx, p.Minutes, p.MaxCount, p.Data)
	if err != nil {
		return nil, err
	}
	rs = readings.CapNewest(rs, p.MaxCount)

	if len(rs) == 0 {
		rep := &ReadingsReport{ReportMeta: defs.NoData("No readings found")}
		rep.Readings = []export.Record{}
		return rep, nil
	}

	return &ReadingsReport{Count: len(rs), Readings: export.Records(rs)}, nil
}

type StatisticsReport struct {
	defs.ReportMeta
	stats.Summary
	stats.Distribution
	Thresholds defs.Thresholds `json:"thresholds"`
}

// Statistics computes the aggregate statistics for a period.
func (s *Service) Statistics(ctx context.Context, p Params) (*StatisticsReport, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &StatisticsReport{ReportMeta: defs.NoData("No readings found")}, nil
	}

	t := s.thresholds(p)
	values := readings.Values(rs)
	return &StatisticsReport{
		Summary:      stats.Compute(values),
		Distribution: stats.Ranges(values, t),
		Thresholds:   t,
	}, nil
}

type PeriodStats struct {
	Average     float64 `json:"average_mg_dl"`
	AverageMmol float64 `json:"average_mmol_l"`
	Min         int     `json:"min_mg_dl"`
	Max         int     `json:"max_mg_dl"`
	Count       int     `json:"readings_count"`
	InRange     float64 `json:"time_in_range_percent"`
	Below       float64 `json:"time_below_percent"`
	Above       float64 `json:"time_above_percent"`
}

type AlertFlags struct {
	HasRecentLows  bool `json:"has_recent_lows"`
	HasRecentHighs bool `json:"has_recent_highs"`
	HasUrgentLow   bool `json:"has_urgent_low"`
	HasUrgentHigh  bool `json:"has_urgent_high"`
	LowCount       int  `json:"low_count"`
	HighCount      int  `json:"high_count"`
}

type SummaryText struct {
	Text         string `json:"text"`
	GlucoseLevel string `json:"glucose_level"`
	Urgency      string `json:"urgency"`
}

type StatusReport struct {
	defs.ReportMeta
	PeriodMinutes int          `json:"period_minutes,omitempty"`
	Current       *CurrentInfo `json:"current,omitempty"`
	PeriodStats   *PeriodStats `json:"period_stats,omitempty"`
	Alerts        *AlertFlags  `json:"alerts,omitempty"`
	Summary       *SummaryText `json:"summary,omitempty"`
}

// StatusSummary is the "how am I doing?" operation: current reading plus
// period context and a plain-English interpretation. Thresholds here are
// the configured defaults; there is no per-call override.
func (s *Service) StatusSummary(ctx context.Context, minutes int) (*StatusReport, error) {
	if minutes == 0 {
		minutes = 180
	}
	minutes = clamp(minutes, 1, defs.MinuteLimit)

	current, err := s.Source.CurrentReading(ctx)
	if err != nil {
		return nil, err
	}

	maxCount := clamp(minutes/5+1, 1, defs.CountLimit)
	rs, err := s.Source.Readings(ctx, minutes, maxCount)
	if err != nil {
		return nil, err
	}

	if current == nil && len(rs) == 0 {
		return &StatusReport{ReportMeta: defs.NoData("No glucose data available")}, nil
	}

	rep := &StatusReport{PeriodMinutes: minutes}
	t := s.baseThresholds()

	if current != nil {
		ci := currentInfo(*current)
		rep.Current = &ci
	}

	if len(rs) > 0 {
		values := readings.Values(rs)
		sum := stats.Compute(values)
		dist := stats.Ranges(values, t)
		rep.PeriodStats = &PeriodStats{
			Average:     sum.Mean,
			AverageMmol: sum.MeanMmol,
			Min:         sum.Min,
			Max:         sum.Max,
			Count:       sum.Count,
			InRange:     dist.InRange,
			Below:       dist.Below,
			Above:       dist.Above,
		}

		var lows, highs, urgentLows, urgentHighs int
		for _, v := range values {
			if v < t.Low {
				lows++
			}
			if v > t.High {
				highs++
			}
			if v < t.UrgentLow {
				urgentLows++
			}
			if v > t.UrgentHigh {
				urgentHighs++
			}
		}
		rep.Alerts = &AlertFlags{
			HasRecentLows:  lows > 0,
			HasRecentHighs: highs > 0,
			HasUrgentLow:   urgentLows > 0,
			HasUrgentHigh:  urgentHighs > 0,
			LowCount:       lows,
			HighCount:      highs,
		}
	}

	if current != nil {
		rep.Summary = summarize(*current, rep.PeriodStats, minutes)
	}

	return rep, nil
}

func summarize(current defs.Reading, ps *PeriodStats, minutes int) *SummaryText {
	glucose := current.MgDl

	var level, urgency string
	switch {
	case glucose < defs.VeryLowBound:
		level, urgency = "very low", "urgent"
	case glucose < 70:
		level, urgency = "low", "attention"
	case glucose <= 180:
		level, urgency = "in range", "normal"
	case glucose <= defs.VeryHighBound:
		level, urgency = "high", "attention"
	default:
		level, urgency = "very high", "urgent"
	}

	trendText := dexcom.TrendDescription(current.Trend)
	if trendText == "" {
		trendText = current.Trend
	}
	text := fmt.Sprintf("Currently %d mg/dL (%s), trending %s.", glucose, level, trendText)
	if ps != nil {
		text += fmt.Sprintf(" Over the last %.1fh: %s%% in range.",
			float64(minutes)/60, strconv.FormatFloat(ps.InRange, 'f', 1, 64))
	}

	return &SummaryText{Text: text, GlucoseLevel: level, Urgency: urgency}
}

type EpisodesReport struct {
	defs.ReportMeta
	ReadingsAnalyzed int               `json:"readings_analyzed,omitempty"`
	Episodes         []episode.Episode `json:"episodes"`
	Summary          *episode.Summary  `json:"summary,omitempty"`
}

// DetectEpisodes segments the period into excursion episodes.
func (s *Service) DetectEpisodes(ctx context.Context, p Params) (*EpisodesReport, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &EpisodesReport{ReportMeta: defs.NoData("No readings available"), Episodes: []episode.Episode{}}, nil
	}

	eps := episode.Detect(rs, s.thresholds(p))
	if eps == nil {
		eps = []episode.Episode{}
	}
	sum := episode.Summarize(eps)
	return &EpisodesReport{
		ReadingsAnalyzed: len(rs),
		Episodes:         eps,
		Summary:          &sum,
	}, nil
}

type EpisodeDetailsReport struct {
	defs.ReportMeta
	ReadingsAnalyzed int              `json:"readings_analyzed,omitempty"`
	EpisodesAnalyzed int              `json:"episodes_analyzed"`
	Episodes         []episode.Detail `json:"episodes"`
}

// EpisodeDetails adds lead-up, rate and recovery context per episode.
func (s *Service) EpisodeDetails(ctx context.Context, p Params) (*EpisodeDetailsReport, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &EpisodeDetailsReport{ReportMeta: defs.NoData("No readings available"), Episodes: []episode.Detail{}}, nil
	}

	details := episode.Analyze(rs, s.thresholds(p))
	if details == nil {
		details = []episode.Detail{}
	}
	return &EpisodeDetailsReport{
		ReadingsAnalyzed: len(rs),
		EpisodesAnalyzed: len(details),
		Episodes:         details,
	}, nil
}

type TimeBlocksReport struct {
	defs.ReportMeta
	ReadingsAnalyzed int `json:"readings_analyzed,omitempty"`
	timeblock.Report
}

// TimeBlocks breaks the period down by time of day.
func (s *Service) TimeBlocks(ctx context.Context, p Params) (*TimeBlocksReport, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &TimeBlocksReport{ReportMeta: defs.NoData("No readings available")}, nil
	}

	return &TimeBlocksReport{
		ReadingsAnalyzed: len(rs),
		Report:           timeblock.Analyze(s.localize(rs), s.thresholds(p)),
	}, nil
}

type Alert struct {
	Level   string `json:"level"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AlertsReport struct {
	defs.ReportMeta
	CurrentGlucose int     `json:"current_glucose,omitempty"`
	Trend          string  `json:"trend,omitempty"`
	TrendArrow     string  `json:"trend_arrow,omitempty"`
	Timestamp      string  `json:"timestamp,omitempty"`
	HasAlerts      bool    `json:"has_alerts"`
	AlertCount     int     `json:"alert_count"`
	Alerts         []Alert `json:"alerts"`
}

// CheckAlerts evaluates the current reading against the thresholds plus
// trend-velocity conditions. It only computes whether an alert condition
// holds; delivery is someone else's concern.
func (s *Service) CheckAlerts(ctx context.Context, p Params) (*AlertsReport, error) {
	r, err := s.Source.CurrentReading(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &AlertsReport{
			ReportMeta: defs.NoData("No current reading available"),
			Alerts:     []Alert{},
		}, nil
	}

	t := s.thresholds(p)
	value := r.MgDl
	alerts := []Alert{}

	switch {
	case value < t.UrgentLow:
		alerts = append(alerts, Alert{Level: "urgent", Type: "very_low", Message: fmt.Sprintf("Urgent low: %d mg/dL", value)})
	case value < t.Low:
		alerts = append(alerts, Alert{Level: "warning", Type: "low", Message: fmt.Sprintf("Low: %d mg/dL", value)})
	case value > t.UrgentHigh:
		alerts = append(alerts, Alert{Level: "urgent", Type: "very_high", Message: fmt.Sprintf("Urgent high: %d mg/dL", value)})
	case value > t.High:
		alerts = append(alerts, Alert{Level: "warning", Type: "high", Message: fmt.Sprintf("High: %d mg/dL", value)})
	}

	if dexcom.FallingFast(r.Trend) && value < 100 {
		alerts = append(alerts, Alert{Level: "warning", Type: "falling_fast", Message: fmt.Sprintf("Falling fast at %d mg/dL", value)})
	} else if dexcom.RisingFast(r.Trend) && value > 150 {
		alerts = append(alerts, Alert{Level: "warning", Type: "rising_fast", Message: fmt.Sprintf("Rising fast at %d mg/dL", value)})
	}

	status := defs.StatusOK
	if len(alerts) > 0 {
		status = defs.StatusAlert
	}

	return &AlertsReport{
		ReportMeta:     defs.ReportMeta{Status: status},
		CurrentGlucose: value,
		Trend:          r.Trend,
		TrendArrow:     r.TrendArrow,
		Timestamp:      r.Time.Format(time.RFC3339),
		HasAlerts:      len(alerts) > 0,
		AlertCount:     len(alerts),
		Alerts:         alerts,
	}, nil
}

type ExportReport struct {
	defs.ReportMeta
	ExportTimestamp string          `json:"export_timestamp,omitempty"`
	Count           int             `json:"readings_count"`
	PeriodMinutes   int             `json:"period_minutes,omitempty"`
	OldestReading   string          `json:"oldest_reading,omitempty"`
	NewestReading   string          `json:"newest_reading,omitempty"`
	Format          string          `json:"format,omitempty"`
	Readings        []export.Record `json:"readings,omitempty"`
	CSV             string          `json:"csv,omitempty"`
}

// Export renders the period's readings in the flat persistence schema,
// with an optional CSV rendering alongside the structured form.
func (s *Service) Export(ctx context.Context, p Params) (*ExportReport, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}
	if p.Format == "" {
		p.Format = export.FormatJSON
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &ExportReport{ReportMeta: defs.NoData("No readings to export")}, nil
	}

	records := export.Records(readings.SortDescending(rs))

	rep := &ExportReport{
		ExportTimestamp: time.Now().Format(time.RFC3339),
		Count:           len(records),
		OldestReading:   records[len(records)-1].Timestamp,
		NewestReading:   records[0].Timestamp,
		Format:          p.Format,
		Readings:        records,
	}
	if len(p.Data) == 0 {
		rep.PeriodMinutes = clamp(p.Minutes, 1, defs.MinuteLimit)
	}
	if p.Format == export.FormatCSV {
		rep.CSV = export.CSV(records)
	}
	return rep, nil
}

type AGPReportResult struct {
	defs.ReportMeta
	ReportType       string `json:"report_type,omitempty"`
	PeriodMinutes    int    `json:"period_minutes,omitempty"`
	ReadingsAnalyzed int    `json:"readings_analyzed,omitempty"`
	agp.Report
}

// AGPReport builds the percentile-by-hour clinical profile.
func (s *Service) AGPReport(ctx context.Context, p Params) (*AGPReportResult, error) {
	if p.Minutes == 0 {
		p.Minutes = defs.MinuteLimit
	}

	rs, err := s.acquire(ctx, p.Minutes, defs.CountLimit, p.Data)
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return &AGPReportResult{ReportMeta: defs.NoData("No readings available")}, nil
	}

	return &AGPReportResult{
		ReportType:       "ambulatory_glucose_profile",
		PeriodMinutes:    clamp(p.Minutes, 1, defs.MinuteLimit),
		ReadingsAnalyzed: len(rs),
		Report:           agp.Generate(s.localize(rs)),
	}, nil
}
