package domain

import (
	"fmt"
	"time"
)

// Tier grades how well the observed wind field supports the declared
// gale window.
type Tier string

const (
	TierVerified         Tier = "verified"
	TierPatternValidated Tier = "pattern_validated"
	TierUnverified       Tier = "unverified"
	TierNoSignal         Tier = "no_signal"
)

// TierResult is the classification outcome for one event. Persistence
// is present whenever a run scan happened; Pattern only when the
// pattern scan was reached.
type TierResult struct {
	Tier        Tier               `json:"tier"`
	Persistence *PersistenceResult `json:"persistence,omitempty"`
	Pattern     *PatternResult     `json:"pattern,omitempty"`
}

// EventReport is the full per-event output: the annotated interval
// series, the tier result, escalation transparency, and per-station
// statistics. LeadTimeMin is the signed gap in minutes from the
// official gale start to the first verified run, positive when the
// signal led the wind. Error is set instead of a tier when the event's
// configuration is unusable.
type EventReport struct {
	EventID     string                  `json:"event_id"`
	Name        string                  `json:"name,omitempty"`
	Year        int                     `json:"year,omitempty"`
	Windows     EventWindows            `json:"windows"`
	Series      []Interval              `json:"series,omitempty"`
	Result      TierResult              `json:"result"`
	Escalation  *EscalationTransparency `json:"escalation,omitempty"`
	Stations    []StationSummary        `json:"station_summary,omitempty"`
	LeadTimeMin *int                    `json:"lead_time_min,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Error       string                  `json:"error,omitempty"`
}

// ClassifyEvent runs the whole engine for one event: aggregation,
// window annotation, persistence, pattern, escalation, and tier
// assignment. Per-event thresholds are validated before use; any
// configuration error is recorded on the report rather than returned,
// so one bad event never aborts a batch.
func ClassifyEvent(ev Event, network []Station, th Thresholds) EventReport {
	rep := EventReport{
		EventID:     ev.ID,
		Name:        ev.Name,
		Year:        ev.Year,
		Windows:     ev.Windows,
		GeneratedAt: clock.Now().UTC(),
	}

	if ev.Thresholds != nil {
		th = *ev.Thresholds
	}
	if err := th.Validate(); err != nil {
		rep.Error = fmt.Sprintf("thresholds: %v", err)
		return rep
	}
	if err := ev.Windows.Validate(); err != nil {
		rep.Error = err.Error()
		return rep
	}

	series := AggregateReadings(ev.Readings, network, th)
	series = AnnotateWindows(series, ev.Windows)
	rep.Stations = SummarizeStations(ev.Readings)

	if ev.Windows.Gale == nil {
		rep.Series = series
		rep.Result = TierResult{Tier: TierNoSignal}
		return rep
	}

	annotated, persistence := DetectPersistence(series, th)
	rep.Series = annotated
	rep.Escalation = ReportEscalation(annotated, th)
	rep.Result = TierResult{Persistence: &persistence}

	switch {
	case persistence.Detected:
		rep.Result.Tier = TierVerified
		lead := int(persistence.FirstRun.Start.Sub(ev.Windows.Gale.Start) / time.Minute)
		rep.LeadTimeMin = &lead
	default:
		pattern := DetectPattern(annotated, th)
		rep.Result.Pattern = &pattern
		if pattern.Detected {
			rep.Result.Tier = TierPatternValidated
		} else {
			rep.Result.Tier = TierUnverified
		}
	}
	return rep
}

// BatchSummary aggregates one batch of event reports.
type BatchSummary struct {
	GeneratedAt    time.Time    `json:"generated_at"`
	TotalEvents    int          `json:"total_events"`
	TierCounts     map[Tier]int `json:"tier_counts"`
	Errors         int          `json:"errors"`
	AvgLeadTimeMin *float64     `json:"avg_lead_time_min,omitempty"`
}

// Summarize folds per-event reports into batch totals. The average lead
// time covers verified events only and is omitted when there are none.
func Summarize(reports []EventReport) BatchSummary {
	sum := BatchSummary{
		GeneratedAt: clock.Now().UTC(),
		TotalEvents: len(reports),
		TierCounts:  make(map[Tier]int),
	}
	var leadSum, leadN float64
	for i := range reports {
		rep := &reports[i]
		if rep.Error != "" {
			sum.Errors++
			continue
		}
		sum.TierCounts[rep.Result.Tier]++
		if rep.LeadTimeMin != nil {
			leadSum += float64(*rep.LeadTimeMin)
			leadN++
		}
	}
	if leadN > 0 {
		avg := leadSum / leadN
		sum.AvgLeadTimeMin = &avg
	}
	return sum
}
