package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawJob represents an unprocessed message from the audit-jobs topic.
type RawJob struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// rawJobPayload is the wire shape of an audit job. Timestamps are naive
// local strings, "2006-01-02 15:04" with optional seconds.
type rawJobPayload struct {
	EventID  string `json:"event_id"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	Readings []struct {
		Station   string   `json:"station"`
		Timestamp string   `json:"timestamp"`
		MeanKmh   *float64 `json:"mean_kmh"`
		GustKmh   *float64 `json:"gust_kmh"`
	} `json:"readings"`
	Windows struct {
		Gale      *rawWindow `json:"gale"`
		Hurricane *rawWindow `json:"hurricane"`
	} `json:"windows"`
	Thresholds *Thresholds `json:"thresholds"`
}

type rawWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseRawJob deserializes a RawJob's value into an Event. Readings
// with an unparseable timestamp are dropped, mirroring how readings
// without a speed are dropped later; a malformed window timestamp or a
// missing event id is fatal for the job.
func ParseRawJob(raw RawJob) (Event, error) {
	var payload rawJobPayload
	if err := json.Unmarshal(raw.Value, &payload); err != nil {
		return Event{}, fmt.Errorf("parse audit job: %w", err)
	}
	if strings.TrimSpace(payload.EventID) == "" {
		return Event{}, fmt.Errorf("parse audit job: missing event_id")
	}

	ev := Event{
		ID:         payload.EventID,
		Name:       payload.Name,
		Year:       payload.Year,
		Thresholds: payload.Thresholds,
	}
	for _, r := range payload.Readings {
		ts, err := ParseLocalTime(r.Timestamp)
		if err != nil {
			continue
		}
		ev.Readings = append(ev.Readings, StationReading{
			Station:   r.Station,
			Timestamp: ts,
			MeanKmh:   r.MeanKmh,
			GustKmh:   r.GustKmh,
		})
	}

	var err error
	if ev.Windows.Gale, err = parseWindow("gale", payload.Windows.Gale); err != nil {
		return Event{}, err
	}
	if ev.Windows.Hurricane, err = parseWindow("hurricane", payload.Windows.Hurricane); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func parseWindow(name string, w *rawWindow) (*SignalWindow, error) {
	if w == nil {
		return nil, nil
	}
	start, err := ParseLocalTime(w.Start)
	if err != nil {
		return nil, fmt.Errorf("%s window start: %w", name, err)
	}
	end, err := ParseLocalTime(w.End)
	if err != nil {
		return nil, fmt.Errorf("%s window end: %w", name, err)
	}
	return &SignalWindow{Start: start, End: end}, nil
}

// ParseLocalTime parses a naive local timestamp, with or without a
// seconds component.
func ParseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(timeLayout+":05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: want %q", s, timeLayout)
	}
	return t, nil
}
