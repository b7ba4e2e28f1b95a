package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel causes for window validation failures. Both are fatal for
// the event they occur in; the engine never clips or repairs windows.
var (
	ErrWindowInverted     = errors.New("window end precedes or equals start")
	ErrWindowNotContained = errors.New("hurricane window not contained in gale window")
)

// SignalWindow is the officially declared span of one warning signal.
// Both bounds are inclusive.
type SignalWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, bounds included.
func (w SignalWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns the inclusive span length.
func (w SignalWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// EventWindows holds the declared signal windows of one event. Gale may
// be absent; a hurricane window without an enclosing gale window is a
// configuration error.
type EventWindows struct {
	Gale      *SignalWindow `json:"gale,omitempty"`
	Hurricane *SignalWindow `json:"hurricane,omitempty"`
}

// Validate checks window ordering and containment. The hurricane window,
// when present, must satisfy gale.Start <= hurr.Start < hurr.End <= gale.End.
func (ws EventWindows) Validate() error {
	if err := checkOrdering("gale", ws.Gale); err != nil {
		return err
	}
	if err := checkOrdering("hurricane", ws.Hurricane); err != nil {
		return err
	}
	if ws.Hurricane != nil {
		if ws.Gale == nil {
			return fmt.Errorf("hurricane window declared without gale window: %w", ErrWindowNotContained)
		}
		if ws.Hurricane.Start.Before(ws.Gale.Start) || ws.Hurricane.End.After(ws.Gale.End) {
			return fmt.Errorf("hurricane [%s, %s] outside gale [%s, %s]: %w",
				ws.Hurricane.Start.Format(timeLayout), ws.Hurricane.End.Format(timeLayout),
				ws.Gale.Start.Format(timeLayout), ws.Gale.End.Format(timeLayout),
				ErrWindowNotContained)
		}
	}
	return nil
}

func checkOrdering(name string, w *SignalWindow) error {
	if w == nil {
		return nil
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("%s window [%s, %s]: %w",
			name, w.Start.Format(timeLayout), w.End.Format(timeLayout), ErrWindowInverted)
	}
	return nil
}

// AnnotateWindows returns a copy of series with window membership flags
// set from ws. It assumes ws has already passed Validate; the input
// series is not modified.
func AnnotateWindows(series []Interval, ws EventWindows) []Interval {
	out := make([]Interval, len(series))
	copy(out, series)
	for i := range out {
		out[i].InGaleWindow = ws.Gale != nil && ws.Gale.Contains(out[i].Timestamp)
		out[i].InHurricaneWindow = ws.Hurricane != nil && ws.Hurricane.Contains(out[i].Timestamp)
	}
	return out
}
