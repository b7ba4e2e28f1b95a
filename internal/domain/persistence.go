package domain

import "time"

// Run is one maximal stretch of qualifying intervals.
type Run struct {
	Start     time.Time `json:"start"`
	Intervals int       `json:"intervals"`
}

// PersistenceResult records the outcome of the sustained-gale scan.
// FirstRun is the earliest run meeting the minimum length; QualifyingRuns
// counts every run that meets it.
type PersistenceResult struct {
	Detected       bool `json:"detected"`
	FirstRun       *Run `json:"first_run,omitempty"`
	QualifyingRuns int  `json:"qualifying_runs"`
}

// DetectPersistence scans the annotated series for sustained gale
// coverage. An interval qualifies when it lies in the gale window,
// outside the hurricane window, and its raw gale coverage count meets
// the station minimum. Runs are consecutive qualifying intervals;
// crossing into the hurricane window always breaks a run. The returned
// series is a copy with Qualifying and RunLength filled in; the input
// is not modified.
func DetectPersistence(series []Interval, th Thresholds) ([]Interval, PersistenceResult) {
	out := make([]Interval, len(series))
	copy(out, series)

	var res PersistenceResult
	runLen := 0
	runStart := time.Time{}
	endRun := func() {
		if runLen >= th.MinRunIntervals {
			res.QualifyingRuns++
			if res.FirstRun == nil {
				res.FirstRun = &Run{Start: runStart, Intervals: runLen}
			}
		}
		runLen = 0
	}

	for i := range out {
		iv := &out[i]
		iv.Qualifying = false
		iv.RunLength = 0
		if !iv.InGaleWindow || iv.InHurricaneWindow {
			endRun()
			continue
		}
		if iv.CountGale < th.MinStationCount {
			endRun()
			continue
		}
		if runLen == 0 {
			runStart = iv.Timestamp
		}
		runLen++
		iv.Qualifying = true
		iv.RunLength = runLen
	}
	endRun()

	res.Detected = res.QualifyingRuns > 0
	return out, res
}
