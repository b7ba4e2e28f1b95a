package domain

import "time"

// patternState tracks progress through the meet/lull/re-meet shape.
type patternState int

const (
	stateSearching patternState = iota
	stateFirstMeet
	stateLull
	stateSecondMeet
)

// Segment is a contiguous stretch of the restricted series, bounds
// inclusive.
type Segment struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Intervals int       `json:"intervals"`
}

func (s *Segment) extend(ts time.Time) {
	if s.Intervals == 0 {
		s.Start = ts
	}
	s.End = ts
	s.Intervals++
}

// PatternResult records the outcome of the eyewall-pattern scan. When
// Detected, the three segments describe the earliest complete
// meet/lull/re-meet found.
type PatternResult struct {
	Detected   bool     `json:"detected"`
	FirstMeet  *Segment `json:"first_meet,omitempty"`
	Lull       *Segment `json:"lull,omitempty"`
	SecondMeet *Segment `json:"second_meet,omitempty"`
}

// DetectPattern scans the gale-window intervals outside the hurricane
// window for a meet, a lull of at least the minimum length, and a
// re-meet. A meet is an interval whose gale coverage reaches the
// station minimum. A lull shorter than the minimum restarts the search
// with the re-meeting interval opening a fresh first meet; once a
// second meet has begun, the first subsequent failure ends the scan
// with the pattern detected.
func DetectPattern(series []Interval, th Thresholds) PatternResult {
	state := stateSearching
	var first, lull, second Segment

	for i := range series {
		iv := &series[i]
		if !iv.InGaleWindow || iv.InHurricaneWindow {
			continue
		}
		meets := iv.CountGale >= th.MinStationCount

		switch state {
		case stateSearching:
			if meets {
				first.extend(iv.Timestamp)
				state = stateFirstMeet
			}
		case stateFirstMeet:
			if meets {
				first.extend(iv.Timestamp)
			} else {
				lull.extend(iv.Timestamp)
				state = stateLull
			}
		case stateLull:
			if !meets {
				lull.extend(iv.Timestamp)
				break
			}
			if lull.Intervals >= th.MinLullIntervals {
				second.extend(iv.Timestamp)
				state = stateSecondMeet
			} else {
				// Lull too short: the streak is broken, so the old
				// first meet cannot be reopened. This interval opens
				// a fresh one.
				first = Segment{}
				lull = Segment{}
				first.extend(iv.Timestamp)
				state = stateFirstMeet
			}
		case stateSecondMeet:
			if meets {
				second.extend(iv.Timestamp)
			} else {
				return patternFound(first, lull, second)
			}
		}
	}

	if state == stateSecondMeet {
		return patternFound(first, lull, second)
	}
	return PatternResult{}
}

func patternFound(first, lull, second Segment) PatternResult {
	return PatternResult{
		Detected:   true,
		FirstMeet:  &first,
		Lull:       &lull,
		SecondMeet: &second,
	}
}
