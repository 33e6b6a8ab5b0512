package attendance

import "time"

// Phase describes where the current time sits relative to a lecture's marking window.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseOpen     Phase = "open"
	PhaseClosed   Phase = "closed"
)

// Decision is the outcome of evaluating a lecture's marking window.
type Decision struct {
	CanMark bool  `json:"can_mark"`
	Phase   Phase `json:"phase"`
	// MinutesRemaining is minutes until the window opens when upcoming,
	// minutes until it closes when open, and zero when closed.
	MinutesRemaining int `json:"minutes_remaining"`
}

// Evaluate decides whether attendance may be marked right now for a lecture
// starting at start. The window runs from start to start+windowMinutes; the
// scheduled end time does not bound it. Pure: callers inject now.
func Evaluate(start, end, now ClockTime, windowMinutes int) Decision {
	windowEnd := start + ClockTime(time.Duration(windowMinutes)*time.Minute)

	switch {
	case now < start:
		until := int((time.Duration(start-now) + time.Minute - 1) / time.Minute)
		return Decision{Phase: PhaseUpcoming, MinutesRemaining: until}
	case now <= windowEnd:
		remaining := int(time.Duration(windowEnd-now) / time.Minute)
		return Decision{CanMark: true, Phase: PhaseOpen, MinutesRemaining: remaining}
	default:
		return Decision{Phase: PhaseClosed}
	}
}
