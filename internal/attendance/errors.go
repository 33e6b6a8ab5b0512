package attendance

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a referenced row does not exist or is inactive.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the caller has no active assignment for the course.
	ErrUnauthorized = errors.New("not an active teacher of this course")
	// ErrInvalidEntry is returned for a malformed batch entry.
	ErrInvalidEntry = errors.New("invalid attendance entry")
)

// NotEligibleError reports why marking is denied for a slot right now.
type NotEligibleError struct {
	Phase         Phase
	OpensAt       ClockTime
	WindowMinutes int
	WrongDay      bool
	ScheduledDay  time.Weekday
}

func (e *NotEligibleError) Error() string {
	if e.WrongDay {
		return fmt.Sprintf("this class is scheduled for %s; attendance can only be marked on the scheduled day", e.ScheduledDay)
	}
	switch e.Phase {
	case PhaseUpcoming:
		return fmt.Sprintf("attendance marking opens at %s", e.OpensAt)
	default:
		return fmt.Sprintf("attendance marking window has closed; marking is only allowed within the first %d minutes of the lecture", e.WindowMinutes)
	}
}
