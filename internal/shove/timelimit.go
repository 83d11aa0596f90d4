package shove

import "time"

// TimeLimit is a wall clock deadline polled between recursive steps. A nil
// TimeLimit never expires.
type TimeLimit struct {
	deadline time.Time
}

// NewTimeLimit returns a limit expiring after d, or nil for d <= 0.
func NewTimeLimit(d time.Duration) *TimeLimit {
	if d <= 0 {
		return nil
	}
	return &TimeLimit{deadline: time.Now().Add(d)}
}

// Deadline returns a limit expiring at t.
func Deadline(t time.Time) *TimeLimit {
	return &TimeLimit{deadline: t}
}

// Exceeded reports whether the deadline has passed.
func (l *TimeLimit) Exceeded() bool {
	return l != nil && !time.Now().Before(l.deadline)
}
