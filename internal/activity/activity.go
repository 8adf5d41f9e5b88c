package activity

import "time"

// Kind classifies the action behind an activity record.
type Kind string

const (
	KindMeal    Kind = "meal"
	KindFast    Kind = "fast"
	KindWorkout Kind = "workout"
	KindJournal Kind = "journal"
	KindScan    Kind = "scan"
)

// Valid reports whether k is a known activity kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMeal, KindFast, KindWorkout, KindJournal, KindScan:
		return true
	}
	return false
}

// Record represents one qualifying action on one calendar day. Records are
// written once and never mutated; streaks are derived from them on read.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Date      time.Time `json:"date"` // truncated to a UTC calendar day
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
