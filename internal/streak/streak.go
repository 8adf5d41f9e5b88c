package streak

import (
	"sort"
	"time"
)

// Result holds the outcome of a streak computation.
type Result struct {
	Current int `json:"current_streak"`
	Longest int `json:"longest_streak"`
}

// Day truncates a time to its UTC calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Compute derives the current and longest consecutive-day streaks from a set
// of activity dates. Input order does not matter; times on the same calendar
// day collapse to a single entry.
//
// The current streak counts a run ending on today or yesterday — a day on
// which nothing has been logged yet does not zero an intact streak. It is 0
// whenever the most recent activity is older than yesterday.
func Compute(dates []time.Time, today time.Time) Result {
	days := dedupeDays(dates)
	if len(days) == 0 {
		return Result{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	var r Result

	expected := Day(today)
	if !days[0].Equal(expected) {
		expected = expected.AddDate(0, 0, -1)
	}
	for _, d := range days {
		if !d.Equal(expected) {
			break
		}
		r.Current++
		expected = expected.AddDate(0, 0, -1)
	}

	run := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) == 24*time.Hour {
			run++
			continue
		}
		if run > r.Longest {
			r.Longest = run
		}
		run = 1
	}
	if run > r.Longest {
		r.Longest = run
	}

	return r
}

func dedupeDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, t := range dates {
		d := Day(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	return days
}
