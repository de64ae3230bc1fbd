package rules

import "time"

const (
	// SuperLikesPerDay is the default daily super-like allowance.
	SuperLikesPerDay = 5

	// CandidatePageLimit caps a single candidate fetch for cost control.
	CandidatePageLimit = 50
)

// Daily quota resets are keyed on the UTC calendar date. The client the
// backend replaced compared local device dates, which drifts across time
// zones; every reset decision in this repo goes through these helpers.

func DayKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

func SameResetDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

func NextResetAt(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
}
