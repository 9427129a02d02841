package model

import "time"

// IsCompletedForCurrentCycle reinterprets the stored completion flag against
// the cycle that contains now in loc. It never performs I/O.
func IsCompletedForCurrentCycle(t Task, now time.Time, loc *time.Location) bool {
	return CompletedInCycle(t, DateOf(now, loc))
}

// CompletedInCycle is IsCompletedForCurrentCycle for a caller that already
// knows the local date.
func CompletedInCycle(t Task, today Date) bool {
	if !t.RecurrenceType.IsRecurring() {
		return t.IsCompleted
	}
	if t.LastSuccessfulCompletionDate == nil {
		return false
	}
	last := *t.LastSuccessfulCompletionDate
	switch t.RecurrenceType {
	case RecurrenceDaily:
		return last == today
	case RecurrenceWeekly:
		return last.WeekStart() == today.WeekStart()
	case RecurrenceMonthly:
		return last.Year == today.Year && last.Month == today.Month
	default:
		return false
	}
}
