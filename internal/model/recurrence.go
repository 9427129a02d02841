package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

var (
	ErrInvalidRecurrenceType    = errors.New("model: invalid recurrence type")
	ErrInvalidRecurrenceDetails = errors.New("model: invalid recurrence details")
)

func (r RecurrenceType) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// IsRecurring treats an empty type as none.
func (r RecurrenceType) IsRecurring() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// IsDueOn reports whether the task has an occurrence on ref. Malformed
// recurrence details make the task inactive rather than failing.
func IsDueOn(t Task, ref Date) bool {
	switch t.RecurrenceType {
	case RecurrenceNone, "":
		return t.DueDate != nil && *t.DueDate == ref
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		return ParseWeekdays(t.RecurrenceDetails)[ref.Weekday()]
	case RecurrenceMonthly:
		day, ok := ParseMonthDay(t.RecurrenceDetails)
		return ok && ref.Day == day
	default:
		return false
	}
}

// ParseWeekdays reads a comma separated list of weekday names. Unknown names
// are dropped.
func ParseWeekdays(raw string) map[time.Weekday]bool {
	out := make(map[time.Weekday]bool)
	for _, token := range strings.Split(raw, ",") {
		if d, ok := weekdayByName[strings.ToLower(strings.TrimSpace(token))]; ok {
			out[d] = true
		}
	}
	return out
}

var weekdayByName = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseMonthDay reads the day-of-month of a monthly rule. Days past the end
// of a short month never match; there is no clamping to the last day.
func ParseMonthDay(raw string) (int, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

func validateRecurrence(kind RecurrenceType, details string) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, kind)
	}
	switch kind {
	case RecurrenceNone, RecurrenceDaily:
		if strings.TrimSpace(details) != "" {
			return fmt.Errorf("%w: %s recurrence takes no details", ErrInvalidRecurrenceDetails, kind)
		}
	case RecurrenceWeekly:
		if len(ParseWeekdays(details)) == 0 {
			return fmt.Errorf("%w: no known weekday in %q", ErrInvalidRecurrenceDetails, details)
		}
	case RecurrenceMonthly:
		if _, ok := ParseMonthDay(details); !ok {
			return fmt.Errorf("%w: day of month %q", ErrInvalidRecurrenceDetails, details)
		}
	}
	return nil
}
