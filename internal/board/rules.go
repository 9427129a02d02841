package board

import (
	"time"

	"github.com/sandeepkv93/taskboard/internal/model"
)

// Day is the reference point for one user in one run.
type Day struct {
	Now       time.Time
	Loc       *time.Location
	Today     model.Date
	Yesterday model.Date
}

func NewDay(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	today := model.DateOf(now, loc)
	return Day{Now: now, Loc: loc, Today: today, Yesterday: today.AddDays(-1)}
}

func (d Day) dateOf(t time.Time) model.Date {
	return model.DateOf(t, d.Loc)
}

// within reports whether the instant falls on the local today.
func (d Day) within(t *time.Time) bool {
	return t != nil && d.dateOf(*t) == d.Today
}

func (d Day) beforeToday(t *time.Time) bool {
	return t == nil || d.dateOf(*t).Before(d.Today)
}

type RuleName string

const (
	RuleMarkOverdue      RuleName = "mark-overdue"
	RuleArchiveCompleted RuleName = "archive-completed"
	RuleResetRecurring   RuleName = "reset-recurring"
	RuleReleaseOverdue   RuleName = "release-overdue"
)

// Rule is one pure board transition. Apply returns the patch to write and
// whether the rule matched at all.
type Rule struct {
	Name RuleName
	// Refetch asks the pass to re-read the task right before writing and to
	// decide again on the fresh copy.
	Refetch bool
	apply   func(t model.Task, d Day) (model.TaskPatch, bool)
}

func (r Rule) Apply(t model.Task, d Day) (model.TaskPatch, bool) {
	patch, ok := r.apply(t, d)
	if !ok || patch.IsEmpty() {
		return model.TaskPatch{}, false
	}
	return patch, true
}

// Rules returns the daily rules in the order they must run.
func Rules() []Rule {
	return []Rule{
		{Name: RuleMarkOverdue, apply: markOverdue},
		{Name: RuleArchiveCompleted, apply: archiveCompleted},
		{Name: RuleResetRecurring, Refetch: true, apply: resetRecurring},
		{Name: RuleReleaseOverdue, apply: releaseOverdue},
	}
}

func markOverdue(t model.Task, d Day) (model.TaskPatch, bool) {
	if t.IsCompleted {
		return model.TaskPatch{}, false
	}
	if !t.RecurrenceType.IsRecurring() {
		if t.DueDate == nil || !t.DueDate.Before(d.Today) {
			return model.TaskPatch{}, false
		}
		// An unchecked task left on completed is still late.
		if t.OriginBoard == model.BoardOverdue {
			return model.TaskPatch{}, false
		}
		return toOverdue(d), true
	}

	if !t.OriginBoard.IsToday() {
		return model.TaskPatch{}, false
	}
	if t.LastSuccessfulCompletionDate != nil && !t.LastSuccessfulCompletionDate.Before(d.Today) {
		return model.TaskPatch{}, false
	}
	// Entered the queue today, so there is nothing stale yet.
	if d.within(t.LastActivatedAt) || (!t.CreatedAt.IsZero() && d.within(&t.CreatedAt)) {
		return model.TaskPatch{}, false
	}
	return toOverdue(d), true
}

func toOverdue(d Day) model.TaskPatch {
	board := model.BoardOverdue
	now := d.Now
	return model.TaskPatch{OriginBoard: &board, LastMovedToOverdueAt: &now}
}

func archiveCompleted(t model.Task, d Day) (model.TaskPatch, bool) {
	if !t.IsCompleted {
		return model.TaskPatch{}, false
	}
	if !t.OriginBoard.IsToday() && t.OriginBoard != model.BoardOverdue {
		return model.TaskPatch{}, false
	}
	// Without a completion date it may have been finished today.
	if done, ok := completionDate(t, d); !ok || !done.Before(d.Today) {
		return model.TaskPatch{}, false
	}
	board := model.BoardCompleted
	now := d.Now
	return model.TaskPatch{OriginBoard: &board, LastMovedToCompletedAt: &now}, true
}

// completionDate prefers the completion instant in the user's zone and falls
// back to the recorded completion date.
func completionDate(t model.Task, d Day) (model.Date, bool) {
	if t.CompletedAt != nil {
		return d.dateOf(*t.CompletedAt), true
	}
	if t.LastSuccessfulCompletionDate != nil {
		return *t.LastSuccessfulCompletionDate, true
	}
	return model.Date{}, false
}

func resetRecurring(t model.Task, d Day) (model.TaskPatch, bool) {
	if !t.RecurrenceType.IsRecurring() {
		return activateSingle(t, d)
	}
	if t.OriginBoard == model.BoardOverdue {
		return model.TaskPatch{}, false
	}
	if !model.IsDueOn(t, d.Today) || model.CompletedInCycle(t, d.Today) {
		return model.TaskPatch{}, false
	}

	var patch model.TaskPatch
	if t.IsCompleted {
		open := false
		patch.IsCompleted = &open
	}
	if target := model.TodayBoardFor(t); t.OriginBoard != target {
		now := d.Now
		patch.OriginBoard = &target
		patch.LastActivatedAt = &now
	}
	return patch, true
}

func activateSingle(t model.Task, d Day) (model.TaskPatch, bool) {
	if t.IsCompleted {
		return model.TaskPatch{}, false
	}
	if t.OriginBoard != model.BoardGeneral && t.OriginBoard != model.BoardCompleted {
		return model.TaskPatch{}, false
	}
	if !model.IsDueOn(t, d.Today) {
		return model.TaskPatch{}, false
	}
	target := model.TodayBoardFor(t)
	now := d.Now
	return model.TaskPatch{OriginBoard: &target, LastActivatedAt: &now}, true
}

func releaseOverdue(t model.Task, d Day) (model.TaskPatch, bool) {
	if t.OriginBoard != model.BoardOverdue || t.IsCompleted {
		return model.TaskPatch{}, false
	}
	dueToday := model.IsDueOn(t, d.Today)
	cleared := t.DueDate != nil && !t.DueDate.Before(d.Today)
	if !cleared && t.RecurrenceType.IsRecurring() {
		cleared = dueToday && d.beforeToday(t.LastMovedToOverdueAt)
	}
	if !cleared {
		return model.TaskPatch{}, false
	}

	if !dueToday {
		target := model.BoardGeneral
		return model.TaskPatch{OriginBoard: &target}, true
	}
	target := model.TodayBoardFor(t)
	now := d.Now
	return model.TaskPatch{OriginBoard: &target, LastActivatedAt: &now}, true
}

// Preview runs every rule in memory and returns the task as the next daily
// pass would leave it.
func Preview(t model.Task, d Day) model.Task {
	for _, rule := range Rules() {
		if patch, ok := rule.Apply(t, d); ok {
			patch.Apply(&t)
		}
	}
	return t
}
