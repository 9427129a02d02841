package model

import (
	"errors"
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:             "task-1",
		UserID:         "user-1",
		Title:          "Send invoice",
		RecurrenceType: RecurrenceNone,
		OriginBoard:    BoardGeneral,
		CreatedAt:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTaskValidateSuccess(t *testing.T) {
	task := validTask()
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}

	task.RecurrenceType = RecurrenceWeekly
	task.RecurrenceDetails = "Monday,Wednesday"
	task.Time = "08:30"
	task.OriginBoard = BoardRecurrent
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid weekly task, got error: %v", err)
	}
}

func TestTaskValidateRejectsBadFields(t *testing.T) {
	task := validTask()
	task.OriginBoard = Board("someday")
	if err := task.Validate(); !errors.Is(err, ErrInvalidBoard) {
		t.Fatalf("expected ErrInvalidBoard, got: %v", err)
	}

	task = validTask()
	task.RecurrenceType = RecurrenceDaily
	task.RecurrenceDetails = "Monday"
	if err := task.Validate(); !errors.Is(err, ErrInvalidRecurrenceDetails) {
		t.Fatalf("expected ErrInvalidRecurrenceDetails, got: %v", err)
	}

	task = validTask()
	task.Time = "25:99"
	if err := task.Validate(); !errors.Is(err, ErrInvalidClock) {
		t.Fatalf("expected ErrInvalidClock, got: %v", err)
	}

	task = validTask()
	task.UserID = " "
	if err := task.Validate(); err == nil || err.Error() != "model: task user_id is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTodayBoardFor(t *testing.T) {
	if got := TodayBoardFor(Task{}); got != BoardTodayNoPriority {
		t.Fatalf("plain task got %q", got)
	}
	if got := TodayBoardFor(Task{Priority: true}); got != BoardTodayPriority {
		t.Fatalf("priority task got %q", got)
	}
	if got := TodayBoardFor(Task{Priority: true, ProjectID: "acme"}); got != BoardJobsToday {
		t.Fatalf("project task got %q", got)
	}
}

func TestParseBoard(t *testing.T) {
	b, err := ParseBoard(" Overdue ")
	if err != nil || b != BoardOverdue {
		t.Fatalf("ParseBoard = %q, %v", b, err)
	}
	if _, err := ParseBoard("inbox"); !errors.Is(err, ErrInvalidBoard) {
		t.Fatalf("expected ErrInvalidBoard, got %v", err)
	}
}

func TestTaskPatchApply(t *testing.T) {
	task := validTask()
	task.IsCompleted = true
	now := time.Date(2025, 3, 11, 0, 5, 0, 0, time.UTC)
	board := BoardOverdue
	done := false
	patch := TaskPatch{OriginBoard: &board, IsCompleted: &done, LastMovedToOverdueAt: &now}
	if patch.IsEmpty() {
		t.Fatal("expected non-empty patch")
	}
	patch.Apply(&task)
	if task.OriginBoard != BoardOverdue || task.IsCompleted {
		t.Fatalf("patch not applied: %+v", task)
	}
	if task.LastMovedToOverdueAt == nil || !task.LastMovedToOverdueAt.Equal(now) {
		t.Fatalf("expected overdue stamp, got %v", task.LastMovedToOverdueAt)
	}
	if !(TaskPatch{}).IsEmpty() {
		t.Fatal("expected zero patch to be empty")
	}
}
