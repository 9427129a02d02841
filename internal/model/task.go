package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidBoard = errors.New("model: invalid board")

type Board string

const (
	BoardGeneral         Board = "general"
	BoardTodayPriority   Board = "today_priority"
	BoardTodayNoPriority Board = "today_no_priority"
	BoardOverdue         Board = "overdue"
	BoardCompleted       Board = "completed"
	BoardRecurrent       Board = "recurrent"
	BoardJobsToday       Board = "jobs_woe_today"
)

var Boards = []Board{
	BoardGeneral,
	BoardTodayPriority,
	BoardTodayNoPriority,
	BoardJobsToday,
	BoardOverdue,
	BoardCompleted,
	BoardRecurrent,
}

// TodayBoards hold the daily queue.
var TodayBoards = []Board{BoardTodayPriority, BoardTodayNoPriority, BoardJobsToday}

func (b Board) IsValid() bool {
	for _, known := range Boards {
		if b == known {
			return true
		}
	}
	return false
}

func (b Board) IsToday() bool {
	switch b {
	case BoardTodayPriority, BoardTodayNoPriority, BoardJobsToday:
		return true
	default:
		return false
	}
}

func ParseBoard(raw string) (Board, error) {
	b := Board(strings.ToLower(strings.TrimSpace(raw)))
	if !b.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBoard, raw)
	}
	return b, nil
}

type Task struct {
	ID                string
	UserID            string
	Title             string
	DueDate           *Date
	Time              string
	RecurrenceType    RecurrenceType
	RecurrenceDetails string
	Priority          bool
	ProjectID         string
	IsCompleted       bool
	CompletedAt       *time.Time
	// LastSuccessfulCompletionDate is only written by the user completion
	// path and is the source of truth for recurring tasks.
	LastSuccessfulCompletionDate *Date
	OriginBoard                  Board
	LastNotifiedAt               *time.Time
	LastMovedToOverdueAt         *time.Time
	LastMovedToCompletedAt       *time.Time
	LastActivatedAt              *time.Time
	CreatedAt                    time.Time
}

// TodayBoardFor picks the daily queue a task enters when it is due.
func TodayBoardFor(t Task) Board {
	switch {
	case strings.TrimSpace(t.ProjectID) != "":
		return BoardJobsToday
	case t.Priority:
		return BoardTodayPriority
	default:
		return BoardTodayNoPriority
	}
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return errors.New("model: task user_id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if err := validateRecurrence(t.RecurrenceType, t.RecurrenceDetails); err != nil {
		return err
	}
	if !t.OriginBoard.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidBoard, t.OriginBoard)
	}
	if t.Time != "" {
		if _, err := ParseClock(t.Time); err != nil {
			return err
		}
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

// TaskPatch carries a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	OriginBoard            *Board
	IsCompleted            *bool
	LastNotifiedAt         *time.Time
	LastMovedToOverdueAt   *time.Time
	LastMovedToCompletedAt *time.Time
	LastActivatedAt        *time.Time
}

func (p TaskPatch) IsEmpty() bool {
	return p.OriginBoard == nil && p.IsCompleted == nil && p.LastNotifiedAt == nil &&
		p.LastMovedToOverdueAt == nil && p.LastMovedToCompletedAt == nil && p.LastActivatedAt == nil
}

func (p TaskPatch) Apply(t *Task) {
	if p.OriginBoard != nil {
		t.OriginBoard = *p.OriginBoard
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.LastNotifiedAt != nil {
		v := *p.LastNotifiedAt
		t.LastNotifiedAt = &v
	}
	if p.LastMovedToOverdueAt != nil {
		v := *p.LastMovedToOverdueAt
		t.LastMovedToOverdueAt = &v
	}
	if p.LastMovedToCompletedAt != nil {
		v := *p.LastMovedToCompletedAt
		t.LastMovedToCompletedAt = &v
	}
	if p.LastActivatedAt != nil {
		v := *p.LastActivatedAt
		t.LastActivatedAt = &v
	}
}
