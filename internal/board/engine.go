package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/notify"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

// Dispatcher delivers one reminder to every channel the user subscribed.
type Dispatcher interface {
	SendReminder(ctx context.Context, r model.Reminder) (notify.Result, error)
}

// Engine runs the daily board pass and the per-minute notification pass.
// Both are safe to invoke more than once for the same tick.
type Engine struct {
	repo       storage.Repository
	zones      *Zones
	dispatcher Dispatcher
	logger     *slog.Logger
	rules      []Rule
	newID      func() string
}

func NewEngine(repo storage.Repository, zones *Zones, dispatcher Dispatcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if zones == nil {
		zones = NewZones(repo, time.UTC, logger)
	}
	return &Engine{
		repo:       repo,
		zones:      zones,
		dispatcher: dispatcher,
		logger:     logger,
		rules:      Rules(),
		newID:      uuid.NewString,
	}
}

func (e *Engine) Zones() *Zones { return e.zones }

// RunDaily reconciles every user's cached boards. Only a failure to list users
// or a cancelled context is returned as an error; everything else lands in
// the report.
func (e *Engine) RunDaily(ctx context.Context, now time.Time) (DailyReport, error) {
	started := time.Now()
	report := DailyReport{RunID: e.newID(), StartedAt: now, Transitions: []Transition{}, Failures: []Failure{}}
	log := e.logger.With("run_id", report.RunID, "job", "daily-board")

	users, err := e.repo.ListUsers(ctx, storage.UserListFilter{})
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Users++
		e.dailyForUser(ctx, log.With("user_id", u.ID), u, now, &report)
	}

	report.FinishedAt = now.Add(time.Since(started))
	log.Info("daily board pass finished",
		"users", report.Users,
		"tasks", report.Tasks,
		"transitions", len(report.Transitions),
		"failures", len(report.Failures),
	)
	return report, nil
}

func (e *Engine) dailyForUser(ctx context.Context, log *slog.Logger, u storage.User, now time.Time, report *DailyReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("daily pass panicked for user", "panic", r)
			report.Failures = append(report.Failures, Failure{UserID: u.ID, Stage: "panic", Err: fmt.Sprint(r)})
		}
	}()

	day := NewDay(now, e.zones.Resolve(u))
	tasks, err := e.repo.ListTasks(ctx, storage.TaskListFilter{UserID: u.ID})
	if err != nil {
		log.Error("list tasks failed", "err", err)
		report.Failures = append(report.Failures, Failure{UserID: u.ID, Stage: "list", Err: err.Error()})
		return
	}
	report.Tasks += len(tasks)

	failed := make(map[string]bool)
	for _, rule := range e.rules {
		for i := range tasks {
			task := &tasks[i]
			if failed[task.ID] {
				continue
			}
			patch, ok := rule.Apply(*task, day)
			if !ok {
				continue
			}
			if rule.Refetch {
				fresh, err := e.repo.GetTask(ctx, task.ID)
				if err != nil {
					failed[task.ID] = true
					e.recordFailure(log, report, u.ID, task.ID, string(rule.Name), err)
					continue
				}
				*task = fresh
				if patch, ok = rule.Apply(fresh, day); !ok {
					log.Debug("transition dropped after re-read", "task_id", task.ID, "rule", rule.Name)
					continue
				}
			}

			if err := e.repo.UpdateTask(ctx, task.ID, patch); err != nil {
				failed[task.ID] = true
				e.recordFailure(log, report, u.ID, task.ID, string(rule.Name), err)
				continue
			}
			from := task.OriginBoard
			patch.Apply(task)
			report.Transitions = append(report.Transitions, Transition{
				Rule:   rule.Name,
				UserID: u.ID,
				TaskID: task.ID,
				Title:  task.Title,
				From:   from,
				To:     task.OriginBoard,
			})
			log.Debug("task transitioned", "task_id", task.ID, "rule", rule.Name, "from", from, "to", task.OriginBoard)
		}
	}
}

func (e *Engine) recordFailure(log *slog.Logger, report *DailyReport, userID, taskID, stage string, err error) {
	log.Warn("task update failed", "task_id", taskID, "stage", stage, "err", err)
	report.Failures = append(report.Failures, Failure{UserID: userID, TaskID: taskID, Stage: stage, Err: err.Error()})
}

// TaskStatus is the read-path view of one task.
type TaskStatus struct {
	TaskID            string      `json:"task_id"`
	UserID            string      `json:"user_id"`
	Title             string      `json:"title"`
	Board             model.Board `json:"board"`
	PreviewBoard      model.Board `json:"preview_board"`
	DueToday          bool        `json:"due_today"`
	CompletedForCycle bool        `json:"completed_for_cycle"`
	Today             string      `json:"today"`
	Timezone          string      `json:"timezone"`
}

func StatusOf(t model.Task, d Day) TaskStatus {
	return TaskStatus{
		TaskID:            t.ID,
		UserID:            t.UserID,
		Title:             t.Title,
		Board:             t.OriginBoard,
		PreviewBoard:      Preview(t, d).OriginBoard,
		DueToday:          model.IsDueOn(t, d.Today),
		CompletedForCycle: model.CompletedInCycle(t, d.Today),
		Today:             d.Today.String(),
		Timezone:          d.Loc.String(),
	}
}

func (e *Engine) Status(ctx context.Context, taskID string, now time.Time) (TaskStatus, error) {
	t, err := e.repo.GetTask(ctx, taskID)
	if err != nil {
		return TaskStatus{}, err
	}
	return StatusOf(t, NewDay(now, e.zones.ForUser(ctx, t.UserID))), nil
}

// UserStatuses lists a user's tasks, optionally limited to cached boards.
func (e *Engine) UserStatuses(ctx context.Context, userID string, boards []model.Board, now time.Time) ([]TaskStatus, error) {
	if _, err := e.repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	tasks, err := e.repo.ListTasks(ctx, storage.TaskListFilter{UserID: userID, Boards: boards})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	day := NewDay(now, e.zones.ForUser(ctx, userID))
	out := make([]TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, StatusOf(t, day))
	}
	return out, nil
}
