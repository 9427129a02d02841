package board

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

// ShouldNotify reports whether a reminder for t is due in the minute that
// contains d.Now, along with the scheduled instant.
func ShouldNotify(t model.Task, d Day) (time.Time, bool) {
	if !t.RecurrenceType.IsRecurring() || t.Time == "" {
		return time.Time{}, false
	}
	clock, err := model.ParseClock(t.Time)
	if err != nil {
		return time.Time{}, false
	}
	at := model.ScheduledAt(d.Today, clock, d.Loc)
	if d.Now.Before(at) || !d.Now.Before(at.Add(time.Minute)) {
		return at, false
	}
	if !model.IsDueOn(t, d.Today) || model.CompletedInCycle(t, d.Today) {
		return at, false
	}
	if d.within(t.LastNotifiedAt) {
		return at, false
	}
	return at, true
}

// RunNotifications fires reminders whose time of day falls in the current
// minute. A minute nobody ran is not caught up.
func (e *Engine) RunNotifications(ctx context.Context, now time.Time) (NotifyReport, error) {
	started := time.Now()
	report := NotifyReport{RunID: e.newID(), StartedAt: now, Sent: []Notification{}, Failures: []Failure{}}
	log := e.logger.With("run_id", report.RunID, "job", "notifications")

	users, err := e.repo.ListUsers(ctx, storage.UserListFilter{})
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Users++
		e.notifyForUser(ctx, log.With("user_id", u.ID), u, now, &report)
	}

	report.FinishedAt = now.Add(time.Since(started))
	log.Info("notification pass finished", "users", report.Users, "checked", report.Checked, "sent", len(report.Sent), "failures", len(report.Failures))
	return report, nil
}

func (e *Engine) notifyForUser(ctx context.Context, log *slog.Logger, u storage.User, now time.Time, report *NotifyReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("notification pass panicked for user", "panic", r)
			report.Failures = append(report.Failures, Failure{UserID: u.ID, Stage: "panic", Err: fmt.Sprint(r)})
		}
	}()

	recurring := true
	tasks, err := e.repo.ListTasks(ctx, storage.TaskListFilter{UserID: u.ID, Recurring: &recurring, WithTime: true})
	if err != nil {
		log.Error("list tasks failed", "err", err)
		report.Failures = append(report.Failures, Failure{UserID: u.ID, Stage: "list", Err: err.Error()})
		return
	}

	day := NewDay(now, e.zones.Resolve(u))
	for _, t := range tasks {
		report.Checked++
		e.notifyTask(ctx, log, t, day, report)
	}
}

// notifyTask fires and stamps one reminder. A panic here costs only this task.
func (e *Engine) notifyTask(ctx context.Context, log *slog.Logger, t model.Task, day Day, report *NotifyReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("notification panicked for task", "task_id", t.ID, "panic", r)
			report.Failures = append(report.Failures, Failure{UserID: t.UserID, TaskID: t.ID, Stage: "panic", Err: fmt.Sprint(r)})
		}
	}()

	at, due := ShouldNotify(t, day)
	if !due {
		return
	}

	sent := Notification{UserID: t.UserID, TaskID: t.ID, Title: t.Title, ScheduledAt: at}
	if e.dispatcher != nil {
		res, err := e.dispatcher.SendReminder(ctx, model.Reminder{
			ID:          e.newID(),
			UserID:      t.UserID,
			TaskID:      t.ID,
			Title:       t.Title,
			TriggerTime: at,
		})
		sent.Delivered, sent.Pruned, sent.Failed = res.Delivered, res.Pruned, res.Failed
		if err != nil {
			log.Warn("reminder dispatch failed", "task_id", t.ID, "err", err)
			report.Failures = append(report.Failures, Failure{UserID: t.UserID, TaskID: t.ID, Stage: "dispatch", Err: err.Error()})
		}
	}

	// Stamped even when dispatch failed; the send is not retried.
	stamp := day.Now
	if err := e.repo.UpdateTask(ctx, t.ID, model.TaskPatch{LastNotifiedAt: &stamp}); err != nil {
		log.Warn("stamping last notified failed", "task_id", t.ID, "err", err)
		report.Failures = append(report.Failures, Failure{UserID: t.UserID, TaskID: t.ID, Stage: "stamp", Err: err.Error()})
	}
	report.Sent = append(report.Sent, sent)
	log.Debug("reminder sent", "task_id", t.ID, "scheduled_at", at, "delivered", sent.Delivered)
}
