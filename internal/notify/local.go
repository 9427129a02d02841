package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

// DesktopSender pops a notification on the machine running the scheduler.
// Useful for single-user installs.
type DesktopSender struct {
	goos string
	run  func(name string, args ...string) error
}

func NewDesktopSender() *DesktopSender {
	return &DesktopSender{
		goos: runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// ErrUnsupportedPlatform means the host has no desktop notifier we know how
// to drive.
var ErrUnsupportedPlatform = errors.New("notify: desktop notifications unsupported on this platform")

// appleScript reads the body and title from argv so neither is ever parsed
// as script source.
var appleScript = []string{
	"-e", "on run argv",
	"-e", "display notification (item 1 of argv) with title (item 2 of argv)",
	"-e", "end run",
}

func (s *DesktopSender) Send(_ context.Context, _ storage.Subscription, r model.Reminder) error {
	title := "Reminder"
	body := r.Title
	switch s.goos {
	case "linux":
		return s.run("notify-send", "--", title, body)
	case "darwin":
		args := append(append([]string{}, appleScript...), "--", body, title)
		return s.run("osascript", args...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, s.goos)
	}
}

// LogSender writes the reminder to the structured log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, sub storage.Subscription, r model.Reminder) error {
	s.logger.Info("reminder",
		"reminder_id", r.ID,
		"user_id", r.UserID,
		"task_id", r.TaskID,
		"title", r.Title,
		"trigger_time", r.TriggerTime,
		"subscription_id", sub.ID,
	)
	return nil
}
