package dashboard

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

var errNoBackend = errors.New("dashboard: no backend configured")

func (m Model) loadTasksCmd() tea.Cmd {
	backend, ctx, now := m.backend, m.ctx, m.clock.Now()
	userID, boards := m.UserID, m.CurrentFilter().Boards
	return func() tea.Msg {
		if backend == nil {
			return tasksLoadedMsg{Err: errNoBackend}
		}
		rows, err := backend.UserStatuses(ctx, userID, boards, now)
		return tasksLoadedMsg{Rows: rows, Err: err}
	}
}

func (m Model) runDailyCmd() tea.Cmd {
	backend, ctx, now := m.backend, m.ctx, m.clock.Now()
	return func() tea.Msg {
		if backend == nil {
			return reportMsg{Err: errNoBackend}
		}
		report, err := backend.RunDaily(ctx, now)
		if err != nil {
			return reportMsg{Err: fmt.Errorf("daily pass: %w", err)}
		}
		return reportMsg{
			Summary:  fmt.Sprintf("daily pass moved %d task(s), %d failure(s)", len(report.Transitions), len(report.Failures)),
			Markdown: report.Markdown(),
		}
	}
}

func (m Model) runNotifyCmd() tea.Cmd {
	backend, ctx, now := m.backend, m.ctx, m.clock.Now()
	return func() tea.Msg {
		if backend == nil {
			return reportMsg{Err: errNoBackend}
		}
		report, err := backend.RunNotifications(ctx, now)
		if err != nil {
			return reportMsg{Err: fmt.Errorf("notification pass: %w", err)}
		}
		return reportMsg{
			Summary:  fmt.Sprintf("notification pass sent %d reminder(s)", len(report.Sent)),
			Markdown: report.Markdown(),
		}
	}
}

func (m Model) taskStatusCmd(taskID string) tea.Cmd {
	backend, ctx, now := m.backend, m.ctx, m.clock.Now()
	return func() tea.Msg {
		if backend == nil {
			return taskStatusMsg{Err: errNoBackend}
		}
		st, err := backend.Status(ctx, taskID, now)
		if err != nil {
			return taskStatusMsg{Err: fmt.Errorf("status %s: %w", taskID, err)}
		}
		return taskStatusMsg{Status: st}
	}
}

// startLoading pairs a backend call with the spinner.
func (m *Model) startLoading(cmd tea.Cmd) tea.Cmd {
	m.Loading = true
	return tea.Batch(m.loadSpinner.Tick, cmd)
}
