package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/scheduler"
	"github.com/sandeepkv93/taskboard/internal/storage"
)

func newTestModel(t *testing.T) (Model, *storage.MemoryRepository) {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMemoryRepository()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.CreateUser(ctx, storage.User{ID: "user-1", Timezone: "UTC", CreatedAt: created}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	yesterday := model.MustDate("2025-03-10")
	tasks := []model.Task{
		{ID: "late", Title: "File taxes", DueDate: &yesterday, OriginBoard: model.BoardTodayNoPriority},
		{ID: "stretch", Title: "Stretch", RecurrenceType: model.RecurrenceDaily, Time: "08:00",
			IsCompleted: true, LastSuccessfulCompletionDate: &yesterday, OriginBoard: model.BoardTodayNoPriority},
		{ID: "idea", Title: "Someday idea", OriginBoard: model.BoardGeneral},
	}
	for i, task := range tasks {
		task.UserID = "user-1"
		task.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("create task %s: %v", task.ID, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := board.NewEngine(repo, board.NewZones(repo, time.UTC, logger), nil, logger)
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 11, 8, 0, 30, 0, time.UTC))
	m := NewModel(Options{UserID: "user-1", Backend: engine, Clock: clock})
	return drive(m, m.Init()), repo
}

// drive runs cmd and everything it leads to, feeding messages back into the
// model. Spinner ticks are dropped so the loop terminates.
func drive(m Model, cmd tea.Cmd) Model {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg, tea.QuitMsg:
		default:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func palette(m Model, input string) Model {
	m, _ = press(m, runes("/"))
	m, _ = press(m, runes(input))
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	return drive(m, cmd)
}

func TestInitLoadsUserTasks(t *testing.T) {
	m, _ := newTestModel(t)
	if len(m.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.Rows))
	}
	if m.Loading || m.Status.IsError {
		t.Fatalf("unexpected state: loading=%v status=%+v", m.Loading, m.Status)
	}
	view := m.View()
	for _, want := range []string{"user: user-1", "board: all (3)", "File taxes"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTabCyclesFilters(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.Loading {
		t.Fatal("expected loading after filter change")
	}
	m = drive(m, cmd)
	if m.CurrentFilter().Name != "today" || len(m.Rows) != 2 {
		t.Fatalf("today filter: name=%s rows=%d", m.CurrentFilter().Name, len(m.Rows))
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = drive(m, cmd)
	if m.CurrentFilter().Name != string(model.BoardOverdue) || len(m.Rows) != 0 {
		t.Fatalf("overdue filter: name=%s rows=%d", m.CurrentFilter().Name, len(m.Rows))
	}

	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = drive(m, cmd)
	if m.FilterIndex != 0 || len(m.Rows) != 3 {
		t.Fatalf("expected back on all, got index=%d rows=%d", m.FilterIndex, len(m.Rows))
	}
}

func TestPaletteRunDaily(t *testing.T) {
	m, repo := newTestModel(t)
	m = palette(m, "run daily")

	if m.Loading {
		t.Fatal("loading should clear after report")
	}
	if !strings.Contains(m.Report, "Daily board pass") {
		t.Fatalf("expected daily report, got %q", m.Report)
	}
	if n := len(m.Notifications); n == 0 || !strings.HasPrefix(m.Notifications[n-1].Body, "daily pass moved") {
		t.Fatalf("expected pass summary notification, got %+v", m.Notifications)
	}
	late, err := repo.GetTask(context.Background(), "late")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if late.OriginBoard != model.BoardOverdue {
		t.Fatalf("expected late task overdue, got %s", late.OriginBoard)
	}
	for _, row := range m.Rows {
		if row.TaskID == "late" && row.Board != model.BoardOverdue {
			t.Fatalf("rows not reloaded after pass: %+v", row)
		}
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Report != "" {
		t.Fatal("esc should dismiss the report")
	}
}

func TestPaletteRunNotify(t *testing.T) {
	m, _ := newTestModel(t)
	m = palette(m, "run notify")
	if !strings.Contains(m.Report, "1 reminders sent") {
		t.Fatalf("expected one reminder, got %q", m.Report)
	}
	if len(m.Notifications) == 0 || m.Notifications[len(m.Notifications)-1].Level != "info" {
		t.Fatalf("expected info notification, got %+v", m.Notifications)
	}
}

func TestPaletteStatusAndShow(t *testing.T) {
	m, _ := newTestModel(t)

	m = palette(m, "status late")
	if m.Detail == nil || m.Detail.TaskID != "late" {
		t.Fatalf("expected detail for late, got %+v", m.Detail)
	}
	if m.Detail.PreviewBoard != model.BoardOverdue {
		t.Fatalf("expected overdue preview, got %s", m.Detail.PreviewBoard)
	}
	if !strings.Contains(m.View(), "next pass: overdue (moves)") {
		t.Fatalf("detail pane not rendered:\n%s", m.View())
	}

	m = palette(m, "show general")
	if m.CurrentFilter().Name != "general" || len(m.Rows) != 1 || m.Rows[0].TaskID != "idea" {
		t.Fatalf("show general: filter=%s rows=%+v", m.CurrentFilter().Name, m.Rows)
	}

	before := len(m.Filters)
	m = palette(m, "show today_no_priority")
	if len(m.Filters) != before+1 || m.CurrentFilter().Name != "today_no_priority" {
		t.Fatalf("expected new filter tab, got %+v", m.Filters)
	}
	if len(m.Rows) != 2 {
		t.Fatalf("expected 2 rows on today_no_priority, got %d", len(m.Rows))
	}
}

func TestPaletteErrors(t *testing.T) {
	m, _ := newTestModel(t)

	m = palette(m, "bogus")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown_command") {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}
	if m.Palette.Active {
		t.Fatal("palette should close after enter")
	}

	m = palette(m, "status missing")
	if !m.Status.IsError || m.LastError == nil || !errors.Is(m.LastError, storage.ErrNotFound) {
		t.Fatalf("expected not found, got status=%+v err=%v", m.Status, m.LastError)
	}
}

func TestPaletteEscCloses(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, runes("/"))
	if !m.Palette.Active {
		t.Fatal("expected palette active")
	}
	m, _ = press(m, runes("run"))
	if m.Palette.Input != "run" {
		t.Fatalf("unexpected input %q", m.Palette.Input)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Palette.Active || m.Palette.Input != "" {
		t.Fatalf("expected palette closed, got %+v", m.Palette)
	}
}

func TestCursorHelpAndQuit(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(m, runes("j"))
	m, _ = press(m, runes("j"))
	m, _ = press(m, runes("j"))
	if m.Cursor != 2 {
		t.Fatalf("cursor should stop at last row, got %d", m.Cursor)
	}
	m, _ = press(m, runes("k"))
	if sel, ok := m.Selected(); !ok || sel.TaskID != m.Rows[1].TaskID {
		t.Fatalf("unexpected selection %+v", sel)
	}

	m, _ = press(m, runes("?"))
	if !m.HelpVisible || !strings.Contains(m.View(), "help:") {
		t.Fatal("expected help panel")
	}
	m, _ = press(m, runes("?"))
	if m.HelpVisible {
		t.Fatal("expected help hidden")
	}

	m, cmd := press(m, runes("q"))
	if !m.Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}
}

type failingBackend struct{}

func (failingBackend) UserStatuses(context.Context, string, []model.Board, time.Time) ([]board.TaskStatus, error) {
	return nil, errors.New("db down")
}

func (failingBackend) Status(context.Context, string, time.Time) (board.TaskStatus, error) {
	return board.TaskStatus{}, errors.New("db down")
}

func (failingBackend) RunDaily(context.Context, time.Time) (board.DailyReport, error) {
	return board.DailyReport{}, errors.New("db down")
}

func (failingBackend) RunNotifications(context.Context, time.Time) (board.NotifyReport, error) {
	return board.NotifyReport{}, errors.New("db down")
}

func TestBackendErrorsSurfaceInStatus(t *testing.T) {
	m := NewModel(Options{UserID: "user-1", Backend: failingBackend{}})
	m = drive(m, m.Init())
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "db down") {
		t.Fatalf("expected load error, got %+v", m.Status)
	}

	m = palette(m, "run daily")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "daily pass: db down") {
		t.Fatalf("expected pass error, got %+v", m.Status)
	}
	if m.Loading {
		t.Fatal("loading should clear on error")
	}
	if !strings.Contains(m.View(), "status: error:") {
		t.Fatal("error status not rendered")
	}
}

func TestNoBackend(t *testing.T) {
	m := NewModel(Options{UserID: "user-1"})
	m = drive(m, m.Init())
	if !errors.Is(m.LastError, errNoBackend) {
		t.Fatalf("expected no backend error, got %v", m.LastError)
	}
}
