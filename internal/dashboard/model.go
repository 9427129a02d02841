package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/model"
	"github.com/sandeepkv93/taskboard/internal/scheduler"
)

// Backend is the slice of the board engine the dashboard reads and triggers.
type Backend interface {
	UserStatuses(ctx context.Context, userID string, boards []model.Board, now time.Time) ([]board.TaskStatus, error)
	Status(ctx context.Context, taskID string, now time.Time) (board.TaskStatus, error)
	RunDaily(ctx context.Context, now time.Time) (board.DailyReport, error)
	RunNotifications(ctx context.Context, now time.Time) (board.NotifyReport, error)
}

type Filter struct {
	Name   string
	Boards []model.Board
}

// DefaultFilters is the tab order.
func DefaultFilters() []Filter {
	return []Filter{
		{Name: "all"},
		{Name: "today", Boards: model.TodayBoards},
		{Name: string(model.BoardOverdue), Boards: []model.Board{model.BoardOverdue}},
		{Name: string(model.BoardCompleted), Boards: []model.Board{model.BoardCompleted}},
		{Name: string(model.BoardRecurrent), Boards: []model.Board{model.BoardRecurrent}},
		{Name: string(model.BoardGeneral), Boards: []model.Board{model.BoardGeneral}},
	}
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	NextFilter string
	PrevFilter string
	Palette    string
	Reload     string
	Help       string
	Quit       string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	UserID        string
	Filters       []Filter
	FilterIndex   int
	Rows          []board.TaskStatus
	Cursor        int
	Detail        *board.TaskStatus
	Report        string
	Palette       CommandPaletteState
	HelpVisible   bool
	Loading       bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Quitting      bool
	LastError     error

	ctx     context.Context
	backend Backend
	clock   scheduler.Clock

	taskTable      table.Model
	commandInput   textinput.Model
	loadSpinner    spinner.Model
	helpModel      help.Model
	reportViewport viewport.Model
}

type Options struct {
	UserID  string
	Backend Backend
	Clock   scheduler.Clock
	Context context.Context
}

type tasksLoadedMsg struct {
	Rows []board.TaskStatus
	Err  error
}

type reportMsg struct {
	Summary  string
	Markdown string
	Err      error
}

type taskStatusMsg struct {
	Status board.TaskStatus
	Err    error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func NewModel(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = scheduler.RealClock{}
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	m := Model{
		UserID:  opts.UserID,
		Filters: DefaultFilters(),
		Keys: GlobalKeyMap{
			NextFilter: "tab",
			PrevFilter: "shift+tab",
			Palette:    "/",
			Reload:     "r",
			Help:       "?",
			Quit:       "q",
		},
		ctx:     opts.Context,
		backend: opts.Backend,
		clock:   opts.Clock,
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Title", Width: 18},
		{Title: "Board", Width: 17},
		{Title: "Next", Width: 17},
		{Title: "Due", Width: 3},
		{Title: "Done", Width: 4},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(12))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.reportViewport = viewport.New(70, 14)
}

func (m *Model) syncBubbleData() {
	rows := make([]table.Row, 0, len(m.Rows))
	for _, r := range m.Rows {
		rows = append(rows, table.Row{r.Title, string(r.Board), string(r.PreviewBoard), mark(r.DueToday), mark(r.CompletedForCycle)})
	}
	m.taskTable.SetRows(rows)
	if len(rows) > 0 && m.Cursor < len(rows) {
		m.taskTable.SetCursor(m.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}
}

func (m Model) CurrentFilter() Filter {
	if m.FilterIndex < 0 || m.FilterIndex >= len(m.Filters) {
		return Filter{Name: "all"}
	}
	return m.Filters[m.FilterIndex]
}

func (m Model) Selected() (board.TaskStatus, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return board.TaskStatus{}, false
	}
	return m.Rows[m.Cursor], true
}

func mark(v bool) string {
	if v {
		return "x"
	}
	return ""
}
