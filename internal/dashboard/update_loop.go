package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskboard/internal/views"
)

func (m Model) Init() tea.Cmd {
	return m.loadTasksCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case m.Keys.Palette:
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.NextFilter:
			m.FilterIndex = (m.FilterIndex + 1) % len(m.Filters)
			m.Cursor = 0
			return m, m.startLoading(m.loadTasksCmd())
		case m.Keys.PrevFilter:
			m.FilterIndex = (m.FilterIndex - 1 + len(m.Filters)) % len(m.Filters)
			m.Cursor = 0
			return m, m.startLoading(m.loadTasksCmd())
		case m.Keys.Reload:
			m.Status = StatusBar{Text: "reloading"}
			return m, m.startLoading(m.loadTasksCmd())
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "j", "down":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
			m.Detail = nil
			return m, nil
		case "k", "up":
			if m.Cursor > 0 {
				m.Cursor--
			}
			m.Detail = nil
			return m, nil
		case "esc":
			m.Report = ""
			m.Detail = nil
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if m.Loading {
			var cmd tea.Cmd
			m.loadSpinner, cmd = m.loadSpinner.Update(typed)
			return m, cmd
		}
	case tasksLoadedMsg:
		m.Loading = false
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Rows = typed.Rows
		if m.Cursor >= len(m.Rows) {
			m.Cursor = 0
		}
		m.Status = StatusBar{Text: fmt.Sprintf("%d task(s) on %s", len(m.Rows), m.CurrentFilter().Name)}
		return m, nil
	case reportMsg:
		m.Loading = false
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify(typed.Err.Error(), "error")
			return m, nil
		}
		m.Report = typed.Markdown
		m.reportViewport.SetContent(views.RenderMarkdown(typed.Markdown, m.reportViewport.Width))
		m.reportViewport.GotoTop()
		m.Status = StatusBar{Text: typed.Summary}
		m.notify(typed.Summary, "info")
		return m, m.loadTasksCmd()
	case taskStatusMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		st := typed.Status
		m.Detail = &st
		m.Status = StatusBar{Text: fmt.Sprintf("status of %s", st.TaskID)}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify(typed.Err.Error(), "error")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	m.syncBubbleData()
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	loading := ""
	if m.Loading {
		loading = m.loadSpinner.View() + " loading"
	}
	filterNames := make([]string, 0, len(m.Filters))
	for _, f := range m.Filters {
		filterNames = append(filterNames, f.Name)
	}
	mainPane := views.RenderBoardPanel(views.BoardPanelData{
		Filter:    m.CurrentFilter().Name,
		Filters:   filterNames,
		TableView: m.taskTable.View(),
		Count:     len(m.Rows),
		Loading:   loading,
	})
	if m.Report != "" {
		mainPane += "\n\n" + m.reportViewport.View()
	}

	sidePane := views.RenderTaskDetail(m.detailData())
	if palette := views.RenderCommandPalette(m.Palette.Active, m.Palette.Input); palette != "" {
		sidePane += "\n\n" + palette
	}
	if help := m.renderHelpIfVisible(); help != "" {
		sidePane += "\n\n" + help
	}

	notification := ""
	if n := len(m.Notifications); n > 0 {
		last := m.Notifications[n-1]
		notification = views.RenderNotification(last.Level, last.Body)
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("taskboard | user: %s | filter: %s", m.UserID, m.CurrentFilter().Name),
		MainPane:     mainPane,
		SidePane:     sidePane,
		StatusLine:   status,
		StatusError:  m.Status.IsError,
		Notification: notification,
		Footer: fmt.Sprintf("keys: %s filter | %s cmd | %s reload | %s help | %s quit",
			m.Keys.NextFilter, m.Keys.Palette, m.Keys.Reload, m.Keys.Help, m.Keys.Quit),
	})
}

// detailData shows an explicitly requested status, else the selected row.
func (m Model) detailData() views.TaskDetailData {
	st, ok := m.Selected()
	if m.Detail != nil {
		st, ok = *m.Detail, true
	}
	if !ok {
		return views.TaskDetailData{}
	}
	return views.TaskDetailData{
		ID:       st.TaskID,
		Title:    st.Title,
		Board:    string(st.Board),
		Preview:  string(st.PreviewBoard),
		DueToday: st.DueToday,
		Done:     st.CompletedForCycle,
		Today:    st.Today,
		Timezone: st.Timezone,
	}
}

func (m *Model) notify(body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	m.Notifications = append(m.Notifications, Notification{Body: body, Level: level, At: m.clock.Now()})
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
}

var _ tea.Model = Model{}

// Run starts the full-screen program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

