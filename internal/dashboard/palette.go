package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskboard/internal/commands"
	"github.com/sandeepkv93/taskboard/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Run: func(a commands.RunArgs) (commands.Result, error) {
			if a.Pass == commands.PassNotify {
				next = m.startLoading(m.runNotifyCmd())
			} else {
				next = m.startLoading(m.runDailyCmd())
			}
			return commands.Result{Message: fmt.Sprintf("running %s pass", a.Pass)}, nil
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			m.selectFilter(s.Subject, s.Boards)
			m.Cursor = 0
			next = m.startLoading(m.loadTasksCmd())
			return commands.Result{Message: fmt.Sprintf("showing %s", s.Subject)}, nil
		},
		Status: func(s commands.StatusArgs) (commands.Result, error) {
			next = m.taskStatusCmd(s.TaskID)
			return commands.Result{Message: fmt.Sprintf("loading status of %s", s.TaskID)}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify(err.Error(), "error")
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, next
}

// selectFilter switches to a named filter, adding it to the tabs when new.
func (m *Model) selectFilter(name string, boards []model.Board) {
	for i, f := range m.Filters {
		if f.Name == name {
			m.FilterIndex = i
			return
		}
	}
	m.Filters = append(m.Filters, Filter{Name: name, Boards: boards})
	m.FilterIndex = len(m.Filters) - 1
}
