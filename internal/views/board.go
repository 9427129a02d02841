package views

import (
	"fmt"
	"strings"
)

type BoardPanelData struct {
	Filter    string
	Filters   []string
	TableView string
	Count     int
	Loading   string
}

type TaskDetailData struct {
	ID       string
	Title    string
	Board    string
	Preview  string
	DueToday bool
	Done     bool
	Today    string
	Timezone string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderBoardPanel(data BoardPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("board: %s (%d)\n", data.Filter, data.Count))
	tabs := make([]string, 0, len(data.Filters))
	for _, f := range data.Filters {
		if f == data.Filter {
			tabs = append(tabs, "["+f+"]")
			continue
		}
		tabs = append(tabs, f)
	}
	b.WriteString("filters: " + strings.Join(tabs, " ") + "\n")
	if data.Loading != "" {
		b.WriteString(data.Loading + "\n")
	}
	if data.Count == 0 {
		b.WriteString("(no tasks)")
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderTaskDetail(data TaskDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "task:\n(no selection)"
	}
	next := data.Preview
	if data.Preview != data.Board {
		next = fmt.Sprintf("%s (moves)", data.Preview)
	}
	return fmt.Sprintf("task:\nid: %s\ntitle: %s\nboard: %s\nnext pass: %s\ndue today: %s\ndone this cycle: %s\ntoday: %s %s",
		data.ID,
		data.Title,
		data.Board,
		next,
		yesNo(data.DueToday),
		yesNo(data.Done),
		data.Today,
		data.Timezone,
	)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
