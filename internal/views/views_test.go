package views

import (
	"strings"
	"testing"
)

func TestRenderBoardPanelMarksActiveFilter(t *testing.T) {
	out := RenderBoardPanel(BoardPanelData{
		Filter:    "overdue",
		Filters:   []string{"all", "today", "overdue"},
		TableView: "ROWS",
		Count:     2,
	})
	if !strings.Contains(out, "filters: all today [overdue]") {
		t.Fatalf("active filter not marked: %q", out)
	}
	if !strings.Contains(out, "board: overdue (2)") || !strings.Contains(out, "ROWS") {
		t.Fatalf("unexpected panel: %q", out)
	}

	empty := RenderBoardPanel(BoardPanelData{Filter: "all", Filters: []string{"all"}, TableView: "ROWS"})
	if !strings.Contains(empty, "(no tasks)") || strings.Contains(empty, "ROWS") {
		t.Fatalf("empty board should not render the table: %q", empty)
	}
}

func TestRenderTaskDetail(t *testing.T) {
	if got := RenderTaskDetail(TaskDetailData{}); !strings.Contains(got, "(no selection)") {
		t.Fatalf("expected no selection, got %q", got)
	}
	out := RenderTaskDetail(TaskDetailData{
		ID: "t1", Title: "Stretch", Board: "completed", Preview: "today_no_priority",
		DueToday: true, Today: "2025-03-11", Timezone: "UTC",
	})
	for _, want := range []string{"id: t1", "next pass: today_no_priority (moves)", "due today: yes", "done this cycle: no", "today: 2025-03-11 UTC"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	same := RenderTaskDetail(TaskDetailData{ID: "t2", Board: "general", Preview: "general"})
	if strings.Contains(same, "(moves)") {
		t.Fatalf("unchanged board should not be marked: %q", same)
	}
}

func TestRenderAppIncludesPanes(t *testing.T) {
	out := RenderApp(AppData{
		Header:     "taskboard | user: u1",
		MainPane:   "board: all",
		SidePane:   "task: t1",
		StatusLine: "status: ready",
		Footer:     "keys: q quit",
	})
	for _, want := range []string{"taskboard | user: u1", "board: all", "task: t1", "status: ready", "keys: q quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	if RenderMarkdown("  ", 80) != "" {
		t.Fatal("blank markdown should render empty")
	}
	if out := RenderMarkdown("# Daily board pass\n\nhello", 60); strings.TrimSpace(out) == "" {
		t.Fatal("expected rendered output")
	}
}

func TestRenderPaletteAndNotification(t *testing.T) {
	if RenderCommandPalette(false, "run") != "" {
		t.Fatal("inactive palette should be empty")
	}
	if got := RenderCommandPalette(true, "run daily"); got != "command: /run daily" {
		t.Fatalf("unexpected palette: %q", got)
	}
	if got := RenderNotification("info", "done"); got != "notification: [INFO] done" {
		t.Fatalf("unexpected notification: %q", got)
	}
}
