package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/taskboard/internal/model"
)

type Transition struct {
	Rule   RuleName    `json:"rule"`
	UserID string      `json:"user_id"`
	TaskID string      `json:"task_id"`
	Title  string      `json:"title"`
	From   model.Board `json:"from"`
	To     model.Board `json:"to"`
}

// Failure is a task or user the run had to skip. TaskID is empty when the
// whole user failed.
type Failure struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id,omitempty"`
	Stage  string `json:"stage"`
	Err    string `json:"error"`
}

type DailyReport struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Users       int          `json:"users"`
	Tasks       int          `json:"tasks"`
	Transitions []Transition `json:"transitions"`
	Failures    []Failure    `json:"failures"`
}

func (r DailyReport) Count(rule RuleName) int {
	n := 0
	for _, tr := range r.Transitions {
		if tr.Rule == rule {
			n++
		}
	}
	return n
}

func (r DailyReport) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily board pass\n\n")
	fmt.Fprintf(&b, "Run `%s` at %s (%s), %d users, %d tasks.\n\n",
		r.RunID, r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Users, r.Tasks)

	b.WriteString("| Rule | Moved |\n|---|---|\n")
	for _, rule := range Rules() {
		fmt.Fprintf(&b, "| %s | %d |\n", rule.Name, r.Count(rule.Name))
	}

	if len(r.Transitions) > 0 {
		b.WriteString("\n## Transitions\n\n")
		for _, tr := range r.Transitions {
			fmt.Fprintf(&b, "- %s: %s (`%s`) %s -> %s\n", tr.Rule, tr.Title, tr.TaskID, tr.From, tr.To)
		}
	}
	writeFailures(&b, r.Failures)
	return b.String()
}

type Notification struct {
	UserID      string    `json:"user_id"`
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Delivered   int       `json:"delivered"`
	Pruned      int       `json:"pruned"`
	Failed      int       `json:"failed"`
}

type NotifyReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Users      int            `json:"users"`
	Checked    int            `json:"checked"`
	Sent       []Notification `json:"sent"`
	Failures   []Failure      `json:"failures"`
}

func (r NotifyReport) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Notification pass\n\n")
	fmt.Fprintf(&b, "Run `%s` at %s, %d users, %d timed recurring tasks checked, %d reminders sent.\n",
		r.RunID, r.StartedAt.UTC().Format(time.RFC3339), r.Users, r.Checked, len(r.Sent))

	if len(r.Sent) > 0 {
		b.WriteString("\n| Task | Scheduled | Delivered | Pruned | Failed |\n|---|---|---|---|---|\n")
		for _, n := range r.Sent {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n", n.Title, n.ScheduledAt.Format("15:04 MST"), n.Delivered, n.Pruned, n.Failed)
		}
	}
	writeFailures(&b, r.Failures)
	return b.String()
}

func writeFailures(b *strings.Builder, failures []Failure) {
	if len(failures) == 0 {
		return
	}
	b.WriteString("\n## Failures\n\n")
	for _, f := range failures {
		target := "user " + f.UserID
		if f.TaskID != "" {
			target = "task " + f.TaskID
		}
		fmt.Fprintf(b, "- %s during %s: %s\n", target, f.Stage, f.Err)
	}
}
