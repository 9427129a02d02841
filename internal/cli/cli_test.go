package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/model"
)

const demoFixture = "../seed/testdata/demo.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--driver", "sqlite", "--dsn", filepath.Join(t.TempDir(), "taskboard.db"), "--log-level", "error"}
}

func TestMigrateSeedRunAndStatus(t *testing.T) {
	db := sqliteArgs(t)

	out, err := execute(t, append([]string{"migrate", "up"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "migrated up (sqlite)")

	out, err = execute(t, append([]string{"seed", demoFixture}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 users, 2 subscriptions, 5 tasks")

	out, err = execute(t, append([]string{"run", "daily", "--json", "--now", "2025-03-11T06:00:00Z"}, db...)...)
	require.NoError(t, err)
	var report board.DailyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.Count(board.RuleMarkOverdue))
	assert.Empty(t, report.Failures)

	out, err = execute(t, append([]string{"status", "ana-invoice", "--json", "--now", "2025-03-11T06:00:00Z"}, db...)...)
	require.NoError(t, err)
	var st board.TaskStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, model.BoardOverdue, st.Board)
	assert.Equal(t, "Europe/Berlin", st.Timezone)

	out, err = execute(t, append([]string{"status", "ana-standup", "--now", "2025-03-11T06:00:00Z"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "id: ana-standup")
	assert.Contains(t, out, "due today: yes")

	_, err = execute(t, append([]string{"status", "nope"}, db...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task nope not found")

	out, err = execute(t, append([]string{"migrate", "down"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "migrated down")
}

func TestRunNotifyWithMemorySeed(t *testing.T) {
	out, err := execute(t,
		"run", "notify", "--json", "--now", "2025-03-11T08:15:20Z",
		"--driver", "memory", "--seed", demoFixture, "--log-level", "error")
	require.NoError(t, err)

	var report board.NotifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Sent, 1)
	assert.Equal(t, "ana-standup", report.Sent[0].TaskID)
	assert.Equal(t, 1, report.Sent[0].Delivered)
}

func TestRunDailyMarkdownOutput(t *testing.T) {
	out, err := execute(t,
		"run", "daily", "--now", "2025-03-11T06:00:00Z",
		"--driver", "memory", "--seed", demoFixture, "--log-level", "error")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestFlagAndArgumentErrors(t *testing.T) {
	_, err := execute(t, "run", "daily", "--driver", "oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database.driver")

	_, err = execute(t, "run", "daily", "--driver", "memory", "--now", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--now")

	_, err = execute(t, "migrate", "sideways", "--driver", "memory")
	require.Error(t, err)

	_, err = execute(t, "migrate", "--driver", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")

	db := sqliteArgs(t)
	_, err = execute(t, append([]string{"run", "daily", "--seed", demoFixture}, db...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--seed is only supported")

	_, err = execute(t, "dashboard", "--driver", "memory")
	require.Error(t, err)
}
