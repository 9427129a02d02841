package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/taskboard/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/run daily", TypeRun},
		{"run NOTIFY", TypeRun},
		{"show overdue", TypeShow},
		{"/status 7f1c", TypeStatus},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseShowSubjects(t *testing.T) {
	cmd, err := Parse("show today")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(cmd.Show.Boards) != len(model.TodayBoards) {
		t.Fatalf("today should expand to %d boards, got %v", len(model.TodayBoards), cmd.Show.Boards)
	}

	cmd, err = Parse("show all")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Show.Boards != nil {
		t.Fatalf("all should not filter, got %v", cmd.Show.Boards)
	}

	cmd, err = Parse("show Today_Priority")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(cmd.Show.Boards) != 1 || cmd.Show.Boards[0] != model.BoardTodayPriority {
		t.Fatalf("unexpected boards: %v", cmd.Show.Boards)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{"run", "run weekly", "show", "show backlog", "status", "status a b"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/run daily")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Run: func(a RunArgs) (Result, error) {
			called = true
			if a.Pass != PassDaily {
				t.Fatalf("unexpected pass: %q", a.Pass)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show overdue")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
