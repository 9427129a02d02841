package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/taskboard/internal/model"
)

type Type string

const (
	TypeRun    Type = "run"
	TypeShow   Type = "show"
	TypeStatus Type = "status"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Pass string

const (
	PassDaily  Pass = "daily"
	PassNotify Pass = "notify"
)

type RunArgs struct {
	Pass Pass
}

// ShowArgs carries the boards to display. Nil means every board.
type ShowArgs struct {
	Subject string
	Boards  []model.Board
}

type StatusArgs struct {
	TaskID string
}

type Command struct {
	Type   Type
	Raw    string
	Run    *RunArgs
	Show   *ShowArgs
	Status *StatusArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeRun:
		return parseRun(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeStatus:
		return parseStatus(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseRun(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "run requires daily or notify"}
	}
	switch p := Pass(strings.ToLower(args[0])); p {
	case PassDaily, PassNotify:
		return Command{Type: TypeRun, Raw: raw, Run: &RunArgs{Pass: p}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown pass: %s", args[0])}
	}
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a board"}
	}
	subject := strings.ToLower(args[0])
	var boards []model.Board
	switch subject {
	case "all":
	case "today":
		boards = append(boards, model.TodayBoards...)
	default:
		b, err := model.ParseBoard(subject)
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown board: %s", args[0])}
		}
		boards = []model.Board{b}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Boards: boards}}, nil
}

func parseStatus(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "status requires a task id"}
	}
	return Command{Type: TypeStatus, Raw: raw, Status: &StatusArgs{TaskID: args[0]}}, nil
}
