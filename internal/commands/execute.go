package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Run    func(RunArgs) (Result, error)
	Show   func(ShowArgs) (Result, error)
	Status func(StatusArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeRun:
		if handlers.Run == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "run handler not configured"}
		}
		return handlers.Run(*cmd.Run)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "show handler not configured"}
		}
		return handlers.Show(*cmd.Show)
	case TypeStatus:
		if handlers.Status == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "status handler not configured"}
		}
		return handlers.Status(*cmd.Status)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
