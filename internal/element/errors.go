package element

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrReadOnly        = errors.New("property is read-only")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidCommand  = errors.New("invalid command")
)

// CommandError is returned when a script call is meaningless for the
// element's current configuration.
type CommandError struct {
	Element string
	Action  string
	Msg     string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%q.%s: %s", e.Element, e.Action, e.Msg)
	}
	return fmt.Sprintf("%q.%s: %v", e.Element, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidCommand
}

func commandError(element, action, msg string) error {
	return &CommandError{Element: element, Action: action, Msg: msg}
}

func wrapCommandError(element, action string, err error) error {
	return &CommandError{Element: element, Action: action, Err: err}
}
