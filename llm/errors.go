package llm

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify a failure returned by any pipeline stage.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrLoad          = errors.New("load error")
	ErrStore         = errors.New("store error")
	ErrModel         = errors.New("model error")
)

// Error records the failed operation together with its kind and cause
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Wrap returns err annotated with kind and op, or nil when err is nil
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
