package computer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ToolError.
type ErrorKind string

const (
	KindInvalidAction           ErrorKind = "invalid_action"
	KindMissingParameter        ErrorKind = "missing_parameter"
	KindUnexpectedParameter     ErrorKind = "unexpected_parameter"
	KindMalformedCoordinate     ErrorKind = "malformed_coordinate"
	KindCapturePrimitiveFailure ErrorKind = "capture_primitive_failure"
)

// Sentinels for errors.Is. A *ToolError matches the sentinel of its kind.
var (
	ErrInvalidAction           = errors.New("invalid action")
	ErrMissingParameter        = errors.New("missing parameter")
	ErrUnexpectedParameter     = errors.New("unexpected parameter")
	ErrMalformedCoordinate     = errors.New("malformed coordinate")
	ErrCapturePrimitiveFailure = errors.New("device primitive failed")
)

var sentinels = map[ErrorKind]error{
	KindInvalidAction:           ErrInvalidAction,
	KindMissingParameter:        ErrMissingParameter,
	KindUnexpectedParameter:     ErrUnexpectedParameter,
	KindMalformedCoordinate:     ErrMalformedCoordinate,
	KindCapturePrimitiveFailure: ErrCapturePrimitiveFailure,
}

// ToolError is the single failure value returned by Dispatch. It carries no
// partial result.
type ToolError struct {
	Kind    ErrorKind
	Action  string
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func (e *ToolError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// IsValidation reports whether err was raised before any device primitive
// ran.
func IsValidation(err error) bool {
	var te *ToolError
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind != KindCapturePrimitiveFailure
}

// KindOf returns the kind of err, or "" when err is not a ToolError.
func KindOf(err error) ErrorKind {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

func invalidAction(action string) error {
	return &ToolError{Kind: KindInvalidAction, Action: action, Message: fmt.Sprintf("Invalid action: %s", action)}
}

func missing(param string, a Action) error {
	return &ToolError{Kind: KindMissingParameter, Action: string(a), Message: fmt.Sprintf("%s is required for %s", param, a)}
}

func unexpected(param string, a Action) error {
	return &ToolError{Kind: KindUnexpectedParameter, Action: string(a), Message: fmt.Sprintf("%s is not accepted for %s", param, a)}
}

func malformed(raw string, a Action, why string) error {
	return &ToolError{Kind: KindMalformedCoordinate, Action: string(a), Message: fmt.Sprintf("%s must be %s", raw, why)}
}

func primitiveFailure(a Action, err error) error {
	return &ToolError{Kind: KindCapturePrimitiveFailure, Action: string(a), Message: fmt.Sprintf("%s failed: %v", a, err), Err: err}
}
