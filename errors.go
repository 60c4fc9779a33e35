package modkit

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable failure code carried by Error.
// Consumers may declare their own codes next to the runtime ones.
type Code string

// Codes emitted by the runtime.
const (
	// CodeInvalidNewInstance is returned when a module was constructed without Create.
	CodeInvalidNewInstance Code = "InvalidNewInstance"

	// CodeInvalidWorkflow is returned when lifecycle methods are invoked out of order.
	CodeInvalidWorkflow Code = "InvalidWorkflow"

	// CodeNotFound is returned when an undeclared submodule name is requested.
	CodeNotFound Code = "NotFound"

	// CodeInjectingError is returned when a declared submodule failed to construct or run.
	CodeInjectingError Code = "InjectingError"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidNewInstance = &Error{Code: CodeInvalidNewInstance}
	ErrInvalidWorkflow    = &Error{Code: CodeInvalidWorkflow}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrInjecting          = &Error{Code: CodeInjectingError}
)

// Error is a coded failure value. The cause chain is preserved through Unwrap.
type Error struct {
	Code    Code
	Message string
	Data    map[string]any
	Cause   error
}

// NewError builds a coded error.
func NewError(code Code, message string, data map[string]any, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]", e.Code))

	if name, ok := e.Data["name"].(string); ok && name != "" {
		b.WriteString(fmt.Sprintf(" module=%q:", name))
	}

	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsInvalidNewInstance(err error) bool {
	return CodeOf(err) == CodeInvalidNewInstance
}

func IsInvalidWorkflow(err error) bool {
	return CodeOf(err) == CodeInvalidWorkflow
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

func IsInjectingError(err error) bool {
	return CodeOf(err) == CodeInjectingError
}

func errInvalidNewInstance(typeName string) *Error {
	return NewError(
		CodeInvalidNewInstance,
		fmt.Sprintf("%s was not built through modkit.Create", typeName),
		map[string]any{"type": typeName},
		nil,
	)
}

func errInvalidWorkflow(message string) *Error {
	return NewError(CodeInvalidWorkflow, message, nil, nil)
}

func errNotFound(name, parent string) *Error {
	return NewError(
		CodeNotFound,
		fmt.Sprintf("module not declared in %s", parent),
		map[string]any{"name": name},
		nil,
	)
}

func errInjecting(name string, cause error) *Error {
	return NewError(
		CodeInjectingError,
		"failed to inject module",
		map[string]any{"name": name},
		cause,
	)
}

// Static errors outside the coded taxonomy.
var (
	ErrNilFactory       = errors.New("factory is nil")
	ErrFactoryNilModule = errors.New("factory returned a nil module")
	ErrPluginRegistered = errors.New("plugin already registered")
	ErrConfigNotMap     = errors.New("config section is not a mapping")
	ErrModuleType       = errors.New("module has unexpected type")
)
