// Package config implements the project configuration model for hdlforge:
// parsing of project TOML documents, inline configuration extraction,
// expression evaluation, and the priority-ordered composition of parameter
// and define values for a (tool, configuration) pair.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies configuration failures so callers can react to the
// category without parsing messages.
type ErrorKind string

const (
	// KindSchema indicates a malformed document or a missing required field.
	KindSchema ErrorKind = "schema"

	// KindUnknownReference indicates a reference to an unknown parameter,
	// define, configuration, or tool name.
	KindUnknownReference ErrorKind = "unknown-reference"

	// KindCircularDependency indicates a cycle in the configuration
	// inheritance graph.
	KindCircularDependency ErrorKind = "circular-dependency"

	// KindValidation indicates a resolved value violating a declared
	// range, allow-list, or type constraint.
	KindValidation ErrorKind = "validation"

	// KindExpression indicates an expression failure: unknown function,
	// unresolved reference, or a circular expression dependency.
	KindExpression ErrorKind = "expression"
)

// Error is a classified configuration error with entity context.
// None of these are recovered internally; they surface to the command
// boundary unchanged.
type Error struct {
	// Kind is the failure classification.
	Kind ErrorKind

	// Message is the human-readable error message.
	Message string

	// Parameter is the parameter or define name involved, if any.
	Parameter string

	// Configuration is the configuration name involved, if any.
	Configuration string

	// Tool is the tool name involved, if any.
	Tool string

	// Cycle holds the full cycle path for circular-dependency and
	// circular-expression errors.
	Cycle []string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Kind, e.Message)

	var ctx []string
	if e.Parameter != "" {
		ctx = append(ctx, "parameter="+e.Parameter)
	}
	if e.Configuration != "" {
		ctx = append(ctx, "configuration="+e.Configuration)
	}
	if e.Tool != "" {
		ctx = append(ctx, "tool="+e.Tool)
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(ctx, ", "))
	}
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&sb, ": %s", strings.Join(e.Cycle, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so callers can use
// errors.Is(err, &Error{Kind: KindValidation}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithParameter adds parameter context to an error.
func (e *Error) WithParameter(name string) *Error {
	e.Parameter = name
	return e
}

// WithConfiguration adds configuration context to an error.
func (e *Error) WithConfiguration(name string) *Error {
	e.Configuration = name
	return e
}

// WithTool adds tool context to an error.
func (e *Error) WithTool(name string) *Error {
	e.Tool = name
	return e
}

// NewSchemaError creates a schema error.
func NewSchemaError(format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Message: fmt.Sprintf(format, args...)}
}

// NewUnknownReferenceError creates an unknown-reference error.
func NewUnknownReferenceError(format string, args ...any) *Error {
	return &Error{Kind: KindUnknownReference, Message: fmt.Sprintf(format, args...)}
}

// NewCircularDependencyError creates a circular-dependency error carrying
// the full cycle path.
func NewCircularDependencyError(message string, cycle []string) *Error {
	return &Error{Kind: KindCircularDependency, Message: message, Cycle: cycle}
}

// NewValidationError creates a validation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewExpressionError creates an expression error.
func NewExpressionError(format string, args ...any) *Error {
	return &Error{Kind: KindExpression, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a config Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
