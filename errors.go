package gokata

import (
	"errors"
	"fmt"
	"strings"
)

// Names of the built-in checks (exported consts for stable matching on
// ValidationError.TestName).
const (
	TestNameType     = "typeError"
	TestNameNullable = "nullable"
	TestNameRequired = "required"
	TestNameMin      = "min"
	TestNameMax      = "max"
)

// ValidationError is a structured validation failure. Aggregates carry the
// individual failures in Inner, in discovery order: base-level failures
// first, then element failures by ascending index.
type ValidationError struct {
	Path     string
	Message  string
	Value    any
	TestName string
	// Params carries structured parameters (e.g. {"min": 2, "path": "tags"})
	// for i18n and observability.
	Params map[string]any
	Inner  []*ValidationError
}

// Error summarizes the failure; aggregates show the first few entries.
func (e *ValidationError) Error() string {
	if len(e.Inner) == 0 {
		if e.Path != "" {
			return fmt.Sprintf("%s at %s", e.Message, e.Path)
		}
		return e.Message
	}
	const maxShown = 3
	b := &strings.Builder{}
	b.WriteString(e.Message)
	b.WriteString(": ")
	n := len(e.Inner)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Inner[i].Error())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// NewValidationError builds a single (leaf) failure.
func NewValidationError(message string, value any, path, testName string) *ValidationError {
	return &ValidationError{Path: path, Message: message, Value: value, TestName: testName}
}

// AggregateError folds errs into one failure whose Inner list preserves
// discovery order. Nested aggregates contribute their own Inner entries, so
// the tree flattens to a list. Returns nil when errs is empty.
func AggregateError(errs []*ValidationError, value any, path string) *ValidationError {
	var inner []*ValidationError
	for _, e := range errs {
		if e == nil {
			continue
		}
		if len(e.Inner) > 0 {
			inner = append(inner, e.Inner...)
			continue
		}
		inner = append(inner, e)
	}
	if len(inner) == 0 {
		return nil
	}
	msg := inner[0].Message
	if len(inner) > 1 {
		msg = fmt.Sprintf("%d errors occurred", len(inner))
	}
	return &ValidationError{Path: path, Message: msg, Value: value, Inner: inner}
}

// AsValidationError distinguishes structured validation failures from
// arbitrary errors using errors.As internally.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
