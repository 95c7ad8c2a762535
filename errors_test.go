package gokata_test

import (
	"fmt"
	"strings"
	"testing"

	gokata "github.com/kanemura/gokata"
)

func TestAsValidationError_GuardsWrappedErrors(t *testing.T) {
	leaf := gokata.NewValidationError("too small", 1, "[0]", "min")
	wrapped := fmt.Errorf("validate: %w", leaf)

	if ve, ok := gokata.AsValidationError(wrapped); !ok || ve != leaf {
		t.Fatalf("expected guard to unwrap, got %v (%v)", ve, ok)
	}
	if _, ok := gokata.AsValidationError(fmt.Errorf("boom")); ok {
		t.Fatalf("plain errors must not match")
	}
	if _, ok := gokata.AsValidationError(nil); ok {
		t.Fatalf("nil must not match")
	}
}

func TestAggregateError_FlattensNestedAggregates(t *testing.T) {
	a := gokata.NewValidationError("a", nil, "[0]", "min")
	b := gokata.NewValidationError("b", nil, "[1]", "min")
	nested := gokata.AggregateError([]*gokata.ValidationError{a, b}, nil, "")
	c := gokata.NewValidationError("c", nil, "[2]", "max")

	agg := gokata.AggregateError([]*gokata.ValidationError{nested, c}, nil, "")
	if len(agg.Inner) != 3 {
		t.Fatalf("expected 3 flattened failures, got %d", len(agg.Inner))
	}
	if agg.Inner[0] != a || agg.Inner[1] != b || agg.Inner[2] != c {
		t.Fatalf("flattening must preserve discovery order")
	}
	if agg.Message != "3 errors occurred" {
		t.Fatalf("unexpected aggregate message: %q", agg.Message)
	}
}

func TestAggregateError_EmptyIsNil(t *testing.T) {
	if agg := gokata.AggregateError(nil, nil, ""); agg != nil {
		t.Fatalf("expected nil for no failures, got %v", agg)
	}
	if agg := gokata.AggregateError([]*gokata.ValidationError{nil}, nil, ""); agg != nil {
		t.Fatalf("nil entries must be ignored, got %v", agg)
	}
}

func TestValidationError_SummaryTruncates(t *testing.T) {
	var errs []*gokata.ValidationError
	for i := 0; i < 5; i++ {
		errs = append(errs, gokata.NewValidationError("bad", nil, fmt.Sprintf("[%d]", i), "min"))
	}
	agg := gokata.AggregateError(errs, nil, "")
	msg := agg.Error()
	if !strings.Contains(msg, "(total 5)") {
		t.Fatalf("expected truncation marker, got %q", msg)
	}
	if !strings.Contains(msg, "bad at [0]") {
		t.Fatalf("expected first failure shown, got %q", msg)
	}
}
