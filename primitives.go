package gokata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kanemura/gokata/jsonschema"
)

// Scalar schemas exist to serve as array element schemas; their surface is
// intentionally small. Each mirrors the array's copy-on-write builder
// semantics.

// NumberSchema validates float64 values, coercing numeric text and integer
// inputs.
type NumberSchema struct {
	base
}

// Number returns a new number schema.
func Number() *NumberSchema {
	n := &NumberSchema{base: newBase("number")}
	return n.WithMutation(func(n *NumberSchema) {
		n.Transform(coerceNumber)
	})
}

// coerceNumber is the number cast transform: numeric text and integer inputs
// become float64; anything else that is not already a number passes through
// untouched unless it is text, which degrades to Absent on parse failure.
func coerceNumber(v, _ any, _ Schema) any {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Absent
		}
		return f
	}
	return v
}

func (n *NumberSchema) clone() *NumberSchema {
	return &NumberSchema{base: n.copyBase()}
}

func (n *NumberSchema) mutate() *NumberSchema {
	if n.mutating {
		return n
	}
	return n.clone()
}

// Clone returns a deep-independent copy.
func (n *NumberSchema) Clone() *NumberSchema { return n.clone() }

// WithMutation runs fn with builder calls mutating the receiver in place.
func (n *NumberSchema) WithMutation(fn func(*NumberSchema)) *NumberSchema {
	before := n.mutating
	n.mutating = true
	fn(n)
	n.mutating = before
	return n
}

// Test registers a validation test.
func (n *NumberSchema) Test(t Test) *NumberSchema {
	next := n.mutate()
	next.addTest(t)
	return next
}

// Transform appends a cast transform.
func (n *NumberSchema) Transform(fn Transform) *NumberSchema {
	next := n.mutate()
	next.addTransform(fn)
	return next
}

// Required marks the schema as requiring a value.
func (n *NumberSchema) Required(message ...string) *NumberSchema {
	next := n.mutate()
	next.spec.Presence = Required
	if len(message) > 0 {
		next.requiredMessage = message[0]
	}
	return next
}

// Optional removes the presence requirement.
func (n *NumberSchema) Optional() *NumberSchema {
	next := n.mutate()
	next.spec.Presence = Optional
	return next
}

// Nullable accepts null as a valid value.
func (n *NumberSchema) Nullable() *NumberSchema {
	next := n.mutate()
	next.spec.Nullable = true
	return next
}

// Default installs a producer applied when a cast result is Absent.
func (n *NumberSchema) Default(producer func() any) *NumberSchema {
	next := n.mutate()
	next.spec.Default = producer
	return next
}

// DefaultValue is Default with a fixed value.
func (n *NumberSchema) DefaultValue(v any) *NumberSchema {
	return n.Default(func() any { return v })
}

// Min registers the exclusive "min" bound test. The bound is numeric or a
// *Ref resolved at execution time; anything else panics. Absent values pass.
func (n *NumberSchema) Min(bound any, message ...string) *NumberSchema {
	return n.Test(numberBoundTest(TestNameMin, bound, message, func(v, limit float64) bool {
		return v >= limit
	}))
}

// Max registers the exclusive "max" bound test; same bound rules as Min.
func (n *NumberSchema) Max(bound any, message ...string) *NumberSchema {
	return n.Test(numberBoundTest(TestNameMax, bound, message, func(v, limit float64) bool {
		return v <= limit
	}))
}

func numberBoundTest(name string, bound any, message []string, ok func(v, limit float64) bool) Test {
	switch bound.(type) {
	case int, int64, float64, *Ref:
	default:
		panic(fmt.Sprintf("gokata: number %s bound must be numeric or *Ref, got %T", name, bound))
	}
	t := Test{
		Name:       name,
		Exclusive:  true,
		MessageKey: "number." + name,
		Params:     map[string]any{name: bound},
		Check: func(v any, tc TestContext) (bool, error) {
			f, isNum := asFloat(v)
			if !isNum {
				return true, nil
			}
			limit, resolved := asFloat(tc.ResolveParam(bound))
			if !resolved {
				return false, nil
			}
			return ok(f, limit), nil
		},
	}
	if len(message) > 0 {
		t.Message = message[0]
	}
	return t
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (n *NumberSchema) isType(v any) bool {
	_, ok := v.(float64)
	return ok
}

func (n *NumberSchema) isPresent(v any) bool {
	return !IsAbsent(v) && v != nil
}

// Cast coerces v toward a float64.
func (n *NumberSchema) Cast(v any, opts Options) any {
	return n.castValue(n, v, opts)
}

// Validate checks v in asynchronous mode.
func (n *NumberSchema) Validate(ctx context.Context, v any, opts Options) (any, error) {
	opts.Sync = false
	return n.validateValue(ctx, v, opts)
}

// ValidateSync checks v entirely on the caller's stack.
func (n *NumberSchema) ValidateSync(v any, opts Options) (any, error) {
	opts.Sync = true
	return n.validateValue(context.Background(), v, opts)
}

func (n *NumberSchema) validateValue(ctx context.Context, v any, opts Options) (any, error) {
	return n.validatePipeline(ctx, n, v, opts)
}

// Describe produces the structural descriptor.
func (n *NumberSchema) Describe() Descriptor { return n.describeBase() }

// JSONSchema projects the schema into a JSON Schema fragment.
func (n *NumberSchema) JSONSchema() (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{Type: "number", Nullable: n.spec.Nullable}
	if min, ok := n.intTestParam(TestNameMin, "min"); ok {
		f := float64(min)
		s.Minimum = &f
	}
	if max, ok := n.intTestParam(TestNameMax, "max"); ok {
		f := float64(max)
		s.Maximum = &f
	}
	return s, nil
}

// StringSchema validates string values, rendering scalar inputs to text.
type StringSchema struct {
	base
}

// String returns a new string schema.
func String() *StringSchema {
	s := &StringSchema{base: newBase("string")}
	return s.WithMutation(func(s *StringSchema) {
		s.Transform(coerceString)
	})
}

// coerceString renders scalar inputs to text; composite values pass through
// for the type check to reject.
func coerceString(v, _ any, _ Schema) any {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return v
}

func (s *StringSchema) clone() *StringSchema {
	return &StringSchema{base: s.copyBase()}
}

func (s *StringSchema) mutate() *StringSchema {
	if s.mutating {
		return s
	}
	return s.clone()
}

// Clone returns a deep-independent copy.
func (s *StringSchema) Clone() *StringSchema { return s.clone() }

// WithMutation runs fn with builder calls mutating the receiver in place.
func (s *StringSchema) WithMutation(fn func(*StringSchema)) *StringSchema {
	before := s.mutating
	s.mutating = true
	fn(s)
	s.mutating = before
	return s
}

// Test registers a validation test.
func (s *StringSchema) Test(t Test) *StringSchema {
	next := s.mutate()
	next.addTest(t)
	return next
}

// Transform appends a cast transform.
func (s *StringSchema) Transform(fn Transform) *StringSchema {
	next := s.mutate()
	next.addTransform(fn)
	return next
}

// Required marks the schema as requiring a value.
func (s *StringSchema) Required(message ...string) *StringSchema {
	next := s.mutate()
	next.spec.Presence = Required
	if len(message) > 0 {
		next.requiredMessage = message[0]
	}
	return next
}

// Optional removes the presence requirement.
func (s *StringSchema) Optional() *StringSchema {
	next := s.mutate()
	next.spec.Presence = Optional
	return next
}

// Nullable accepts null as a valid value.
func (s *StringSchema) Nullable() *StringSchema {
	next := s.mutate()
	next.spec.Nullable = true
	return next
}

// Default installs a producer applied when a cast result is Absent.
func (s *StringSchema) Default(producer func() any) *StringSchema {
	next := s.mutate()
	next.spec.Default = producer
	return next
}

// DefaultValue is Default with a fixed value.
func (s *StringSchema) DefaultValue(v any) *StringSchema {
	return s.Default(func() any { return v })
}

func (s *StringSchema) isType(v any) bool {
	_, ok := v.(string)
	return ok
}

func (s *StringSchema) isPresent(v any) bool {
	return !IsAbsent(v) && v != nil
}

// Cast coerces v toward a string.
func (s *StringSchema) Cast(v any, opts Options) any {
	return s.castValue(s, v, opts)
}

// Validate checks v in asynchronous mode.
func (s *StringSchema) Validate(ctx context.Context, v any, opts Options) (any, error) {
	opts.Sync = false
	return s.validateValue(ctx, v, opts)
}

// ValidateSync checks v entirely on the caller's stack.
func (s *StringSchema) ValidateSync(v any, opts Options) (any, error) {
	opts.Sync = true
	return s.validateValue(context.Background(), v, opts)
}

func (s *StringSchema) validateValue(ctx context.Context, v any, opts Options) (any, error) {
	return s.validatePipeline(ctx, s, v, opts)
}

// Describe produces the structural descriptor.
func (s *StringSchema) Describe() Descriptor { return s.describeBase() }

// JSONSchema projects the schema into a JSON Schema fragment.
func (s *StringSchema) JSONSchema() (*jsonschema.Schema, error) {
	return &jsonschema.Schema{Type: "string", Nullable: s.spec.Nullable}, nil
}

// BoolSchema validates bool values, coercing "true"/"false" text.
type BoolSchema struct {
	base
}

// Bool returns a new bool schema.
func Bool() *BoolSchema {
	b := &BoolSchema{base: newBase("boolean")}
	return b.WithMutation(func(b *BoolSchema) {
		b.Transform(coerceBool)
	})
}

func coerceBool(v, _ any, _ Schema) any {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		parsed, err := strconv.ParseBool(t)
		if err != nil {
			return Absent
		}
		return parsed
	}
	return v
}

func (b *BoolSchema) clone() *BoolSchema {
	return &BoolSchema{base: b.copyBase()}
}

func (b *BoolSchema) mutate() *BoolSchema {
	if b.mutating {
		return b
	}
	return b.clone()
}

// Clone returns a deep-independent copy.
func (b *BoolSchema) Clone() *BoolSchema { return b.clone() }

// WithMutation runs fn with builder calls mutating the receiver in place.
func (b *BoolSchema) WithMutation(fn func(*BoolSchema)) *BoolSchema {
	before := b.mutating
	b.mutating = true
	fn(b)
	b.mutating = before
	return b
}

// Test registers a validation test.
func (b *BoolSchema) Test(t Test) *BoolSchema {
	next := b.mutate()
	next.addTest(t)
	return next
}

// Transform appends a cast transform.
func (b *BoolSchema) Transform(fn Transform) *BoolSchema {
	next := b.mutate()
	next.addTransform(fn)
	return next
}

// Required marks the schema as requiring a value.
func (b *BoolSchema) Required(message ...string) *BoolSchema {
	next := b.mutate()
	next.spec.Presence = Required
	if len(message) > 0 {
		next.requiredMessage = message[0]
	}
	return next
}

// Optional removes the presence requirement.
func (b *BoolSchema) Optional() *BoolSchema {
	next := b.mutate()
	next.spec.Presence = Optional
	return next
}

// Nullable accepts null as a valid value.
func (b *BoolSchema) Nullable() *BoolSchema {
	next := b.mutate()
	next.spec.Nullable = true
	return next
}

// Default installs a producer applied when a cast result is Absent.
func (b *BoolSchema) Default(producer func() any) *BoolSchema {
	next := b.mutate()
	next.spec.Default = producer
	return next
}

// DefaultValue is Default with a fixed value.
func (b *BoolSchema) DefaultValue(v any) *BoolSchema {
	return b.Default(func() any { return v })
}

func (b *BoolSchema) isType(v any) bool {
	_, ok := v.(bool)
	return ok
}

func (b *BoolSchema) isPresent(v any) bool {
	return !IsAbsent(v) && v != nil
}

// Cast coerces v toward a bool.
func (b *BoolSchema) Cast(v any, opts Options) any {
	return b.castValue(b, v, opts)
}

// Validate checks v in asynchronous mode.
func (b *BoolSchema) Validate(ctx context.Context, v any, opts Options) (any, error) {
	opts.Sync = false
	return b.validateValue(ctx, v, opts)
}

// ValidateSync checks v entirely on the caller's stack.
func (b *BoolSchema) ValidateSync(v any, opts Options) (any, error) {
	opts.Sync = true
	return b.validateValue(context.Background(), v, opts)
}

func (b *BoolSchema) validateValue(ctx context.Context, v any, opts Options) (any, error) {
	return b.validatePipeline(ctx, b, v, opts)
}

// Describe produces the structural descriptor.
func (b *BoolSchema) Describe() Descriptor { return b.describeBase() }

// JSONSchema projects the schema into a JSON Schema fragment.
func (b *BoolSchema) JSONSchema() (*jsonschema.Schema, error) {
	return &jsonschema.Schema{Type: "boolean", Nullable: b.spec.Nullable}, nil
}
