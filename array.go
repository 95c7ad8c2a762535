package gokata

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/kanemura/gokata/jsonschema"
)

// ArraySchema validates sequences, optionally delegating per-slot casting and
// validation to a bound element schema.
type ArraySchema struct {
	base
	// inner is a shared reference to the element schema; Of replaces it and
	// never mutates the referenced schema.
	inner Schema
}

// Array returns a new array schema. Until Of binds an element schema the
// array is an opaque sequence of unconstrained elements.
func Array() *ArraySchema {
	a := &ArraySchema{base: newBase("array")}
	return a.WithMutation(func(a *ArraySchema) {
		a.Transform(parseSequence)
	})
}

// parseSequence is the array cast transform: text is parsed as JSON, decoded
// []any values are wrapped into a *Sequence, and anything that cannot become
// a sequence through parsing degrades to Absent. Non-string values that are
// already out of scope pass through for the type check to reject.
func parseSequence(v, _ any, _ Schema) any {
	if s, ok := v.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return Absent
		}
		raw, ok := parsed.([]any)
		if !ok {
			return Absent
		}
		return SeqOf(raw...)
	}
	if raw, ok := v.([]any); ok {
		return SeqOf(raw...)
	}
	return v
}

func (a *ArraySchema) clone() *ArraySchema {
	return &ArraySchema{base: a.copyBase(), inner: a.inner}
}

// mutate returns the receiver inside a WithMutation scope and a clone
// otherwise; builder methods write only to its result.
func (a *ArraySchema) mutate() *ArraySchema {
	if a.mutating {
		return a
	}
	return a.clone()
}

// Clone returns a deep-independent copy.
func (a *ArraySchema) Clone() *ArraySchema { return a.clone() }

// WithMutation runs fn with builder calls mutating the receiver in place
// instead of cloning per call. Intended for initial assembly; the two
// disciplines must not be mixed within one call chain.
func (a *ArraySchema) WithMutation(fn func(*ArraySchema)) *ArraySchema {
	before := a.mutating
	a.mutating = true
	fn(a)
	a.mutating = before
	return a
}

// Test registers a validation test, replacing a same-named predecessor when
// the test is exclusive.
func (a *ArraySchema) Test(t Test) *ArraySchema {
	next := a.mutate()
	next.addTest(t)
	return next
}

// Transform appends a cast transform.
func (a *ArraySchema) Transform(fn Transform) *ArraySchema {
	next := a.mutate()
	next.addTransform(fn)
	return next
}

// Required marks the schema as requiring a non-empty sequence.
func (a *ArraySchema) Required(message ...string) *ArraySchema {
	next := a.mutate()
	next.spec.Presence = Required
	if len(message) > 0 {
		next.requiredMessage = message[0]
	}
	return next
}

// Optional removes the presence requirement.
func (a *ArraySchema) Optional() *ArraySchema {
	next := a.mutate()
	next.spec.Presence = Optional
	return next
}

// Nullable accepts null as a valid value.
func (a *ArraySchema) Nullable() *ArraySchema {
	next := a.mutate()
	next.spec.Nullable = true
	return next
}

// Default installs a producer applied when a cast result is Absent.
func (a *ArraySchema) Default(producer func() any) *ArraySchema {
	next := a.mutate()
	next.spec.Default = producer
	return next
}

// DefaultValue is Default with a fixed value.
func (a *ArraySchema) DefaultValue(v any) *ArraySchema {
	return a.Default(func() any { return v })
}

// Of returns a copy bound to the given element schema. A nil elem disables
// recursive descent while keeping the outer array checks. A non-nil
// interface wrapping a nil schema pointer is a usage error and panics at
// call time.
func (a *ArraySchema) Of(elem Schema) *ArraySchema {
	if elem != nil && isNilSchema(elem) {
		panic("gokata: Array.Of: nil schema value")
	}
	next := a.mutate()
	next.inner = elem
	return next
}

// Min registers the exclusive "min" length test. The bound is an int or a
// *Ref resolved against the validation context at execution time; any other
// bound is a usage error and panics. An absent value always passes.
func (a *ArraySchema) Min(bound any, message ...string) *ArraySchema {
	return a.Test(lengthTest(TestNameMin, bound, message, func(n, limit int) bool {
		return n >= limit
	}))
}

// Max registers the exclusive "max" length test; same bound rules as Min.
func (a *ArraySchema) Max(bound any, message ...string) *ArraySchema {
	return a.Test(lengthTest(TestNameMax, bound, message, func(n, limit int) bool {
		return n <= limit
	}))
}

func lengthTest(name string, bound any, message []string, ok func(n, limit int) bool) Test {
	switch bound.(type) {
	case int, *Ref:
	default:
		panic(fmt.Sprintf("gokata: array %s bound must be int or *Ref, got %T", name, bound))
	}
	t := Test{
		Name:       name,
		Exclusive:  true,
		MessageKey: "array." + name,
		Params:     map[string]any{name: bound},
		Check: func(v any, tc TestContext) (bool, error) {
			seq, isSeq := v.(*Sequence)
			if !isSeq {
				// absence is a presence concern, not a length one
				return true, nil
			}
			limit, resolved := asInt(tc.ResolveParam(bound))
			if !resolved {
				return false, nil
			}
			return ok(seq.Len(), limit), nil
		},
	}
	if len(message) > 0 {
		t.Message = message[0]
	}
	return t
}

// Ensure guarantees a sequence: null input becomes an empty sequence, a
// missing value falls back to the installed default (an empty sequence when
// none was set), and any other non-sequence value is wrapped
// into a one-element sequence. This intentionally overrides Nullable; an
// ensured array never yields nil.
func (a *ArraySchema) Ensure() *ArraySchema {
	next := a.mutate()
	return next.WithMutation(func(a *ArraySchema) {
		if a.spec.Default == nil {
			a.Default(func() any { return NewSequence(0) })
		}
		a.Transform(func(v, _ any, _ Schema) any {
			switch {
			case IsAbsent(v):
				return v // the default producer fills this in
			case v == nil:
				return NewSequence(0)
			default:
				if _, ok := v.(*Sequence); ok {
					return v
				}
				if raw, ok := v.([]any); ok {
					return SeqOf(raw...)
				}
				return SeqOf(v)
			}
		})
	})
}

// Compact installs a transform removing rejected elements. The default
// predicate rejects falsy values (false, numeric zero, empty string, null,
// Absent); a caller-supplied predicate returns true for elements to reject,
// mirroring the default's removal semantics. The input sequence is never
// mutated; null passes through untouched. Empty slots are dropped.
func (a *ArraySchema) Compact(reject func(v any, index int, seq *Sequence) bool) *ArraySchema {
	keep := func(v any, i int, seq *Sequence) bool { return !isFalsy(v) }
	if reject != nil {
		keep = func(v any, i int, seq *Sequence) bool { return !reject(v, i, seq) }
	}
	return a.Transform(func(v, _ any, _ Schema) any {
		seq, ok := v.(*Sequence)
		if !ok {
			return v
		}
		out := NewSequence(0)
		for i := 0; i < seq.Len(); i++ {
			ev, defined := seq.At(i)
			if !defined {
				continue
			}
			if keep(ev, i, seq) {
				out.Append(ev)
			}
		}
		return out
	})
}

// isFalsy mirrors loose-typing falsiness for the default Compact predicate.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case absentValue:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}

func (a *ArraySchema) isType(v any) bool {
	_, ok := v.(*Sequence)
	return ok
}

// isPresent is stricter for arrays: present means a non-empty sequence.
func (a *ArraySchema) isPresent(v any) bool {
	seq, ok := v.(*Sequence)
	return ok && seq.Len() > 0
}

// Cast runs the inherited transform chain and then maps every defined slot
// through the bound element schema. When no element changes, the original
// sequence reference is returned untouched so downstream change detection
// sees a no-op.
func (a *ArraySchema) Cast(v any, opts Options) any {
	v = a.castValue(a, v, opts)
	seq, ok := v.(*Sequence)
	if !ok || a.inner == nil {
		return v
	}
	changed := false
	out := NewSequence(seq.Len())
	for i := 0; i < seq.Len(); i++ {
		ev, defined := seq.At(i)
		if !defined {
			continue
		}
		cast := a.inner.Cast(ev, Options{
			Path:    indexPath(opts.Path, i),
			Context: opts.Context,
			Parent:  seq,
			Index:   i,
		})
		if !sameValue(cast, ev) {
			changed = true
		}
		out.Set(i, cast)
	}
	if !changed {
		return seq
	}
	return out
}

// Validate checks v in asynchronous mode: element tasks may run concurrently,
// while the aggregate stays ordered by slot index.
func (a *ArraySchema) Validate(ctx context.Context, v any, opts Options) (any, error) {
	opts.Sync = false
	return a.validateValue(ctx, v, opts)
}

// ValidateSync checks v entirely on the caller's stack.
func (a *ArraySchema) ValidateSync(v any, opts Options) (any, error) {
	opts.Sync = true
	return a.validateValue(context.Background(), v, opts)
}

// validateValue implements the recursive validation protocol: the inherited
// base phase first, then one task per slot when descent applies, all
// aggregated by the shared runner.
func (a *ArraySchema) validateValue(ctx context.Context, raw any, opts Options) (any, error) {
	abortEarly := resolveFlag(opts.AbortEarly, a.spec.AbortEarly)
	recursive := resolveFlag(opts.Recursive, a.spec.Recursive)

	original := opts.OriginalValue
	if original == nil {
		original = raw
	}

	value, baseErr := a.validatePipeline(ctx, a, raw, opts)
	var prior []*ValidationError
	if baseErr != nil {
		ve, ok := AsValidationError(baseErr)
		if !ok || abortEarly {
			return value, baseErr
		}
		// record and keep descending so length and element violations can be
		// reported in one pass
		prior = append(prior, ve)
	}

	var tasks []task
	if recursive && a.inner != nil && a.isType(value) {
		seq := value.(*Sequence)
		origSeq, _ := original.(*Sequence)
		tasks = make([]task, seq.Len())
		// iterate by length, never by defined slots: empty slots are
		// validated too
		for i := 0; i < seq.Len(); i++ {
			elem := seq.Get(i)
			elemOriginal := elem
			if origSeq != nil {
				if ov, ok := origSeq.At(i); ok {
					elemOriginal = ov
				}
			}
			elemOpts := Options{
				Path:          indexPath(opts.Path, i),
				Strict:        true, // no re-casting during validation
				AbortEarly:    opts.AbortEarly,
				Recursive:     opts.Recursive,
				Sync:          opts.Sync,
				Context:       opts.Context,
				OriginalValue: elemOriginal,
				Parent:        seq,
				Index:         i,
			}
			inner := a.inner
			tasks[i] = func(tctx context.Context) error {
				_, err := inner.validateValue(tctx, elem, elemOpts)
				return err
			}
		}
	}

	err := runTests(ctx, runTestsParams{
		Sync:       opts.Sync,
		Path:       opts.Path,
		Value:      value,
		Prior:      prior,
		AbortEarly: abortEarly,
		Tasks:      tasks,
	})
	return value, err
}

// Describe produces the structural descriptor, including the bound element
// schema's own recursively produced descriptor.
func (a *ArraySchema) Describe() Descriptor {
	d := a.describeBase()
	if a.inner != nil {
		inner := a.inner.Describe()
		d.Inner = &inner
	}
	return d
}

// JSONSchema projects the array into a JSON Schema fragment. Deferred
// reference bounds cannot project and are omitted.
func (a *ArraySchema) JSONSchema() (*jsonschema.Schema, error) {
	s := &jsonschema.Schema{Type: "array", Nullable: a.spec.Nullable}
	if a.inner != nil {
		items, err := a.inner.JSONSchema()
		if err != nil {
			return nil, err
		}
		s.Items = items
	}
	if n, ok := a.intTestParam(TestNameMin, "min"); ok {
		s.MinItems = &n
	}
	if n, ok := a.intTestParam(TestNameMax, "max"); ok {
		s.MaxItems = &n
	}
	return s, nil
}
