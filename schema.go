package gokata

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kanemura/gokata/jsonschema"
	"github.com/kanemura/gokata/locale"
)

// Schema is the capability shared by every schema variant. The interface is
// sealed: only variants in this package implement it, so binders such as
// Array.Of admit nothing else at compile time.
type Schema interface {
	// Cast coerces v toward the schema's shape. It never fails; uncastable
	// input degrades to the Absent sentinel.
	Cast(v any, opts Options) any
	// Validate casts (unless opts.Strict) and checks v, reporting every
	// violation found as one *ValidationError. Usage errors are returned as
	// plain errors and are never aggregated.
	Validate(ctx context.Context, v any, opts Options) (any, error)
	// ValidateSync is Validate restricted to the caller's stack; a test that
	// needs asynchronous execution fails fatally with ErrSyncUnsupported.
	ValidateSync(v any, opts Options) (any, error)
	// Describe produces the structural descriptor for tooling.
	Describe() Descriptor
	// JSONSchema projects the schema into a JSON Schema representation.
	JSONSchema() (*jsonschema.Schema, error)
	// TypeName reports the schema's type tag ("array", "number", ...).
	TypeName() string
	// Spec reads the behavioral flag record.
	Spec() SchemaSpec

	sealed()

	// Hooks consulted by the shared pipeline; variants override type and
	// presence semantics (arrays treat empty sequences as not present).
	isType(v any) bool
	isPresent(v any) bool
	// validateValue is the mode-carrying entry behind Validate/ValidateSync.
	validateValue(ctx context.Context, v any, opts Options) (any, error)
}

// Transform is one step of the cast pipeline. It receives the running value
// and the original input and returns the replacement value.
type Transform func(v, original any, s Schema) any

// TestContext carries the live call state into a test predicate.
type TestContext struct {
	Path     string
	Options  Options
	Parent   any
	Original any
	Schema   Schema
}

// ResolveParam materializes a test parameter, following deferred references
// against the live context.
func (tc TestContext) ResolveParam(v any) any {
	if r, ok := v.(*Ref); ok {
		return r.Resolve(tc)
	}
	return v
}

// Test is a named, optionally exclusive validation predicate. Registering an
// exclusive test replaces any predecessor with the same name.
type Test struct {
	Name      string
	Exclusive bool
	// Message overrides the locale template selected by MessageKey (or the
	// test name when MessageKey is empty). ${param} placeholders are
	// interpolated from Params plus "path".
	Message    string
	MessageKey string
	// Params may hold *Ref values; they resolve at execution time.
	Params map[string]any
	// Check runs on the caller's stack. CheckAsync may block or wait on other
	// work; a test carrying only CheckAsync cannot run in sync mode.
	Check      func(v any, tc TestContext) (bool, error)
	CheckAsync func(ctx context.Context, v any, tc TestContext) (bool, error)
}

// run evaluates the test against v, producing nil, a *ValidationError, or a
// fatal usage error.
func (t Test) run(ctx context.Context, v any, tc TestContext, sync bool) error {
	if t.Check == nil && t.CheckAsync == nil {
		return nil
	}
	if t.Check == nil && sync {
		return fmt.Errorf("%w: %q", ErrSyncUnsupported, t.Name)
	}
	var ok bool
	var err error
	if t.Check != nil {
		ok, err = t.Check(v, tc)
	} else {
		ok, err = t.CheckAsync(ctx, v, tc)
	}
	if err != nil {
		if ve, isVE := AsValidationError(err); isVE {
			return ve
		}
		return err
	}
	if ok {
		return nil
	}
	return t.fail(v, tc)
}

// fail renders the failure with resolved params and the locale message.
func (t Test) fail(v any, tc TestContext) *ValidationError {
	params := make(map[string]any, len(t.Params)+1)
	for k, p := range t.Params {
		params[k] = tc.ResolveParam(p)
	}
	params["path"] = displayPath(tc.Path)
	msg := t.Message
	if msg == "" {
		key := t.MessageKey
		if key == "" {
			key = t.Name
		}
		msg = locale.T(key, params)
	} else {
		msg = locale.Interpolate(msg, params)
	}
	ve := NewValidationError(msg, v, tc.Path, t.Name)
	ve.Params = params
	return ve
}

// base carries the state shared by every schema variant. Concrete variants
// embed it and surface their own typed builder methods; builder calls outside
// a WithMutation scope clone before touching this state.
type base struct {
	typeName        string
	spec            SchemaSpec
	tests           []Test
	transforms      []Transform
	requiredMessage string
	mutating        bool
}

func newBase(typeName string) base {
	return base{
		typeName: typeName,
		spec:     SchemaSpec{AbortEarly: true, Recursive: true},
	}
}

func (b *base) sealed() {}

func (b *base) TypeName() string { return b.typeName }

func (b *base) Spec() SchemaSpec { return b.spec }

// copyBase gives clone implementations an independent copy of the shared
// state.
func (b *base) copyBase() base {
	nb := *b
	nb.tests = append([]Test(nil), b.tests...)
	nb.transforms = append([]Transform(nil), b.transforms...)
	nb.mutating = false
	return nb
}

// addTest registers t, honoring exclusivity.
func (b *base) addTest(t Test) {
	if t.Exclusive {
		var kept []Test
		for _, prev := range b.tests {
			if prev.Name != t.Name {
				kept = append(kept, prev)
			}
		}
		b.tests = append(kept, t)
		return
	}
	b.tests = append(b.tests, t)
}

func (b *base) addTransform(fn Transform) {
	b.transforms = append(b.transforms, fn)
}

// castValue runs the transform chain and applies the default producer when
// the result is still Absent.
func (b *base) castValue(self Schema, v any, opts Options) any {
	original := v
	for _, fn := range b.transforms {
		v = fn(v, original, self)
	}
	if IsAbsent(v) && b.spec.Default != nil {
		v = b.spec.Default()
	}
	return v
}

// validatePipeline implements the shared validation flow: optional cast, the
// structural checks, then the registered tests through the runner. The
// returned value is the (possibly cast) input.
func (b *base) validatePipeline(ctx context.Context, self Schema, v any, opts Options) (any, error) {
	if !opts.Strict {
		v = self.Cast(v, opts)
	}
	if ve := b.checkStructure(self, v, opts); ve != nil {
		return v, ve
	}
	err := runTests(ctx, runTestsParams{
		Sync:       opts.Sync,
		Path:       opts.Path,
		Value:      v,
		AbortEarly: resolveFlag(opts.AbortEarly, b.spec.AbortEarly),
		Tasks:      b.testTasks(self, v, opts),
	})
	return v, err
}

// checkStructure runs the implicit checks that precede everything else:
// presence, nullability, and the type check. A structural failure makes the
// registered tests meaningless, so it is reported alone.
func (b *base) checkStructure(self Schema, v any, opts Options) *ValidationError {
	tc := b.testContext(self, opts)
	if b.spec.Presence == Required && !self.isPresent(v) {
		return Test{Name: TestNameRequired, MessageKey: "required", Message: b.requiredMessage}.fail(v, tc)
	}
	if v == nil {
		if !b.spec.Nullable {
			return Test{Name: TestNameNullable, MessageKey: "nullable"}.fail(v, tc)
		}
		return nil
	}
	if IsAbsent(v) {
		return nil
	}
	if !self.isType(v) {
		return Test{
			Name:       TestNameType,
			MessageKey: "typeError",
			Params:     map[string]any{"type": b.typeName},
		}.fail(v, tc)
	}
	return nil
}

// testTasks wraps the registered tests as runner tasks in registration order.
func (b *base) testTasks(self Schema, v any, opts Options) []task {
	if len(b.tests) == 0 {
		return nil
	}
	tc := b.testContext(self, opts)
	sync := opts.Sync
	tasks := make([]task, 0, len(b.tests))
	for _, t := range b.tests {
		t := t
		tasks = append(tasks, func(ctx context.Context) error {
			return t.run(ctx, v, tc, sync)
		})
	}
	return tasks
}

func (b *base) testContext(self Schema, opts Options) TestContext {
	return TestContext{
		Path:     opts.Path,
		Options:  opts,
		Parent:   opts.Parent,
		Original: opts.OriginalValue,
		Schema:   self,
	}
}

// describeBase projects the shared state into a descriptor.
func (b *base) describeBase() Descriptor {
	d := Descriptor{
		Type:     b.typeName,
		Nullable: b.spec.Nullable,
		Optional: b.spec.Presence == Optional,
	}
	for _, t := range b.tests {
		d.Tests = append(d.Tests, TestDescriptor{Name: t.Name, Params: describeParams(t.Params)})
	}
	return d
}

// intTestParam reports the integer parameter of a registered test, when one
// exists; deferred references do not project.
func (b *base) intTestParam(testName, param string) (int, bool) {
	for _, t := range b.tests {
		if t.Name != testName {
			continue
		}
		if n, ok := asInt(t.Params[param]); ok {
			return n, true
		}
	}
	return 0, false
}

// asInt coerces the numeric shapes a bound may arrive in.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// sameValue reports best-effort identity between a cast output and its input.
// Values of uncomparable kinds count as changed; pointers compare by
// identity.
func sameValue(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	return a == b
}

// isNilSchema detects a non-nil interface wrapping a nil schema pointer, the
// one invalid value the sealed Schema interface cannot exclude statically.
func isNilSchema(s Schema) bool {
	rv := reflect.ValueOf(s)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
