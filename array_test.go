package gokata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gokata "github.com/kanemura/gokata"
)

// TestArrayCast_ParsesJSONText covers the cast determinism property: JSON
// text becomes a numeric sequence, unparsable text degrades to Absent.
func TestArrayCast_ParsesJSONText(t *testing.T) {
	s := gokata.Array().Of(gokata.Number())

	v := s.Cast("[1,2,3]", gokata.Options{})
	seq, ok := v.(*gokata.Sequence)
	if !ok {
		t.Fatalf("expected *Sequence, got %T", v)
	}
	if seq.Len() != 3 || seq.Get(0) != 1.0 || seq.Get(1) != 2.0 || seq.Get(2) != 3.0 {
		t.Fatalf("unexpected cast result: %v", seq)
	}

	if v := s.Cast("not json", gokata.Options{}); !gokata.IsAbsent(v) {
		t.Fatalf("expected Absent for unparsable text, got %v", v)
	}
}

// TestArrayValidate_UncastableSurfacesLater checks that a silent cast failure
// is surfaced by the subsequent presence test, not by Cast itself.
func TestArrayValidate_UncastableSurfacesLater(t *testing.T) {
	s := gokata.Array().Of(gokata.Number()).Required()
	_, err := s.ValidateSync("not json", gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if ve.TestName != gokata.TestNameRequired {
		t.Fatalf("expected required failure, got %q", ve.TestName)
	}
}

// TestArrayValidate_TypeCheck rejects non-sequence input.
func TestArrayValidate_TypeCheck(t *testing.T) {
	_, err := gokata.Array().ValidateSync(5, gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok || ve.TestName != gokata.TestNameType {
		t.Fatalf("expected type failure, got %v", err)
	}
}

// TestArrayCast_IdentityPreserved: a cast that changes no element returns the
// exact same sequence reference.
func TestArrayCast_IdentityPreserved(t *testing.T) {
	s := gokata.Array().Of(gokata.Number())

	in := gokata.SeqOf(1.0, 2.0)
	if out := s.Cast(in, gokata.Options{}); out.(*gokata.Sequence) != in {
		t.Fatalf("no-op cast must preserve identity")
	}

	coerced := gokata.SeqOf("1", 2.0)
	out, ok := s.Cast(coerced, gokata.Options{}).(*gokata.Sequence)
	if !ok || out == coerced {
		t.Fatalf("coercing cast must return a new sequence")
	}
	if out.Get(0) != 1.0 || out.Get(1) != 2.0 {
		t.Fatalf("unexpected cast result: %v", out)
	}
}

// TestArrayValidate_SparseSlotReported: empty slots are visited, never
// skipped.
func TestArrayValidate_SparseSlotReported(t *testing.T) {
	s := gokata.Array().Of(gokata.Number().Required())

	seq := gokata.NewSequence(3)
	seq.Set(0, 1.0)
	seq.Set(2, 3.0)

	_, err := s.ValidateSync(seq, gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if ve.Path != "[1]" || ve.TestName != gokata.TestNameRequired {
		t.Fatalf("expected required failure at [1], got %q (%q)", ve.Path, ve.TestName)
	}
}

// TestArrayValidate_AbortEarly covers both abort-early modes over the same
// input.
func TestArrayValidate_AbortEarly(t *testing.T) {
	s := gokata.Array().Of(gokata.Number().Min(0))
	seq := gokata.SeqOf(1.0, -1.0, -2.0)

	// abortEarly=true (default): exactly one failure, at [1]
	_, err := s.ValidateSync(seq, gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if ve.Path != "[1]" || len(ve.Inner) != 0 {
		t.Fatalf("expected single failure at [1], got path=%q inner=%d", ve.Path, len(ve.Inner))
	}

	// abortEarly=false: both failures, ascending index order
	_, err = s.ValidateSync(seq, gokata.Options{AbortEarly: gokata.BoolPtr(false)})
	ve, ok = gokata.AsValidationError(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(ve.Inner) != 2 {
		t.Fatalf("expected 2 failures, got %d (%v)", len(ve.Inner), ve)
	}
	if ve.Inner[0].Path != "[1]" || ve.Inner[1].Path != "[2]" {
		t.Fatalf("expected [1] then [2], got %q then %q", ve.Inner[0].Path, ve.Inner[1].Path)
	}
}

// TestArrayMin_Bounds: an absent value passes length bounds; presence is a
// separate concern.
func TestArrayMin_Bounds(t *testing.T) {
	s := gokata.Array().Min(2)

	if _, err := s.ValidateSync(gokata.Absent, gokata.Options{}); err != nil {
		t.Fatalf("absent value must pass min, got %v", err)
	}
	_, err := s.ValidateSync(gokata.SeqOf(1.0), gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok || ve.TestName != gokata.TestNameMin {
		t.Fatalf("expected min failure for [1], got %v", err)
	}
	if _, err := s.ValidateSync(gokata.SeqOf(1.0, 2.0), gokata.Options{}); err != nil {
		t.Fatalf("[1,2] must pass min(2), got %v", err)
	}
}

// TestArrayMin_RefBound resolves the bound from the live validation context
// at execution time.
func TestArrayMin_RefBound(t *testing.T) {
	s := gokata.Array().Min(gokata.NewRef("limits/min"))
	opts := gokata.Options{Context: map[string]any{
		"limits": map[string]any{"min": 2},
	}}

	if _, err := s.ValidateSync(gokata.SeqOf(1.0, 2.0), opts); err != nil {
		t.Fatalf("expected pass against resolved bound, got %v", err)
	}
	if _, err := s.ValidateSync(gokata.SeqOf(1.0), opts); err == nil {
		t.Fatalf("expected min failure against resolved bound")
	}
	// unresolvable bound fails the test rather than passing silently
	if _, err := s.ValidateSync(gokata.SeqOf(1.0), gokata.Options{}); err == nil {
		t.Fatalf("expected failure for unresolvable bound")
	}
}

// TestArrayOf_NilDisablesDescent: a nil element schema accepts any element
// content as long as the outer value is a sequence.
func TestArrayOf_NilDisablesDescent(t *testing.T) {
	s := gokata.Array().Of(gokata.Number()).Of(nil)
	seq := gokata.SeqOf("anything", true, 1.0)
	if _, err := s.ValidateSync(seq, gokata.Options{}); err != nil {
		t.Fatalf("descent disabled, expected pass, got %v", err)
	}
	if _, err := s.ValidateSync(5, gokata.Options{}); err == nil {
		t.Fatalf("outer type check must still apply")
	}
}

// TestArrayOf_TypedNilPanics: binding a nil schema value is a usage error at
// call time.
func TestArrayOf_TypedNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for typed-nil element schema")
		}
	}()
	var n *gokata.NumberSchema
	gokata.Array().Of(n)
}

// TestArrayMin_BadBoundPanics: bounds must be int or *Ref.
func TestArrayMin_BadBoundPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for string bound")
		}
	}()
	gokata.Array().Min("2")
}

// TestArrayCompact_DefaultPredicate removes falsy elements.
func TestArrayCompact_DefaultPredicate(t *testing.T) {
	s := gokata.Array().Compact(nil)
	in := gokata.SeqOf(0.0, 1.0, false, 2.0, "", 3.0)

	out, ok := s.Cast(in, gokata.Options{}).(*gokata.Sequence)
	if !ok || out.Len() != 3 {
		t.Fatalf("expected 3 kept elements, got %v", out)
	}
	if out.Get(0) != 1.0 || out.Get(1) != 2.0 || out.Get(2) != 3.0 {
		t.Fatalf("unexpected compacted values: %v", out)
	}
	// input is never mutated
	if in.Len() != 6 {
		t.Fatalf("compact must not mutate its input, len=%d", in.Len())
	}
	// null passes through untouched
	if v := s.Cast(nil, gokata.Options{}); v != nil {
		t.Fatalf("expected nil passthrough, got %v", v)
	}
}

// TestArrayCompact_CustomPredicate: caller predicates return true to reject.
func TestArrayCompact_CustomPredicate(t *testing.T) {
	s := gokata.Array().Compact(func(v any, _ int, _ *gokata.Sequence) bool {
		_, isStr := v.(string)
		return isStr
	})
	out := s.Cast(gokata.SeqOf("drop", 1.0, "drop too", 0.0), gokata.Options{}).(*gokata.Sequence)
	if out.Len() != 2 || out.Get(0) != 1.0 || out.Get(1) != 0.0 {
		t.Fatalf("unexpected compacted values: %v", out)
	}
}

// TestArrayEnsure guarantees a sequence regardless of input, including on a
// nullable schema.
func TestArrayEnsure(t *testing.T) {
	s := gokata.Array().Nullable().Ensure()

	if out := s.Cast(gokata.Absent, gokata.Options{}).(*gokata.Sequence); out.Len() != 0 {
		t.Fatalf("ensure(absent) must be empty, got %v", out)
	}
	if out := s.Cast(nil, gokata.Options{}).(*gokata.Sequence); out.Len() != 0 {
		t.Fatalf("ensure(null) must be empty even when nullable, got %v", out)
	}
	out := s.Cast(5, gokata.Options{}).(*gokata.Sequence)
	if out.Len() != 1 || out.Get(0) != 5 {
		t.Fatalf("ensure(5) must wrap, got %v", out)
	}

	// a prior default wins over the empty-sequence fallback
	d := gokata.Array().DefaultValue(gokata.SeqOf(9.0)).Ensure()
	if out := d.Cast(gokata.Absent, gokata.Options{}).(*gokata.Sequence); out.Len() != 1 || out.Get(0) != 9.0 {
		t.Fatalf("prior default must survive Ensure, got %v", out)
	}
}

// TestArrayValidate_BaseAndElementCombined: with abortEarly=false a length
// violation and an element violation are reported in one pass, base first.
func TestArrayValidate_BaseAndElementCombined(t *testing.T) {
	s := gokata.Array().Of(gokata.Number().Min(0)).Min(5)
	seq := gokata.SeqOf(1.0, -1.0)

	_, err := s.ValidateSync(seq, gokata.Options{AbortEarly: gokata.BoolPtr(false)})
	ve, ok := gokata.AsValidationError(err)
	if !ok || len(ve.Inner) != 2 {
		t.Fatalf("expected aggregate of 2, got %v", err)
	}
	if ve.Inner[0].TestName != gokata.TestNameMin || ve.Inner[0].Path != "" {
		t.Fatalf("expected base min failure first, got %+v", ve.Inner[0])
	}
	if ve.Inner[1].Path != "[1]" {
		t.Fatalf("expected element failure at [1], got %q", ve.Inner[1].Path)
	}
}

// TestArrayValidate_AsyncOrdering: completion order must not leak into the
// aggregate; failures stay in ascending index order.
func TestArrayValidate_AsyncOrdering(t *testing.T) {
	slow := gokata.Test{
		Name: "nonNegative",
		CheckAsync: func(_ context.Context, v any, tc gokata.TestContext) (bool, error) {
			// later indexes finish first
			time.Sleep(time.Duration(3-tc.Options.Index) * 10 * time.Millisecond)
			f, _ := v.(float64)
			return f >= 0, nil
		},
	}
	s := gokata.Array().Of(gokata.Number().Test(slow))
	seq := gokata.SeqOf(-1.0, -2.0, -3.0)

	_, err := s.Validate(context.Background(), seq, gokata.Options{AbortEarly: gokata.BoolPtr(false)})
	ve, ok := gokata.AsValidationError(err)
	if !ok || len(ve.Inner) != 3 {
		t.Fatalf("expected aggregate of 3, got %v", err)
	}
	if ve.Inner[0].Path != "[0]" || ve.Inner[1].Path != "[1]" || ve.Inner[2].Path != "[2]" {
		t.Fatalf("expected index order, got %q %q %q",
			ve.Inner[0].Path, ve.Inner[1].Path, ve.Inner[2].Path)
	}
}

// TestValidateSync_AsyncTestFatal: a task that would need to suspend is a
// usage error in sync mode, reported as fatal rather than aggregated.
func TestValidateSync_AsyncTestFatal(t *testing.T) {
	remote := gokata.Test{
		Name: "remote",
		CheckAsync: func(_ context.Context, _ any, _ gokata.TestContext) (bool, error) {
			return true, nil
		},
	}
	s := gokata.Array().Of(gokata.Number().Test(remote))

	_, err := s.ValidateSync(gokata.SeqOf(1.0), gokata.Options{})
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if _, ok := gokata.AsValidationError(err); ok {
		t.Fatalf("usage error must not be a validation failure: %v", err)
	}
	if !errors.Is(err, gokata.ErrSyncUnsupported) {
		t.Fatalf("expected ErrSyncUnsupported, got %v", err)
	}

	// the same schema passes in async mode
	if _, err := s.Validate(context.Background(), gokata.SeqOf(1.0), gokata.Options{}); err != nil {
		t.Fatalf("async mode expected pass, got %v", err)
	}
}

// TestArrayBuilder_CopyOnWrite: builder calls outside a mutation scope never
// alias; inside one they mutate in place.
func TestArrayBuilder_CopyOnWrite(t *testing.T) {
	a := gokata.Array()
	b := a.Min(1)
	if a == b {
		t.Fatalf("builder call must clone outside a mutation scope")
	}
	if len(a.Describe().Tests) != 0 || len(b.Describe().Tests) != 1 {
		t.Fatalf("clone leaked state: a=%v b=%v", a.Describe(), b.Describe())
	}

	m := gokata.Array()
	same := m.WithMutation(func(x *gokata.ArraySchema) {
		x.Min(1)
		x.Max(3)
	})
	if same != m {
		t.Fatalf("mutation scope must not clone")
	}
	if len(m.Describe().Tests) != 2 {
		t.Fatalf("expected min and max registered, got %v", m.Describe().Tests)
	}
}

// TestArrayTest_ExclusiveReplacement: a same-named exclusive test replaces
// its predecessor instead of stacking.
func TestArrayTest_ExclusiveReplacement(t *testing.T) {
	s := gokata.Array().Min(1).Min(3)
	if n := len(s.Describe().Tests); n != 1 {
		t.Fatalf("expected 1 registered test, got %d", n)
	}
	if _, err := s.ValidateSync(gokata.SeqOf(1.0, 2.0), gokata.Options{}); err == nil {
		t.Fatalf("replacement bound of 3 must apply")
	}
}

// TestArrayDescribe includes the recursively produced element descriptor and
// renders deferred bounds as $key markers.
func TestArrayDescribe(t *testing.T) {
	d := gokata.Array().Of(gokata.Number().Min(0)).Min(2).Describe()
	if d.Type != "array" {
		t.Fatalf("expected array type, got %q", d.Type)
	}
	if len(d.Tests) != 1 || d.Tests[0].Name != gokata.TestNameMin || d.Tests[0].Params["min"] != 2 {
		t.Fatalf("unexpected tests: %+v", d.Tests)
	}
	if d.Inner == nil || d.Inner.Type != "number" || len(d.Inner.Tests) != 1 {
		t.Fatalf("unexpected inner descriptor: %+v", d.Inner)
	}

	rd := gokata.Array().Min(gokata.NewRef("limit")).Describe()
	if rd.Tests[0].Params["min"] != "$limit" {
		t.Fatalf("expected $limit marker, got %v", rd.Tests[0].Params["min"])
	}
}

// TestArrayJSONSchema projects length bounds and the element schema.
func TestArrayJSONSchema(t *testing.T) {
	js, err := gokata.Array().Of(gokata.Number()).Min(1).Max(4).JSONSchema()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if js.Type != "array" || js.Items == nil || js.Items.Type != "number" {
		t.Fatalf("unexpected projection: %+v", js)
	}
	if js.MinItems == nil || *js.MinItems != 1 || js.MaxItems == nil || *js.MaxItems != 4 {
		t.Fatalf("unexpected bounds: %+v", js)
	}
}

// TestArrayValidate_NullHandling: null fails unless nullable.
func TestArrayValidate_NullHandling(t *testing.T) {
	_, err := gokata.Array().ValidateSync(nil, gokata.Options{})
	ve, ok := gokata.AsValidationError(err)
	if !ok || ve.TestName != gokata.TestNameNullable {
		t.Fatalf("expected nullable failure, got %v", err)
	}
	if _, err := gokata.Array().Nullable().ValidateSync(nil, gokata.Options{}); err != nil {
		t.Fatalf("nullable schema must accept null, got %v", err)
	}
}

// TestArrayValidate_NestedArrays: nested failures flatten with full paths.
func TestArrayValidate_NestedArrays(t *testing.T) {
	s := gokata.Array().Of(gokata.Array().Of(gokata.Number().Min(0)))
	seq := gokata.SeqOf(gokata.SeqOf(1.0), gokata.SeqOf(2.0, -1.0))

	_, err := s.ValidateSync(seq, gokata.Options{AbortEarly: gokata.BoolPtr(false)})
	ve, ok := gokata.AsValidationError(err)
	if !ok || len(ve.Inner) != 1 {
		t.Fatalf("expected single flattened failure, got %v", err)
	}
	if ve.Inner[0].Path != "[1][1]" {
		t.Fatalf("expected nested path [1][1], got %q", ve.Inner[0].Path)
	}
}
