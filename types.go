package gokata

import "fmt"

// Presence expresses whether a schema demands a value.
type Presence int

const (
	Optional Presence = iota
	Required
)

// SchemaSpec is the behavioral flag record carried by every schema.
type SchemaSpec struct {
	AbortEarly bool       // Stop at the first validation failure.
	Recursive  bool       // Descend into elements of composite values.
	Nullable   bool       // Accept null (Go nil) as a valid value.
	Presence   Presence   // Optional or Required.
	Default    func() any // Producer applied when a cast result is Absent; nil means none.
}

// Options bundles per-call cast/validation state. Schemas keep no per-call
// state of their own, so one schema instance may serve any number of
// concurrent calls.
type Options struct {
	// Path is the location of the value under validation, rendered in
	// base[index] form for elements.
	Path string
	// Strict skips casting during validation; the value is checked as-is.
	Strict bool
	// AbortEarly and Recursive override the schema spec when non-nil.
	AbortEarly *bool
	Recursive  *bool
	// Sync demands that every validation task resolve on the caller's stack.
	Sync bool
	// Context is the live lookup table for deferred references.
	Context map[string]any
	// OriginalValue is the pre-transform input tracked across the descent.
	OriginalValue any
	// Parent and Index identify the slot being validated during element
	// descent.
	Parent any
	Index  int
}

// BoolPtr builds the optional flag overrides carried by Options.
func BoolPtr(b bool) *bool { return &b }

func resolveFlag(override *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	return fallback
}

// absentValue is the underlying type of the Absent sentinel.
type absentValue struct{}

func (absentValue) String() string { return "<absent>" }

// Absent marks a value that was never provided or could not be cast. It is
// distinct from nil, which models an explicit null.
var Absent any = absentValue{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absentValue)
	return ok
}

// indexPath renders an element path in base[index] form.
func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// displayPath substitutes a readable stand-in for the empty root path in
// failure messages.
func displayPath(p string) string {
	if p == "" {
		return "value"
	}
	return p
}
