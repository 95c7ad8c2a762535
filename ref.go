package gokata

import "strings"

// Ref is a deferred reference: a key resolved against Options.Context at
// test-execution time rather than schema-definition time. Keys may address
// nested maps with '/' separators, e.g. "limits/min".
type Ref struct {
	key string
}

// NewRef returns a deferred reference for the given context key.
func NewRef(key string) *Ref { return &Ref{key: key} }

// Key reports the context key this reference resolves.
func (r *Ref) Key() string { return r.key }

// Resolve looks the key up in the live validation context. Missing keys and
// non-map intermediate values resolve to Absent.
func (r *Ref) Resolve(tc TestContext) any {
	var cur any = tc.Options.Context
	for _, part := range strings.Split(r.key, "/") {
		if part == "" {
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return Absent
		}
		v, ok := m[part]
		if !ok {
			return Absent
		}
		cur = v
	}
	if cur == nil {
		return Absent
	}
	return cur
}
