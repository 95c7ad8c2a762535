package gokata

// Package gokata provides:
//
// - Declarative schemas that coerce loosely-typed input and validate the result
// - A structured error model via ValidationError (path, message, nested failures)
// - An array core with per-element cast delegation and recursive validation
// - Sync and async execution with index-ordered error aggregation
//
// Design policy:
// - Keep public APIs in the root package; locale formatting lives under locale/.
// - Cast never fails: uncastable input degrades to the Absent sentinel and is
//   surfaced later by type/presence checks.
// - Schemas are copy-on-write builders; per-call state travels in Options so a
//   schema instance is safe to reuse across any number of validations.
//
// Typical usage:
//
//	s := gokata.Array().Of(gokata.Number().Min(0)).Min(1)
//	v, err := s.Validate(ctx, raw, gokata.Options{})
//	if verr, ok := gokata.AsValidationError(err); ok {
//		for _, inner := range verr.Inner { ... }
//	}
