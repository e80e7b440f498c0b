// Package predicates offers ready-made predicates for use with the spec
// engine's predicate spec. Format checks (email, URL, UUID, hostname) are
// backed by go-playground/validator's tag rules; the numeric and string
// helpers are plain comparisons.
//
// Every function returns a func(any) bool, the shape the predicate spec
// accepts, so they compose directly:
//
//	email := spec.And(reflect.TypeOf(""), predicates.Email())
//
// Predicates are stateless and safe for concurrent use.
package predicates
