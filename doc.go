// Package spec is a data-shape specification and validation engine.
// Callers describe the expected structure of values (scalars, composite
// records, sequences with grammatical structure, and functions) as
// composable specs, then ask any spec to decide conformance, return a
// destructured conformed representation, explain failures with precise
// paths, or generate random conforming values for property-based testing.
//
// # Architecture
//
// Every spec implements one contract: conform, unform, explain and gen.
// Scalar combinators (Predicate, And, Or, Tuple, Nilable, Conformer),
// collection specs (Every, CollOf, MapOf), the keys spec with logical
// key-presence expressions, and function specs all dispatch through it.
// Sequence grammars are built from regex ops (Cat, Alt, ZeroOrMore,
// OneOrMore, ZeroOrOne, Constrained) and matched with Brzozowski
// derivatives; SpecOf wraps an op to act as a spec at a non-sequence
// boundary.
//
// Specs may be registered under qualified names with Def and referenced
// by name anywhere a spec is accepted, including recursively. The
// registry is an atomic snapshot map: Def swaps in a fresh copy, readers
// never observe a torn view, and no lock is held across user predicate
// calls.
//
// # Usage
//
//	ingredient := spec.Cat(
//		"qty", predicates.Number(),
//		"unit", spec.Set{"teaspoon", "cup"},
//	)
//	spec.Conform(spec.SpecOf(ingredient), []any{2, "teaspoon"})
//	// map[string]any{"qty": 2, "unit": "teaspoon"}
//
// # Error Handling
//
// Conformance failure is data, never an error: Conform returns the
// Invalid sentinel and ExplainData returns the problem list. Malformed
// spec construction panics with InvalidSpecError, the fail-fast idiom
// for programmer errors. Generation that cannot proceed surfaces a
// NoGenError; Assert returns an AssertionError when the check_asserts
// knob is on.
//
// # Configuration
//
// Process-wide knobs (recursion limit, trial counts, collection check
// and error limits) load once from the environment; see Settings and
// Configure.
package spec
