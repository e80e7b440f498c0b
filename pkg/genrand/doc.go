// Package genrand provides the random-value primitive source that drives
// spec generators. A Source wraps a seeded PRNG behind the small surface
// the engine relies on: integers, inclusive ranges, choices, sized
// strings, weighted frequency selection, and uniform branching.
//
// A Source is deterministic for a given seed, which keeps generative runs
// reproducible. State is explicit: the engine threads a *Source through
// the generator call tree rather than consulting a package-global PRNG,
// so independent runs never interleave.
//
// Usage:
//
//	src := genrand.New(42)
//	n := src.Range(1, 6)
//	s := src.String(8)
//
// A Source is not safe for concurrent use; create one per run.
package genrand
