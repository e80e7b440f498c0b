package spec

import (
	"fmt"
	"strings"
)

// Overrides maps a registered name (qname.Name) or a path key built with
// PathKey to a custom generator used in place of the spec's default.
type Overrides map[any]Generator

// PathKey renders a generation path into an override key.
func PathKey(segments ...any) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, "/")
}

// rmap counts generator re-entries per recursive-node id or registered
// name; it enforces the recursion limit.
type rmap map[string]int

// inc returns a copy with the count for key incremented, leaving the
// caller's branch untouched.
func (r rmap) inc(key string) rmap {
	next := make(rmap, len(r)+1)
	for k, v := range r {
		next[k] = v
	}
	next[key]++
	return next
}

// specGen resolves the generator for a spec: an override by registered
// name wins, then an override by path, then a with_gen attachment, then
// the spec's own generator.
func specGen(s Spec, ov Overrides, path []any, rm rmap) Generator {
	if n := s.name(); n != "" {
		if g, ok := ov[n]; ok {
			return g
		}
	}
	if len(path) > 0 {
		if g, ok := ov[PathKey(path...)]; ok {
			return g
		}
	}
	if g := s.genOverride(); g != nil {
		return g
	}
	return s.gen(ov, path, rm)
}

// Gen returns a generator of values conforming to s, consulting the
// optional overrides. It returns a NoGenError when no generator can be
// constructed; a returned generator can still panic with a NoGenError at
// run time when a constrained sub-generator exhausts its resample
// budget.
func Gen(s any, overrides ...Overrides) (Generator, error) {
	sp := specize(s)
	ov := Overrides{}
	if len(overrides) > 0 && overrides[0] != nil {
		ov = overrides[0]
	}
	g := specGen(sp, ov, nil, rmap{})
	if g == nil {
		return nil, &NoGenError{Name: refName(sp)}
	}
	return g, nil
}

// MustGen is like Gen but panics on error.
func MustGen(s any, overrides ...Overrides) Generator {
	g, err := Gen(s, overrides...)
	if err != nil {
		panic(err)
	}
	return g
}
