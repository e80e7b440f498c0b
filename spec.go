package spec

import (
	"reflect"
	"regexp"
	"time"

	"github.com/datashape/spec/pkg/genrand"
	"github.com/datashape/spec/pkg/qname"
)

// Invalid is the conformance-failure sentinel. Conform returns it instead
// of raising; no user spec may produce it as a legitimate conformed value.
var Invalid = invalidType{}

type invalidType struct{}

func (invalidType) String() string { return "spec/invalid" }

// IsInvalid reports whether v is the Invalid sentinel.
func IsInvalid(v any) bool {
	_, ok := v.(invalidType)
	return ok
}

// nilRet is the internal "matched, produced nothing" sentinel of the regex
// engine. It is converted to Go nil only at the outermost conform
// boundary, so the engine can tell "no value" apart from a literal nil.
type nilRetType struct{}

func (nilRetType) String() string { return "spec/nil" }

var nilRet = nilRetType{}

// Generator produces one random value from a source. It is the alias the
// engine uses for genrand.Gen.
type Generator = genrand.Gen

// Source aliases the random-value source generators draw from.
type Source = genrand.Source

// Weighted aliases genrand.Weighted for frequency-based generation.
type Weighted = genrand.Weighted

// Tag is the conformed value of a keyed alternative: the key that matched
// and the value it conformed to.
type Tag struct {
	Key   string
	Value any
}

// Set is a value-membership predicate. Membership is decided by deep
// equality.
type Set []any

// Contains reports whether v is a member of the set.
func (s Set) Contains(v any) bool {
	for _, m := range s {
		if reflect.DeepEqual(m, v) {
			return true
		}
	}
	return false
}

// Spec is a composable description of a value shape. All implementations
// live in this package; user extension points are predicates, conformers
// and generator overrides.
type Spec interface {
	conform(v any) any
	unform(v any) any
	explain(path []any, via []qname.Name, in []any, v any) []Problem
	gen(ov Overrides, path []any, rm rmap) Generator
	name() qname.Name
	genOverride() Generator
}

// baseSpec supplies the defaults shared by every variant: no name, no
// generator override. Naming and overrides are layered on with wrappers,
// keeping the variants themselves immutable.
type baseSpec struct{}

func (baseSpec) name() qname.Name       { return "" }
func (baseSpec) genOverride() Generator { return nil }

// nameWrap attaches a registered name to a spec.
type nameWrap struct {
	Spec
	n qname.Name
}

func (w *nameWrap) name() qname.Name { return w.n }

func withName(s Spec, n qname.Name) Spec {
	if inner, ok := s.(*nameWrap); ok {
		s = inner.Spec
	}
	return &nameWrap{Spec: s, n: n}
}

// genWrap attaches a generator override to a spec.
type genWrap struct {
	Spec
	g Generator
}

func (w *genWrap) genOverride() Generator { return w.g }

func withGen(s Spec, g Generator) Spec {
	return &genWrap{Spec: s, g: g}
}

// specize coerces x into a Spec:
//
//   - a Spec is returned as is
//   - a qname.Name becomes a lazy registry reference
//   - an Op is wrapped as a sequence spec (the explicit regex boundary)
//   - a func(any) bool, reflect.Type, Set or *regexp.Regexp becomes a
//     predicate spec
//
// Anything else is a spec-building error.
func specize(x any) Spec {
	switch v := x.(type) {
	case nil:
		badSpec("nil cannot be used as a spec")
	case Spec:
		return v
	case qname.Name:
		return &aliasSpec{ref: v}
	case Op:
		return SpecOf(v)
	case func(any) bool, reflect.Type, Set, *regexp.Regexp:
		return newPredSpec(v)
	}
	badSpec("cannot build a spec from %T", x)
	return nil
}

// toForm coerces x for use inside a regex op: raw ops stay ops (and are
// composed by splicing), everything else becomes a leaf spec consuming a
// single element.
func toForm(x any) any {
	if op, ok := x.(Op); ok {
		return op
	}
	return specize(x)
}

// refName is the name to report for s at an explanation boundary.
func refName(s Spec) qname.Name {
	if a, ok := s.(*aliasSpec); ok {
		return a.ref
	}
	return s.name()
}

// Conform decides whether v conforms to s and returns the (possibly
// destructured) conformed value, or Invalid.
func Conform(s, v any) any {
	return specize(s).conform(v)
}

// Unform inverts Conform on its image: for a conformed value it rebuilds
// the original input. Identity for non-transforming specs.
func Unform(s, v any) any {
	return specize(s).unform(v)
}

// Valid reports whether v conforms to s.
func Valid(s, v any) bool {
	return !IsInvalid(specize(s).conform(v))
}

// WithGen returns a copy of the spec with g as its generator.
func WithGen(s any, g Generator) Spec {
	if g == nil {
		badSpec("WithGen requires a generator")
	}
	return withGen(specize(s), g)
}

// Assert returns v unchanged when the check_asserts knob is off or v
// conforms to s; otherwise it returns an AssertionError carrying the
// explanation.
func Assert(s, v any) (any, error) {
	if !CurrentSettings().CheckAsserts {
		return v, nil
	}
	if ed := ExplainData(s, v); ed != nil {
		return v, &AssertionError{Explanation: ed}
	}
	return v, nil
}

// Exercise generates n values conforming to s and returns pairs of
// [generated, conformed].
func Exercise(s any, n int, overrides ...Overrides) (pairs [][2]any, err error) {
	sp := specize(s)
	g, err := Gen(sp, overrides...)
	if err != nil {
		return nil, err
	}
	defer recoverNoGen(&err)
	src := genrand.New(time.Now().UnixNano())
	pairs = make([][2]any, 0, n)
	for i := 0; i < n; i++ {
		v := g(src)
		pairs = append(pairs, [2]any{v, sp.conform(v)})
	}
	return pairs, nil
}

// recoverNoGen converts a NoGenError panic raised inside a running
// generator into an error return.
func recoverNoGen(err *error) {
	if r := recover(); r != nil {
		if ng, ok := r.(*NoGenError); ok {
			*err = ng
			return
		}
		panic(r)
	}
}

// asSeq normalizes v into a []any when it is a finite ordered sequence:
// nil (empty), any slice or array. Strings and maps are not sequences.
func asSeq(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, true
	case []any:
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}
