package spec

import (
	"reflect"

	"github.com/datashape/spec/pkg/qname"
)

// everyOpts is the closed option set of Every and its derivatives.
// Unrepresentable options cannot be passed, which is how the engine
// rejects unknown ones.
type everyOpts struct {
	kind     Spec
	kindDesc string
	count    *int
	minCount *int
	maxCount *int
	distinct bool
	into     string // "", "slice", "map", "set"
	genMax   int
	gfn      Generator
}

// EveryOpt configures Every, CollOf, MapOf and HashOf.
type EveryOpt func(*everyOpts)

// Kind constrains the container itself (e.g. "is a map") before elements
// are examined.
func Kind(pred any) EveryOpt {
	sp := specize(pred)
	return func(o *everyOpts) { o.kind, o.kindDesc = sp, describeOf(pred) }
}

// Count requires exactly n elements.
func Count(n int) EveryOpt {
	return func(o *everyOpts) { o.count = &n }
}

// MinCount requires at least n elements (inclusive).
func MinCount(n int) EveryOpt {
	return func(o *everyOpts) { o.minCount = &n }
}

// MaxCount requires at most n elements (inclusive).
func MaxCount(n int) EveryOpt {
	return func(o *everyOpts) { o.maxCount = &n }
}

// Distinct requires pairwise-distinct elements.
func Distinct() EveryOpt {
	return func(o *everyOpts) { o.distinct = true }
}

// IntoSlice rebuilds the conformed container as an ordered sequence.
func IntoSlice() EveryOpt {
	return func(o *everyOpts) { o.into = "slice" }
}

// IntoMap rebuilds the conformed container as a mapping; conformed
// elements must be 2-element sequences.
func IntoMap() EveryOpt {
	return func(o *everyOpts) { o.into = "map" }
}

// IntoSet rebuilds the conformed container as a set.
func IntoSet() EveryOpt {
	return func(o *everyOpts) { o.into = "set" }
}

// GenMax bounds the size of generated containers (default 20).
func GenMax(n int) EveryOpt {
	return func(o *everyOpts) { o.genMax = n }
}

// EveryGen overrides the container generator.
func EveryGen(g Generator) EveryOpt {
	return func(o *everyOpts) { o.gfn = g }
}

const defaultGenMax = 20

// everySpec validates container membership. In sampling mode (Every) it
// checks a bounded prefix and returns the container untouched; with
// conformAll (CollOf and friends) it conforms every element and rebuilds
// the container.
type everySpec struct {
	baseSpec
	pred       Spec
	opts       everyOpts
	conformAll bool
}

// Every builds a sampling membership spec: at most coll_check_limit
// elements are validated and the container is never rebuilt.
func Every(pred any, opts ...EveryOpt) Spec {
	return newEvery(pred, false, opts)
}

// CollOf builds an exhaustive membership spec: every element is conformed
// and the result is rebuilt to match the input kind or the into option.
func CollOf(pred any, opts ...EveryOpt) Spec {
	return newEvery(pred, true, opts)
}

// MapOf builds an exhaustive spec over associative containers, validating
// every entry as a [key value] pair.
func MapOf(kpred, vpred any, opts ...EveryOpt) Spec {
	isMap := func(v any) bool {
		return v != nil && reflect.ValueOf(v).Kind() == reflect.Map
	}
	all := append([]EveryOpt{Kind(isMap), IntoMap()}, opts...)
	return newEvery(Tuple(kpred, vpred), true, all)
}

// HashOf is MapOf under its other conventional name.
func HashOf(kpred, vpred any, opts ...EveryOpt) Spec {
	return MapOf(kpred, vpred, opts...)
}

func newEvery(pred any, conformAll bool, opts []EveryOpt) Spec {
	o := everyOpts{genMax: defaultGenMax}
	for _, opt := range opts {
		opt(&o)
	}
	if o.genMax <= 0 {
		o.genMax = defaultGenMax
	}
	return &everySpec{pred: specize(pred), opts: o, conformAll: conformAll}
}

type collKind int

const (
	collSlice collKind = iota
	collMap
	collSet
)

// collEntries normalizes a container into its elements. Map entries
// become [key value] pairs; the original keys are returned alongside for
// in-path reporting.
func collEntries(v any) (elems []any, keys []any, kind collKind, ok bool) {
	switch c := v.(type) {
	case Set:
		return append([]any(nil), c...), nil, collSet, true
	case map[string]any:
		for k, val := range c {
			elems = append(elems, []any{k, val})
			keys = append(keys, k)
		}
		return elems, keys, collMap, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		s, _ := asSeq(v)
		return s, nil, collSlice, true
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			k, val := iter.Key().Interface(), iter.Value().Interface()
			elems = append(elems, []any{k, val})
			keys = append(keys, k)
		}
		return elems, keys, collMap, true
	}
	return nil, nil, 0, false
}

// checkShape validates kind, count bounds and distinctness; it returns a
// problem description or "" when the shape is fine.
func (e *everySpec) checkShape(v any, elems []any) (pred any, reason string) {
	if e.opts.kind != nil && IsInvalid(e.opts.kind.conform(v)) {
		return e.opts.kindDesc, "kind mismatch"
	}
	n := len(elems)
	if e.opts.count != nil && n != *e.opts.count {
		return "count", "wrong element count"
	}
	if e.opts.minCount != nil && n < *e.opts.minCount {
		return "between", "too few elements"
	}
	if e.opts.maxCount != nil && n > *e.opts.maxCount {
		return "between", "too many elements"
	}
	if e.opts.distinct {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if reflect.DeepEqual(elems[i], elems[j]) {
					return "distinct?", "duplicate elements"
				}
			}
		}
	}
	return nil, ""
}

func (e *everySpec) conform(v any) any {
	elems, _, kind, ok := collEntries(v)
	if !ok {
		return Invalid
	}
	if pred, _ := e.checkShape(v, elems); pred != nil {
		return Invalid
	}
	if !e.conformAll {
		limit := CurrentSettings().CollCheckLimit
		for i, el := range elems {
			if i >= limit {
				break
			}
			if IsInvalid(e.pred.conform(el)) {
				return Invalid
			}
		}
		return v
	}
	conformed := make([]any, len(elems))
	for i, el := range elems {
		c := e.pred.conform(el)
		if IsInvalid(c) {
			return Invalid
		}
		conformed[i] = c
	}
	return e.rebuild(conformed, kind)
}

// rebuild assembles conformed elements into the output container.
func (e *everySpec) rebuild(elems []any, kind collKind) any {
	target := e.opts.into
	if target == "" {
		switch kind {
		case collMap:
			target = "map"
		case collSet:
			target = "set"
		default:
			target = "slice"
		}
	}
	switch target {
	case "map":
		m := make(map[any]any, len(elems))
		for _, el := range elems {
			pair, ok := asSeq(el)
			if !ok || len(pair) != 2 {
				return Invalid
			}
			m[pair[0]] = pair[1]
		}
		return m
	case "set":
		out := make(Set, 0, len(elems))
		for _, el := range elems {
			if !out.Contains(el) {
				out = append(out, el)
			}
		}
		return out
	default:
		return elems
	}
}

func (e *everySpec) unform(v any) any {
	if !e.conformAll {
		return v
	}
	elems, _, kind, ok := collEntries(v)
	if !ok {
		return v
	}
	out := make([]any, len(elems))
	for i, el := range elems {
		out[i] = e.pred.unform(el)
	}
	return e.rebuild(out, kind)
}

func (e *everySpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	elems, keys, _, ok := collEntries(v)
	if !ok {
		return []Problem{{Path: path, Pred: "coll?", Val: v, Via: via, In: in}}
	}
	if pred, reason := e.checkShape(v, elems); pred != nil {
		return []Problem{{Path: path, Pred: pred, Val: v, Reason: reason, Via: via, In: in}}
	}
	settings := CurrentSettings()
	checkLimit := len(elems)
	if !e.conformAll && checkLimit > settings.CollCheckLimit {
		checkLimit = settings.CollCheckLimit
	}
	var problems []Problem
	for i := 0; i < checkLimit; i++ {
		if len(problems) >= settings.CollErrorLimit {
			break
		}
		el := elems[i]
		if IsInvalid(e.pred.conform(el)) {
			seg := any(i)
			if keys != nil {
				seg = keys[i]
			}
			problems = append(problems, explainPred(e.pred, path, via, appendPath(in, seg), el)...)
		}
	}
	return problems
}

func (e *everySpec) gen(ov Overrides, path []any, rm rmap) Generator {
	if e.opts.gfn != nil {
		return e.opts.gfn
	}
	elemGen := specGen(e.pred, ov, path, rm)
	if elemGen == nil {
		return nil
	}
	lo, hi := 0, e.opts.genMax
	if e.opts.minCount != nil {
		lo = *e.opts.minCount
	}
	if e.opts.maxCount != nil && *e.opts.maxCount < hi {
		hi = *e.opts.maxCount
	}
	if e.opts.count != nil {
		lo, hi = *e.opts.count, *e.opts.count
	}
	if hi < lo {
		hi = lo
	}
	kind := collSlice
	if e.opts.into == "map" {
		kind = collMap
	} else if e.opts.into == "set" {
		kind = collSet
	}
	return func(s *Source) any {
		n := s.Range(lo, hi)
		budget := CurrentSettings().FSpecIterations
		for attempt := 0; ; attempt++ {
			elems := make([]any, n)
			for i := range elems {
				elems[i] = elemGen(s)
			}
			out := e.rebuild(elems, kind)
			if !IsInvalid(out) && !IsInvalid(e.conform(out)) {
				return out
			}
			if attempt >= budget {
				panic(&NoGenError{Path: path})
			}
		}
	}
}
