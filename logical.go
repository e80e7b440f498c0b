package spec

import (
	"github.com/datashape/spec/pkg/qname"
)

// andSpec conforms left-to-right, threading the conformed value through
// each step.
type andSpec struct {
	baseSpec
	preds []Spec
}

// And builds a conjunction. Conform threads the conformed value through
// each predicate in order; Unform applies the inverses right-to-left.
func And(preds ...any) Spec {
	if len(preds) == 0 {
		badSpec("And requires at least one predicate")
	}
	ps := make([]Spec, len(preds))
	for i, p := range preds {
		ps[i] = specize(p)
	}
	return &andSpec{preds: ps}
}

func (a *andSpec) conform(v any) any {
	for _, p := range a.preds {
		v = p.conform(v)
		if IsInvalid(v) {
			return Invalid
		}
	}
	return v
}

func (a *andSpec) unform(v any) any {
	for i := len(a.preds) - 1; i >= 0; i-- {
		v = a.preds[i].unform(v)
	}
	return v
}

func (a *andSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	cur := v
	for _, p := range a.preds {
		next := p.conform(cur)
		if IsInvalid(next) {
			return explainPred(p, path, via, in, cur)
		}
		cur = next
	}
	return nil
}

func (a *andSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	// Generate from the first predicate, keep values the rest accept.
	g := specGen(a.preds[0], ov, path, rm)
	if g == nil {
		return nil
	}
	return func(s *Source) any {
		budget := CurrentSettings().FSpecIterations
		for i := 0; i < budget; i++ {
			v := g(s)
			if !IsInvalid(a.conform(v)) {
				return v
			}
		}
		panic(&NoGenError{Path: path})
	}
}

// orSpec is a keyed disjunction; conform returns a Tag naming the first
// accepting branch.
type orSpec struct {
	baseSpec
	keys  []string
	preds []Spec
}

// Or builds a keyed disjunction from alternating "key", predicate pairs.
// Conform returns Tag{key, conformed} for the first branch that accepts,
// strictly left-to-right.
func Or(kv ...any) Spec {
	keys, preds := keyedPairs("Or", kv)
	return &orSpec{keys: keys, preds: preds}
}

// keyedPairs splits alternating "key", pred arguments, rejecting odd
// counts, non-string keys and duplicate keys.
func keyedPairs(ctor string, kv []any) ([]string, []Spec) {
	if len(kv) == 0 || len(kv)%2 != 0 {
		badSpec("%s requires alternating key/predicate pairs", ctor)
	}
	keys := make([]string, 0, len(kv)/2)
	preds := make([]Spec, 0, len(kv)/2)
	seen := map[string]bool{}
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok || k == "" {
			badSpec("%s key at position %d must be a non-empty string, got %T", ctor, i, kv[i])
		}
		if seen[k] {
			badSpec("%s has duplicate key %q", ctor, k)
		}
		seen[k] = true
		keys = append(keys, k)
		preds = append(preds, specize(kv[i+1]))
	}
	return keys, preds
}

func (o *orSpec) conform(v any) any {
	for i, p := range o.preds {
		c := p.conform(v)
		if !IsInvalid(c) {
			return Tag{Key: o.keys[i], Value: c}
		}
	}
	return Invalid
}

func (o *orSpec) unform(v any) any {
	tag, ok := v.(Tag)
	if !ok {
		return v
	}
	for i, k := range o.keys {
		if k == tag.Key {
			return o.preds[i].unform(tag.Value)
		}
	}
	return tag.Value
}

func (o *orSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	if !IsInvalid(o.conform(v)) {
		return nil
	}
	var problems []Problem
	for i, p := range o.preds {
		problems = append(problems, explainPred(p, appendPath(path, o.keys[i]), via, in, v)...)
	}
	return problems
}

func (o *orSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	var gens []Generator
	for i, p := range o.preds {
		if g := specGen(p, ov, appendPath(path, o.keys[i]), rm); g != nil {
			gens = append(gens, g)
		}
	}
	if len(gens) == 0 {
		return nil
	}
	return func(s *Source) any { return s.Branch(gens...) }
}

// tupleSpec matches an ordered sequence of fixed length, position by
// position.
type tupleSpec struct {
	baseSpec
	preds []Spec
}

// Tuple builds a positional spec over sequences of exactly len(preds)
// elements. Problem paths are the ordinal indices.
func Tuple(preds ...any) Spec {
	if len(preds) == 0 {
		badSpec("Tuple requires at least one predicate")
	}
	ps := make([]Spec, len(preds))
	for i, p := range preds {
		ps[i] = specize(p)
	}
	return &tupleSpec{preds: ps}
}

func (t *tupleSpec) conform(v any) any {
	xs, ok := asSeq(v)
	if !ok || len(xs) != len(t.preds) {
		return Invalid
	}
	out := make([]any, len(xs))
	for i, p := range t.preds {
		c := p.conform(xs[i])
		if IsInvalid(c) {
			return Invalid
		}
		out[i] = c
	}
	return out
}

func (t *tupleSpec) unform(v any) any {
	xs, ok := asSeq(v)
	if !ok || len(xs) != len(t.preds) {
		return v
	}
	out := make([]any, len(xs))
	for i, p := range t.preds {
		out[i] = p.unform(xs[i])
	}
	return out
}

func (t *tupleSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	xs, ok := asSeq(v)
	if !ok {
		return []Problem{{Path: path, Pred: "coll?", Val: v, Via: via, In: in}}
	}
	if len(xs) != len(t.preds) {
		return []Problem{{
			Path: path, Pred: "count", Val: v, Via: via, In: in,
			Reason: "wrong tuple length",
		}}
	}
	var problems []Problem
	for i, p := range t.preds {
		if IsInvalid(p.conform(xs[i])) {
			problems = append(problems, explainPred(p, appendPath(path, i), via, appendPath(in, i), xs[i])...)
		}
	}
	return problems
}

func (t *tupleSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	gens := make([]Generator, len(t.preds))
	for i, p := range t.preds {
		g := specGen(p, ov, appendPath(path, i), rm)
		if g == nil {
			return nil
		}
		gens[i] = g
	}
	return func(s *Source) any {
		out := make([]any, len(gens))
		for i, g := range gens {
			out[i] = g(s)
		}
		return out
	}
}

// nilableSpec accepts nil or anything its inner predicate accepts.
type nilableSpec struct {
	baseSpec
	pred Spec
}

// Nilable wraps a spec to also accept nil.
func Nilable(pred any) Spec {
	return &nilableSpec{pred: specize(pred)}
}

func (n *nilableSpec) conform(v any) any {
	if v == nil {
		return nil
	}
	return n.pred.conform(v)
}

func (n *nilableSpec) unform(v any) any {
	if v == nil {
		return nil
	}
	return n.pred.unform(v)
}

func (n *nilableSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	if v == nil || !IsInvalid(n.pred.conform(v)) {
		return nil
	}
	problems := explainPred(n.pred, appendPath(path, "pred"), via, in, v)
	return append(problems, Problem{
		Path: appendPath(path, "nil"), Pred: "nil?", Val: v, Via: via, In: in,
	})
}

func (n *nilableSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	inner := specGen(n.pred, ov, appendPath(path, "pred"), rm)
	if inner == nil {
		return func(*Source) any { return nil }
	}
	return func(s *Source) any {
		return s.Freq([]Weighted{
			{Weight: 1, Gen: func(*Source) any { return nil }},
			{Weight: 9, Gen: inner},
		})
	}
}

// conformerSpec adopts a user function as conform. It is the one spec
// kind whose conformed value is deliberately distinct from its input.
type conformerSpec struct {
	baseSpec
	f    func(any) any
	finv func(any) any
}

// Conformer builds a spec from a conforming function. f must return
// Invalid on failure. The optional inverse is used by Unform; without it
// the spec does not round-trip and Unform is the identity.
func Conformer(f func(any) any, finv ...func(any) any) Spec {
	if f == nil {
		badSpec("Conformer requires a function")
	}
	c := &conformerSpec{f: f}
	if len(finv) > 0 && finv[0] != nil {
		c.finv = finv[0]
	}
	return c
}

func (c *conformerSpec) conform(v any) any { return c.f(v) }

func (c *conformerSpec) unform(v any) any {
	if c.finv == nil {
		return v
	}
	return c.finv(v)
}

func (c *conformerSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	if !IsInvalid(c.f(v)) {
		return nil
	}
	return []Problem{{Path: path, Pred: "conformer", Val: v, Via: via, In: in}}
}

func (c *conformerSpec) gen(ov Overrides, path []any, rm rmap) Generator { return nil }
