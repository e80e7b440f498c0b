package spec

import (
	"strings"

	"github.com/google/uuid"

	"github.com/datashape/spec/pkg/qname"
)

// Op is a regex operation over predicates: the grammar nodes matched by
// the derivative engine. An Op is not itself a spec; SpecOf wraps one to
// act as a spec at a non-sequence boundary. Inside another regex op a raw
// Op composes by splicing, while a wrapped one consumes a single element.
type Op interface {
	isOp()
}

// Regex nodes. The ps slices hold forms: either further nodes or leaf
// specs consuming one element each.
type (
	accept struct{ ret any }
	pcat   struct {
		ks      []string
		ps      []any
		ret     any // map[string]any when keyed, []any otherwise
		repPlus bool
	}
	ralt struct {
		ks    []string
		ps    []any
		maybe bool
		id    string
	}
	rep struct {
		p1, p2 any
		ret    []any
		splice bool
		id     string
	}
	ramp struct {
		p1 any
		ps []Spec
	}
)

func (*accept) isOp() {}
func (*pcat) isOp()   {}
func (*ralt) isOp()   {}
func (*rep) isOp()    {}
func (*ramp) isOp()   {}

func newID() string { return uuid.NewString() }

// Cat builds a keyed concatenation from alternating "key", form pairs.
// Conform produces a mapping from key to each predicate's contribution.
func Cat(kv ...any) Op {
	ks, ps := opPairs("Cat", kv)
	return &pcat{ks: ks, ps: ps, ret: map[string]any{}}
}

// Alt builds a keyed first-match alternation from alternating "key", form
// pairs. Conform produces Tag{key, value} for the leftmost match.
func Alt(kv ...any) Op {
	ks, ps := opPairs("Alt", kv)
	return &ralt{ks: ks, ps: ps, id: newID()}
}

// ZeroOrMore matches p any number of times; conform produces the ordered
// sequence of contributions.
func ZeroOrMore(p any) Op {
	f := toForm(p)
	return &rep{p1: f, p2: f, ret: []any{}, id: newID()}
}

// OneOrMore matches p at least once.
func OneOrMore(p any) Op {
	f := toForm(p)
	inner := &rep{p1: f, p2: f, ret: []any{}, splice: true, id: newID()}
	return &pcat{ps: []any{f, inner}, ret: []any{}, repPlus: true}
}

// ZeroOrOne matches p at most once; conform of the empty match is nil.
func ZeroOrOne(p any) Op {
	return &ralt{ps: []any{toForm(p), &accept{ret: nilRet}}, maybe: true, id: newID()}
}

// Constrained matches re and then requires the conjunction of preds to
// hold on the matched (conformed) value. An empty match that produces no
// value is accepted without consulting preds.
func Constrained(re any, preds ...any) Op {
	if len(preds) == 0 {
		badSpec("Constrained requires at least one predicate")
	}
	ps := make([]Spec, len(preds))
	for i, p := range preds {
		ps[i] = specize(p)
	}
	return &ramp{p1: toForm(re), ps: ps}
}

// opPairs splits alternating "key", form arguments for Cat and Alt.
func opPairs(ctor string, kv []any) ([]string, []any) {
	if len(kv) == 0 || len(kv)%2 != 0 {
		badSpec("%s requires alternating key/form pairs", ctor)
	}
	ks := make([]string, 0, len(kv)/2)
	ps := make([]any, 0, len(kv)/2)
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
		ks = append(ks, k)
		ps = append(ps, toForm(kv[i+1]))
	}
	return ks, ps
}

// isNilRet tests the engine's "matched, produced nothing" sentinel.
func isNilRet(v any) bool {
	_, ok := v.(nilRetType)
	return ok
}

// --- smart constructors -------------------------------------------------

// pcatNew folds leading accepts into ret and collapses a fully-consumed
// concatenation into an accept. A nil child poisons the whole node.
func pcatNew(ps []any, ks []string, ret any, repPlus bool) any {
	for _, p := range ps {
		if p == nil {
			return nil
		}
	}
	if a, ok := ps[0].(*accept); ok {
		k := ""
		if len(ks) > 0 {
			k = ks[0]
		}
		ret = conjRet(ret, a.ret, k)
		if len(ps) > 1 {
			return pcatNew(ps[1:], tailKeys(ks), ret, repPlus)
		}
		return &accept{ret: ret}
	}
	return &pcat{ks: ks, ps: ps, ret: ret, repPlus: repPlus}
}

// altNew drops dead branches and collapses single-branch alternations.
func altNew(ps []any, ks []string, id string, maybe bool) any {
	var fps []any
	var fks []string
	for i, p := range ps {
		if p == nil {
			continue
		}
		fps = append(fps, p)
		if len(ks) > 0 {
			fks = append(fks, ks[i])
		}
	}
	if len(fps) == 0 {
		return nil
	}
	if len(fps) == 1 {
		if len(fks) > 0 && fks[0] != "" {
			if a, ok := fps[0].(*accept); ok {
				return &accept{ret: Tag{Key: fks[0], Value: a.ret}}
			}
			return &ralt{ks: fks, ps: fps, id: id, maybe: maybe}
		}
		return fps[0]
	}
	return &ralt{ks: fks, ps: fps, id: id, maybe: maybe}
}

// alt2 builds the internal unkeyed alternation used by deriv. Derived
// nodes are never generated from, so they carry no fresh id.
func alt2(a, b any) any { return altNew([]any{a, b}, nil, "", false) }

// repNew advances a repetition: an accepted iteration folds its return
// into ret and rearms the seed.
func repNew(p1, p2 any, ret []any, splice bool, id string) any {
	if p1 == nil {
		return nil
	}
	if a, ok := p1.(*accept); ok {
		next := make([]any, len(ret), len(ret)+1)
		copy(next, ret)
		return &rep{p1: p2, p2: p2, ret: append(next, a.ret), splice: splice, id: id}
	}
	return &rep{p1: p1, p2: p2, ret: ret, splice: splice, id: id}
}

func tailKeys(ks []string) []string {
	if len(ks) > 0 {
		return ks[1:]
	}
	return nil
}

// --- return-value plumbing ----------------------------------------------

// conjRet adds a single contribution to a return accumulator: a keyed
// entry for mapping accumulators, an appended element for sequences.
func conjRet(r any, val any, k string) any {
	switch acc := r.(type) {
	case map[string]any:
		out := make(map[string]any, len(acc)+1)
		for key, v := range acc {
			out[key] = v
		}
		if k != "" {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(acc), len(acc)+1)
		copy(out, acc)
		if k != "" {
			val = map[string]any{k: val}
		}
		return append(out, val)
	}
	return r
}

// spliceRet merges a nested sequence's contributions into the
// accumulator element by element.
func spliceRet(r any, val any) any {
	elems, ok := asSeq(val)
	if !ok {
		return conjRet(r, val, "")
	}
	out := r
	for _, el := range elems {
		out = conjRet(out, el, "")
	}
	return out
}

func emptyRet(v any) bool {
	switch r := v.(type) {
	case nil:
		return true
	case []any:
		return len(r) == 0
	case map[string]any:
		return len(r) == 0
	}
	return false
}

// addRet folds the return of a nil-accepting child into an accumulator.
func addRet(p any, r any, k string) any {
	switch v := p.(type) {
	case *ralt, *accept, *ramp:
		ret := preturn(p)
		if isNilRet(ret) {
			return r
		}
		return conjRet(r, ret, k)
	case *rep:
		return propRet(p, r, k, v.splice)
	case *pcat:
		return propRet(p, r, k, false)
	}
	return r
}

func propRet(p any, r any, k string, splice bool) any {
	ret := preturn(p)
	if emptyRet(ret) {
		return r
	}
	if k != "" {
		return conjRet(r, ret, k)
	}
	if splice {
		return spliceRet(r, ret)
	}
	return conjRet(r, ret, "")
}

// --- core recursion -----------------------------------------------------

// acceptNil reports whether the empty sequence is in the language of p.
func acceptNil(p any) bool {
	switch v := p.(type) {
	case *accept:
		return true
	case *pcat:
		for _, c := range v.ps {
			if !acceptNil(c) {
				return false
			}
		}
		return true
	case *ralt:
		for _, c := range v.ps {
			if acceptNil(c) {
				return true
			}
		}
		return false
	case *rep:
		return v.p1 == v.p2 || acceptNil(v.p1)
	case *ramp:
		if !acceptNil(v.p1) {
			return false
		}
		pret := preturn(v.p1)
		if noRet(v.p1, pret) {
			return true
		}
		return !IsInvalid(andPreds(pret, v.ps))
	}
	return false
}

// noRet reports whether p1 ended without producing a value.
func noRet(p1 any, pret any) bool {
	if isNilRet(pret) {
		return true
	}
	switch p1.(type) {
	case *rep, *pcat:
		return emptyRet(pret)
	}
	return pret == nil
}

// preturn is the value p would yield if the input ended in its current
// state.
func preturn(p any) any {
	switch v := p.(type) {
	case *accept:
		return v.ret
	case *pcat:
		k := ""
		if len(v.ks) > 0 {
			k = v.ks[0]
		}
		return addRet(v.ps[0], v.ret, k)
	case *rep:
		return addRet(v.p1, any(v.ret), "")
	case *ralt:
		for i, c := range v.ps {
			if !acceptNil(c) {
				continue
			}
			r := preturn(c)
			if len(v.ks) > 0 && v.ks[i] != "" {
				return Tag{Key: v.ks[i], Value: r}
			}
			return r
		}
		return nilRet
	case *ramp:
		pret := preturn(v.p1)
		if noRet(v.p1, pret) {
			return nilRet
		}
		return andPreds(pret, v.ps)
	}
	return nil
}

// andPreds threads a value through a predicate conjunction.
func andPreds(x any, ps []Spec) any {
	for _, p := range ps {
		x = p.conform(x)
		if IsInvalid(x) {
			return Invalid
		}
	}
	return x
}

// deriv computes the regex accepting the suffixes of strings in L(p)
// after consuming x, or nil when no continuation exists.
func deriv(p any, x any) any {
	switch v := p.(type) {
	case nil:
		return nil
	case *accept:
		return nil
	case *pcat:
		d0 := pcatNew(consForm(deriv(v.ps[0], x), v.ps[1:]), v.ks, v.ret, v.repPlus)
		var d1 any
		if acceptNil(v.ps[0]) && len(v.ps) > 1 {
			k := ""
			if len(v.ks) > 0 {
				k = v.ks[0]
			}
			d1 = deriv(pcatNew(v.ps[1:], tailKeys(v.ks), addRet(v.ps[0], v.ret, k), v.repPlus), x)
		}
		return alt2(d0, d1)
	case *ralt:
		ds := make([]any, len(v.ps))
		for i, c := range v.ps {
			ds[i] = deriv(c, x)
		}
		return altNew(ds, v.ks, v.id, v.maybe)
	case *rep:
		d0 := repNew(deriv(v.p1, x), v.p2, v.ret, v.splice, v.id)
		var d1 any
		if acceptNil(v.p1) {
			next := addRet(v.p1, any(v.ret), "")
			d1 = deriv(&rep{p1: v.p2, p2: v.p2, ret: next.([]any), splice: v.splice, id: v.id}, x)
		}
		return alt2(d0, d1)
	case *ramp:
		d := deriv(v.p1, x)
		if d == nil {
			return nil
		}
		if a, ok := d.(*accept); ok {
			ret := andPreds(a.ret, v.ps)
			if IsInvalid(ret) {
				return nil
			}
			return &accept{ret: ret}
		}
		return &ramp{p1: d, ps: v.ps}
	case Spec:
		c := v.conform(x)
		if IsInvalid(c) {
			return nil
		}
		return &accept{ret: c}
	}
	return nil
}

func consForm(head any, rest []any) []any {
	out := make([]any, 0, len(rest)+1)
	out = append(out, head)
	return append(out, rest...)
}

// reConform folds deriv over the input and yields preturn of the final
// state, normalizing the nil sentinel to the null value.
func reConform(p any, xs []any) any {
	for _, x := range xs {
		p = deriv(p, x)
		if p == nil {
			return Invalid
		}
	}
	if !acceptNil(p) {
		return Invalid
	}
	ret := preturn(p)
	if isNilRet(ret) {
		return nil
	}
	return ret
}

// --- explanation --------------------------------------------------------

// reExplain walks the input tracking the derivative and explains the
// first failure: a bad element, extra input past an accepting state, or
// input that ends too early.
func reExplain(path []any, via []qname.Name, in []any, p any, xs []any) []Problem {
	cur := p
	for i, x := range xs {
		d := deriv(cur, x)
		if d != nil {
			cur = d
			continue
		}
		if _, ok := cur.(*accept); ok {
			return []Problem{{
				Path: path, Reason: "Extra input", Pred: opDescribe(p),
				Val: xs[i:], Via: via, In: appendPath(in, i),
			}}
		}
		if probs := opExplain(cur, path, via, appendPath(in, i), xs[i:]); probs != nil {
			return probs
		}
		return []Problem{{
			Path: path, Reason: "Extra input", Pred: opDescribe(p),
			Val: xs[i:], Via: via, In: appendPath(in, i),
		}}
	}
	if acceptNil(cur) {
		return nil
	}
	return opExplain(cur, path, via, in, nil)
}

// opExplain recurses into the current state to locate the failing form.
func opExplain(p any, path []any, via []qname.Name, in []any, input []any) []Problem {
	insufficient := func(path []any, pred any) []Problem {
		return []Problem{{
			Path: path, Reason: "Insufficient input", Pred: pred,
			Val: []any{}, Via: via, In: in,
		}}
	}
	switch v := p.(type) {
	case nil, *accept:
		return nil
	case Spec:
		if len(input) == 0 {
			return insufficient(path, describeOf(v))
		}
		return explainPred(v, path, via, in, input[0])
	case *ramp:
		if len(input) == 0 {
			if acceptNil(v.p1) {
				return explainPredList(v.ps, path, via, in, preturn(v.p1))
			}
			return insufficient(path, opDescribe(v.p1))
		}
		if d := deriv(v.p1, input[0]); d != nil {
			return explainPredList(v.ps, path, via, in, preturn(d))
		}
		return opExplain(v.p1, path, via, in, input)
	case *pcat:
		idx := 0
		for i, c := range v.ps {
			if !acceptNil(c) {
				idx = i
				break
			}
		}
		child := v.ps[idx]
		npath := path
		if len(v.ks) > 0 && v.ks[idx] != "" {
			npath = appendPath(path, v.ks[idx])
		}
		if len(input) == 0 && child == nil {
			return insufficient(npath, opDescribe(v))
		}
		return opExplain(child, npath, via, in, input)
	case *ralt:
		if len(input) == 0 {
			return insufficient(path, opDescribe(v))
		}
		var out []Problem
		for i, c := range v.ps {
			npath := path
			if len(v.ks) > 0 && v.ks[i] != "" {
				npath = appendPath(path, v.ks[i])
			}
			out = append(out, opExplain(c, npath, via, in, input)...)
		}
		return out
	case *rep:
		return opExplain(v.p1, path, via, in, input)
	}
	return nil
}

// explainPredList threads conform through a conjunction and explains the
// first failing predicate with the value it saw.
func explainPredList(ps []Spec, path []any, via []qname.Name, in []any, v any) []Problem {
	ret := v
	for _, p := range ps {
		next := p.conform(ret)
		if IsInvalid(next) {
			return explainPred(p, path, via, in, ret)
		}
		ret = next
	}
	return nil
}

// --- generation ---------------------------------------------------------

// reGen builds a generator of element sequences for a regex op.
// Recursive Alt/Rep nodes are pruned past the recursion limit via their
// stable ids.
func reGen(p any, ov Overrides, path []any, rm rmap) Generator {
	emptySeq := func(*Source) any { return []any{} }
	switch v := p.(type) {
	case nil:
		return nil
	case *accept:
		if isNilRet(v.ret) {
			return emptySeq
		}
		ret := v.ret
		return func(*Source) any { return []any{ret} }
	case Spec:
		g := specGen(v, ov, path, rm)
		if g == nil {
			return nil
		}
		return func(s *Source) any { return []any{g(s)} }
	case *pcat:
		gens := make([]Generator, len(v.ps))
		for i, c := range v.ps {
			cp := path
			if len(v.ks) > 0 && v.ks[i] != "" {
				cp = appendPath(path, v.ks[i])
			}
			g := reGen(c, ov, cp, rm)
			if g == nil {
				return nil
			}
			gens[i] = g
		}
		return func(s *Source) any {
			var out []any
			for _, g := range gens {
				out = append(out, g(s).([]any)...)
			}
			if out == nil {
				out = []any{}
			}
			return out
		}
	case *ralt:
		if rm[v.id] > CurrentSettings().RecursionLimit {
			return nil
		}
		next := rm.inc(v.id)
		var gens []Generator
		for i, c := range v.ps {
			cp := path
			if len(v.ks) > 0 && v.ks[i] != "" {
				cp = appendPath(path, v.ks[i])
			}
			if g := reGen(c, ov, cp, next); g != nil {
				gens = append(gens, g)
			}
		}
		if len(gens) == 0 {
			return nil
		}
		return func(s *Source) any { return s.Branch(gens...) }
	case *rep:
		if rm[v.id] > CurrentSettings().RecursionLimit {
			return emptySeq
		}
		g := reGen(v.p2, ov, path, rm.inc(v.id))
		if g == nil {
			return emptySeq
		}
		return func(s *Source) any {
			n := s.Range(0, defaultGenMax)
			out := []any{}
			for i := 0; i < n; i++ {
				out = append(out, g(s).([]any)...)
			}
			return out
		}
	case *ramp:
		g := reGen(v.p1, ov, path, rm)
		if g == nil {
			return nil
		}
		node := v
		return func(s *Source) any {
			budget := CurrentSettings().FSpecIterations
			for i := 0; i < budget; i++ {
				seq := g(s).([]any)
				if !IsInvalid(reConform(node, seq)) {
					return seq
				}
			}
			panic(&NoGenError{Path: path})
		}
	}
	return nil
}

// --- unform -------------------------------------------------------------

// opUnform rebuilds the input sequence from a conformed regex value.
func opUnform(p any, x any) []any {
	switch v := p.(type) {
	case *accept:
		if isNilRet(v.ret) {
			return nil
		}
		return []any{v.ret}
	case Spec:
		return []any{v.unform(x)}
	case *ramp:
		return opUnform(v.p1, x)
	case *rep:
		xs, _ := asSeq(x)
		var out []any
		for _, el := range xs {
			out = append(out, opUnform(v.p2, el)...)
		}
		return out
	case *pcat:
		if v.repPlus {
			xs, _ := asSeq(x)
			var out []any
			for _, el := range xs {
				out = append(out, opUnform(v.ps[0], el)...)
			}
			return out
		}
		if len(v.ks) > 0 {
			m, _ := asStringMap(x)
			var out []any
			for i, k := range v.ks {
				if val, ok := m[k]; ok {
					out = append(out, opUnform(v.ps[i], val)...)
				}
			}
			return out
		}
		xs, _ := asSeq(x)
		var out []any
		for i, c := range v.ps {
			if i < len(xs) {
				out = append(out, opUnform(c, xs[i])...)
			}
		}
		return out
	case *ralt:
		if v.maybe {
			if x == nil {
				return nil
			}
			if sp, ok := v.ps[0].(Spec); ok {
				return []any{sp.unform(x)}
			}
			return opUnform(v.ps[0], x)
		}
		if tag, ok := x.(Tag); ok {
			for i, k := range v.ks {
				if k == tag.Key {
					return opUnform(v.ps[i], tag.Value)
				}
			}
		}
		return opUnform(v.ps[0], x)
	}
	return nil
}

// opDescribe renders a regex op for problem output.
func opDescribe(p any) string {
	switch v := p.(type) {
	case *accept:
		return "accept"
	case *pcat:
		if v.repPlus {
			return "one_or_more"
		}
		if len(v.ks) > 0 {
			return "cat(" + strings.Join(v.ks, " ") + ")"
		}
		return "cat"
	case *ralt:
		if v.maybe {
			return "zero_or_one"
		}
		if len(v.ks) > 0 {
			return "alt(" + strings.Join(v.ks, " ") + ")"
		}
		return "alt"
	case *rep:
		return "zero_or_more"
	case *ramp:
		return "constrained"
	case Spec:
		return describeOf(v)
	}
	return "regex"
}

// --- the spec boundary --------------------------------------------------

// regexSpec is a regex op acting as a spec: it requires a finite
// sequence and matches it whole.
type regexSpec struct {
	baseSpec
	op Op
}

// SpecOf wraps a regex op as a spec. Embedded inside another regex op,
// the wrapped spec consumes exactly one element (the nested sequence)
// instead of splicing.
func SpecOf(op Op) Spec {
	if op == nil {
		badSpec("SpecOf requires a regex op")
	}
	return &regexSpec{op: op}
}

func (r *regexSpec) conform(v any) any {
	xs, ok := asSeq(v)
	if !ok {
		return Invalid
	}
	return reConform(r.op, xs)
}

func (r *regexSpec) unform(v any) any {
	out := opUnform(r.op, v)
	if out == nil {
		out = []any{}
	}
	return out
}

func (r *regexSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	xs, ok := asSeq(v)
	if !ok {
		return []Problem{{Path: path, Pred: "coll?", Val: v, Via: via, In: in}}
	}
	return reExplain(path, via, in, r.op, xs)
}

func (r *regexSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	return reGen(r.op, ov, path, rm)
}
