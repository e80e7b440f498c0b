package spec

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/datashape/spec/pkg/qname"
)

// KeyExpr is a logical key-presence expression: a qualified-name leaf or
// an and/or combination built with AndKeys and OrKeys.
type KeyExpr interface {
	satisfied(has func(qname.Name) bool) bool
	leaves() []qname.Name
	String() string
}

type keyLeaf qname.Name

func (l keyLeaf) satisfied(has func(qname.Name) bool) bool { return has(qname.Name(l)) }
func (l keyLeaf) leaves() []qname.Name                     { return []qname.Name{qname.Name(l)} }
func (l keyLeaf) String() string                           { return string(l) }

type keyAnd []KeyExpr

func (a keyAnd) satisfied(has func(qname.Name) bool) bool {
	for _, e := range a {
		if !e.satisfied(has) {
			return false
		}
	}
	return true
}

func (a keyAnd) leaves() []qname.Name {
	var out []qname.Name
	for _, e := range a {
		out = append(out, e.leaves()...)
	}
	return out
}

func (a keyAnd) String() string { return describeKeyList("and", a) }

type keyOr []KeyExpr

func (o keyOr) satisfied(has func(qname.Name) bool) bool {
	for _, e := range o {
		if e.satisfied(has) {
			return true
		}
	}
	return false
}

func (o keyOr) leaves() []qname.Name {
	var out []qname.Name
	for _, e := range o {
		out = append(out, e.leaves()...)
	}
	return out
}

func (o keyOr) String() string { return describeKeyList("or", o) }

func describeKeyList(op string, exprs []KeyExpr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return fmt.Sprintf("(%s %s)", op, strings.Join(parts, " "))
}

// AndKeys requires every sub-expression to be satisfied.
func AndKeys(exprs ...any) KeyExpr {
	return keyAnd(toKeyExprs("AndKeys", exprs))
}

// OrKeys requires at least one sub-expression to be satisfied.
func OrKeys(exprs ...any) KeyExpr {
	return keyOr(toKeyExprs("OrKeys", exprs))
}

func toKeyExprs(ctor string, xs []any) []KeyExpr {
	if len(xs) == 0 {
		badSpec("%s requires at least one expression", ctor)
	}
	out := make([]KeyExpr, len(xs))
	for i, x := range xs {
		out[i] = toKeyExpr(ctor, x)
	}
	return out
}

func toKeyExpr(ctor string, x any) KeyExpr {
	switch v := x.(type) {
	case qname.Name:
		if !v.IsQualified() {
			badSpec("%s requires qualified names, got %q", ctor, v)
		}
		return keyLeaf(v)
	case KeyExpr:
		return v
	}
	badSpec("%s element must be a qualified name or key expression, got %T", ctor, x)
	return nil
}

// KeyPred is the predicate recorded on key-presence problems. It carries
// the unsatisfied key expression so the formatter can print it.
type KeyPred struct {
	Expr KeyExpr
}

func (k KeyPred) String() string { return "key? " + k.Expr.String() }

// KeysOpts declares the four disjoint key lists of a keys spec. Elements
// are qname.Name values or key expressions. The _un lists match on the
// local part of each name while the full qualified name still selects the
// value spec in the registry.
type KeysOpts struct {
	Req   []any
	Opt   []any
	ReqUn []any
	OptUn []any
}

type keysSpec struct {
	baseSpec
	req   []KeyExpr
	opt   []KeyExpr
	reqUn []KeyExpr
	optUn []KeyExpr
	// unqual maps a local key to the qualified name that specs its value.
	unqual map[string]qname.Name
}

// Keys builds a mapping constraint from required and optional key lists.
func Keys(opts KeysOpts) Spec {
	k := &keysSpec{
		req:    toKeyExprList("Keys req", opts.Req),
		opt:    toKeyExprList("Keys opt", opts.Opt),
		reqUn:  toKeyExprList("Keys req_un", opts.ReqUn),
		optUn:  toKeyExprList("Keys opt_un", opts.OptUn),
		unqual: map[string]qname.Name{},
	}
	for _, e := range append(append([]KeyExpr{}, k.reqUn...), k.optUn...) {
		for _, n := range e.leaves() {
			k.unqual[n.Local()] = n
		}
	}
	return k
}

func toKeyExprList(ctor string, xs []any) []KeyExpr {
	out := make([]KeyExpr, len(xs))
	for i, x := range xs {
		out[i] = toKeyExpr(ctor, x)
	}
	return out
}

// asStringMap normalizes mapping inputs to map[string]any.
func asStringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if v == nil || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// hasQualified reports key presence under the full-qualified rule.
func hasQualified(m map[string]any) func(qname.Name) bool {
	return func(n qname.Name) bool {
		_, ok := m[string(n)]
		return ok
	}
}

// hasLocal reports key presence under the local-part rule.
func hasLocal(m map[string]any) func(qname.Name) bool {
	return func(n qname.Name) bool {
		_, ok := m[n.Local()]
		return ok
	}
}

// valueSpecFor returns the registered spec reference for an input key, or
// nil when the key has no registered value spec.
func (k *keysSpec) valueSpecFor(key string) Spec {
	if n := qname.Name(key); n.IsQualified() && Get(n) != nil {
		return &aliasSpec{ref: n}
	}
	if full, ok := k.unqual[key]; ok && Get(full) != nil {
		return &aliasSpec{ref: full}
	}
	return nil
}

func (k *keysSpec) conform(v any) any {
	m, ok := asStringMap(v)
	if !ok {
		return Invalid
	}
	for _, e := range k.req {
		if !e.satisfied(hasQualified(m)) {
			return Invalid
		}
	}
	for _, e := range k.reqUn {
		if !e.satisfied(hasLocal(m)) {
			return Invalid
		}
	}
	out := make(map[string]any, len(m))
	for key, val := range m {
		if sp := k.valueSpecFor(key); sp != nil {
			c := sp.conform(val)
			if IsInvalid(c) {
				return Invalid
			}
			out[key] = c
			continue
		}
		out[key] = val
	}
	return out
}

func (k *keysSpec) unform(v any) any {
	m, ok := asStringMap(v)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for key, val := range m {
		if sp := k.valueSpecFor(key); sp != nil {
			out[key] = sp.unform(val)
			continue
		}
		out[key] = val
	}
	return out
}

// explainExpr reports an unsatisfied expression: a leaf names itself, an
// and-expression is flattened to its first missing child, an
// or-expression is cited whole.
func explainExpr(e KeyExpr, has func(qname.Name) bool) KeyExpr {
	switch x := e.(type) {
	case keyAnd:
		for _, child := range x {
			if !child.satisfied(has) {
				return explainExpr(child, has)
			}
		}
	}
	return e
}

func (k *keysSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	m, ok := asStringMap(v)
	if !ok {
		return []Problem{{Path: path, Pred: "map?", Val: v, Via: via, In: in}}
	}
	var problems []Problem
	presence := func(exprs []KeyExpr, has func(qname.Name) bool) {
		for _, e := range exprs {
			if !e.satisfied(has) {
				problems = append(problems, Problem{
					Path: path,
					Pred: KeyPred{Expr: explainExpr(e, has)},
					Val:  v,
					Via:  via,
					In:   in,
				})
			}
		}
	}
	presence(k.req, hasQualified(m))
	presence(k.reqUn, hasLocal(m))
	for key, val := range m {
		sp := k.valueSpecFor(key)
		if sp == nil || !IsInvalid(sp.conform(val)) {
			continue
		}
		problems = append(problems, explainPred(sp, appendPath(path, key), via, appendPath(in, key), val)...)
	}
	return problems
}

// keyPlan generates the portion of a map that satisfies one expression.
// Under the local rule the output key is the name's local part.
func (k *keysSpec) keyPlan(e KeyExpr, local bool, ov Overrides, path []any, rm rmap) Generator {
	switch x := e.(type) {
	case keyLeaf:
		n := qname.Name(x)
		if Get(n) == nil {
			return nil
		}
		vg := specGen(&aliasSpec{ref: n}, ov, appendPath(path, string(n)), rm)
		if vg == nil {
			return nil
		}
		key := string(n)
		if local {
			key = n.Local()
		}
		return func(s *Source) any {
			return map[string]any{key: vg(s)}
		}
	case keyAnd:
		plans := make([]Generator, len(x))
		for i, child := range x {
			p := k.keyPlan(child, local, ov, path, rm)
			if p == nil {
				return nil
			}
			plans[i] = p
		}
		return func(s *Source) any {
			out := map[string]any{}
			for _, p := range plans {
				for key, val := range p(s).(map[string]any) {
					out[key] = val
				}
			}
			return out
		}
	case keyOr:
		var plans []Generator
		for _, child := range x {
			if p := k.keyPlan(child, local, ov, path, rm); p != nil {
				plans = append(plans, p)
			}
		}
		if len(plans) == 0 {
			return nil
		}
		return func(s *Source) any { return s.Branch(plans...) }
	}
	return nil
}

func (k *keysSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	var required []Generator
	for _, e := range k.req {
		p := k.keyPlan(e, false, ov, path, rm)
		if p == nil {
			return nil
		}
		required = append(required, p)
	}
	for _, e := range k.reqUn {
		p := k.keyPlan(e, true, ov, path, rm)
		if p == nil {
			return nil
		}
		required = append(required, p)
	}
	var optional []Generator
	for _, e := range k.opt {
		if p := k.keyPlan(e, false, ov, path, rm); p != nil {
			optional = append(optional, p)
		}
	}
	for _, e := range k.optUn {
		if p := k.keyPlan(e, true, ov, path, rm); p != nil {
			optional = append(optional, p)
		}
	}
	return func(s *Source) any {
		out := map[string]any{}
		for _, p := range required {
			for key, val := range p(s).(map[string]any) {
				out[key] = val
			}
		}
		for _, p := range optional {
			if s.Range(0, 1) == 1 {
				for key, val := range p(s).(map[string]any) {
					out[key] = val
				}
			}
		}
		return out
	}
}

// mergeSpec conforms against every component and combines the conformed
// mappings, last component winning on duplicate keys.
type mergeSpec struct {
	baseSpec
	specs []Spec
}

// Merge combines keys specs (or other map-conforming specs). Explanation
// reports each component's problems independently, so a single bad key
// surfaces once per component that references it.
func Merge(specs ...any) Spec {
	if len(specs) == 0 {
		badSpec("Merge requires at least one spec")
	}
	ss := make([]Spec, len(specs))
	for i, s := range specs {
		ss[i] = specize(s)
	}
	return &mergeSpec{specs: ss}
}

func (m *mergeSpec) conform(v any) any {
	out := map[string]any{}
	for _, s := range m.specs {
		c := s.conform(v)
		if IsInvalid(c) {
			return Invalid
		}
		cm, ok := asStringMap(c)
		if !ok {
			return Invalid
		}
		for key, val := range cm {
			out[key] = val
		}
	}
	return out
}

func (m *mergeSpec) unform(v any) any {
	out := map[string]any{}
	for _, s := range m.specs {
		um, ok := asStringMap(s.unform(v))
		if !ok {
			continue
		}
		for key, val := range um {
			out[key] = val
		}
	}
	return out
}

func (m *mergeSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	var problems []Problem
	for _, s := range m.specs {
		if IsInvalid(s.conform(v)) {
			problems = append(problems, explainPred(s, path, via, in, v)...)
		}
	}
	return problems
}

func (m *mergeSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	gens := make([]Generator, len(m.specs))
	for i, s := range m.specs {
		g := specGen(s, ov, path, rm)
		if g == nil {
			return nil
		}
		gens[i] = g
	}
	return func(s *Source) any {
		out := map[string]any{}
		for _, g := range gens {
			gm, ok := asStringMap(g(s))
			if !ok {
				continue
			}
			for key, val := range gm {
				out[key] = val
			}
		}
		return out
	}
}
