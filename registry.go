package spec

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/datashape/spec/pkg/qname"
)

// Names of the built-in registered specs, restored by ResetRegistry.
var (
	NameAny             = qname.MustParse("spec/any")
	NameBoolean         = qname.MustParse("spec/boolean")
	NamePositiveInteger = qname.MustParse("spec/positive_integer")
	NameNaturalInteger  = qname.MustParse("spec/natural_integer")
	NameNegativeInteger = qname.MustParse("spec/negative_integer")
	NameEmpty           = qname.MustParse("spec/empty")
)

// The registry maps qualified names to specs or to other names (aliases).
// It is an atomic reference to an immutable map: Def swaps in a fresh
// copy, readers observe either the pre- or post-swap map, never a torn
// view, and no lock is held across user predicate calls.
var (
	registryOnce sync.Once
	registryPtr  atomic.Pointer[map[qname.Name]any]
)

func registry() map[qname.Name]any {
	registryOnce.Do(func() {
		m := builtins()
		registryPtr.CompareAndSwap(nil, &m)
	})
	return *registryPtr.Load()
}

// Def registers a spec (or an alias to another name) under a qualified
// name and returns the name. Bare predicates are wrapped as predicate
// specs. Registering under an unqualified name is a spec-building error.
func Def(name qname.Name, specOrName any) qname.Name {
	if !name.IsQualified() {
		badSpec("cannot register unqualified name %q", name)
	}
	var entry any
	switch v := specOrName.(type) {
	case qname.Name:
		entry = v
	case Spec:
		entry = withName(v, name)
	default:
		entry = withName(specize(specOrName), name)
	}
	registry()
	for {
		old := registryPtr.Load()
		next := make(map[qname.Name]any, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[name] = entry
		if registryPtr.CompareAndSwap(old, &next) {
			return name
		}
	}
}

// Get returns the spec registered under name, following alias chains, or
// nil when the name is not registered.
func Get(name qname.Name) Spec {
	cur := registry()
	var x any = name
	for {
		n, ok := x.(qname.Name)
		if !ok {
			return x.(Spec)
		}
		x, ok = cur[n]
		if !ok {
			return nil
		}
	}
}

// ResetRegistry discards all registrations and restores the built-ins.
func ResetRegistry() {
	registry()
	m := builtins()
	registryPtr.Store(&m)
}

// regResolve follows alias chains until a spec is reached. An unresolved
// qualified name is a spec-building error surfaced at use time.
func regResolve(name qname.Name) Spec {
	s := Get(name)
	if s == nil {
		badSpec("unable to resolve spec %q", name)
	}
	return s
}

// aliasSpec is a lazy reference to a registered name. Resolution happens
// at each operation, which is what lets named specs reference each other
// (and themselves) freely.
type aliasSpec struct {
	baseSpec
	ref qname.Name
}

func (a *aliasSpec) conform(v any) any { return regResolve(a.ref).conform(v) }
func (a *aliasSpec) unform(v any) any  { return regResolve(a.ref).unform(v) }

func (a *aliasSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	target := regResolve(a.ref)
	if n := target.name(); n != "" {
		via = appendVia(via, n)
	}
	return target.explain(path, via, in, v)
}

func (a *aliasSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	target := regResolve(a.ref)
	key := string(a.ref)
	if rm[key] > CurrentSettings().RecursionLimit {
		return nil
	}
	return specGen(target, ov, path, rm.inc(key))
}

func builtins() map[qname.Name]any {
	intType := func(v any) bool {
		if v == nil {
			return false
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return true
		}
		return false
	}
	intVal := func(v any) int64 { return reflect.ValueOf(v).Int() }

	anySpec := WithGen(func(any) bool { return true }, func(s *Source) any {
		return s.Branch(
			func(s *Source) any { return s.Integer() },
			func(s *Source) any { return s.String(12) },
			func(s *Source) any { return s.Choose(true, false) },
			func(s *Source) any { return s.Float64() * 1000 },
		)
	})
	boolSpec := WithGen(reflect.TypeOf(true), func(s *Source) any {
		return s.Choose(true, false)
	})
	posSpec := WithGen(func(v any) bool {
		return intType(v) && intVal(v) > 0
	}, func(s *Source) any { return s.Range(1, 100000) })
	natSpec := WithGen(func(v any) bool {
		return intType(v) && intVal(v) >= 0
	}, func(s *Source) any { return s.Range(0, 100000) })
	negSpec := WithGen(func(v any) bool {
		return intType(v) && intVal(v) < 0
	}, func(s *Source) any { return s.Range(-100000, -1) })
	emptySpec := WithGen(func(v any) bool {
		if v == nil {
			return true
		}
		switch rv := reflect.ValueOf(v); rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len() == 0
		}
		return false
	}, func(s *Source) any { return []any{} })

	return map[qname.Name]any{
		NameAny:             withName(anySpec, NameAny),
		NameBoolean:         withName(boolSpec, NameBoolean),
		NamePositiveInteger: withName(posSpec, NamePositiveInteger),
		NameNaturalInteger:  withName(natSpec, NameNaturalInteger),
		NameNegativeInteger: withName(negSpec, NameNegativeInteger),
		NameEmpty:           withName(emptySpec, NameEmpty),
	}
}
