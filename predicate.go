package spec

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/datashape/spec/pkg/qname"
)

// predSpec is the leaf spec: a single predicate over values. The original
// predicate is kept for explanation output.
type predSpec struct {
	baseSpec
	orig any
	fn   func(any) bool
}

// Predicate builds a spec from a predicate, which is one of:
//
//   - func(any) bool, tested by boolean result
//   - reflect.Type, tested by type membership
//   - Set, tested by value membership
//   - *regexp.Regexp, tested by full-string match on string values
//
// A predicate that panics is treated as failing; the panic message is
// captured into the problem's reason.
func Predicate(pred any) Spec {
	return newPredSpec(pred)
}

func newPredSpec(pred any) *predSpec {
	switch p := pred.(type) {
	case func(any) bool:
		return &predSpec{orig: p, fn: p}
	case reflect.Type:
		return &predSpec{orig: p, fn: func(v any) bool {
			return v != nil && reflect.TypeOf(v) == p
		}}
	case Set:
		return &predSpec{orig: p, fn: p.Contains}
	case *regexp.Regexp:
		full := regexp.MustCompile(`^(?:` + p.String() + `)$`)
		return &predSpec{orig: p, fn: func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return false
			}
			return full.MatchString(s)
		}}
	}
	badSpec("unsupported predicate %T", pred)
	return nil
}

// check runs the predicate, converting a panic into a failure with the
// panic message as reason.
func (p *predSpec) check(v any) (ok bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			ok, reason = false, fmt.Sprint(r)
		}
	}()
	return p.fn(v), ""
}

func (p *predSpec) conform(v any) any {
	if ok, _ := p.check(v); ok {
		return v
	}
	return Invalid
}

func (p *predSpec) unform(v any) any { return v }

func (p *predSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	ok, reason := p.check(v)
	if ok {
		return nil
	}
	return []Problem{{Path: path, Pred: p.orig, Val: v, Reason: reason, Via: via, In: in}}
}

func (p *predSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	switch orig := p.orig.(type) {
	case reflect.Type:
		return genForType(orig)
	case Set:
		if len(orig) == 0 {
			return nil
		}
		members := append([]any(nil), orig...)
		return func(s *Source) any { return s.Choose(members...) }
	}
	return nil
}

// genForType produces a generator for common scalar types; nil otherwise.
func genForType(t reflect.Type) Generator {
	switch t.Kind() {
	case reflect.Int:
		return func(s *Source) any { return s.Integer() }
	case reflect.Int64:
		return func(s *Source) any { return int64(s.Integer()) }
	case reflect.Float64:
		return func(s *Source) any { return (s.Float64() - 0.5) * 2000 }
	case reflect.String:
		return func(s *Source) any { return s.String(16) }
	case reflect.Bool:
		return func(s *Source) any { return s.Choose(true, false) }
	}
	return nil
}
