package spec

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/datashape/spec/pkg/qname"
)

// Problem is a single conformance failure record. Path names the
// position inside the spec tree, In the position inside the value, and
// Via the chain of named specs traversed to reach the failure site.
type Problem struct {
	Path   []any
	Pred   any
	Val    any
	Reason string
	Via    []qname.Name
	In     []any
}

// Explanation bundles the problems found for a value together with the
// spec and value they were found against.
type Explanation struct {
	Problems []Problem
	SpecName qname.Name
	Value    any
}

// ExplainData returns the explanation for v against s, or nil when v
// conforms.
func ExplainData(s, v any) *Explanation {
	sp := specize(s)
	// A name reference pushes its resolved name itself; a named spec
	// value seeds the chain here.
	var via []qname.Name
	if n := sp.name(); n != "" {
		via = []qname.Name{n}
	}
	problems := sp.explain(nil, via, nil, v)
	if len(problems) == 0 {
		return nil
	}
	return &Explanation{Problems: problems, SpecName: refName(sp), Value: v}
}

// ExplainStr renders the explanation for v against s as text. A
// conforming value yields "Success!".
func ExplainStr(s, v any) string {
	ed := ExplainData(s, v)
	if ed == nil {
		return "Success!\n"
	}
	return ed.String()
}

// Explain prints the explanation for v against s to stdout.
func Explain(s, v any) {
	fprintExplanation(os.Stdout, ExplainData(s, v))
}

// String renders the explanation in the one-line-per-problem format.
func (e *Explanation) String() string {
	var b strings.Builder
	fprintExplanation(&b, e)
	return b.String()
}

func fprintExplanation(w io.Writer, e *Explanation) {
	if e == nil {
		fmt.Fprintln(w, "Success!")
		return
	}
	for _, p := range e.Problems {
		if len(p.In) > 0 {
			fmt.Fprintf(w, "In: %v ", p.In)
		}
		fmt.Fprintf(w, "val: %v fails", p.Val)
		if len(p.Via) > 0 {
			fmt.Fprintf(w, " spec: %s", p.Via[len(p.Via)-1])
		}
		if len(p.Path) > 0 {
			fmt.Fprintf(w, " at: %v", p.Path)
		}
		fmt.Fprintf(w, " predicate: %s", describeOf(p.Pred))
		if p.Reason != "" {
			fmt.Fprintf(w, ", %s", p.Reason)
		}
		fmt.Fprintln(w)
	}
}

// explainPred descends into a sub-predicate during explanation, extending
// the via chain when the sub-spec is named.
func explainPred(pred Spec, path []any, via []qname.Name, in []any, v any) []Problem {
	if n := pred.name(); n != "" {
		via = appendVia(via, n)
	}
	return pred.explain(path, via, in, v)
}

// appendPath copies-and-appends so sibling branches never share backing
// arrays.
func appendPath(path []any, seg any) []any {
	out := make([]any, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

func appendVia(via []qname.Name, n qname.Name) []qname.Name {
	out := make([]qname.Name, len(via)+1)
	copy(out, via)
	out[len(via)] = n
	return out
}

// describeOf renders a predicate reference for problem output.
func describeOf(pred any) string {
	switch p := pred.(type) {
	case nil:
		return "nil"
	case string:
		return p
	case qname.Name:
		return string(p)
	case reflect.Type:
		return p.String()
	case *regexp.Regexp:
		return fmt.Sprintf("#%q", p.String())
	case Set:
		parts := make([]string, len(p))
		for i, m := range p {
			parts[i] = fmt.Sprint(m)
		}
		return "set{" + strings.Join(parts, " ") + "}"
	case KeyPred:
		return p.String()
	case func(any) bool:
		return funcName(p)
	case *predSpec:
		return describeOf(p.orig)
	case Spec:
		if n := refName(p); n != "" {
			return string(n)
		}
		return "spec"
	}
	return fmt.Sprint(pred)
}

// funcName resolves a predicate function's short name, falling back to
// "fn" for anonymous functions.
func funcName(f func(any) bool) string {
	pc := reflect.ValueOf(f).Pointer()
	rf := runtime.FuncForPC(pc)
	if rf == nil {
		return "fn"
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || strings.Contains(name, "func") {
		return "fn"
	}
	return name
}
