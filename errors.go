package spec

import (
	"errors"
	"fmt"

	"github.com/datashape/spec/pkg/qname"
)

// Common errors returned by the engine. Conformance failure is never an
// error: it is reported through the Invalid sentinel and problem lists.
var (
	// ErrInvalidSpec marks programmer errors made while building specs,
	// such as registering an unqualified name or passing an unsupported
	// predicate kind.
	ErrInvalidSpec = errors.New("invalid spec")

	// ErrNoGen marks a failure to construct or run a generator for a spec
	// that has no usable generator and no override.
	ErrNoGen = errors.New("unable to construct generator")

	// ErrAssertionFailed marks a failed Assert call.
	ErrAssertionFailed = errors.New("spec assertion failed")
)

// InvalidSpecError is a spec-building error. Constructors panic with it,
// in the fail-fast style used for misconfiguration: a malformed spec is a
// bug at the call site, not a runtime condition.
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid spec: %s", e.Reason)
}

func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// badSpec panics with an InvalidSpecError.
func badSpec(format string, args ...any) {
	panic(&InvalidSpecError{Reason: fmt.Sprintf(format, args...)})
}

// NoGenError reports that generation was required but impossible. Path
// locates the sub-spec that had no generator; Name is its registered name
// when it has one.
type NoGenError struct {
	Path []any
	Name qname.Name
}

func (e *NoGenError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unable to construct generator for %s at path %v", e.Name, e.Path)
	}
	return fmt.Sprintf("unable to construct generator at path %v", e.Path)
}

func (e *NoGenError) Unwrap() error { return ErrNoGen }

// AssertionError carries the explanation for a failed Assert.
type AssertionError struct {
	Explanation *Explanation
}

func (e *AssertionError) Error() string {
	return "spec assertion failed:\n" + e.Explanation.String()
}

func (e *AssertionError) Unwrap() error { return ErrAssertionFailed }
