package qname

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is returned when a string cannot be parsed as a name.
var ErrInvalidName = errors.New("invalid qualified name")

// Name is a symbolic identifier, optionally qualified by a namespace:
// "namespace/local" or a bare "local". The separator is the first slash;
// the local part may itself contain slashes.
type Name string

// New builds a name from its parts. An empty namespace yields an
// unqualified name.
func New(namespace, local string) Name {
	if namespace == "" {
		return Name(local)
	}
	return Name(namespace + "/" + local)
}

// Parse validates s as a name. Empty strings and strings with an empty
// namespace or local part ("/x", "x/", "/") are rejected.
func Parse(s string) (Name, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidName)
	}
	if i := strings.Index(s, "/"); i == 0 || i == len(s)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return Name(s), nil
}

// MustParse is like Parse but panics on invalid input. Intended for
// package-level declarations of well-known names.
func MustParse(s string) Name {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsQualified reports whether the name carries a namespace part.
func (n Name) IsQualified() bool {
	i := strings.Index(string(n), "/")
	return i > 0 && i < len(n)-1
}

// Namespace returns the namespace part, or "" for unqualified names.
func (n Name) Namespace() string {
	if i := strings.Index(string(n), "/"); i > 0 && i < len(n)-1 {
		return string(n)[:i]
	}
	return ""
}

// Local returns the local part of the name.
func (n Name) Local() string {
	if i := strings.Index(string(n), "/"); i > 0 && i < len(n)-1 {
		return string(n)[i+1:]
	}
	return string(n)
}

func (n Name) String() string { return string(n) }
