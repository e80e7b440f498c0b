// Package qname provides qualified names: two-part symbolic identifiers of
// the form "namespace/local" used as registry keys and as error context
// throughout the spec engine.
//
// A Name is an immutable string value. The zero value "" is not a valid
// name. Names compare with ==, which makes them usable as map keys.
//
// Usage:
//
//	n := qname.MustParse("user/email")
//	n.Namespace() // "user"
//	n.Local()     // "email"
//
// Unqualified names (no namespace part) are representable but rejected by
// registry operations; IsQualified reports which case a name falls into.
package qname
