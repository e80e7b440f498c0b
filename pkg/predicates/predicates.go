package predicates

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Format returns a predicate that checks string values against a
// go-playground/validator tag rule, e.g. "email" or "http_url". Non-string
// values fail the predicate.
func Format(tag string) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		return validate.Var(s, tag) == nil
	}
}

// Email matches RFC 5322 addresses.
func Email() func(any) bool { return Format("email") }

// URL matches absolute URLs with a scheme.
func URL() func(any) bool { return Format("url") }

// UUID matches canonical UUID strings.
func UUID() func(any) bool { return Format("uuid") }

// Hostname matches RFC 1123 hostnames.
func Hostname() func(any) bool { return Format("hostname_rfc1123") }

// NonEmptyString matches strings with at least one character.
func NonEmptyString() func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && s != ""
	}
}

// Int matches any Go integer kind.
func Int() func(any) bool {
	return func(v any) bool {
		if v == nil {
			return false
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	}
}

// Number matches integer and floating-point kinds.
func Number() func(any) bool {
	isInt := Int()
	return func(v any) bool {
		if isInt(v) {
			return true
		}
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	}
}

// Positive matches numbers strictly greater than zero.
func Positive() func(any) bool {
	return func(v any) bool {
		f, ok := asFloat(v)
		return ok && f > 0
	}
}

// Negative matches numbers strictly less than zero.
func Negative() func(any) bool {
	return func(v any) bool {
		f, ok := asFloat(v)
		return ok && f < 0
	}
}

// Natural matches integers greater than or equal to zero.
func Natural() func(any) bool {
	isInt := Int()
	return func(v any) bool {
		if !isInt(v) {
			return false
		}
		f, _ := asFloat(v)
		return f >= 0
	}
}

func asFloat(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
