package spec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/datashape/spec"
)

func anySlice(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func TestValidConformExplainAgreeProperty(t *testing.T) {
	t.Parallel()

	s := spec.Tuple(intType, strType)
	rapid.Check(t, func(r *rapid.T) {
		var v any
		switch rapid.IntRange(0, 3).Draw(r, "shape") {
		case 0:
			v = []any{rapid.Int().Draw(r, "i"), rapid.String().Draw(r, "s")}
		case 1:
			v = []any{rapid.String().Draw(r, "s"), rapid.Int().Draw(r, "i")}
		case 2:
			v = anySlice(rapid.SliceOfN(rapid.Int(), 0, 5).Draw(r, "xs"))
		default:
			v = rapid.String().Draw(r, "scalar")
		}
		valid := spec.Valid(s, v)
		assert.Equal(t, valid, !spec.IsInvalid(spec.Conform(s, v)))
		assert.Equal(t, valid, spec.ExplainData(s, v) == nil)
	})
}

func TestZeroOrMoreConformIsIdentityOnValidInput(t *testing.T) {
	t.Parallel()

	s := spec.SpecOf(spec.ZeroOrMore(intType))
	rapid.Check(t, func(r *rapid.T) {
		xs := anySlice(rapid.SliceOfN(rapid.IntRange(-1000, 1000), 0, 30).Draw(r, "xs"))
		got := spec.Conform(s, xs)
		require.False(t, spec.IsInvalid(got))
		assert.Equal(t, xs, got)
		assert.Equal(t, xs, spec.Unform(s, got))
	})
}

func TestCatUnformRoundtrip(t *testing.T) {
	t.Parallel()

	s := spec.SpecOf(spec.Cat("a", intType, "rest", spec.ZeroOrMore(strType)))
	rapid.Check(t, func(r *rapid.T) {
		in := []any{rapid.Int().Draw(r, "a")}
		for _, w := range rapid.SliceOfN(rapid.String(), 0, 10).Draw(r, "rest") {
			in = append(in, w)
		}
		c := spec.Conform(s, in)
		require.False(t, spec.IsInvalid(c))
		assert.Equal(t, in, spec.Unform(s, c))
	})
}

func TestAltLeftToRightPreference(t *testing.T) {
	t.Parallel()

	s := spec.SpecOf(spec.Alt("first", intType, "second", intType))
	rapid.Check(t, func(r *rapid.T) {
		n := rapid.Int().Draw(r, "n")
		got := spec.Conform(s, []any{n})
		assert.Equal(t, spec.Tag{Key: "first", Value: n}, got)
	})
}

func TestEverySamplingNeverRejectsValidPrefix(t *testing.T) {
	t.Parallel()

	s := spec.Every(intType)
	rapid.Check(t, func(r *rapid.T) {
		n := rapid.IntRange(102, 500).Draw(r, "n")
		xs := make([]any, n)
		for i := range xs {
			xs[i] = i
		}
		// Junk past the check limit is never sampled.
		xs[n-1] = "junk"
		assert.True(t, spec.Valid(s, xs))
	})
}

func TestGeneratedValuesConform(t *testing.T) {
	t.Parallel()

	s := spec.SpecOf(spec.Cat(
		"n", intType,
		"flags", spec.ZeroOrMore(boolType),
		"tail", spec.ZeroOrOne(strType),
	))
	g := spec.MustGen(s)
	rapid.Check(t, func(r *rapid.T) {
		src := newSource(rapid.Int64().Draw(r, "seed"))
		assert.True(t, spec.Valid(s, g(src)))
	})
}
