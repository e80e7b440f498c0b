package spec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashape/spec"
)

func addFn(args ...any) any { return args[0].(int) + args[1].(int) }

func TestFSpec(t *testing.T) {
	ranged := spec.FSpec(spec.FSpecOpts{
		Args: spec.Cat("a", intType, "b", intType),
		Ret:  intType,
		Fn: func(c spec.Call) bool {
			return c.Ret == c.Args[0].(int)+c.Args[1].(int)
		},
	})

	t.Run("a conforming function validates", func(t *testing.T) {
		assert.True(t, spec.Valid(ranged, spec.Fn(addFn)))
	})

	t.Run("conform returns the callable unchanged", func(t *testing.T) {
		got := spec.Conform(ranged, spec.Fn(addFn))
		assert.False(t, spec.IsInvalid(got))
	})

	t.Run("wrong return type is caught", func(t *testing.T) {
		bad := spec.Fn(func(args ...any) any { return "nope" })
		assert.False(t, spec.Valid(ranged, bad))

		ed := spec.ExplainData(ranged, bad)
		require.NotNil(t, ed)
		require.NotEmpty(t, ed.Problems)
		assert.Equal(t, []any{"ret"}, ed.Problems[0].Path)
	})

	t.Run("broken relation is caught", func(t *testing.T) {
		bad := spec.Fn(func(args ...any) any { return 0 })
		assert.False(t, spec.Valid(ranged, bad))

		ed := spec.ExplainData(ranged, bad)
		require.NotNil(t, ed)
		require.NotEmpty(t, ed.Problems)
		assert.Equal(t, []any{"fn"}, ed.Problems[0].Path)
	})

	t.Run("panicking function is a failure with reason", func(t *testing.T) {
		bad := spec.Fn(func(args ...any) any { panic("kaput") })
		ed := spec.ExplainData(ranged, bad)
		require.NotNil(t, ed)
		require.NotEmpty(t, ed.Problems)
		assert.Equal(t, "kaput", ed.Problems[0].Reason)
	})

	t.Run("non-function input", func(t *testing.T) {
		assert.False(t, spec.Valid(ranged, 42))
	})
}

func TestFSpecGeneratedFn(t *testing.T) {
	fs := spec.FSpec(spec.FSpecOpts{
		Args: spec.Cat("a", intType),
		Ret:  intType,
	})
	g := spec.MustGen(fs)
	fn, ok := g(newSource(21)).(spec.Fn)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		_, isInt := fn(i).(int)
		assert.True(t, isInt)
	}
}

func TestFSpecConstructorValidation(t *testing.T) {
	assert.Panics(t, func() {
		spec.FSpec(spec.FSpecOpts{Args: spec.Cat("a", intType)})
	})
	assert.Panics(t, func() {
		spec.FSpec(spec.FSpecOpts{Ret: intType})
	})
}
