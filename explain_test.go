package spec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashape/spec"
)

func TestExplainStr(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Success!\n", spec.ExplainStr(spec.Predicate(intType), 3))
	})

	t.Run("simple failure names the predicate", func(t *testing.T) {
		t.Parallel()
		out := spec.ExplainStr(spec.Predicate(intType), "x")
		assert.Contains(t, out, "val: x fails")
		assert.Contains(t, out, "predicate: int")
	})

	t.Run("in path and at path are rendered", func(t *testing.T) {
		t.Parallel()
		s := spec.SpecOf(spec.Cat("qty", isNumber, "unit", isString))
		out := spec.ExplainStr(s, []any{1, 2})
		assert.Contains(t, out, "In: [1]")
		assert.Contains(t, out, "at: [unit]")
		assert.Contains(t, out, "val: 2 fails")
	})

	t.Run("reason is appended", func(t *testing.T) {
		t.Parallel()
		s := spec.SpecOf(spec.Cat("a", isNumber))
		out := spec.ExplainStr(s, []any{1, 2})
		assert.Contains(t, out, ", Extra input")
	})

	t.Run("one line per problem", func(t *testing.T) {
		t.Parallel()
		s := spec.Or("s", strType, "b", spec.Predicate(boolType))
		out := spec.ExplainStr(s, 1.5)
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		assert.Len(t, lines, 2)
	})
}

func TestExplanationSpecName(t *testing.T) {
	t.Parallel()

	ed := spec.ExplainData(spec.Predicate(isNumber), "zz")
	require.NotNil(t, ed)
	assert.Equal(t, "zz", ed.Value)
	assert.Empty(t, ed.SpecName)
}

func TestKeyPredRendering(t *testing.T) {
	t.Parallel()

	kp := spec.KeyPred{Expr: spec.OrKeys(
		mustName("fmt/a"),
		spec.AndKeys(mustName("fmt/b"), mustName("fmt/c")),
	)}
	assert.Equal(t, "key? (or fmt/a (and fmt/b fmt/c))", kp.String())
}
