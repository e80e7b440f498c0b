package spec_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashape/spec"
	"github.com/datashape/spec/pkg/qname"
)

func TestDefAndGet(t *testing.T) {
	name := qname.MustParse("reg/int")
	spec.Def(name, intType)

	s := spec.Get(name)
	require.NotNil(t, s)
	assert.Equal(t, 5, spec.Conform(s, 5))
	assert.True(t, spec.IsInvalid(spec.Conform(s, "x")))

	t.Run("names are usable wherever specs are", func(t *testing.T) {
		assert.Equal(t, 5, spec.Conform(name, 5))
		assert.True(t, spec.Valid(spec.Tuple(name, name), []any{1, 2}))
	})

	t.Run("unregistered lookup returns nil", func(t *testing.T) {
		assert.Nil(t, spec.Get(qname.MustParse("reg/absent")))
	})

	t.Run("conforming through an unregistered name panics", func(t *testing.T) {
		assert.Panics(t, func() {
			spec.Conform(qname.MustParse("reg/ghost"), 1)
		})
	})

	t.Run("unqualified registration is rejected", func(t *testing.T) {
		assert.Panics(t, func() {
			spec.Def(qname.Name("naked"), intType)
		})
	})
}

func TestAliases(t *testing.T) {
	target := qname.MustParse("alias/target")
	first := qname.MustParse("alias/first")
	second := qname.MustParse("alias/second")

	spec.Def(target, intType)
	spec.Def(first, target)
	spec.Def(second, first)

	s := spec.Get(second)
	require.NotNil(t, s)
	assert.Equal(t, 9, spec.Conform(s, 9))
	assert.Equal(t, 9, spec.Conform(second, 9))
}

func TestBuiltins(t *testing.T) {
	cases := map[qname.Name]struct {
		good []any
		bad  []any
	}{
		spec.NameAny:             {good: []any{1, "x", nil, true}},
		spec.NameBoolean:         {good: []any{true, false}, bad: []any{1, "t"}},
		spec.NamePositiveInteger: {good: []any{1, 99}, bad: []any{0, -1, 1.5}},
		spec.NameNaturalInteger:  {good: []any{0, 7}, bad: []any{-1, "7"}},
		spec.NameNegativeInteger: {good: []any{-1, -99}, bad: []any{0, 1}},
		spec.NameEmpty:           {good: []any{[]any{}, map[string]any{}}, bad: []any{[]any{1}}},
	}
	for name, c := range cases {
		t.Run(string(name), func(t *testing.T) {
			for _, v := range c.good {
				assert.True(t, spec.Valid(name, v), "expected %v to conform", v)
			}
			for _, v := range c.bad {
				assert.False(t, spec.Valid(name, v), "expected %v to fail", v)
			}

			g := spec.MustGen(name)
			src := newSource(3)
			for i := 0; i < 50; i++ {
				assert.True(t, spec.Valid(name, g(src)))
			}
		})
	}
}

func TestResetRegistry(t *testing.T) {
	name := qname.MustParse("reset/gone")
	spec.Def(name, intType)
	require.NotNil(t, spec.Get(name))

	spec.ResetRegistry()
	assert.Nil(t, spec.Get(name))
	assert.NotNil(t, spec.Get(spec.NameBoolean), "built-ins survive reset")
}

func TestRecursiveSpec(t *testing.T) {
	tree := qname.MustParse("rec/tree")
	spec.Def(tree, spec.Or(
		"leaf", intType,
		"node", spec.CollOf(tree, spec.MinCount(1), spec.MaxCount(2)),
	))

	t.Run("conforms nested structures", func(t *testing.T) {
		v := []any{1, []any{2, 3}}
		assert.False(t, spec.IsInvalid(spec.Conform(tree, v)))
		assert.True(t, spec.IsInvalid(spec.Conform(tree, []any{1, "x"})))
	})

	t.Run("generation terminates under the recursion limit", func(t *testing.T) {
		g := spec.MustGen(tree)
		src := newSource(5)
		for i := 0; i < 20; i++ {
			assert.True(t, spec.Valid(tree, g(src)))
		}
	})
}

func TestConcurrentDef(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := qname.MustParse(fmt.Sprintf("conc/n%d", i))
			spec.Def(name, intType)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 32; i++ {
		assert.NotNil(t, spec.Get(qname.MustParse(fmt.Sprintf("conc/n%d", i))))
	}
}
