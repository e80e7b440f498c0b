package genrand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashape/spec/pkg/genrand"
)

func TestDeterminism(t *testing.T) {
	t.Parallel()

	a := genrand.New(7)
	b := genrand.New(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Integer(), b.Integer())
	}
	assert.Equal(t, a.String(16), b.String(16))
}

func TestRange(t *testing.T) {
	t.Parallel()

	src := genrand.New(1)
	for i := 0; i < 1000; i++ {
		n := src.Range(-3, 3)
		require.GreaterOrEqual(t, n, -3)
		require.LessOrEqual(t, n, 3)
	}

	t.Run("single-point range", func(t *testing.T) {
		assert.Equal(t, 5, genrand.New(1).Range(5, 5))
	})

	t.Run("swapped bounds", func(t *testing.T) {
		n := genrand.New(1).Range(3, -3)
		assert.GreaterOrEqual(t, n, -3)
		assert.LessOrEqual(t, n, 3)
	})
}

func TestChoose(t *testing.T) {
	t.Parallel()

	src := genrand.New(2)
	seen := map[any]bool{}
	for i := 0; i < 200; i++ {
		seen[src.Choose("a", "b", "c")] = true
	}
	assert.Len(t, seen, 3)
	assert.Nil(t, src.Choose())
}

func TestString(t *testing.T) {
	t.Parallel()

	src := genrand.New(3)
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, len(src.String(10)), 10)
	}
	assert.Equal(t, "", src.String(0))
	assert.Equal(t, "", src.String(-1))
}

func TestFreq(t *testing.T) {
	t.Parallel()

	t.Run("respects weights", func(t *testing.T) {
		t.Parallel()
		src := genrand.New(4)
		counts := map[any]int{}
		pairs := []genrand.Weighted{
			{Weight: 9, Gen: func(*genrand.Source) any { return "heavy" }},
			{Weight: 1, Gen: func(*genrand.Source) any { return "light" }},
		}
		for i := 0; i < 1000; i++ {
			counts[src.Freq(pairs)]++
		}
		assert.Greater(t, counts["heavy"], counts["light"])
	})

	t.Run("skips non-positive weights", func(t *testing.T) {
		t.Parallel()
		src := genrand.New(5)
		pairs := []genrand.Weighted{
			{Weight: 0, Gen: func(*genrand.Source) any { return "never" }},
			{Weight: 1, Gen: func(*genrand.Source) any { return "always" }},
		}
		for i := 0; i < 50; i++ {
			assert.Equal(t, "always", src.Freq(pairs))
		}
	})

	t.Run("empty selection yields nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, genrand.New(6).Freq(nil))
	})
}

func TestBranch(t *testing.T) {
	t.Parallel()

	src := genrand.New(7)
	seen := map[any]bool{}
	gens := []genrand.Gen{
		func(*genrand.Source) any { return 1 },
		func(*genrand.Source) any { return 2 },
	}
	for i := 0; i < 100; i++ {
		seen[src.Branch(gens...)] = true
	}
	assert.Len(t, seen, 2)
	assert.Nil(t, src.Branch())
}

func TestSized(t *testing.T) {
	t.Parallel()

	src := genrand.New(8)
	for i := 0; i < 100; i++ {
		got := src.Sized(5, func(size int) any { return size })
		require.GreaterOrEqual(t, got.(int), 0)
		require.LessOrEqual(t, got.(int), 5)
	}
}
