package genrand

import (
	"math/rand"
)

// Gen produces one random value from a source. Generators are composed by
// the spec engine; user code supplies them as overrides.
type Gen func(*Source) any

// Weighted pairs a generator with its selection weight for Freq.
type Weighted struct {
	Weight int
	Gen    Gen
}

// Source is a seeded deterministic random-value source.
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded with the given value.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Integer returns a random int across the full usable range, biased
// toward small magnitudes so generated data stays readable.
func (s *Source) Integer() int {
	switch s.r.Intn(4) {
	case 0:
		return s.r.Intn(21) - 10
	case 1:
		return s.r.Intn(2001) - 1000
	default:
		n := int(s.r.Int63())
		if s.r.Intn(2) == 0 {
			return -n
		}
		return n
	}
}

// Range returns a random int in [lo, hi], inclusive on both sides.
func (s *Source) Range(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.r.Intn(hi-lo+1)
}

// Float64 returns a random float64 in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Choose returns one of the given choices uniformly.
func (s *Source) Choose(choices ...any) any {
	if len(choices) == 0 {
		return nil
	}
	return choices[s.r.Intn(len(choices))]
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// String returns a random alphanumeric string of length at most n.
func (s *Source) String(n int) string {
	if n <= 0 {
		return ""
	}
	size := s.r.Intn(n + 1)
	b := make([]byte, size)
	for i := range b {
		b[i] = alphabet[s.r.Intn(len(alphabet))]
	}
	return string(b)
}

// Sized invokes f with a random size in [0, n] and returns its result.
func (s *Source) Sized(n int, f func(size int) any) any {
	if n < 0 {
		n = 0
	}
	return f(s.r.Intn(n + 1))
}

// Freq picks a generator with probability proportional to its weight and
// runs it. Entries with non-positive weight are never selected. Returns
// nil when no entry is selectable.
func (s *Source) Freq(pairs []Weighted) any {
	total := 0
	for _, p := range pairs {
		if p.Weight > 0 {
			total += p.Weight
		}
	}
	if total == 0 {
		return nil
	}
	n := s.r.Intn(total)
	for _, p := range pairs {
		if p.Weight <= 0 {
			continue
		}
		if n < p.Weight {
			return p.Gen(s)
		}
		n -= p.Weight
	}
	return nil
}

// Branch picks one of the given generators uniformly and runs it.
func (s *Source) Branch(gens ...Gen) any {
	if len(gens) == 0 {
		return nil
	}
	return gens[s.r.Intn(len(gens))](s)
}
