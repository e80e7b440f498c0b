package spec_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datashape/spec"
	"github.com/datashape/spec/pkg/qname"
)

var emailPattern = regexp.MustCompile(`[^@]+@[^@]+`)

func definePerson(t *testing.T, ns string) (person, first, last, email, phone qname.Name) {
	t.Helper()
	first = qname.New(ns, "first")
	last = qname.New(ns, "last")
	email = qname.New(ns, "email")
	phone = qname.New(ns, "phone")
	emailType := qname.New(ns, "email_type")

	spec.Def(first, strType)
	spec.Def(last, strType)
	spec.Def(emailType, spec.And(strType, emailPattern))
	spec.Def(email, emailType)
	spec.Def(phone, strType)

	person = qname.New(ns, "person")
	spec.Def(person, spec.Keys(spec.KeysOpts{
		Req: []any{first, last, email},
		Opt: []any{phone},
	}))
	return person, first, last, email, phone
}

func TestKeys(t *testing.T) {
	person, _, _, email, _ := definePerson(t, "person1")

	t.Run("conforms a complete map", func(t *testing.T) {
		in := map[string]any{
			"person1/first": "Ada",
			"person1/last":  "Lovelace",
			"person1/email": "ada@example.org",
		}
		assert.Equal(t, in, spec.Conform(person, in))
	})

	t.Run("optional key is validated when present", func(t *testing.T) {
		in := map[string]any{
			"person1/first": "Ada",
			"person1/last":  "Lovelace",
			"person1/email": "ada@example.org",
			"person1/phone": 5551212,
		}
		assert.True(t, spec.IsInvalid(spec.Conform(person, in)))
	})

	t.Run("missing required key", func(t *testing.T) {
		ed := spec.ExplainData(person, map[string]any{
			"person1/first": "Ada",
			"person1/last":  "Lovelace",
		})
		require.NotNil(t, ed)
		require.Len(t, ed.Problems, 1)
		kp, ok := ed.Problems[0].Pred.(spec.KeyPred)
		require.True(t, ok)
		assert.Equal(t, string(email), kp.Expr.String())
	})

	t.Run("bad value reports via chain through the alias", func(t *testing.T) {
		ed := spec.ExplainData(person, map[string]any{
			"person1/first": "Ada",
			"person1/last":  "Lovelace",
			"person1/email": "n/a",
		})
		require.NotNil(t, ed)
		require.Len(t, ed.Problems, 1)
		p := ed.Problems[0]
		assert.Equal(t, []any{"person1/email"}, p.Path)
		assert.Equal(t, []any{"person1/email"}, p.In)
		assert.Equal(t, emailPattern, p.Pred)
		assert.Equal(t, []qname.Name{
			qname.Name("person1/person"),
			qname.Name("person1/email_type"),
		}, p.Via)
	})

	t.Run("empty req conforms the empty map", func(t *testing.T) {
		s := spec.Keys(spec.KeysOpts{})
		assert.Equal(t, map[string]any{}, spec.Conform(s, map[string]any{}))
	})

	t.Run("non-map input", func(t *testing.T) {
		ed := spec.ExplainData(person, []any{1})
		require.NotNil(t, ed)
		assert.Equal(t, "map?", ed.Problems[0].Pred)
	})
}

func TestKeysUnqualified(t *testing.T) {
	first := qname.MustParse("person2/first")
	spec.Def(first, strType)

	s := spec.Keys(spec.KeysOpts{ReqUn: []any{first}})

	t.Run("matches on the local part", func(t *testing.T) {
		in := map[string]any{"first": "Ada"}
		assert.Equal(t, in, spec.Conform(s, in))
	})

	t.Run("value spec still comes from the full name", func(t *testing.T) {
		assert.True(t, spec.IsInvalid(spec.Conform(s, map[string]any{"first": 42})))
	})

	t.Run("qualified key does not satisfy the local rule", func(t *testing.T) {
		assert.True(t, spec.IsInvalid(spec.Conform(s, map[string]any{"person2/first": "Ada"})))
	})
}

func TestKeyExpressions(t *testing.T) {
	a := qname.MustParse("kexpr/a")
	b := qname.MustParse("kexpr/b")
	c := qname.MustParse("kexpr/c")
	spec.Def(a, intType)
	spec.Def(b, intType)
	spec.Def(c, intType)

	s := spec.Keys(spec.KeysOpts{
		Req: []any{spec.OrKeys(a, spec.AndKeys(b, c))},
	})

	t.Run("either side satisfies the or", func(t *testing.T) {
		assert.False(t, spec.IsInvalid(spec.Conform(s, map[string]any{"kexpr/a": 1})))
		assert.False(t, spec.IsInvalid(spec.Conform(s, map[string]any{"kexpr/b": 1, "kexpr/c": 2})))
	})

	t.Run("partial and does not satisfy", func(t *testing.T) {
		ed := spec.ExplainData(s, map[string]any{"kexpr/b": 1})
		require.NotNil(t, ed)
		require.Len(t, ed.Problems, 1)
		kp, ok := ed.Problems[0].Pred.(spec.KeyPred)
		require.True(t, ok)
		assert.Equal(t, "(or kexpr/a (and kexpr/b kexpr/c))", kp.Expr.String())
	})

	t.Run("unsatisfied and is flattened to the first missing leaf", func(t *testing.T) {
		and := spec.Keys(spec.KeysOpts{Req: []any{spec.AndKeys(b, c)}})
		ed := spec.ExplainData(and, map[string]any{"kexpr/b": 1})
		require.NotNil(t, ed)
		require.Len(t, ed.Problems, 1)
		kp := ed.Problems[0].Pred.(spec.KeyPred)
		assert.Equal(t, "kexpr/c", kp.Expr.String())
	})
}

func TestMerge(t *testing.T) {
	x := qname.MustParse("merge/x")
	y := qname.MustParse("merge/y")
	spec.Def(x, intType)
	spec.Def(y, strType)

	left := spec.Keys(spec.KeysOpts{Req: []any{x}})
	right := spec.Keys(spec.KeysOpts{Req: []any{y}})
	merged := spec.Merge(left, right)

	t.Run("conforms against every component", func(t *testing.T) {
		in := map[string]any{"merge/x": 1, "merge/y": "a"}
		assert.Equal(t, in, spec.Conform(merged, in))
	})

	t.Run("missing key in one component fails the merge", func(t *testing.T) {
		assert.True(t, spec.IsInvalid(spec.Conform(merged, map[string]any{"merge/x": 1})))
	})

	t.Run("a bad shared key is reported once per component", func(t *testing.T) {
		shared := spec.Merge(
			spec.Keys(spec.KeysOpts{Req: []any{x}}),
			spec.Keys(spec.KeysOpts{Req: []any{x}}),
		)
		ed := spec.ExplainData(shared, map[string]any{"merge/x": "not an int"})
		require.NotNil(t, ed)
		assert.Len(t, ed.Problems, 2)
	})
}
