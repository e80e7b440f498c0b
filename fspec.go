package spec

import (
	"fmt"
	"log/slog"

	"github.com/datashape/spec/pkg/genrand"
	"github.com/datashape/spec/pkg/qname"
)

// Fn is the callable shape a function spec validates.
type Fn = func(args ...any) any

// Call is one observed invocation, handed to the Fn relation of a
// function spec.
type Call struct {
	Args  []any
	Ret   any
	Block any
}

// FSpecOpts configures a function spec. Args and Ret are required; Fn is
// an optional relation over the observed call; Block is an optional
// function spec for a callable the function receives as its last
// argument.
type FSpecOpts struct {
	Args   any
	Ret    any
	Fn     func(Call) bool
	Block  Spec
	Logger *slog.Logger
}

// fspecSpec validates callables generatively: it generates conforming
// argument lists, invokes the function, and checks the observed returns.
type fspecSpec struct {
	baseSpec
	args   Spec
	ret    Spec
	fn     func(Call) bool
	block  *fspecSpec
	logger *slog.Logger
}

// FSpec builds a function spec from its args/ret/fn/block quartet.
func FSpec(opts FSpecOpts) Spec {
	if opts.Args == nil || opts.Ret == nil {
		badSpec("FSpec requires both Args and Ret")
	}
	fs := &fspecSpec{
		args:   specize(opts.Args),
		ret:    specize(opts.Ret),
		fn:     opts.Fn,
		logger: opts.Logger,
	}
	if fs.logger == nil {
		fs.logger = slog.Default()
	}
	if opts.Block != nil {
		inner, ok := opts.Block.(*fspecSpec)
		if !ok {
			badSpec("FSpec Block must itself be a function spec")
		}
		fs.block = inner
	}
	return fs
}

// trialFailure records one failed generative trial.
type trialFailure struct {
	args   []any
	block  any
	ret    any
	reason string // non-empty when the call panicked
	badRet bool
	badFn  bool
}

// size orders failures so explain reports the smallest counterexample.
func (t *trialFailure) size() int {
	return len(fmt.Sprint(t.args))
}

func (f *fspecSpec) conform(v any) any {
	fn, ok := v.(Fn)
	if !ok {
		return Invalid
	}
	if f.minFailure(fn) != nil {
		return Invalid
	}
	return v
}

// minFailure runs the generative trials and returns the smallest failing
// invocation, or nil when every trial passed. Trials are seeded
// deterministically so conform and explain observe the same runs.
func (f *fspecSpec) minFailure(fn Fn) *trialFailure {
	argsGen := specGen(f.args, Overrides{}, nil, rmap{})
	if argsGen == nil {
		panic(&NoGenError{Path: []any{"args"}, Name: refName(f.args)})
	}
	iterations := CurrentSettings().FSpecIterations
	var min *trialFailure
	for i := 0; i < iterations; i++ {
		src := genrand.New(int64(i) + 1)
		args, ok := asSeq(argsGen(src))
		if !ok {
			continue
		}
		var blockFn any
		if f.block != nil {
			blockFn = f.block.genFn(src)
			args = append(args, blockFn)
		}
		fail := f.runTrial(fn, args, blockFn)
		if fail == nil {
			continue
		}
		f.logger.Debug("fspec trial failed",
			slog.Int("trial", i),
			slog.String("reason", fail.reason),
			slog.Any("args", fail.args))
		if min == nil || fail.size() < min.size() {
			min = fail
		}
	}
	return min
}

// runTrial invokes fn once and checks ret and the fn relation.
func (f *fspecSpec) runTrial(fn Fn, args []any, blockFn any) (fail *trialFailure) {
	defer func() {
		if r := recover(); r != nil {
			fail = &trialFailure{args: args, block: blockFn, reason: fmt.Sprint(r)}
		}
	}()
	ret := fn(args...)
	if IsInvalid(f.ret.conform(ret)) {
		return &trialFailure{args: args, block: blockFn, ret: ret, badRet: true}
	}
	if f.fn != nil && !f.fn(Call{Args: args, Ret: ret, Block: blockFn}) {
		return &trialFailure{args: args, block: blockFn, ret: ret, badFn: true}
	}
	return nil
}

// genFn builds a callable conforming to this function spec: it produces
// generated return values. Its arguments are not checked against Args.
func (f *fspecSpec) genFn(seedSrc *Source) Fn {
	retGen := specGen(f.ret, Overrides{}, nil, rmap{})
	if retGen == nil {
		panic(&NoGenError{Path: []any{"ret"}, Name: refName(f.ret)})
	}
	src := genrand.New(int64(seedSrc.Range(1, 1<<30)))
	return func(args ...any) any {
		return retGen(src)
	}
}

func (f *fspecSpec) unform(v any) any { return v }

func (f *fspecSpec) explain(path []any, via []qname.Name, in []any, v any) []Problem {
	fn, ok := v.(Fn)
	if !ok {
		return []Problem{{Path: path, Pred: "fn?", Val: v, Via: via, In: in}}
	}
	fail := f.minFailure(fn)
	if fail == nil {
		return nil
	}
	if fail.reason != "" {
		return []Problem{{
			Path: path, Pred: "fn", Val: fail.args, Reason: fail.reason,
			Via: via, In: in,
		}}
	}
	if fail.badRet {
		return explainPred(f.ret, appendPath(path, "ret"), via, in, fail.ret)
	}
	return []Problem{{
		Path: appendPath(path, "fn"), Pred: "fn",
		Val: Call{Args: fail.args, Ret: fail.ret, Block: fail.block},
		Via: via, In: in,
	}}
}

func (f *fspecSpec) gen(ov Overrides, path []any, rm rmap) Generator {
	return func(s *Source) any {
		return f.genFn(s)
	}
}
