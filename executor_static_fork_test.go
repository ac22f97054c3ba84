package tracerx

import (
	"testing"
	"time"

	"github.com/ninesd/tracerx/z3"
)

// TestExecutor_ConcretizeStaticCond_SkipsBeforeSixtySeconds verifies spec
// 4.I step 1's 60-second grace period: even a fork site already far over
// its configured percentage must not be throttled while the run is young.
func TestExecutor_ConcretizeStaticCond_SkipsBeforeSixtySeconds(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	opts := NewOptions()
	opts.MaxStaticForkPct = 1
	e.Options = opts
	e.Governor = NewResourceGovernor(opts)

	point := programPoint{fn: "f", block: 0}
	e.forkCount = 100
	e.pointForks[point] = 100

	state := NewExecutionState(e, fn)
	x := NewSelectExpr(NewArray(1, 8), NewConstantExpr(0, 32))

	got, err := e.concretizeStaticCond(state, x, point)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected no throttling before 60s of wall-clock have elapsed")
	}
}

// TestExecutor_ConcretizeStaticCond_NoopWhenPctsAreUnset verifies the
// all-100 default (every MaxStatic*Pct field at its NewOptions default)
// never throttles, regardless of elapsed time or fork counts - matching
// the original's guard that skips the whole check unless at least one
// percentage was configured below its unlimited default.
func TestExecutor_ConcretizeStaticCond_NoopWhenPctsAreUnset(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	opts := NewOptions()
	e.Options = opts
	e.Governor = &ResourceGovernor{opts: opts, start: time.Now().Add(-2 * time.Minute)}

	point := programPoint{fn: "f", block: 0}
	e.forkCount = 1000
	e.pointForks[point] = 1000

	state := NewExecutionState(e, fn)
	x := NewSelectExpr(NewArray(1, 8), NewConstantExpr(0, 32))

	got, err := e.concretizeStaticCond(state, x, point)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected no throttling when every MaxStatic*Pct is left at its default")
	}
}

// TestExecutor_ConcretizeStaticCond_ThrottlesHotForkSite exercises the real
// throttling path: a fork site responsible for more than its configured
// share of every fork so far, once 60 seconds have elapsed, should have its
// condition concretized to a solver-consistent witness instead of staying
// symbolic.
func TestExecutor_ConcretizeStaticCond_ThrottlesHotForkSite(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	solver := z3.NewSolver()
	defer solver.Close()
	e.Solver = solver

	opts := NewOptions()
	opts.MaxStaticForkPct = 50
	e.Options = opts
	e.Governor = &ResourceGovernor{opts: opts, start: time.Now().Add(-2 * time.Minute)}

	point := programPoint{fn: "f", block: 0}
	e.forkCount = 10
	e.pointForks[point] = 8 // 80% of all forks so far, over the 50% cap.

	state := NewExecutionState(e, fn)
	x := NewSelectExpr(NewArray(1, 8), NewConstantExpr(0, 32))
	cond := NewBinaryExpr(EQ, x, NewConstantExpr(7, 8))

	got, err := e.concretizeStaticCond(state, cond, point)
	if err != nil {
		t.Fatal(err)
	}
	value, ok := got.(*ConstantExpr)
	if !ok {
		t.Fatalf("expected concretizeStaticCond to return a *ConstantExpr witness, got %T", got)
	}

	sat, _, _, err := e.Engine().Evaluate(append(append([]Expr{}, state.constraints...), NewBinaryExpr(EQ, value, cond)), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sat {
		t.Fatal("expected the witness equality recorded as a constraint to remain satisfiable")
	}
}

// TestExecutor_ExecuteIfInstr_CoinFlipsWhenMaxForksExhausted exercises spec
// 4.I step 5: once MaxForks is exhausted, both-feasible forks must pick one
// direction without actually splitting the state, so draining the run
// produces exactly one terminal state rather than two.
func TestExecutor_ExecuteIfInstr_CoinFlipsWhenMaxForksExhausted(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	solver := z3.NewSolver()
	defer solver.Close()
	e.Solver = solver

	opts := NewOptions()
	opts.MaxForks = 0
	opts.UseSpeculation = false
	opts.UseInterpolation = false
	e.Options = opts

	terminal, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if got := len(terminal); got != 1 {
		t.Fatalf("len(terminal)=%d, expected exactly 1: MaxForks=0 should steer one direction without forking", got)
	}
}

// TestExecutor_ExecuteIfInstr_CoinFlipsWhenMemoryInhibited is the memory-
// pressure counterpart: MaxMemoryInhibit plus an already-inhibited governor
// must also skip the fork rather than split the state.
func TestExecutor_ExecuteIfInstr_CoinFlipsWhenMemoryInhibited(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	solver := z3.NewSolver()
	defer solver.Close()
	e.Solver = solver

	opts := NewOptions()
	opts.MaxMemoryInhibit = true
	opts.UseSpeculation = false
	opts.UseInterpolation = false
	e.Options = opts
	e.Governor = &ResourceGovernor{opts: opts, start: time.Now(), memInhibited: true}

	terminal, err := e.Run()
	if err != nil {
		t.Fatal(err)
	}
	if got := len(terminal); got != 1 {
		t.Fatalf("len(terminal)=%d, expected exactly 1: memory inhibition should steer one direction without forking", got)
	}
}
