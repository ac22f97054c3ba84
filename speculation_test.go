package tracerx

import (
	"testing"

	"github.com/ninesd/tracerx/z3"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func mustLoadSpeculationTestFunc(t *testing.T) *ssa.Function {
	t.Helper()
	return mustLoadTestFunc(t, "./testdata/pkg001_call", "caller")
}

func mustLoadTestFunc(t *testing.T, path, name string) *ssa.Function {
	t.Helper()

	initial, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax, Tests: true}, path)
	if err != nil {
		t.Fatal(err)
	} else if packages.PrintErrors(initial) > 0 {
		t.Fatal("packages contain errors")
	}

	prog, pkgs := ssautil.AllPackages(initial, ssa.BuilderMode(0))
	for _, pkg := range pkgs {
		pkg.SetDebugMode(true)
	}
	prog.Build()

	for _, pkg := range pkgs {
		if fn, ok := pkg.Members[name].(*ssa.Function); ok {
			return fn
		}
	}
	t.Fatalf("%s function not found", name)
	return nil
}

func TestSpeculationController_AggressiveAlwaysSpeculates(t *testing.T) {
	c := NewSpeculationController(SpeculationAggressive, nil)
	point := programPoint{fn: "f", block: 0}
	if !c.ShouldSpeculate(point, false) {
		t.Fatal("expected SpeculationAggressive to always speculate")
	}
}

func TestSpeculationController_TimidFollowsSibling(t *testing.T) {
	c := NewSpeculationController(SpeculationTimid, nil)
	point := programPoint{fn: "f", block: 0}

	if c.ShouldSpeculate(point, false) {
		t.Fatal("expected SpeculationTimid not to speculate blind")
	}
	if !c.ShouldSpeculate(point, true) {
		t.Fatal("expected SpeculationTimid to speculate once the sibling covered new lines")
	}
}

func TestSpeculationController_ConfirmAndRollback(t *testing.T) {
	fn := mustLoadSpeculationTestFunc(t)
	e := NewExecutor(fn)

	c := NewSpeculationController(SpeculationAggressive, nil)
	point := programPoint{fn: "f", block: 0}

	speculative := NewExecutionState(e, fn)
	c.AddSpeculationNode(speculative, point)

	if pending := c.PendingSpeculativeStates(); len(pending) != 1 || pending[0] != speculative {
		t.Fatalf("expected exactly the speculative state pending, got %v", pending)
	}

	c.Confirm(speculative)
	if pending := c.PendingSpeculativeStates(); len(pending) != 0 {
		t.Fatalf("expected no pending states after Confirm, got %v", pending)
	}
}

func TestSpeculationController_Rollback(t *testing.T) {
	fn := mustLoadSpeculationTestFunc(t)
	e := NewExecutor(fn)

	c := NewSpeculationController(SpeculationAggressive, nil)
	point := programPoint{fn: "f", block: 0}

	speculative := NewExecutionState(e, fn)
	c.AddSpeculationNode(speculative, point)

	c.Rollback(speculative)
	if pending := c.PendingSpeculativeStates(); len(pending) != 0 {
		t.Fatalf("expected no pending states after Rollback, got %v", pending)
	}
}

// TestExecutor_ExecuteIfInstr_SpeculatesPastSecondQuery exercises the real
// wiring in executeIfInstr: once the true branch of a fork is confirmed
// feasible, an aggressive strategy should speculate past the false branch
// (recording exactly one speculation node for it) instead of the old
// behavior of resolving both branches with the solver up front.
func TestExecutor_ExecuteIfInstr_SpeculatesPastSecondQuery(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	solver := z3.NewSolver()
	defer solver.Close()
	e.Solver = solver
	e.Options.UseInterpolation = false
	e.Options.SpeculationStrategy = SpeculationAggressive

	if _, err := e.ExecuteNextState(); err != nil {
		t.Fatal(err)
	}

	spec := e.speculator()
	if spec == nil {
		t.Fatal("expected speculator to be constructed")
	}
	if got := len(spec.nodes); got != 1 {
		t.Fatalf("len(spec.nodes)=%d after resolving the fork, expected exactly 1 (only the branch actually speculated past)", got)
	}
	if spec.nodes[0].confirmed || spec.nodes[0].rolledBack {
		t.Fatal("expected the speculative node to start out neither confirmed nor rolled back")
	}

	// x == 0xAABB is satisfiable both ways, so draining the remaining states
	// must reach the speculative state's next block and confirm it rather
	// than roll it back.
	for {
		if _, err := e.ExecuteNextState(); err == ErrNoStateAvailable {
			break
		} else if err != nil {
			t.Fatal(err)
		}
	}
	if got := len(spec.PendingSpeculativeStates()); got != 0 {
		t.Fatalf("PendingSpeculativeStates()=%d after draining, expected 0 (speculated branch was feasible and should have been confirmed)", got)
	}
	if !spec.nodes[0].confirmed {
		t.Fatal("expected the speculative node to be confirmed once its state resumed execution")
	}
}

// TestExecutor_ConfirmSpeculation_RollsBackInfeasibleBranch drives
// confirmSpeculation directly against a state whose accumulated
// constraints are contradictory, verifying the rollback path terminates
// the state and marks the node rolled back rather than confirmed.
func TestExecutor_ConfirmSpeculation_RollsBackInfeasibleBranch(t *testing.T) {
	fn := mustLoadTestFunc(t, "./testdata/pkg000_if", "simple")
	e := NewExecutor(fn)

	solver := z3.NewSolver()
	defer solver.Close()
	e.Solver = solver

	spec := NewSpeculationController(SpeculationAggressive, e.Engine())
	state := NewExecutionState(e, fn)

	x := NewSelectExpr(NewArray(1, 8), NewConstantExpr(0, 32))
	state.AddConstraint(NewBinaryExpr(EQ, x, NewConstantExpr(1, 64)))
	state.AddConstraint(NewBinaryExpr(EQ, x, NewConstantExpr(2, 64)))

	spec.AddSpeculationNode(state, programPoint{fn: "f", block: 0})

	rolledBack, err := e.confirmSpeculation(spec, state)
	if err != nil {
		t.Fatal(err)
	}
	if !rolledBack {
		t.Fatal("expected an infeasible speculative state to be rolled back")
	}
	if state.status != ExecutionStatusFailed {
		t.Fatalf("state.status=%q, expected %q", state.status, ExecutionStatusFailed)
	}
	if state.reason != "speculative branch proved infeasible" {
		t.Fatalf("state.reason=%q, unexpected", state.reason)
	}

	node := spec.specNodeFor(state)
	if node == nil || !node.rolledBack || node.confirmed {
		t.Fatal("expected the speculation node to be marked rolled back, not confirmed")
	}
}
