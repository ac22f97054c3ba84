package tracerx

// SpeculationStrategy selects how aggressively the SpeculationController
// pushes exploration past an unresolved fork before a subsumption check or
// solver answer is available.
type SpeculationStrategy int

const (
	// SpeculationTimid only speculates past forks whose other branch has
	// already been shown, by a sibling state, to cover new lines; it never
	// speculates blind.
	SpeculationTimid SpeculationStrategy = iota

	// SpeculationAggressive always speculates both branches of every fork,
	// rolling back whichever branch the solver later proves infeasible.
	SpeculationAggressive

	// SpeculationCustom consults visitedProgramPoints/specSnap bookkeeping
	// to decide per-fork, favoring branches that lead somewhere the run
	// has not already explored.
	SpeculationCustom
)

// specNode records one speculative step taken before its feasibility was
// confirmed: which state it produced, the program point it left from, and
// whether the branch has since been confirmed feasible.
type specNode struct {
	state     *ExecutionState
	point     programPoint
	confirmed bool
	rolledBack bool
}

// SpeculationController drives speculative execution with rollback (spec
// component H). It lets the executor fork past a branch whose feasibility
// query has not resolved yet, and later either confirms the speculative
// state (folding it back into ordinary exploration) or rolls it back
// (discarding it and everything it produced).
type SpeculationController struct {
	strategy SpeculationStrategy
	engine   QueryEngine

	// visitedProgramPoints is lazily materialized the first time a
	// strategy needs it; most runs under SpeculationTimid never touch it.
	visitedProgramPoints map[programPoint]int

	nodes []*specNode

	specTime int // monotonically increasing counter used to bound lookahead
}

// NewSpeculationController returns a controller using the given strategy
// and query engine.
func NewSpeculationController(strategy SpeculationStrategy, engine QueryEngine) *SpeculationController {
	return &SpeculationController{strategy: strategy, engine: engine}
}

// ShouldSpeculate decides whether to fork past a branch at point whose
// feasibility has not yet been confirmed by the solver, given that
// sibling currently holds the only confirmed-feasible branch.
func (c *SpeculationController) ShouldSpeculate(point programPoint, siblingCoveredNew bool) bool {
	switch c.strategy {
	case SpeculationAggressive:
		return true
	case SpeculationCustom:
		return c.visitCount(point) < 2
	default: // SpeculationTimid
		return siblingCoveredNew
	}
}

func (c *SpeculationController) visitCount(point programPoint) int {
	if c.visitedProgramPoints == nil {
		c.visitedProgramPoints = make(map[programPoint]int)
	}
	c.visitedProgramPoints[point]++
	return c.visitedProgramPoints[point]
}

// AddSpeculationNode records a newly-forked speculative state.
func (c *SpeculationController) AddSpeculationNode(state *ExecutionState, point programPoint) {
	c.nodes = append(c.nodes, &specNode{state: state, point: point})
	c.specTime++
}

// Confirm marks the speculative state rooted at state as having had its
// branch condition validated by the solver; it now behaves as an ordinary
// (non-speculative) state.
func (c *SpeculationController) Confirm(state *ExecutionState) {
	for _, n := range c.nodes {
		if n.state == state {
			n.confirmed = true
			state.SetForkDisabled(false)
			return
		}
	}
}

// Rollback marks the speculative state rooted at state, and every
// descendant of it, for removal: the branch condition it ran past was
// proven infeasible. SpeculativeBackJump returns the ancestor state
// execution should resume from.
func (c *SpeculationController) Rollback(state *ExecutionState) *ExecutionState {
	for _, n := range c.nodes {
		if n.state == state {
			n.rolledBack = true
		}
	}
	return c.speculativeBackJump(state)
}

// speculativeBackJump walks up state's parent chain to the nearest
// ancestor that was not itself speculative (or was already confirmed),
// disabling further forking along the discarded branch so it runs
// concretely, if at all, rather than re-forking into the same dead end.
func (c *SpeculationController) speculativeBackJump(state *ExecutionState) *ExecutionState {
	cur := state
	for cur != nil {
		if n := c.specNodeFor(cur); n == nil || n.confirmed {
			return cur
		}
		cur.SetForkDisabled(true)
		cur = cur.parent
	}
	return cur
}

func (c *SpeculationController) specNodeFor(state *ExecutionState) *specNode {
	for _, n := range c.nodes {
		if n.state == state {
			return n
		}
	}
	return nil
}

// PendingSpeculativeStates returns every currently-unconfirmed, non-rolled-
// back speculative state, used by the search loop (run.go) to prioritize
// resolving their feasibility before spending more budget exploring past
// them further.
func (c *SpeculationController) PendingSpeculativeStates() []*ExecutionState {
	var out []*ExecutionState
	for _, n := range c.nodes {
		if !n.confirmed && !n.rolledBack {
			out = append(out, n.state)
		}
	}
	return out
}
