package tracerx

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// programPoint identifies a location interpolants are recorded/looked up
// at: the function plus the basic block about to execute. Two states at
// the same programPoint are candidates for subsumption.
type programPoint struct {
	fn    string
	block int
}

func (p programPoint) String() string { return fmt.Sprintf("%s@%d", p.fn, p.block) }

// TxTree is the interpolation tree (spec component G): a tree structurally
// parallel to the ProcessTree, except that instead of carrying live
// execution state its nodes carry Craig interpolants computed from solver
// unsat cores, indexed by program point so later visits to the same point
// can attempt subsumption before paying for further exploration.
type TxTree struct {
	engine QueryEngine
	root   *TxTreeNode

	// table maps a program point to every interpolant recorded there so
	// far. A new state at that point is subsumed if its path condition
	// implies any one of them.
	table map[programPoint][]*TxTreeNode
}

// NewTxTree returns a new interpolation tree that consults engine to
// compute and check interpolants.
func NewTxTree(engine QueryEngine) *TxTree {
	root := &TxTreeNode{graph: simple.NewDirectedGraph()}
	return &TxTree{
		engine: engine,
		root:   root,
		table:  make(map[programPoint][]*TxTreeNode),
	}
}

// TxTreeNode is one node of the interpolation tree. It owns a dependency
// graph over the arrays referenced by the unsat core that produced this
// node's interpolant, grounded on awslabs-ar-go-tools's CGraph pattern of
// wrapping a domain graph behind gonum/graph: here the domain objects are
// symbolic arrays rather than call-graph nodes, but the graph gives the
// same thing - a reusable, gonum-algorithm-compatible structure for
// walking which constraints a given array's value can affect.
type TxTreeNode struct {
	parent      *TxTreeNode
	left, right *TxTreeNode

	point       programPoint
	interpolant []Expr // the weakest sufficient condition kept at this node

	// sourceArrays is every symbolic array interpolant references, in the
	// order FindArrays returns them (ascending array ID, i.e. allocation
	// order). SubsumptionCheck uses this to line interpolant's arrays up
	// against a candidate state's own arrays positionally: two states
	// that reach the same program point through the same sequence of
	// symbolic allocations denote "the same" inputs in the same slots,
	// even though the concrete array IDs differ per state.
	sourceArrays []*Array

	graph *simple.DirectedGraph
}

// dependencyNode wraps an array ID so it satisfies graph.Node.
type dependencyNode int64

func (n dependencyNode) ID() int64 { return int64(n) }

// recordDependencies adds every array referenced by core to the node's
// dependency graph, with an edge from each array to every other array that
// co-occurs in the same constraint (they cannot be separated by the
// independent-solver layer without losing soundness for this interpolant).
func (n *TxTreeNode) recordDependencies(core []Expr) {
	for _, expr := range core {
		arrays := FindArrays(expr)
		for _, a := range arrays {
			id := dependencyNode(a.ID)
			if n.graph.Node(id.ID()) == nil {
				n.graph.AddNode(id)
			}
		}
		for i := range arrays {
			for j := range arrays {
				if i == j {
					continue
				}
				from, to := dependencyNode(arrays[i].ID), dependencyNode(arrays[j].ID)
				if !n.graph.HasEdgeFromTo(from.ID(), to.ID()) {
					n.graph.SetEdge(n.graph.NewEdge(from, to))
				}
			}
		}
	}
}

// DependentArrays returns every array transitively linked to start's
// dependency subgraph, using gonum's graph.Node traversal.
func (n *TxTreeNode) DependentArrays(start uint64) []uint64 {
	seen := map[int64]bool{int64(start): true}
	queue := []int64{int64(start)}
	var out []uint64
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		to := n.graph.From(cur)
		for to.Next() {
			nb := to.Node().(dependencyNode)
			if !seen[nb.ID()] {
				seen[nb.ID()] = true
				out = append(out, uint64(nb.ID()))
				queue = append(queue, nb.ID())
			}
		}
	}
	return out
}

var _ graph.Node = dependencyNode(0)

// RecordInterpolant stores the weakest sufficient condition (derived from
// an unsat core, or - when the branch was feasible - from the branch
// condition itself) for a state that just resolved a fork at point. The
// interpolant is kept in terms of the recording state's own arrays;
// SubsumptionCheck is responsible for substituting a later candidate
// state's corresponding arrays in before asking the solver anything, since
// an implication over two states' unrelated arrays is never sound.
func (t *TxTree) RecordInterpolant(point programPoint, core []Expr) *TxTreeNode {
	node := &TxTreeNode{point: point, interpolant: core, graph: simple.NewDirectedGraph()}
	node.sourceArrays = FindArrays(core...)
	node.recordDependencies(node.interpolant)
	t.table[point] = append(t.table[point], node)
	return node
}

// matchArrays builds a substitution from this node's recorded arrays onto
// candidate's live arrays, assuming both reached this program point via
// the same sequence of symbolic allocations, so the i-th array by creation
// order denotes the same symbolic input in both. An interpolant that
// mentions no arrays at all needs no correspondence and always matches.
// Otherwise, returns false when the array counts disagree, since no
// correspondence can be established soundly in that case.
func (n *TxTreeNode) matchArrays(live []*Array) (map[uint64]*Array, bool) {
	if len(n.sourceArrays) == 0 {
		return nil, true
	}
	if len(live) != len(n.sourceArrays) {
		return nil, false
	}
	mapping := make(map[uint64]*Array, len(live))
	for i, a := range n.sourceArrays {
		mapping[a.ID] = live[i]
	}
	return mapping, true
}

// renameArraysInExpr walks expr, replacing every *Array reachable through a
// SelectExpr with rename(array).
func renameArraysInExpr(expr Expr, rename func(*Array) *Array) Expr {
	switch e := expr.(type) {
	case *SelectExpr:
		return NewSelectExpr(rename(e.Array), renameArraysInExpr(e.Index, rename))
	case *BinaryExpr:
		return NewBinaryExpr(e.Op, renameArraysInExpr(e.LHS, rename), renameArraysInExpr(e.RHS, rename))
	case *NotExpr:
		return NewNotExpr(renameArraysInExpr(e.Expr, rename))
	case *CastExpr:
		return NewCastExpr(renameArraysInExpr(e.Src, rename), e.Width, e.Signed)
	case *ExtractExpr:
		return NewExtractExpr(renameArraysInExpr(e.Expr, rename), e.Offset, e.Width)
	case *ConcatExpr:
		return NewConcatExpr(renameArraysInExpr(e.MSB, rename), renameArraysInExpr(e.LSB, rename))
	default:
		return expr
	}
}

// SubsumptionCheck returns true if state's current path condition is
// implied by some interpolant already recorded at point, meaning the
// remainder of state's exploration from point onward cannot discover
// anything the subsuming branch didn't already cover. Each candidate
// interpolant is first rewritten in terms of constraints' own arrays via
// matchArrays, since MustBeTrue over a node's original arrays and
// constraints' unrelated arrays would never imply anything.
func (t *TxTree) SubsumptionCheck(point programPoint, constraints []Expr) (bool, error) {
	nodes := t.table[point]
	if len(nodes) == 0 {
		return false, nil
	}

	live := FindArrays(constraints...)
	for _, node := range nodes {
		if len(node.interpolant) == 0 {
			continue
		}
		mapping, ok := node.matchArrays(live)
		if !ok {
			continue
		}
		rename := func(a *Array) *Array {
			if live, ok := mapping[a.ID]; ok {
				return live
			}
			return a
		}
		rewritten := make([]Expr, len(node.interpolant))
		for i, e := range node.interpolant {
			rewritten[i] = renameArraysInExpr(e, rename)
		}

		implied, err := t.engine.MustBeTrue(constraints, andAll(rewritten))
		if err != nil {
			return false, err
		}
		if implied {
			return true, nil
		}
	}
	return false, nil
}

func andAll(exprs []Expr) Expr {
	if len(exprs) == 0 {
		return NewBoolConstantExpr(true)
	}
	result := exprs[0]
	for _, e := range exprs[1:] {
		result = newAndExpr(result, e)
	}
	return result
}
