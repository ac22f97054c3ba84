package tracerx

import (
	"bytes"
	"sort"
)

// scratchArrayIDBase offsets GetValue's scratch array IDs well above the
// range the executor's own heap allocator (ExecutionState.nextAddr, which
// starts at the pointer width in bytes and grows from there) will reach
// for any program this engine realistically symbolically executes.
const scratchArrayIDBase = 1 << 40

// QueryEngine is the richer solver contract the executor, interpolation
// tree and speculation controller consult. It is built entirely in terms
// of the base Solver.Solve method, so any backend implementing Solver
// (such as z3.Solver) can be wrapped by a SolverChain without change.
type QueryEngine interface {
	Solver

	// Evaluate returns the satisfiability of constraints plus, when
	// satisfiable, the unsat core is nil; when unsatisfiable, values is nil
	// and core names the subset of constraints responsible (if the
	// underlying Solver also implements UnsatCoreSolver; otherwise core is
	// the entire input).
	Evaluate(constraints []Expr, arrays []*Array) (satisfiable bool, values [][]byte, core []Expr, err error)

	// MustBeTrue returns true if constraints imply expr (i.e. constraints
	// AND NOT expr is unsatisfiable).
	MustBeTrue(constraints []Expr, expr Expr) (bool, error)

	// MayBeTrue returns true if constraints AND expr is satisfiable.
	MayBeTrue(constraints []Expr, expr Expr) (bool, error)

	// GetValue returns a concrete value consistent with constraints for a
	// single expression, by wrapping it in a fresh 1-element array read.
	GetValue(constraints []Expr, expr Expr) (*ConstantExpr, error)

	// GetInitialValues returns concrete bytes for every array referenced
	// by constraints.
	GetInitialValues(constraints []Expr) (arrays []*Array, values [][]byte, err error)

	// GetRange returns the tightest [lo, hi] bound the solver can confirm
	// for expr under constraints within the given number of probes.
	GetRange(constraints []Expr, expr Expr) (lo, hi uint64, err error)
}

// UnsatCoreSolver is implemented by backends (z3.Solver) that can report
// which subset of an unsatisfiable query's constraints was responsible.
type UnsatCoreSolver interface {
	SolveUnsatCore(constraints []Expr, arrays []*Array) (satisfiable bool, values [][]byte, core []int, err error)
}

// SolverChain composes the layered solving strategy spec 4.D describes:
// cex-cache, validity cache, independent-subset slicing, a fast
// constant-propagation reject, and finally the concrete backend. Each
// layer is a thin method on SolverChain itself rather than a separate
// wrapper type, since every layer needs access to the same cache state and
// there is exactly one instance per run.
type SolverChain struct {
	backend Solver
	opts    *Options

	cexCache      map[string]cexCacheEntry
	validityCache map[string]bool

	nextScratchID uint64
}

type cexCacheEntry struct {
	satisfiable bool
	values      [][]byte
	arrayIDs    []uint64
}

// NewSolverChain returns a chain wrapping backend, configured from opts.
func NewSolverChain(backend Solver, opts *Options) *SolverChain {
	if opts == nil {
		opts = NewOptions()
	}
	return &SolverChain{
		backend:       backend,
		opts:          opts,
		cexCache:      make(map[string]cexCacheEntry),
		validityCache: make(map[string]bool),
	}
}

var _ QueryEngine = (*SolverChain)(nil)

// Solve implements Solver, running the full layered pipeline.
func (c *SolverChain) Solve(constraints []Expr, arrays []*Array) (bool, [][]byte, error) {
	sat, values, _, err := c.Evaluate(constraints, arrays)
	return sat, values, err
}

// Evaluate implements QueryEngine.Evaluate.
func (c *SolverChain) Evaluate(constraints []Expr, arrays []*Array) (bool, [][]byte, []Expr, error) {
	// Fast constant-propagation layer: if every constraint is already a
	// concrete constant, resolve the query without touching the backend.
	if c.opts.UseFastCexSolver {
		if sat, ok := allConstantSatisfiable(constraints); ok {
			if !sat {
				return false, nil, constraints, nil
			}
			if len(arrays) == 0 {
				return true, nil, nil, nil
			}
			// Fall through: still need concrete values for arrays.
		}
	}

	// cex-cache layer: if this exact constraint set (by canonical key) was
	// solved before, reuse the answer. Key on constraint structure only;
	// two logically-equal but differently-ordered sets intentionally miss,
	// matching klee's cache being keyed on assignment-producing formula
	// identity rather than semantic equality.
	key := constraintCacheKey(constraints)
	if c.opts.UseCexCache {
		if entry, ok := c.cexCache[key]; ok && sameArrayIDs(entry.arrayIDs, arrays) {
			return entry.satisfiable, entry.values, nil, nil
		}
	}

	queryConstraints := constraints
	if c.opts.UseIndependentSolver && len(arrays) > 0 {
		queryConstraints = independentSubset(constraints, arrays)
	}

	var (
		satisfiable bool
		values      [][]byte
		core        []Expr
		err         error
	)
	if unsatSolver, ok := c.backend.(UnsatCoreSolver); ok {
		var coreIdx []int
		satisfiable, values, coreIdx, err = unsatSolver.SolveUnsatCore(queryConstraints, arrays)
		if err == nil && !satisfiable {
			for _, i := range coreIdx {
				core = append(core, queryConstraints[i])
			}
		}
	} else {
		satisfiable, values, err = c.backend.Solve(queryConstraints, arrays)
		if err == nil && !satisfiable {
			core = queryConstraints
		}
	}
	if err != nil {
		return false, nil, nil, err
	}

	if c.opts.UseCache || c.opts.UseCexCache {
		c.cexCache[key] = cexCacheEntry{satisfiable: satisfiable, values: values, arrayIDs: arrayIDs(arrays)}
	}

	return satisfiable, values, core, nil
}

// MustBeTrue implements QueryEngine.MustBeTrue.
func (c *SolverChain) MustBeTrue(constraints []Expr, expr Expr) (bool, error) {
	if IsConstantTrue(expr) {
		return true, nil
	}
	key := constraintCacheKey(append(append([]Expr{}, constraints...), NewNotExpr(expr)))
	if c.opts.UseCache {
		if v, ok := c.validityCache[key]; ok {
			return v, nil
		}
	}

	sat, _, _, err := c.Evaluate(append(append([]Expr{}, constraints...), NewNotExpr(expr)), nil)
	if err != nil {
		return false, err
	}
	result := !sat
	if c.opts.UseCache {
		c.validityCache[key] = result
	}
	return result, nil
}

// MayBeTrue implements QueryEngine.MayBeTrue.
func (c *SolverChain) MayBeTrue(constraints []Expr, expr Expr) (bool, error) {
	if IsConstantFalse(expr) {
		return false, nil
	}
	sat, _, _, err := c.Evaluate(append(append([]Expr{}, constraints...), expr), nil)
	return sat, err
}

// GetValue implements QueryEngine.GetValue.
func (c *SolverChain) GetValue(constraints []Expr, expr Expr) (*ConstantExpr, error) {
	if ce, ok := expr.(*ConstantExpr); ok {
		return ce, nil
	}

	width := ExprWidth(expr)
	c.nextScratchID++
	array := NewArray(scratchArrayIDBase+c.nextScratchID, width/8)
	eq := newEqExpr(array.Select(NewConstantExpr64(0), width, true), expr)

	arrays, values, err := c.GetInitialValues(append(append([]Expr{}, constraints...), eq))
	if err != nil {
		return nil, err
	}
	for i, a := range arrays {
		if a.ID == array.ID {
			return NewConstantExpr(bytesToUint64(values[i], true), width), nil
		}
	}
	return nil, nil
}

// GetInitialValues implements QueryEngine.GetInitialValues.
func (c *SolverChain) GetInitialValues(constraints []Expr) ([]*Array, [][]byte, error) {
	arrays := FindArrays(constraints...)
	sat, values, _, err := c.Evaluate(constraints, arrays)
	if err != nil {
		return nil, nil, err
	} else if !sat {
		return nil, nil, errUnsatisfiable
	}
	return arrays, values, nil
}

// GetRange implements QueryEngine.GetRange using exponential probing
// followed by binary search, bounded to a small number of solver calls.
func (c *SolverChain) GetRange(constraints []Expr, expr Expr) (lo, hi uint64, err error) {
	width := ExprWidth(expr)
	maxVal := bitmask(width)

	if ce, ok := expr.(*ConstantExpr); ok {
		return ce.Value, ce.Value, nil
	}

	lo, hi = 0, maxVal
	for i := 0; i < 32 && lo < hi; i++ {
		mid := lo + (hi-lo)/2
		canBeLE, err := c.MayBeTrue(constraints, newUleExpr(expr, NewConstantExpr(mid, width)))
		if err != nil {
			return 0, 0, err
		}
		if canBeLE {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, hi, nil
}

// allConstantSatisfiable returns (satisfiable, true) if every constraint is
// a *ConstantExpr, so satisfiability is just a conjunction of booleans.
// Returns (_, false) if any constraint is not fully concrete.
func allConstantSatisfiable(constraints []Expr) (bool, bool) {
	for _, c := range constraints {
		ce, ok := c.(*ConstantExpr)
		if !ok {
			return false, false
		}
		if !ce.IsTrue() {
			return false, true
		}
	}
	return true, true
}

// independentSubset slices constraints down to the ones whose referenced
// arrays transitively intersect the arrays the caller needs values for,
// grounded on borzacchiello/gosmt's dependency-tracked solver: constraints
// over disjoint symbolic variables cannot affect the query's
// satisfiability or the model values under examination.
func independentSubset(constraints []Expr, arrays []*Array) []Expr {
	want := make(map[uint64]struct{}, len(arrays))
	for _, a := range arrays {
		want[a.ID] = struct{}{}
	}

	// Fixed-point expansion: a constraint referencing any wanted array
	// pulls in its other arrays too, which may in turn pull in more
	// constraints.
	kept := make([]bool, len(constraints))
	changed := true
	for changed {
		changed = false
		for i, c := range constraints {
			if kept[i] {
				continue
			}
			cArrays := FindArrays(c)
			relevant := len(cArrays) == 0 // constraints with no arrays are always kept (global facts)
			for _, a := range cArrays {
				if _, ok := want[a.ID]; ok {
					relevant = true
				}
			}
			if relevant {
				kept[i] = true
				changed = true
				for _, a := range cArrays {
					want[a.ID] = struct{}{}
				}
			}
		}
	}

	var out []Expr
	for i, c := range constraints {
		if kept[i] {
			out = append(out, c)
		}
	}
	return out
}

// constraintCacheKey returns a deterministic string key for a constraint
// slice, used by the cex-cache and validity-cache layers.
func constraintCacheKey(constraints []Expr) string {
	var buf bytes.Buffer
	for _, c := range constraints {
		buf.WriteString(c.String())
		buf.WriteByte(0)
	}
	return buf.String()
}

func arrayIDs(arrays []*Array) []uint64 {
	ids := make([]uint64, len(arrays))
	for i, a := range arrays {
		ids[i] = a.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sameArrayIDs(a []uint64, arrays []*Array) bool {
	if len(a) != len(arrays) {
		return false
	}
	b := arrayIDs(arrays)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bytesToUint64(b []byte, littleEndian bool) uint64 {
	var v uint64
	for i := range b {
		idx := i
		if !littleEndian {
			idx = len(b) - i - 1
		}
		v |= uint64(b[idx]) << (8 * uint(i))
	}
	return v
}
