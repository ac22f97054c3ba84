package tracerx

// ConstraintSet holds the ordered path condition collected along one
// execution path. It mirrors klee::ConstraintManager: constraints are kept
// in insertion order, logical conjunctions are split into independent
// entries, and discovered equalities are back-substituted into the rest of
// the set so later simplification and solver queries see the reduced form.
type ConstraintSet struct {
	constraints []Expr
}

// NewConstraintSet returns an empty constraint set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{}
}

// Empty returns true if the set has no constraints.
func (cs *ConstraintSet) Empty() bool { return len(cs.constraints) == 0 }

// Size returns the number of constraints in the set.
func (cs *ConstraintSet) Size() int { return len(cs.constraints) }

// Slice returns the underlying constraints. The returned slice must not be
// mutated by the caller.
func (cs *ConstraintSet) Slice() []Expr { return cs.constraints }

// Clone returns a shallow copy of the set suitable for extension by a forked
// state; the backing slice is only reallocated on divergent mutation
// because append() on a cloned slice header never aliases past len().
func (cs *ConstraintSet) Clone() *ConstraintSet {
	other := make([]Expr, len(cs.constraints))
	copy(other, cs.constraints)
	return &ConstraintSet{constraints: other}
}

// Add adds a constraint, splitting top-level logical ANDs into independent
// constraints and back-substituting any newly-discovered variable equality
// into the constraints already present in the set.
func (cs *ConstraintSet) Add(expr Expr) {
	if expr, ok := expr.(*ConstantExpr); ok {
		assert(expr.IsTrue(), "invalid false constraint")
		return
	}

	if expr, ok := expr.(*BinaryExpr); ok && expr.Op == AND {
		cs.Add(expr.LHS)
		cs.Add(expr.RHS)
		return
	}

	cs.simplifyForValidConstraint(expr)
	cs.constraints = append(cs.constraints, cs.simplifyExpr(expr))
}

// simplifyExpr rewrites expr to a fixed point using every equality already
// present in the set, mirroring ConstraintManager::simplifyExpr.
func (cs *ConstraintSet) simplifyExpr(expr Expr) Expr {
	for {
		rewritten := expr
		for _, c := range cs.constraints {
			eq, ok := c.(*BinaryExpr)
			if !ok || eq.Op != EQ {
				continue
			}
			rewritten = substituteExpr(rewritten, eq.LHS, eq.RHS)
		}
		if CompareExpr(rewritten, expr) == 0 {
			return rewritten
		}
		expr = rewritten
	}
}

// simplifyForValidConstraint rewrites every existing constraint using a
// newly-known-valid expr, mirroring
// ConstraintManager::simplifyForValidConstraint. Only top-level equalities
// are exploited, matching the substitution klee performs.
func (cs *ConstraintSet) simplifyForValidConstraint(expr Expr) {
	eq, ok := expr.(*BinaryExpr)
	if !ok || eq.Op != EQ {
		return
	}
	for i, c := range cs.constraints {
		cs.constraints[i] = substituteExpr(c, eq.LHS, eq.RHS)
	}
}

// substituteExpr replaces every occurrence of from with to inside expr.
// It only matches structurally-equal subexpressions, which is sufficient
// for the byte/select-level equalities the engine produces.
func substituteExpr(expr, from, to Expr) Expr {
	if CompareExpr(expr, from) == 0 {
		return to
	}

	switch e := expr.(type) {
	case *BinaryExpr:
		lhs, rhs := substituteExpr(e.LHS, from, to), substituteExpr(e.RHS, from, to)
		if lhs == e.LHS && rhs == e.RHS {
			return e
		}
		return NewBinaryExpr(e.Op, lhs, rhs)
	case *NotExpr:
		x := substituteExpr(e.Expr, from, to)
		if x == e.Expr {
			return e
		}
		return NewNotExpr(x)
	case *CastExpr:
		x := substituteExpr(e.Src, from, to)
		if x == e.Src {
			return e
		}
		return NewCastExpr(x, e.Width, e.Signed)
	case *ExtractExpr:
		x := substituteExpr(e.Expr, from, to)
		if x == e.Expr {
			return e
		}
		return NewExtractExpr(x, e.Offset, e.Width)
	case *ConcatExpr:
		lhs, rhs := substituteExpr(e.MSB, from, to), substituteExpr(e.LSB, from, to)
		if lhs == e.MSB && rhs == e.LSB {
			return e
		}
		return NewConcatExpr(lhs, rhs)
	default:
		return expr
	}
}

// GetArraysFromExpr returns the set of arrays referenced within expr,
// mirroring ConstraintManager::getArrayFromExpr.
func GetArraysFromExpr(expr Expr) []*Array {
	return FindArrays(expr)
}

// VariablesIntersect returns true if the two array sets share a member,
// mirroring ConstraintManager::variablesIntersect. Used by the independent
// solver layer (see solver_chain.go) to slice constraints relevant to a
// query.
func VariablesIntersect(a, b []*Array) bool {
	set := make(map[uint64]struct{}, len(a))
	for _, arr := range a {
		set[arr.ID] = struct{}{}
	}
	for _, arr := range b {
		if _, ok := set[arr.ID]; ok {
			return true
		}
	}
	return false
}
