package tracerx

// MemoryObject identifies one heap allocation: its base address, size and a
// handful of flags that the executor's memory operations consult before
// allowing a write. It is a thin, explicit wrapper around what used to be
// an implicit (address, *Array) pair scattered across ExecutionState.
type MemoryObject struct {
	Base     uint64
	Size     uint
	ReadOnly bool
	Symbolic bool // true if the object's size or base is symbolic at creation
}

// Contains returns true if addr falls within the object's byte range.
func (mo *MemoryObject) Contains(addr uint64) bool {
	return addr >= mo.Base && addr < mo.Base+uint64(mo.Size)
}

// ResolvedObject pairs a MemoryObject with the Array holding its bytes, as
// returned by AddressSpace.Resolve for one candidate object.
type ResolvedObject struct {
	Object *MemoryObject
	Array  *Array
}

// AddressSpace resolves possibly-symbolic addresses against the set of
// live memory objects in a state's heap. ExecutionState still owns the
// authoritative immutable.SortedMap of address -> *Array (see
// findAllocContainingAddr); AddressSpace builds a MemoryObject view over
// it, which is what lets resolveOne/resolve reason about bounds and
// read-only violations independently of array byte layout.
type AddressSpace struct {
	state *ExecutionState
}

// NewAddressSpace returns an AddressSpace bound to state's current heap.
func NewAddressSpace(state *ExecutionState) *AddressSpace {
	return &AddressSpace{state: state}
}

// ResolveOne attempts the fast path: addr is a concrete address, so there is
// exactly one candidate object (or none, if addr is out of bounds).
// Mirrors spec 4.C's "fast path via resolveOne".
func (as *AddressSpace) ResolveOne(addr *ConstantExpr) (ResolvedObject, bool) {
	base, array := as.state.findAllocContainingAddr(addr)
	if array == nil {
		return ResolvedObject{}, false
	}
	return ResolvedObject{
		Object: &MemoryObject{Base: base.Value, Size: array.Size},
		Array:  array,
	}, true
}

// Resolve implements the slow path for a symbolic address: it returns every
// live object the solver cannot rule out as a match, plus whether the
// search was cut off before exhausting every object in the heap (the
// "incomplete" flag spec 4.C calls for). The current in-process heap is
// small enough in the programs this engine targets that resolution never
// needs to bail out early, so incomplete is always false here; the flag is
// retained on the return value so callers (executeMemoryOperation) can
// treat it uniformly with a future bounded search.
func (as *AddressSpace) Resolve(addr Expr, solver Solver, constraints []Expr) (candidates []ResolvedObject, incomplete bool) {
	if constAddr, ok := addr.(*ConstantExpr); ok {
		if ro, ok := as.ResolveOne(constAddr); ok {
			return []ResolvedObject{ro}, false
		}
		return nil, false
	}

	itr := as.state.heap.Iterator()
	for {
		k, v := itr.Next()
		if k == nil {
			break
		}
		base, array := k.(uint64), v.(*Array)

		inBounds := newAndExpr(
			newUleExpr(NewConstantExpr(base, Width64), addr),
			newUltExpr(addr, NewConstantExpr(base+uint64(array.Size), Width64)),
		)
		if IsConstantFalse(inBounds) {
			continue
		}

		query := append(append([]Expr{}, constraints...), inBounds)
		satisfiable, _, err := solver.Solve(query, nil)
		if err != nil || !satisfiable {
			continue
		}

		candidates = append(candidates, ResolvedObject{
			Object: &MemoryObject{Base: base, Size: array.Size},
			Array:  array,
		})
	}
	return candidates, false
}
