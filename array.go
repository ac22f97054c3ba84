package tracerx

import (
	"fmt"
)

// Array is tracerx's model of a byte-addressable memory object: an alloca,
// a global, or a function argument's backing storage. Bytes start either
// symbolic (a fresh Array from NewArray) or zeroed (zero), and every write
// after that prepends an ArrayUpdate rather than mutating byte storage in
// place, so two ExecutionStates that forked from a shared Array never
// see each other's writes.
type Array struct {
	ID      uint64       // nonzero for a named symbolic input; 0 for concrete scratch memory
	Size    uint         // object size, in bytes
	Updates *ArrayUpdate // most-recent-first update chain
}

// NewArray allocates an Array of the given size with no updates yet.
func NewArray(id uint64, size uint) *Array {
	return &Array{ID: id, Size: size}
}

func (a *Array) String() string {
	if a.ID != 0 {
		return fmt.Sprintf("(array #%d %d)", a.ID, a.Size)
	}
	return fmt.Sprintf("(array %d)", a.Size)
}

// Clone returns a shallow copy sharing the same update chain - cheap,
// since Store never mutates an existing chain node, only prepends.
func (a *Array) Clone() *Array {
	return &Array{ID: a.ID, Size: a.Size, Updates: a.Updates}
}

// zero fills every byte with a concrete 0 update. Only valid on a fresh
// array; callers use this for stack/heap objects the SSA frontend
// allocates without an initializer, never for a symbolic input.
func (a *Array) zero() {
	assert(a.Updates == nil, "tracerx.Array: cannot zero-initialize array with updates")
	for i := uint(0); i < a.Size; i++ {
		a.storeByte(NewConstantExpr64(uint64(i)), NewConstantExpr(0, 8))
	}
}

// Select reads a width-bit value starting at offset, byte-order per
// isLittleEndian. Sub-byte (bool) reads go through selectByte plus an
// extract; everything else walks byteOrder(width) and concatenates.
func (a *Array) Select(offset Expr, width uint, isLittleEndian bool) Expr {
	assert(width > 0, "select: invalid width")
	offset = newZExtExpr(offset, Width64)

	if width == WidthBool {
		return NewExtractExpr(a.selectByte(offset), 0, WidthBool)
	}

	var result Expr
	for i, pos := range byteOrder(width, isLittleEndian) {
		b := a.selectByte(NewBinaryExpr(ADD, offset, NewConstantExpr64(pos)))
		if i == 0 {
			result = b
		} else {
			result = NewConcatExpr(b, result)
		}
	}
	return result
}

// Store writes value at offset, byte-order per isLittleEndian, returning
// a new Array (the receiver is left untouched, so a forked sibling state
// keeps the pre-write contents).
func (a *Array) Store(offset, value Expr, isLittleEndian bool) *Array {
	next := a.Clone()
	offset = newZExtExpr(offset, Width64)

	width := ExprWidth(value)
	assert(width > 0, "store: invalid width")
	if width == WidthBool {
		next.storeByte(offset, value)
		return next
	}

	for i, pos := range byteOrder(width, isLittleEndian) {
		next.storeByte(NewBinaryExpr(ADD, offset, NewConstantExpr64(pos)), NewExtractExpr(value, uint(i*8), Width8))
	}
	return next
}

// byteOrder returns, for a width-bit access, the byte offset (relative to
// the access's base address) to visit at each position 0..width/8-1: the
// identity sequence for little-endian, reversed for big-endian.
func byteOrder(width uint, isLittleEndian bool) []uint64 {
	n := uint64(width) / 8
	order := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		if isLittleEndian {
			order[i] = i
		} else {
			order[i] = n - i - 1
		}
	}
	return order
}

// selectByte returns the value most recently stored at index, walking the
// update chain while indexes stay resolvable to a concrete match; it
// falls back to a fresh SelectExpr the moment either the probed index or
// a chain entry's index turns out symbolic, since no further history can
// be ruled in or out at that point.
func (a *Array) selectByte(index Expr) Expr {
	assert(ExprWidth(index) == 64, "selectByte: invalid array index width: %d", ExprWidth(index))
	for upd := a.Updates; upd != nil; upd = upd.Next {
		match, ok := NewBinaryExpr(EQ, index, upd.Index).(*ConstantExpr)
		if !ok {
			break
		}
		if match.IsTrue() {
			return upd.Value
		}
	}
	return NewSelectExpr(a, index)
}

// storeByte prepends one byte update and, when index is concrete, prunes
// every now-shadowed concrete update for the same index out of the chain
// so it doesn't grow without bound across a long-running state.
func (a *Array) storeByte(index, value Expr) {
	assert(ExprWidth(index) == 64, "storeByte: invalid array index width: %d", ExprWidth(index))

	if c, ok := index.(*ConstantExpr); ok {
		assert(c.Value < uint64(a.Size), "storeByte: index out of bounds: %d < %d", c.Value, a.Size)
	}

	a.Updates = NewArrayUpdate(index, value, a.Updates)

	concreteIndex, ok := index.(*ConstantExpr)
	if !ok {
		return
	}
	prev := a.Updates
	for upd := prev.Next; upd != nil; upd = upd.Next {
		updIndex, ok := upd.Index.(*ConstantExpr)
		if !ok {
			break
		}
		if concreteIndex.Value == updIndex.Value {
			prev.Next = upd.Next
		} else {
			prev = upd
		}
	}
}

// IsSymbolic reports whether any byte in the array still depends on a
// symbolic index or holds a symbolic value, used to decide whether a
// value can be concretized for a fast-path check or needs a real query.
func (a *Array) IsSymbolic() bool {
	concreteByte := make([]bool, a.Size)
	for upd := a.Updates; upd != nil; upd = upd.Next {
		index, ok := upd.Index.(*ConstantExpr)
		if !ok {
			return true
		}
		if _, ok := upd.Value.(*ConstantExpr); ok {
			concreteByte[index.Value] = true
		}
	}
	for _, known := range concreteByte {
		if !known {
			return true
		}
	}
	return false
}

// byteCompare joins per-byte comparisons of a and b with combine, short-
// circuiting to shortCircuitOn's constant the moment a byte pair resolves
// to it. Equal and NotEqual are both instances of this shape, differing
// only in which byte predicate, combinator, and early-exit constant apply.
func byteCompare(a, b *Array, byteExpr func(x, y Expr) Expr, combine func(x, y Expr) Expr, shortCircuitOn bool) Expr {
	if a.Size != b.Size {
		return NewBoolConstantExpr(shortCircuitOn)
	} else if a.Size == 0 {
		return NewBoolConstantExpr(!shortCircuitOn)
	}

	var acc Expr
	for i := uint(0); i < a.Size; i++ {
		index := NewConstantExpr64(uint64(i))
		expr := byteExpr(a.selectByte(index), b.selectByte(index))

		if c, ok := expr.(*ConstantExpr); ok && c.IsTrue() == shortCircuitOn {
			return NewBoolConstantExpr(shortCircuitOn)
		}

		if i == 0 {
			acc = expr
		} else {
			acc = combine(acc, expr)
		}
	}
	return acc
}

// Equal returns a boolean expression that is true iff a and b hold
// identical bytes.
func (a *Array) Equal(other *Array) Expr {
	return byteCompare(a, other, newEqExpr, newAndExpr, false)
}

// NotEqual returns a boolean expression that is true iff a and b differ
// in at least one byte.
func (a *Array) NotEqual(other *Array) Expr {
	return byteCompare(a, other, func(x, y Expr) Expr { return NewNotExpr(newEqExpr(x, y)) }, newOrExpr, true)
}

// CompareArray orders two arrays for hash-consing: nil sorts first, then
// by ID, then by size, then by update-chain contents.
func CompareArray(a, b *Array) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	if a.Size != b.Size {
		if a.Size < b.Size {
			return -1
		}
		return 1
	}
	return CompareArrayUpdate(a.Updates, b.Updates)
}

// ArrayUpdate is one node of an Array's update history: a byte index and
// the value last written there, chained to the update before it.
type ArrayUpdate struct {
	Index Expr
	Value Expr
	Next  *ArrayUpdate
}

// NewArrayUpdate returns a new update node, widening index to 64 bits and
// value to a single byte (the chain always stores byte-granular writes;
// Store/storeByte handle splitting a wider write into one node per byte).
func NewArrayUpdate(index, value Expr, next *ArrayUpdate) *ArrayUpdate {
	return &ArrayUpdate{
		Index: newZExtExpr(index, Width64),
		Value: newZExtExpr(value, Width8),
		Next:  next,
	}
}

// CompareArrayUpdate orders two update chains node by node: index first,
// then value, then recurses into the rest of the chain.
func CompareArrayUpdate(a, b *ArrayUpdate) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if cmp := CompareExpr(a.Index, b.Index); cmp != 0 {
		return cmp
	}
	if cmp := CompareExpr(a.Value, b.Value); cmp != 0 {
		return cmp
	}
	return CompareArrayUpdate(a.Next, b.Next)
}
