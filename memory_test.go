package tracerx_test

import (
	"testing"

	"github.com/ninesd/tracerx"
)

func TestAddressSpace_ResolveOne(t *testing.T) {
	prog := MustBuildProgram(t, "./testdata/pkg001_call")
	fn := MustFindFunction(t, prog, "caller")

	e := tracerx.NewExecutor(fn)
	state := tracerx.NewExecutionState(e, fn)

	base, _ := state.Alloc(8)

	as := tracerx.NewAddressSpace(state)
	resolved, ok := as.ResolveOne(base)
	if !ok {
		t.Fatal("expected ResolveOne to find the freshly allocated object")
	}
	if resolved.Object.Base != base.Value {
		t.Fatalf("resolved base=%d, expected %d", resolved.Object.Base, base.Value)
	}
	if resolved.Object.Size != 8 {
		t.Fatalf("resolved size=%d, expected 8", resolved.Object.Size)
	}
}

func TestAddressSpace_ResolveOne_OutOfBounds(t *testing.T) {
	prog := MustBuildProgram(t, "./testdata/pkg001_call")
	fn := MustFindFunction(t, prog, "caller")

	e := tracerx.NewExecutor(fn)
	state := tracerx.NewExecutionState(e, fn)
	state.Alloc(8)

	as := tracerx.NewAddressSpace(state)
	if _, ok := as.ResolveOne(tracerx.NewConstantExpr(1<<32, tracerx.Width64)); ok {
		t.Fatal("expected ResolveOne to reject an address outside any allocation")
	}
}

func TestMemoryObject_Contains(t *testing.T) {
	mo := &tracerx.MemoryObject{Base: 100, Size: 8}
	if !mo.Contains(100) || !mo.Contains(107) {
		t.Fatal("expected Contains to hold for the object's own byte range")
	}
	if mo.Contains(99) || mo.Contains(108) {
		t.Fatal("expected Contains to reject addresses outside the byte range")
	}
}
