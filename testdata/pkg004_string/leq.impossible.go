package main

import (
	"github.com/ninesd/tracerx"
)

func leqImpossible() {
	a := tracerx.String(3)
	b := tracerx.String(3)
	tracerx.Assert(a[0] == b[0])
	tracerx.Assert(a[1] > b[1]) // invalidate leq
	tracerx.Assert(a[2] < b[2])

	if a <= b {
		return
	}
	return
}
