package main

import (
	"github.com/ninesd/tracerx"
)

func leqShortRHS() {
	a := tracerx.String(3)
	b := tracerx.String(2)
	tracerx.Assert(a[0] == b[0])
	tracerx.Assert(a[1] == b[1])

	if a <= b {
		return
	}
	return
}
