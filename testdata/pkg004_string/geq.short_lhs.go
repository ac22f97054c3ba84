package main

import (
	"github.com/ninesd/tracerx"
)

func geqShortLHS() {
	a := tracerx.String(2)
	b := tracerx.String(3)
	tracerx.Assert(a[0] == b[0])
	tracerx.Assert(a[1] == b[1])

	if a >= b {
		return
	}
	return
}
