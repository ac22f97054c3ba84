package main

import (
	"github.com/ninesd/tracerx"
)

func assumePrune() {
	x := tracerx.Int32()
	tracerx.Assert(x > 100)
	if x < 10 {
		return
	}
	return
}
