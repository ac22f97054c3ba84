package main

import (
	"github.com/ninesd/tracerx"
)

func threshold() {
	x := tracerx.Int32()
	if x < 10 {
		return
	}
	return
}
