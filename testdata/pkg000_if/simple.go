package main

import (
	"github.com/ninesd/tracerx"
)

func simple() {
	x := tracerx.Int64()
	if x == 0xAABB {
		return
	}
}
