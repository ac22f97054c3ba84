package main

import (
	"github.com/ninesd/tracerx"
)

func sliceByteSlice() {
	a := tracerx.ByteSlice(4)
	b := a[1:3]
	s := string(b)

	if s == "XY" {
		return
	}
	return
}
