package main

import (
	"github.com/ninesd/tracerx"
)

func arraySlice() {
	a := tracerx.ByteSlice(4)
	var b [4]byte
	copy(b[:], a)

	if string(b[1:3]) == "XY" {
		return
	}
	return
}
