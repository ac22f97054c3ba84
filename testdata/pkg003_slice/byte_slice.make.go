package main

import (
	"github.com/ninesd/tracerx"
)

func byteSliceMake() {
	i, j := 2, 3
	b := make([]byte, i, j)
	b[0] = tracerx.Byte()
	b[1] = tracerx.Byte()

	if string(b) == "XY" {
		return
	}
	return
}
