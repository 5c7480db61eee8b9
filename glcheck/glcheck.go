// Package glcheck validates generated shader code against the host's OpenGL
// driver. A hidden 1x1 GLFW window provides the GL context, the program
// written by [glbuild.Programmer.WriteComputeCheck] is compiled as a compute
// shader and optionally dispatched once to read back its result.
//
// GPU access requires CGo. Without it every function returns an error.
package glcheck

import (
	"math"

	"github.com/soypat/autoexpr/directive"
)

// resultWords is the size of a single std430 result slot in 32 bit words.
// Three component vectors are padded to four.
const resultWords = 4

// decodeResult converts a raw result slot of type t to float components.
func decodeResult(raw [resultWords]uint32, t directive.PortType) []float32 {
	n := t.Components()
	if n == 0 || n > resultWords {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		if t == directive.Int {
			out[i] = float32(int32(raw[i]))
		} else {
			out[i] = math.Float32frombits(raw[i])
		}
	}
	return out
}
