//go:build tinygo || !cgo

package glcheck

import (
	"errors"
	"io"

	"github.com/soypat/autoexpr/directive"
)

var errNoCGO = errors.New("GPU shader checking requires CGo and is not supported on TinyGo")

// Init starts a hidden 1x1 GLFW window with a current GL 4.6 context.
func Init() (terminate func(), err error) {
	return func() {}, errNoCGO
}

// DriverVersion returns the GL version string of the current context.
func DriverVersion() string { return "" }

// Compile compiles a glgl combined source and discards the program.
func Compile(src io.Reader) error { return errNoCGO }

// Run compiles and dispatches a compute check program and returns the stored
// result of type t.
func Run(src io.Reader, t directive.PortType) ([]float32, error) {
	return nil, errNoCGO
}
