//go:build !tinygo && cgo

package glcheck

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init starts a hidden 1x1 GLFW window with a current GL 4.6 context. The
// calling goroutine must be locked to its OS thread for as long as the
// context is used. terminate must be called when done.
func Init() (terminate func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.False)
	window, err := glfw.CreateWindow(1, 1, "autoexpr check", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return func() {
		window.Destroy()
		glfw.Terminate()
	}, nil
}

// DriverVersion returns the GL version string of the current context.
func DriverVersion() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

// Compile compiles a glgl combined source and discards the program. The
// returned error carries the driver's info log.
func Compile(src io.Reader) error {
	prog, err := compile(src)
	if err != nil {
		return err
	}
	prog.Delete()
	return nil
}

func compile(src io.Reader) (prog glgl.Program, err error) {
	combined, err := glgl.ParseCombined(src)
	if err != nil {
		return prog, err
	}
	prog, err = glgl.CompileProgram(combined)
	if err != nil {
		return prog, errors.New(string(combined.Compute) + "\n" + err.Error())
	}
	return prog, nil
}

// Run compiles and dispatches a compute check program and returns the stored
// result of type t.
func Run(src io.Reader, t directive.PortType) ([]float32, error) {
	if t.IsSampler() || !t.Valid() {
		return nil, fmt.Errorf("cannot read back %s result", t)
	}
	prog, err := compile(src)
	if err != nil {
		return nil, err
	}
	prog.Bind()
	defer prog.Delete()
	defer prog.Unbind()

	var raw [resultWords]uint32
	const size = int(unsafe.Sizeof(raw))
	var p runtime.Pinner
	var ssbo uint32
	p.Pin(&ssbo)
	defer p.Unpin()
	gl.GenBuffers(1, &ssbo)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_READ)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, ssbo)
	defer gl.DeleteBuffers(1, &ssbo)
	if err = glgl.Err(); err != nil {
		return nil, err
	}
	gl.DispatchCompute(1, 1, 1)
	if err = glgl.Err(); err != nil {
		return nil, err
	}
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, ssbo)
	ptr := gl.MapBufferRange(gl.SHADER_STORAGE_BUFFER, 0, size, gl.MAP_READ_BIT)
	if ptr == nil {
		if err = glgl.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("failed to map result buffer")
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&raw[0])), size), unsafe.Slice((*byte)(ptr), size))
	gl.UnmapBuffer(gl.SHADER_STORAGE_BUFFER)
	return decodeResult(raw, t), nil
}
