package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/soypat/autoexpr/glbuild"
	"github.com/soypat/autoexpr/glcheck"
)

// Check compiles a compute program built around the emitted code with the
// local OpenGL driver.
type Check struct {
	File     string `arg:"" optional:"" help:"Snippet file, - for stdin"`
	Instance `embed:""`
	Dispatch bool `name:"run" help:"Dispatch the program once and print the result"`
	Source   bool `help:"Print the generated compute program"`
}

// Run is called by Kong when the check command is executed.
func (c *Check) Run(logger *slog.Logger, g Globals, stdio *IO) error {
	code, err := stdio.readSource(c.File)
	if err != nil {
		return err
	}
	node, host, err := c.build(code, g, logger)
	if err != nil {
		return err
	}
	prog := glbuild.NewDefaultProgrammer()
	res, err := node.GenerateCall(prog)
	if err != nil {
		return err
	}
	result := outputType(host)
	var src bytes.Buffer
	if _, err = prog.WriteComputeCheck(&src, res.Expr, result); err != nil {
		return err
	}
	if c.Source {
		if _, err = stdio.Out.Write(src.Bytes()); err != nil {
			return err
		}
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	terminate, err := glcheck.Init()
	if err != nil {
		return err
	}
	defer terminate()
	logger.Info("GL context ready", "version", glcheck.DriverVersion())

	if !c.Dispatch {
		if err = glcheck.Compile(&src); err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdio.Out, "ok")
		return err
	}
	values, err := glcheck.Run(&src, result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdio.Out, "%s = %s\n", res.Expr, glbuild.AppendFloats(nil, ',', '-', '.', values...))
	return err
}
