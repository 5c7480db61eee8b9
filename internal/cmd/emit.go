package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soypat/autoexpr/glbuild"
	"github.com/soypat/autoexpr/internal/configpaths"
)

// Emit prints the registered code of a snippet instance followed by the
// expression that computes its output.
type Emit struct {
	File     string `arg:"" optional:"" help:"Snippet file, - for stdin"`
	Instance `embed:""`
	Output   string `help:"Write the program to this file instead of stdout" short:"o" type:"path"`
}

// Run is called by Kong when the emit command is executed.
func (e *Emit) Run(logger *slog.Logger, g Globals, stdio *IO) error {
	code, err := stdio.readSource(e.File)
	if err != nil {
		return err
	}
	node, _, err := e.build(code, g, logger)
	if err != nil {
		return err
	}
	prog := glbuild.NewDefaultProgrammer()
	res, err := node.GenerateCall(prog)
	if err != nil {
		return err
	}
	logger.Info("emitted", "node", node.ID(), "blocks", len(prog.Blocks()), "inline", res.Inline)

	progOut := stdio.Out
	if e.Output != "" {
		if err := configpaths.EnsureDir(e.Output); err != nil {
			return err
		}
		f, err := os.Create(e.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		progOut = f
	}
	if _, err := prog.WriteProgram(progOut); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdio.Out, res.Expr)
	return err
}
