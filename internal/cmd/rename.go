package cmd

import (
	"fmt"
	"log/slog"

	"github.com/soypat/autoexpr/emit"
	"github.com/soypat/autoexpr/rename"
)

// RenameCommand prints a snippet with its functions prefixed.
type RenameCommand struct {
	File   string `arg:"" optional:"" help:"Snippet file, - for stdin"`
	Prefix string `help:"Function name prefix, defaults to the instance prefix of --id"`
	ID     int    `help:"Node ID used to derive the prefix" default:"0"`
	Map    bool   `help:"Print the rename map as comments before the code"`
}

// Run is called by Kong when the rename command is executed.
func (r *RenameCommand) Run(logger *slog.Logger, stdio *IO) error {
	code, err := stdio.readSource(r.File)
	if err != nil {
		return err
	}
	prefix := r.Prefix
	if prefix == "" {
		prefix = emit.InstancePrefix(r.ID)
	}
	res := rename.Rewrite(code, prefix)
	if res.Entry == "" {
		logger.Warn("no main function found, snippet would be emitted inline")
	}
	if r.Map {
		for _, pair := range res.Map {
			if _, err := fmt.Fprintf(stdio.Out, "// %s -> %s\n", pair.From, pair.To); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprint(stdio.Out, res.Code)
	return err
}
