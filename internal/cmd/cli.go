// Package cmd implements the autoexpr command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soypat/autoexpr"
	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/graph"
	"github.com/soypat/autoexpr/internal/log"
	"github.com/soypat/autoexpr/rename"
	"golang.org/x/term"
)

// CLI is the root command structure parsed by kong.
type CLI struct {
	Config string     `help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"AUTOEXPR_CONFIG"`
	Log    log.Config `embed:"" prefix:"log."`
	Global Globals    `embed:""`

	Ports  Ports         `cmd:"" help:"Print the port interface declared by a snippet"`
	Emit   Emit          `cmd:"" help:"Emit the code block and call expression of a snippet instance"`
	Rename RenameCommand `cmd:"" name:"rename" help:"Rename the functions of a snippet with an instance prefix"`
	State  StateCommand  `cmd:"" help:"Encode or decode persisted node state"`
	Check  Check         `cmd:"" help:"Compile the emitted code on the GPU"`
	Conf   ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}

// Globals are settings shared by every command.
type Globals struct {
	RenameCache int `help:"Number of function rewrites kept in memory" default:"256" env:"AUTOEXPR_RENAME_CACHE"`
}

// IO holds the streams commands read from and write to.
type IO struct {
	In  io.Reader
	Out io.Writer
	// InTerminal is set when In is an interactive terminal.
	InTerminal bool
}

// StdIO returns the process standard streams.
func StdIO() *IO {
	return &IO{
		In:         os.Stdin,
		Out:        os.Stdout,
		InTerminal: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

var errNoInput = errors.New("no input file given and stdin is a terminal")

// readSource reads the snippet named by path. An empty path or "-" reads from
// the command input unless it is a terminal.
func (s *IO) readSource(path string) (string, error) {
	if path != "" && path != "-" {
		b, err := os.ReadFile(path)
		return string(b), err
	}
	if s.InTerminal && path == "" {
		return "", errNoInput
	}
	b, err := io.ReadAll(s.In)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

// Instance is the node options shared by commands that emit code.
type Instance struct {
	ID   int      `help:"Unique node ID used in the function prefix" default:"0"`
	Arg  []string `help:"Argument expression for each input port, in declaration order" sep:"none"`
	Name string   `help:"Display name embedded in the block markers"`
}

// build creates a node with source code on an in-memory host and connects
// the instance arguments to its inputs.
func (inst *Instance) build(code string, g Globals, logger *slog.Logger) (*autoexpr.Node, *graph.Node, error) {
	cache, err := rename.NewCache(max(g.RenameCache, 1))
	if err != nil {
		return nil, nil, err
	}
	host := graph.NewNode(logger)
	node := autoexpr.New(inst.ID, host,
		autoexpr.WithCode(code),
		autoexpr.WithName(inst.Name),
		autoexpr.WithLogger(logger),
		autoexpr.WithRenameCache(cache),
	)
	if err := node.LogicUpdate(); err != nil {
		return nil, nil, err
	}
	inputs := host.Inputs()
	if len(inst.Arg) > len(inputs) {
		return nil, nil, fmt.Errorf("%d arguments given for %d inputs", len(inst.Arg), len(inputs))
	}
	for i, expr := range inst.Arg {
		p := inputs[i]
		if err := host.Connect(p.ID(), graph.Link{Expr: expr, Type: p.Type()}); err != nil {
			return nil, nil, err
		}
	}
	if len(inst.Arg) < len(inputs) {
		logger.Warn("unconnected inputs use default literals", slog.Int("inputs", len(inputs)), slog.Int("args", len(inst.Arg)))
	}
	return node, host, nil
}

// outputType returns the type of the node's single output.
func outputType(host *graph.Node) directive.PortType {
	if outs := host.Outputs(); len(outs) > 0 {
		return outs[0].Type()
	}
	return directive.Float
}
