package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	toml "github.com/pelletier/go-toml"
	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/reconcile"
	yaml "gopkg.in/yaml.v3"
)

// Ports prints the interface a snippet declares.
type Ports struct {
	File   string `arg:"" optional:"" help:"Snippet file, - for stdin"`
	Format string `help:"Output format" enum:"text,json,yaml,toml" default:"text" short:"f"`
}

type portEntry struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type" yaml:"type" toml:"type"`
	Property string `json:"property" yaml:"property" toml:"property"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
}

type skippedEntry struct {
	Line   int    `json:"line" yaml:"line" toml:"line"`
	Text   string `json:"text" yaml:"text" toml:"text"`
	Reason string `json:"reason" yaml:"reason" toml:"reason"`
}

type portsReport struct {
	Signature string         `json:"signature" yaml:"signature" toml:"signature"`
	Inputs    []portEntry    `json:"inputs" yaml:"inputs" toml:"inputs"`
	Output    portEntry      `json:"output" yaml:"output" toml:"output"`
	Ignored   []portEntry    `json:"ignoredOutputs,omitempty" yaml:"ignoredOutputs,omitempty" toml:"ignoredOutputs,omitempty"`
	Skipped   []skippedEntry `json:"skipped,omitempty" yaml:"skipped,omitempty" toml:"skipped,omitempty"`
}

func entryOf(d directive.Decl) portEntry {
	return portEntry{Name: d.Name, Type: d.Type.String(), Property: directive.PropertyKindFor(d.Type).String(), Line: d.Line}
}

func makeReport(res directive.Result) portsReport {
	rep := portsReport{Signature: string(res.Signature)}
	for _, d := range res.Inputs {
		rep.Inputs = append(rep.Inputs, entryOf(d))
	}
	if out, ok := res.Output(); ok {
		rep.Output = entryOf(out)
		for _, d := range res.Outputs[1:] {
			rep.Ignored = append(rep.Ignored, entryOf(d))
		}
	} else {
		rep.Output = entryOf(directive.Decl{Kind: directive.Output, Type: directive.Float, Name: reconcile.DefaultOutputName})
	}
	for _, s := range res.Skipped {
		rep.Skipped = append(rep.Skipped, skippedEntry{Line: s.Line, Text: s.Text, Reason: s.Reason.Error()})
	}
	return rep
}

// Run is called by Kong when the ports command is executed.
func (p *Ports) Run(logger *slog.Logger, stdio *IO) error {
	code, err := stdio.readSource(p.File)
	if err != nil {
		return err
	}
	res := directive.Parse(code)
	logger.Debug("parsed directives", "inputs", len(res.Inputs), "outputs", len(res.Outputs), "skipped", len(res.Skipped))
	return writeReport(stdio.Out, p.Format, makeReport(res))
}

func writeReport(w io.Writer, format string, rep portsReport) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(rep, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(rep)
	case "toml":
		data, err = toml.Marshal(rep)
	default:
		return writeText(w, rep)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeText(w io.Writer, rep portsReport) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	printf("signature %s\n", rep.Signature)
	printf("out %-10s %s\n", rep.Output.Type, rep.Output.Name)
	for _, in := range rep.Inputs {
		printf("in  %-10s %s\n", in.Type, in.Name)
	}
	for _, ig := range rep.Ignored {
		printf("line %d: output %s ignored, only the first output is used\n", ig.Line, ig.Name)
	}
	for _, s := range rep.Skipped {
		printf("line %d: skipped %q: %s\n", s.Line, s.Text, s.Reason)
	}
	return err
}
