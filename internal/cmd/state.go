package cmd

import (
	"fmt"
	"log/slog"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/persist"
	yaml "gopkg.in/yaml.v3"
)

// StateCommand groups persisted state subcommands.
type StateCommand struct {
	Encode StateEncode `cmd:"" help:"Encode a snippet into persisted node fields"`
	Decode StateDecode `cmd:"" help:"Decode persisted node fields"`
}

// StateEncode prints the persisted fields of a snippet, one per line.
type StateEncode struct {
	File   string `arg:"" optional:"" help:"Snippet file, - for stdin"`
	Name   string `help:"Custom display name"`
	Legacy bool   `help:"Write the single field legacy format"`
}

// Run is called by Kong when the state encode command is executed.
func (s *StateEncode) Run(logger *slog.Logger, stdio *IO) error {
	code, err := stdio.readSource(s.File)
	if err != nil {
		return err
	}
	st := persist.State{
		Code:      code,
		Signature: string(directive.Parse(code).Signature),
		Name:      s.Name,
	}
	if s.Legacy {
		_, err = fmt.Fprintln(stdio.Out, persist.EncodeLegacy(st))
		return err
	}
	for _, field := range persist.Encode(st) {
		if _, err = fmt.Fprintln(stdio.Out, field); err != nil {
			return err
		}
	}
	return nil
}

// StateDecode prints decoded node fields as YAML.
type StateDecode struct {
	Fields []string `arg:"" help:"Persisted fields in storage order"`
}

type decodedState struct {
	Code      string `yaml:"code"`
	Signature string `yaml:"signature"`
	Name      string `yaml:"name"`
	Consumed  int    `yaml:"consumed"`
	// Stale is set when the stored signature no longer matches the code,
	// the node rebuilds its ports on the next edit.
	Stale bool `yaml:"stale"`
}

// Run is called by Kong when the state decode command is executed.
func (s *StateDecode) Run(logger *slog.Logger, stdio *IO) error {
	st, n := persist.Decode(s.Fields)
	if n < len(s.Fields) {
		logger.Warn("trailing fields ignored", "consumed", n, "given", len(s.Fields))
	}
	out := decodedState{
		Code:      st.Code,
		Signature: st.Signature,
		Name:      st.Name,
		Consumed:  n,
		Stale:     string(directive.Parse(st.Code).Signature) != st.Signature,
	}
	enc := yaml.NewEncoder(stdio.Out)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
