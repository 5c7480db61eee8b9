package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/soypat/autoexpr"
	"github.com/soypat/autoexpr/persist"
)

const snippet = `//@out float3 Col
//@in float3 A
//@in float T
//@in vec3 Bad
//@out float Extra

float3 mixit(float3 a, float t) { return a*t; }

float3 main(float3 A, float T)
{
    return mixit(A, T);
}
`

func testIO(in string) (*IO, *bytes.Buffer) {
	var out bytes.Buffer
	return &IO{In: strings.NewReader(in), Out: &out}, &out
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPortsJSON(t *testing.T) {
	stdio, out := testIO(snippet)
	require.NoError(t, (&Ports{File: "-", Format: "json"}).Run(discard(), stdio))
	var rep portsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "Col", rep.Output.Name)
	assert.Equal(t, "float3", rep.Output.Type)
	require.Len(t, rep.Inputs, 2)
	assert.Equal(t, "A", rep.Inputs[0].Name)
	assert.Equal(t, "T", rep.Inputs[1].Name)
	require.Len(t, rep.Ignored, 1)
	assert.Equal(t, "Extra", rep.Ignored[0].Name)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, 4, rep.Skipped[0].Line)
	assert.True(t, strings.HasPrefix(rep.Signature, "v1:"))
}

func TestPortsFormats(t *testing.T) {
	for _, format := range []string{"yaml", "toml"} {
		stdio, out := testIO(snippet)
		require.NoError(t, (&Ports{Format: format}).Run(discard(), stdio), format)
		var rep portsReport
		if format == "yaml" {
			require.NoError(t, yaml.Unmarshal(out.Bytes(), &rep))
		} else {
			require.NoError(t, toml.Unmarshal(out.Bytes(), &rep))
		}
		assert.Equal(t, "Col", rep.Output.Name, format)
		assert.Len(t, rep.Inputs, 2, format)
	}
}

func TestPortsText(t *testing.T) {
	stdio, out := testIO("float main(){ return 1.0; }")
	require.NoError(t, (&Ports{}).Run(discard(), stdio))
	assert.Contains(t, out.String(), "out float      Out\n")
}

func TestReadSourceTerminal(t *testing.T) {
	stdio, _ := testIO("")
	stdio.InTerminal = true
	_, err := stdio.readSource("")
	assert.ErrorIs(t, err, errNoInput)

	path := filepath.Join(t.TempDir(), "s.hlsl")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	got, err := stdio.readSource(path)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestEmit(t *testing.T) {
	stdio, out := testIO(autoexpr.DefaultCode)
	cmd := Emit{Instance: Instance{ID: 7, Arg: []string{"1.0", "2.0"}}}
	require.NoError(t, cmd.Run(discard(), Globals{RenameCache: 8}, stdio))
	text := out.String()
	assert.Contains(t, text, "float ase_auto_7_helper(float a, float b)")
	assert.True(t, strings.HasSuffix(text, "ase_auto_7_main(1.0, 2.0)\n"), text)
}

func TestEmitToFile(t *testing.T) {
	stdio, out := testIO(autoexpr.DefaultCode)
	dest := filepath.Join(t.TempDir(), "gen", "prog.hlsl")
	cmd := Emit{Instance: Instance{ID: 2, Arg: []string{"u", "v"}, Name: "Mul"}, Output: dest}
	require.NoError(t, cmd.Run(discard(), Globals{}, stdio))
	assert.Equal(t, "ase_auto_2_main(u, v)\n", out.String())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "// == Auto Parsed Expression (Mul) ==")
}

func TestEmitTooManyArgs(t *testing.T) {
	stdio, _ := testIO(autoexpr.DefaultCode)
	cmd := Emit{Instance: Instance{Arg: []string{"a", "b", "c"}}}
	assert.Error(t, cmd.Run(discard(), Globals{}, stdio))
}

func TestRename(t *testing.T) {
	stdio, out := testIO(snippet)
	require.NoError(t, (&RenameCommand{Prefix: "p_", Map: true}).Run(discard(), stdio))
	text := out.String()
	assert.Contains(t, text, "// mixit -> p_mixit\n")
	assert.Contains(t, text, "return p_mixit(A, T);")
	assert.Contains(t, text, "float3 p_main(float3 A, float T)")
}

func TestStateRoundTrip(t *testing.T) {
	stdio, out := testIO(snippet)
	require.NoError(t, (&StateEncode{Name: "Tint"}).Run(discard(), stdio))
	fields := strings.Fields(out.String())
	require.Len(t, fields, persist.NumFields)

	stdio, out = testIO("")
	require.NoError(t, (&StateDecode{Fields: fields}).Run(discard(), stdio))
	var got decodedState
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, snippet, got.Code)
	assert.Equal(t, "Tint", got.Name)
	assert.Equal(t, persist.NumFields, got.Consumed)
	assert.False(t, got.Stale)
}

func TestStateLegacy(t *testing.T) {
	stdio, out := testIO(snippet)
	require.NoError(t, (&StateEncode{Legacy: true}).Run(discard(), stdio))
	field := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(field, persist.LegacyPrefix))

	stdio, out = testIO("")
	require.NoError(t, (&StateDecode{Fields: []string{field, "next-node-field"}}).Run(discard(), stdio))
	var got decodedState
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, snippet, got.Code)
	assert.Equal(t, 1, got.Consumed)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"json", "yaml", "toml"} {
		dest := filepath.Join(dir, "autoexpr."+format)
		cmd := ConfigInit{Format: format, Output: dest}
		require.NoError(t, cmd.Run(discard()), format)
		assert.Error(t, cmd.Run(discard()), "existing file requires --force")
		cmd.Force = true
		require.NoError(t, cmd.Run(discard()), format)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Contains(t, string(data), "rename_cache", format)
		assert.Contains(t, string(data), "level", format)
	}
	var root map[string]any
	data, err := os.ReadFile(filepath.Join(dir, "autoexpr.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &root))
	assert.EqualValues(t, 256, root["rename_cache"])
	logCfg, ok := root["log"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "warn", logCfg["level"])
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "rename_cache", snakeCase("RenameCache"))
	assert.Equal(t, "level", snakeCase("Level"))
}
