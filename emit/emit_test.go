package emit_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/emit"
	"github.com/soypat/autoexpr/glbuild"
	"github.com/soypat/autoexpr/rename"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

const mulSource = `//@out float Out
//@in float X
//@in float Y
float main(float X, float Y){return X*Y;}`

func TestAssembleScenario(t *testing.T) {
	var asm emit.Assembler
	prog := glbuild.NewDefaultProgrammer()
	res, err := asm.Assemble(prog, emit.Request{
		Prefix:  emit.InstancePrefix(7),
		Source:  mulSource,
		Label:   emit.Label(""),
		Args:    []string{"1.0", "2.0"},
		Outputs: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Expr != "ase_auto_7_main(1.0, 2.0)" {
		t.Errorf("unexpected call expression %q", res.Expr)
	}
	if res.Block.ID != "ase_auto_7_block" {
		t.Errorf("unexpected block id %q", res.Block.ID)
	}
	blocks := prog.Blocks()
	if len(blocks) != 1 || !strings.Contains(blocks[0].Body, "float ase_auto_7_main(float X, float Y)") {
		t.Fatalf("renamed header not registered: %+v", blocks)
	}
	marker := "// == Auto Parsed Expression (Auto Parsed Expression) ==\n"
	if !strings.HasPrefix(blocks[0].Body, marker) || !strings.HasSuffix(blocks[0].Body, marker) {
		t.Errorf("block not delimited:\n%s", blocks[0].Body)
	}
}

func TestAssembleIdempotent(t *testing.T) {
	asm := emit.Assembler{Cache: rename.NewDefaultCache()}
	prog := glbuild.NewDefaultProgrammer()
	req := emit.Request{Prefix: "ase_auto_3_", Source: mulSource, Label: "Mul", Args: []string{"a", "b"}, Outputs: 1}
	for i := 0; i < 3; i++ {
		_, err := asm.Assemble(prog, req)
		if err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	prog.WriteProgram(&buf)
	if c := strings.Count(buf.String(), "float ase_auto_3_main("); c != 1 {
		t.Errorf("want a single definition, got %d:\n%s", c, buf.String())
	}
	if !strings.Contains(buf.String(), "// == Auto Parsed Expression (Mul) ==") {
		t.Error("label not embedded in marker")
	}
}

func TestAssembleTwoInstances(t *testing.T) {
	const src = `//@in float A
float helper(float a) { return a + 1.0; }
float main(float A) { return helper(A); }`
	var asm emit.Assembler
	prog := glbuild.NewDefaultProgrammer()
	r1, err := asm.Assemble(prog, emit.Request{Prefix: emit.InstancePrefix(1), Source: src, Label: "n", Args: []string{"0"}, Outputs: 1})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := asm.Assemble(prog, emit.Request{Prefix: emit.InstancePrefix(2), Source: src, Label: "n", Args: []string{"1"}, Outputs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r1.Expr == r2.Expr {
		t.Fatal("instances share a call expression")
	}
	for _, p1 := range r1.Renames {
		for _, p2 := range r2.Renames {
			if p1.To == p2.To {
				t.Errorf("instances share identifier %q", p1.To)
			}
		}
	}
	if len(prog.Blocks()) != 2 {
		t.Errorf("want two blocks, got %d", len(prog.Blocks()))
	}
}

func TestAssembleInline(t *testing.T) {
	var asm emit.Assembler
	prog := glbuild.NewDefaultProgrammer()
	res, err := asm.Assemble(prog, emit.Request{Prefix: "p_", Source: "\n  X * Y  \n", Outputs: 1, Args: []string{"1", "2"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Inline || res.Expr != "X * Y" {
		t.Errorf("want inline trimmed source, got %+v", res)
	}
	if len(prog.Blocks()) != 0 {
		t.Error("inline expressions register nothing")
	}
}

func TestAssembleNoOutputs(t *testing.T) {
	var asm emit.Assembler
	res, err := asm.Assemble(nil, emit.Request{Prefix: "p_", Source: mulSource})
	if err != nil || res.Expr != "0" {
		t.Errorf("want neutral literal, got %+v, %v", res, err)
	}
}

type failingRegistrar struct{}

var errSink = errors.New("sink full")

func (failingRegistrar) RegisterBlock(id, body string) error { return errSink }

func TestAssembleRegistrarError(t *testing.T) {
	var asm emit.Assembler
	_, err := asm.Assemble(failingRegistrar{}, emit.Request{Prefix: "p_", Source: mulSource, Outputs: 1})
	if !errors.Is(err, errSink) {
		t.Errorf("want wrapped sink error, got %v", err)
	}
}

func TestWrapBlock(t *testing.T) {
	got := emit.WrapBlock("L", "x")
	want := "// == Auto Parsed Expression (L) ==\nx\n// == Auto Parsed Expression (L) ==\n"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}
	if emit.WrapBlock("L", "x\n") != want {
		t.Error("existing trailing newline must not be doubled")
	}
	if emit.Label("  Mine ") != "Mine" || emit.Label("\t") != emit.DefaultLabel {
		t.Error("label trimming")
	}
	if emit.CallExpr("f", nil) != "f()" {
		t.Error("empty call")
	}
}

func TestLiterals(t *testing.T) {
	for _, test := range []struct {
		t    directive.PortType
		v    emit.Value
		want string
	}{
		{directive.Float, emit.Value{}, "0"},
		{directive.Float, emit.Scalar(1.5), "1.5"},
		{directive.Int, emit.Scalar(2.6), "3"},
		{directive.Float2, emit.Vec2(ms2.Vec{X: 1, Y: -2}), "float2(1.,-2.)"},
		{directive.Float3, emit.Value{}, "float3(0,0,0)"},
		{directive.Float4, emit.Vec4(ms3.Vec{X: 0.5}, 1), "float4(0.5,0,0,1.)"},
		{directive.Color, emit.Vec4(ms3.Vec{X: 1, Y: 1, Z: 1}, 1), "float4(1.,1.,1.,1.)"},
		{directive.Float, emit.Scalar(float32(math.NaN())), "0"},
		{directive.Sampler2D, emit.Value{}, "0"},
	} {
		got := emit.DefaultLiteral(test.t, test.v)
		if got != test.want {
			t.Errorf("%s %+v: want %q, got %q", test.t, test.v, test.want, got)
		}
	}
	if emit.ZeroLiteral(directive.Float3) != "float3(0,0,0)" {
		t.Error("zero literal")
	}
}
