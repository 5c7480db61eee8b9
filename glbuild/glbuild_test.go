package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/glbuild"
)

func TestBlockDeduplication(t *testing.T) {
	const body = "float p_main(float x){ return x; }\n"
	programmer := glbuild.NewDefaultProgrammer()
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < 3; i++ {
			err := programmer.RegisterBlock("p_block", body)
			if err != nil {
				t.Fatal(err)
			}
		}
		source := new(bytes.Buffer)
		n, err := programmer.WriteProgram(source)
		if err != nil {
			t.Fatal(err)
		} else if n != source.Len() {
			t.Fatal("written length mismatch")
		}
		declCount := strings.Count(source.String(), "float p_main(float x)")
		if declCount != 1 {
			t.Errorf("\n%s\npass %d: want one declaration, got %d", source, pass, declCount)
		}
		programmer.Reset()
	}
}

func TestBlockConflict(t *testing.T) {
	programmer := glbuild.NewDefaultProgrammer()
	err := programmer.RegisterBlock("a_block", "float a_main(){return 1.;}\n")
	if err != nil {
		t.Fatal(err)
	}
	err = programmer.RegisterBlock("a_block", "float a_main(){return 2.;}\n")
	if err == nil {
		t.Fatal("expected conflict error for distinct body under same ID")
	}
	err = programmer.RegisterBlock("b_block", "float b_main(){return 2.;}\n")
	if err != nil {
		t.Fatal(err)
	}
	blocks := programmer.Blocks()
	if len(blocks) != 2 || blocks[0].ID != "a_block" || blocks[1].ID != "b_block" {
		t.Errorf("unexpected blocks %+v", blocks)
	}
	if programmer.RegisterBlock("", "x") == nil {
		t.Error("empty ID must be rejected")
	}
}

func TestWriteComputeCheck(t *testing.T) {
	programmer := glbuild.NewDefaultProgrammer()
	err := programmer.RegisterBlock("c_block", "float3 c_main(float3 v){ return saturate(v); }\n")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := programmer.WriteComputeCheck(&buf, "c_main(float3(1.,2.,3.))", directive.Float3)
	if err != nil {
		t.Fatal(err)
	} else if n != buf.Len() {
		t.Fatal("written length mismatch")
	}
	src := buf.String()
	for _, want := range []string{"#shader compute\n#version 430\n", "#define float3 vec3\n", "vec3 vbo_result[];", "vbo_result[0] = vec3(c_main(float3(1.,2.,3.)));"} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in\n%s", want, src)
		}
	}
	_, err = programmer.WriteComputeCheck(&buf, "x", directive.Sampler2D)
	if err == nil {
		t.Error("sampler results cannot be stored")
	}
}

func TestAppendFloat(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{0, "0."},
		{1, "1."},
		{-2.5, "-2.5"},
		{0.125, "0.125"},
	} {
		got := string(glbuild.AppendFloat(nil, '-', '.', test.v))
		if got != test.want {
			t.Errorf("AppendFloat(%v): want %q, got %q", test.v, test.want, got)
		}
	}
	got := string(glbuild.AppendFloats(nil, ',', '-', '.', 1, 2, 3))
	if got != "1.,2.,3." {
		t.Errorf("AppendFloats: got %q", got)
	}
}
