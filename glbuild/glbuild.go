package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/soypat/autoexpr/directive"
)

const VersionStr = "#version 430\n"

// Block is a named chunk of shader source registered with a [Programmer].
type Block struct {
	ID   string
	Body string
}

// Programmer collects the code blocks registered during one code generation
// pass and writes them out as a single program. Registering the same block
// twice is a no-op so generators may register on every pass.
// A Programmer is not safe for concurrent use.
type Programmer struct {
	scratch       []byte
	computeHeader []byte
	blocks        []Block
	// names maps block ID hashes to body hashes for checking duplicates.
	names map[uint64]uint64
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch:       make([]byte, 0, 1024),
		computeHeader: defaultComputeHeader,
		names:         make(map[uint64]uint64),
		invocX:        1,
	}
}

// Reset forgets all registered blocks to start a new generation pass.
func (p *Programmer) Reset() {
	clear(p.names)
	p.blocks = p.blocks[:0]
}

var errEmptyID = errors.New("empty block identifier")

// RegisterBlock adds a named block to the program. A block with the same ID
// and an identical body is skipped. The same ID with a different body is a
// conflict and returns an error.
func (p *Programmer) RegisterBlock(id, body string) error {
	if id == "" {
		return errEmptyID
	}
	nameHash := hash([]byte(id), 0)
	bodyHash := hash([]byte(body), nameHash) // Body hash mixes name as well.
	gotBodyHash, nameConflict := p.names[nameHash]
	if nameConflict {
		if bodyHash == gotBodyHash {
			return nil // Block already registered and is identical, skip.
		}
		var conflictBody string
		for _, b := range p.blocks {
			if b.ID == id {
				conflictBody = b.Body
				break
			}
		}
		return fmt.Errorf("duplicate block %q w/ body:\n%s\n\nconflict with distinct block with same ID:\n%s", id, body, conflictBody)
	}
	p.names[nameHash] = bodyHash
	p.blocks = append(p.blocks, Block{ID: id, Body: body})
	return nil
}

// Blocks returns the registered blocks in registration order.
func (p *Programmer) Blocks() []Block {
	return append([]Block(nil), p.blocks...)
}

// WriteProgram writes every registered block in registration order.
func (p *Programmer) WriteProgram(w io.Writer) (n int, err error) {
	for i, b := range p.blocks {
		p.scratch = p.scratch[:0]
		if i > 0 {
			p.scratch = append(p.scratch, '\n')
		}
		p.scratch = append(p.scratch, b.Body...)
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// WriteComputeCheck writes a glgl combined compute program that includes all
// registered blocks and stores the result of evaluating callExpr, of type
// result, to a storage buffer. The program is meant for validating generated
// code with a GL compiler: HLSL style type names are aliased to their GLSL
// equivalents with preprocessor defines.
func (p *Programmer) WriteComputeCheck(w io.Writer, callExpr string, result directive.PortType) (int, error) {
	typename, err := Typename(result)
	if err != nil {
		return 0, err
	} else if result.IsSampler() {
		return 0, fmt.Errorf("cannot store %s result in a buffer", result)
	}
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	p.scratch = AppendHLSLPrelude(p.scratch[:0])
	ngot, err := w.Write(p.scratch)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = p.WriteProgram(w)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `

layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Output: result of evaluating the generated expression.
layout(std430, binding = 0) buffer ResultBuffer {
    %s vbo_result[];
};

void main() {
	vbo_result[0] = %s(%s);
}
`, p.invocX, typename, typename, callExpr)
	n += ngot
	return n, err
}

// Typename returns the GLSL type name of a port type.
func Typename(t directive.PortType) (string, error) {
	switch t {
	case directive.Float:
		return "float", nil
	case directive.Float2:
		return "vec2", nil
	case directive.Float3:
		return "vec3", nil
	case directive.Float4, directive.Color:
		return "vec4", nil
	case directive.Int:
		return "int", nil
	case directive.Sampler2D:
		return "sampler2D", nil
	case directive.Sampler3D:
		return "sampler3D", nil
	case directive.SamplerCube:
		return "samplerCube", nil
	}
	return "", fmt.Errorf("equivalent type not implemented for %s", t)
}

// hlslAliases are the HLSL type names and intrinsics snippets commonly use,
// mapped to GLSL.
var hlslAliases = [...][2]string{
	{"half", "float"},
	{"half2", "vec2"},
	{"half3", "vec3"},
	{"half4", "vec4"},
	{"float2", "vec2"},
	{"float3", "vec3"},
	{"float4", "vec4"},
	{"float2x2", "mat2"},
	{"float3x3", "mat3"},
	{"float4x4", "mat4"},
	{"int2", "ivec2"},
	{"int3", "ivec3"},
	{"int4", "ivec4"},
	{"samplerCUBE", "samplerCube"},
	{"lerp", "mix"},
	{"frac", "fract"},
	{"saturate(x)", "clamp(x, 0.0, 1.0)"},
}

// AppendHLSLPrelude appends #define declarations aliasing HLSL names to GLSL.
func AppendHLSLPrelude(b []byte) []byte {
	for _, alias := range hlslAliases {
		b = AppendDefineDecl(b, alias[0], alias[1])
	}
	return b
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

const decimalDigits = 9

func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	// TODO(soypat): Round off when find N consecutive 9's?
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
