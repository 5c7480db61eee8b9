// Package directive parses //@in and //@out comment directives out of shader
// snippets and derives the typed interface they declare.
//
//	//@out float3 Color
//	//@in  float  Scale
//	//@in  sampler2D Tex
package directive

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
)

const (
	InTag  = "//@in"
	OutTag = "//@out"
)

// Kind is the direction of a declared port.
type Kind uint8

const (
	Input Kind = iota
	Output
)

func (k Kind) String() string {
	if k == Output {
		return "out"
	}
	return "in"
}

// Decl is a single parsed port declaration.
type Decl struct {
	Kind Kind
	Type PortType
	Name string
	// Line is the 1-based line number the declaration was found at.
	Line int
}

// Skipped is a directive line that was recognized by its marker but dropped.
type Skipped struct {
	Line   int
	Text   string
	Reason error
}

var (
	ErrFieldCount    = errors.New("directive needs a type and a name")
	ErrUnknownType   = errors.New("unknown type token")
	ErrBadIdentifier = errors.New("invalid identifier")
)

// Result is the outcome of parsing a snippet's directives.
type Result struct {
	// Inputs and Outputs are in file order.
	Inputs  []Decl
	Outputs []Decl
	// Skipped lists directive lines that did not produce a declaration.
	Skipped   []Skipped
	Signature Signature
}

// Output returns the declaration that defines the node's single output and
// false if there were no output declarations. Only the first //@out line counts.
func (r Result) Output() (Decl, bool) {
	if len(r.Outputs) == 0 {
		return Decl{}, false
	}
	return r.Outputs[0], true
}

// Parse scans code line by line for directives. Malformed lines are skipped
// and recorded in the result; Parse never fails.
func Parse(code string) Result {
	var res Result
	lineno := 0
	for len(code) > 0 || lineno == 0 {
		lineno++
		raw := code
		if idx := strings.IndexByte(code, '\n'); idx >= 0 {
			raw = code[:idx]
			code = code[idx+1:]
		} else {
			code = ""
		}
		line := strings.TrimSpace(raw)
		var kind Kind
		var rest string
		switch {
		case strings.HasPrefix(line, InTag):
			kind, rest = Input, line[len(InTag):]
		case strings.HasPrefix(line, OutTag):
			kind, rest = Output, line[len(OutTag):]
		default:
			continue
		}
		decl, err := parseDecl(kind, rest)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Line: lineno, Text: line, Reason: err})
			continue
		}
		decl.Line = lineno
		if kind == Input {
			res.Inputs = append(res.Inputs, decl)
		} else {
			res.Outputs = append(res.Outputs, decl)
		}
	}
	res.Signature = MakeSignature(res.Inputs, res.Outputs)
	return res
}

func parseDecl(kind Kind, rest string) (Decl, error) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return Decl{}, ErrFieldCount
	}
	tp, ok := MapType(fields[0])
	if !ok {
		return Decl{}, ErrUnknownType
	}
	if !IsIdentifier(fields[1]) {
		return Decl{}, ErrBadIdentifier
	}
	return Decl{Kind: kind, Type: tp, Name: fields[1]}, nil
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isAlpha && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Signature summarizes a parsed interface for change detection. Two
// signatures are only meaningful when compared for equality.
type Signature string

// MakeSignature hashes the first output and all inputs, in order. Each name is
// length prefixed before hashing so no name can be mistaken for a delimiter.
func MakeSignature(inputs, outputs []Decl) Signature {
	buf := make([]byte, 0, 64)
	buf = append(buf, 'O')
	if len(outputs) > 0 {
		buf = appendDecl(buf, outputs[0])
	}
	buf = append(buf, 'I')
	for _, in := range inputs {
		buf = appendDecl(buf, in)
	}
	h := hash(buf, 0xff51afd7ed558ccd)
	sig := make([]byte, 0, 3+16)
	sig = append(sig, "v1:"...)
	for shift := 60; shift >= 0; shift -= 4 {
		sig = append(sig, "0123456789abcdef"[(h>>uint(shift))&0xf])
	}
	return Signature(sig)
}

func appendDecl(b []byte, d Decl) []byte {
	b = append(b, byte(d.Type))
	b = binary.AppendUvarint(b, uint64(len(d.Name)))
	return append(b, d.Name...)
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

func (d Decl) String() string {
	return "//@" + d.Kind.String() + " " + d.Type.String() + " " + d.Name + " (line " + strconv.Itoa(d.Line) + ")"
}
