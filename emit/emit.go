// Package emit assembles a renamed snippet into a delimited code block,
// registers it with the downstream code generator and builds the expression
// that invokes the snippet's entry point.
package emit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/autoexpr/rename"
)

// DefaultLabel is the marker label used when an instance has no display name.
const DefaultLabel = "Auto Parsed Expression"

// Registrar is the capability required of the downstream code generator.
// Implementations must deduplicate: registering a block under an ID that was
// already registered with the same body must not duplicate output.
// [glbuild.Programmer] implements Registrar.
type Registrar interface {
	RegisterBlock(id, body string) error
}

// Block is an emitted code block.
type Block struct {
	ID   string
	Body string
}

// Request holds everything needed to emit a single snippet instance.
type Request struct {
	// Prefix is unique per instance, see [InstancePrefix].
	Prefix string
	Source string
	// Label is embedded in the block's delimiter comments.
	Label string
	// Args are the argument expressions in input port order.
	Args []string
	// Outputs is the number of output ports of the instance.
	Outputs int
}

// Result is the outcome of emitting one instance.
type Result struct {
	// Expr is the expression computing the instance output.
	Expr string
	// Inline is set when the source had no entry point and Expr is
	// the trimmed source itself.
	Inline bool
	// Block is the registered block. Zero if nothing was registered.
	Block Block
	// Renames maps original function names to their emitted names.
	Renames rename.Map
}

var errNoRegistrar = errors.New("nil registrar")

// Assembler emits snippet instances. The zero value is ready to use.
type Assembler struct {
	// Cache optionally memoizes function renames across passes.
	Cache *rename.Cache
}

// Assemble emits req, registering its block with reg.
//
// With no output ports a neutral "0" literal is returned. If the source
// defines no main function the trimmed source is returned as an inline
// expression and nothing is registered.
func (a *Assembler) Assemble(reg Registrar, req Request) (Result, error) {
	if req.Outputs == 0 {
		return Result{Expr: "0"}, nil
	}
	rw := a.Cache.Rewrite(req.Source, req.Prefix)
	if rw.Entry == "" {
		return Result{Expr: strings.TrimSpace(req.Source), Inline: true}, nil
	}
	if reg == nil {
		return Result{}, errNoRegistrar
	}
	block := Block{
		ID:   BlockID(req.Prefix),
		Body: WrapBlock(req.Label, rw.Code),
	}
	err := reg.RegisterBlock(block.ID, block.Body)
	if err != nil {
		return Result{}, fmt.Errorf("registering block %s: %w", block.ID, err)
	}
	return Result{
		Expr:    CallExpr(rw.Entry, req.Args),
		Block:   block,
		Renames: rw.Map,
	}, nil
}

// InstancePrefix returns the function name prefix of the instance with the given unique ID.
func InstancePrefix(id int) string {
	return "ase_auto_" + strconv.Itoa(id) + "_"
}

// BlockID returns the registration ID of the block emitted with prefix.
func BlockID(prefix string) string { return prefix + "block" }

// Label returns the trimmed display name or [DefaultLabel] if it is blank.
func Label(displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return DefaultLabel
	}
	return name
}

// Marker returns the delimiter comment line of a block, without newline.
func Marker(label string) string {
	return "// == Auto Parsed Expression (" + label + ") =="
}

// WrapBlock places code between two identical marker lines.
func WrapBlock(label, code string) string {
	marker := Marker(label)
	var sb strings.Builder
	sb.Grow(2*len(marker) + len(code) + 3)
	sb.WriteString(marker)
	sb.WriteByte('\n')
	sb.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(marker)
	sb.WriteByte('\n')
	return sb.String()
}

// CallExpr formats a call of fn with args.
func CallExpr(fn string, args []string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}
