// Package libfuncs holds one emitter per libfunc variant (spec.md §4.5).
// Each emitter consumes an EmitContext exposing the registry, the
// statement's MIR entry block, its Libfunc Helper, and the metadata
// scratchpad, and must terminate the entry block (and any intra-libfunc
// blocks it appends) through the helper.
package libfuncs

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

// UnsupportedLibfuncError is returned when no emitter exists for a
// libfunc variant (spec.md §4.7, §9 Open Questions).
type UnsupportedLibfuncError struct {
	Name string
}

func (e *UnsupportedLibfuncError) Error() string {
	return errors.Errorf("unsupported libfunc: %s", e.Name).Error()
}

// EmitContext is the per-invocation scaffolding handed to every emitter.
type EmitContext struct {
	Reg    *registry.Registry
	TB     *typebuilder.Builder
	Meta   *metadata.Storage
	Fn     *mir.Function
	Entry  *ir.Block
	Helper *mir.Helper

	Statement sierra.StatementIdx
	Libfunc   *sierra.ConcreteLibfunc
	// PtrSize is the target pointer width, needed by emitters (function_call)
	// that recompute another function's calling convention on the fly.
	PtrSize int64

	// Inputs holds the resolved SSA values for the invoke statement's
	// inputs, in order, already loaded from their permanent var slots by
	// the function lowerer.
	Inputs []value.Value
	// InputSlots holds the corresponding alloca pointers, for emitters
	// that need the address rather than the value (e.g. dict entry
	// tokens, syscall argument marshaling).
	InputSlots []value.Value
}

// Emitter lowers one invoke statement. Implementations live in the
// per-family files of this package (felt252.go, integer.go, array.go, …).
type Emitter func(ctx *EmitContext) error

// table is populated by each family file's init().
var table = map[string]Emitter{}

// register is called from each family's init() to install its emitters.
func register(name string, fn Emitter) {
	if _, exists := table[name]; exists {
		panic("duplicate libfunc emitter registration: " + name)
	}
	table[name] = fn
}

// Lookup returns the emitter for a libfunc's generic name, or
// *UnsupportedLibfuncError if none is registered (spec.md §4.7).
func Lookup(genericName string) (Emitter, error) {
	if fn, ok := table[genericName]; ok {
		return fn, nil
	}
	return nil, &UnsupportedLibfuncError{Name: genericName}
}

// Emit resolves and runs the emitter for ctx.Libfunc.
func Emit(ctx *EmitContext) error {
	fn, err := Lookup(ctx.Libfunc.GenericName)
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return errors.Wrapf(err, "emitting libfunc %s at statement %d", ctx.Libfunc.GenericName, ctx.Statement)
	}
	return nil
}
