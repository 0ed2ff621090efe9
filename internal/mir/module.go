// Package mir builds the platform-independent compiler IR (spec.md §2
// "MIR") this project lowers source IR functions into. MIR is realized
// directly atop github.com/llir/llvm/ir — its module/function/block/
// instruction graph already is a faithful, pure-Go LLVM IR builder, so
// "lower to MIR" and "translate to native LLVM IR" (spec.md §2 Object
// Builder) collapse into the same construction step; only the final
// optimize+emit-object step (internal/codegen) treats it as a black box
// handed to the real LLVM toolchain.
package mir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Module wraps an *ir.Module under construction for one compilation.
type Module struct {
	*ir.Module
}

// NewModule creates an empty MIR module.
func NewModule() *Module {
	return &Module{Module: ir.NewModule()}
}

// NewFunction declares a MIR function with the given name, return type and
// parameters, and returns a Function wrapper ready for block construction.
// The caller (internal/lower) is responsible for having already applied
// the calling-convention transform (sret insertion, ZST elision) to
// retType/params (spec.md §4.4).
func (m *Module) NewFunction(name string, retType types.Type, params ...*ir.Param) *Function {
	fn := m.Module.NewFunc(name, retType, params...)
	return &Function{Func: fn}
}

// LookupFunction returns an already-declared function with this name, if
// one exists — either a prior function's own definition, or an external
// stub a function_call emitter declared ahead of the lowerer reaching
// that function's own definition (spec.md §4.4 recursive/forward calls).
func (m *Module) LookupFunction(name string) (*ir.Func, bool) {
	for _, f := range m.Module.Funcs {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

// Function wraps an *ir.Func plus the per-function lowering scaffolding
// (init block, per-variable storage slots) spec.md §4.3 describes.
type Function struct {
	*ir.Func

	// Init is the dedicated prelude block hoisting all stack allocations
	// so they dominate every return (spec.md §4.3 "init_block").
	Init *ir.Block
}

// NewEntry creates the function's init block (always first) followed by
// its first real entry block. The caller still owes init a terminator
// (internal/lower adds init -> entry right after NewEntry; an ir.Block
// keeps its terminator apart from its instruction list, so the
// alloca/store pairs appended to init later still precede it). Subsequent
// statement blocks are created with NewStatementBlock.
func (f *Function) NewEntry() (init, entry *ir.Block) {
	f.Init = f.Func.NewBlock("init")
	entry = f.Func.NewBlock("entry")
	return f.Init, entry
}

// NewStatementBlock allocates a fresh block for a statement, named for
// readability in dumped MIR text.
func (f *Function) NewStatementBlock(name string) *ir.Block {
	return f.Func.NewBlock(name)
}
