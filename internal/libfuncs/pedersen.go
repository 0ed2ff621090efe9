// Grounded on spec.md §4.5 "pedersen" and original_source/src/libfuncs/
// pedersen.rs: the hash itself is a fixed elliptic-curve combination the
// runtime library implements once in native code; the emitter's only job
// is the calling convention around it.
package libfuncs

import (
	"github.com/llir/llvm/ir/value"
)

func init() {
	register("pedersen", emitPedersen)
}

// emitPedersen threads the pedersen builtin counter and calls the
// runtime hash implementation (spec.md §4.5, §4.8).
func emitPedersen(ctx *EmitContext) error {
	rt := dictRuntimeSymbols(ctx)
	builtin, lhs, rhs := ctx.Inputs[0], ctx.Inputs[1], ctx.Inputs[2]
	callee := runtimeFunc(ctx, rt.Pedersen, feltType(), feltType(), feltType())
	hash := ctx.Entry.NewCall(callee, lhs, rhs)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{builtin, hash})
}
