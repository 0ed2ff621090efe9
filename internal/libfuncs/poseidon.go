// Grounded on spec.md §4.5 "poseidon" / hades_permutation and
// original_source/src/libfuncs/poseidon.rs: the full Hades permutation
// (the expensive round function) lives in the runtime library; the
// emitter marshals the 3-felt state in and back out.
package libfuncs

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func init() {
	register("hades_permutation", emitHadesPermutation)
}

// emitHadesPermutation calls the runtime's full Hades round function on
// the 3-felt sponge state and unpacks the returned state (spec.md §4.5).
func emitHadesPermutation(ctx *EmitContext) error {
	rt := dictRuntimeSymbols(ctx)
	s0, s1, s2 := ctx.Inputs[0], ctx.Inputs[1], ctx.Inputs[2]
	stateTy := types.NewStruct(feltType(), feltType(), feltType())
	callee := runtimeFunc(ctx, rt.HadesPermutation, stateTy, feltType(), feltType(), feltType())
	result := ctx.Entry.NewCall(callee, s0, s1, s2)
	r0 := ctx.Entry.NewExtractValue(result, 0)
	r1 := ctx.Entry.NewExtractValue(result, 1)
	r2 := ctx.Entry.NewExtractValue(result, 2)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{r0, r1, r2})
}
