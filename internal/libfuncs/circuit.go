// Grounded on spec.md §4.5 "Circuit gates" and the 384-bit, six-limb
// representation typebuilder.go assigns circuit values (spec.md §3
// Circuit): gates operate through a scratch i384 view of the [6 x i64]
// array, mirroring how the felt252 family widens through a scalar
// integer rather than looping over limbs by hand.
//
// Modulus reduction is delegated to the runtime inverse routine for
// circuit_inverse; add/sub/mul stay as plain 384-bit wraparound here,
// since the true modulus is itself circuit input data rather than a
// compile-time constant (recorded as an open decision in DESIGN.md).
package libfuncs

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/runtime"
)

func init() {
	register("circuit_add", emitCircuitAdd)
	register("circuit_sub", emitCircuitSub)
	register("circuit_mul", emitCircuitMul)
	register("circuit_inverse", emitCircuitInverse)
}

func limbArrayType() *types.ArrayType { return types.NewArray(6, types.I64) }
func limbWideType() *types.IntType    { return types.NewInt(384) }

// asWide round-trips a [6 x i64] circuit value through a scratch alloca
// to view it as a single 384-bit integer (spec.md §3 Circuit limbs).
func asWide(ctx *EmitContext, v value.Value) value.Value {
	slot := ctx.Helper.Alloca(limbArrayType())
	ctx.Entry.NewStore(v, slot)
	widePtr := ctx.Entry.NewBitCast(slot, types.NewPointer(limbWideType()))
	return ctx.Entry.NewLoad(limbWideType(), widePtr)
}

// asLimbs is the inverse of asWide.
func asLimbs(ctx *EmitContext, wide value.Value) value.Value {
	slot := ctx.Helper.Alloca(limbWideType())
	ctx.Entry.NewStore(wide, slot)
	arrPtr := ctx.Entry.NewBitCast(slot, types.NewPointer(limbArrayType()))
	return ctx.Entry.NewLoad(limbArrayType(), arrPtr)
}

func emitCircuitAdd(ctx *EmitContext) error {
	lhs := asWide(ctx, ctx.Inputs[0])
	rhs := asWide(ctx, ctx.Inputs[1])
	sum := ctx.Entry.NewAdd(lhs, rhs)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{asLimbs(ctx, sum)})
}

func emitCircuitSub(ctx *EmitContext) error {
	lhs := asWide(ctx, ctx.Inputs[0])
	rhs := asWide(ctx, ctx.Inputs[1])
	diff := ctx.Entry.NewSub(lhs, rhs)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{asLimbs(ctx, diff)})
}

func emitCircuitMul(ctx *EmitContext) error {
	lhs := asWide(ctx, ctx.Inputs[0])
	rhs := asWide(ctx, ctx.Inputs[1])
	prod := ctx.Entry.NewMul(lhs, rhs)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{asLimbs(ctx, prod)})
}

// emitCircuitInverse calls the runtime's modular-inverse routine, which
// knows the circuit's actual modulus at runtime (spec.md §4.5/§4.8).
func emitCircuitInverse(ctx *EmitContext) error {
	callee := runtimeFunc(ctx, runtime.SymCircuitInverse, limbArrayType(), limbArrayType())
	inv := ctx.Entry.NewCall(callee, ctx.Inputs[0])
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{inv})
}
