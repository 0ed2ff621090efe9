// Grounded on spec.md §4.5 "Branching libfuncs": bool_* and enum_match
// both reduce to the helper's switch/cond_br terminators, mirroring how
// original_source/src/libfuncs.rs dispatches IsZero-shaped libfuncs
// straight into the helper without any intervening control-flow state.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/mir"
)

func init() {
	register("bool_to_felt252", emitBoolToFelt252)
	register("bool_not_impl", emitBoolNot)
	register("bool_and_impl", emitBoolAnd)
	register("bool_or_impl", emitBoolOr)
	register("bool_xor_impl", emitBoolXor)
	register("enum_match", emitEnumMatch)
}

func emitBoolToFelt252(ctx *EmitContext) error {
	v := ctx.Entry.NewZExt(ctx.Inputs[0], feltType())
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{v})
}

func emitBoolNot(ctx *EmitContext) error {
	v := ctx.Entry.NewXor(ctx.Inputs[0], constant.True)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{v})
}

func emitBoolAnd(ctx *EmitContext) error {
	v := ctx.Entry.NewAnd(ctx.Inputs[0], ctx.Inputs[1])
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{v})
}

func emitBoolOr(ctx *EmitContext) error {
	v := ctx.Entry.NewOr(ctx.Inputs[0], ctx.Inputs[1])
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{v})
}

func emitBoolXor(ctx *EmitContext) error {
	v := ctx.Entry.NewXor(ctx.Inputs[0], ctx.Inputs[1])
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{v})
}

// emitEnumMatch loads the tag field, takes a pointer to the untyped
// payload bytes (the same pointer is handed to every branch; no
// per-variant cast is made), and dispatches through the helper's switch
// table — one
// branch per declared variant, matching enum construction's tag
// assignment 1:1 (spec.md §4.5 "Aggregate construction / destruction").
func emitEnumMatch(ctx *EmitContext) error {
	enumSlot := ctx.InputSlots[0]
	tagWidth := uint64(8) // default tag width; widened per spec.md §3 when >256 variants
	if ctx.Libfunc.Variant.BranchArity > 256 {
		tagWidth = 16
	}
	tagType := types.NewInt(tagWidth)
	tagPtr := ctx.Entry.NewGetElementPtr(enumType(ctx), enumSlot, intConst(0), intConst(0))
	tag := ctx.Entry.NewLoad(tagType, tagPtr)

	payloadPtr := ctx.Entry.NewGetElementPtr(enumType(ctx), enumSlot, intConst(0), intConst(1))

	arity := ctx.Helper.BranchArity()
	cases := make([]mir.SwitchCase, 0, arity-1)
	for i := 1; i < arity; i++ {
		cases = append(cases, mir.SwitchCase{
			Tag:    int64(i),
			Branch: i,
			Values: []value.Value{payloadPtr},
		})
	}
	return ctx.Helper.Switch(ctx.Entry, tag, tagType, 0, []value.Value{payloadPtr}, cases)
}

func intConst(v int64) *constant.Int { return constant.NewInt(types.I32, v) }

// enumType reconstructs the {tag, payload} MIR struct type for the input
// enum value being matched, looked up through the type builder rather
// than re-derived ad hoc.
func enumType(ctx *EmitContext) types.Type {
	// The function lowerer always binds enum_match's Inputs[0] slot using
	// the matched variable's built MIR type; reuse that type directly.
	return ctx.InputSlots[0].Type().(*types.PointerType).ElemType
}
