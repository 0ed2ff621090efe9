// Grounded on spec.md §4.5 "Array operations" and the {ptr, since, until,
// capacity} descriptor from spec.md §3: growth goes through a runtime
// helper (original_source/src/libfuncs/array.rs leans on a Rust Vec-style
// realloc under the hood; we keep the same "grow via one external call,
// index arithmetic stays in MIR" split).
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/runtime"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

func init() {
	register("array_new", emitArrayNew)
	register("array_append", emitArrayAppend)
	register("array_pop_front", emitArrayPopFront)
	register("array_get", emitArrayGet)
	register("array_len", emitArrayLen)
	register("array_slice", emitArraySlice)
}

// arrayDescType is the MIR shape typebuilder.buildArray produces: {ptr,
// since, until, capacity}, matching layout.Array's field order exactly.
func arrayDescType() *types.StructType {
	return types.NewStruct(types.NewPointer(types.I8), types.I32, types.I32, types.I32)
}

// arrayElem resolves the element type this array libfunc variant was
// instantiated with, carried on Variant.TargetType (sierra/program.go:
// "cast/narrowing targets, box/array element type").
func arrayElem(ctx *EmitContext) (*typebuilder.Built, error) {
	return ctx.TB.Build(ctx.Libfunc.Variant.TargetType)
}

// emitArrayNew produces the empty descriptor: a null data pointer and
// zeroed bounds (spec.md §4.5).
func emitArrayNew(ctx *EmitContext) error {
	zero := constant.NewZeroInitializer(arrayDescType())
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{zero})
}

// emitArrayAppend grows the backing buffer via the runtime helper when
// `until` has reached `capacity`, writes the new element past the current
// end, and republishes the updated descriptor (spec.md §4.5).
func emitArrayAppend(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	arrSlot := ctx.InputSlots[0]
	elemVal := ctx.Inputs[1]
	structTy := arrayDescType()

	elemSize := constant.NewInt(types.I64, elem.Layout.Size)
	growCallee := runtimeFunc(ctx, runtime.SymArrayEnsureCapacity, types.Void, types.NewPointer(structTy), types.I64)
	ctx.Entry.NewCall(growCallee, arrSlot, elemSize)

	ptrPtr := ctx.Entry.NewGetElementPtr(structTy, arrSlot, intConst(0), intConst(0))
	untilPtr := ctx.Entry.NewGetElementPtr(structTy, arrSlot, intConst(0), intConst(2))
	ptr := ctx.Entry.NewLoad(types.NewPointer(types.I8), ptrPtr)
	until := ctx.Entry.NewLoad(types.I32, untilPtr)

	offset := ctx.Entry.NewMul(ctx.Entry.NewZExt(until, types.I64), elemSize)
	elemAddr := ctx.Entry.NewGetElementPtr(types.I8, ptr, offset)
	typedAddr := ctx.Entry.NewBitCast(elemAddr, types.NewPointer(elem.MIR))
	ctx.Entry.NewStore(elemVal, typedAddr)

	newUntil := ctx.Entry.NewAdd(until, constant.NewInt(types.I32, 1))
	ctx.Entry.NewStore(newUntil, untilPtr)

	updated := ctx.Entry.NewLoad(structTy, arrSlot)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{updated})
}

// emitArrayPopFront advances `since` by one and hands back a pointer to
// the vacated slot as a boxed element, branching (ok, empty) on whether
// the array had anything left (spec.md §4.5).
func emitArrayPopFront(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	arr := ctx.Inputs[0]
	ptr := ctx.Entry.NewExtractValue(arr, 0)
	since := ctx.Entry.NewExtractValue(arr, 1)
	until := ctx.Entry.NewExtractValue(arr, 2)

	notEmpty := ctx.Entry.NewICmp(enum.IPredULT, since, until)
	elemSize := constant.NewInt(types.I64, elem.Layout.Size)
	offset := ctx.Entry.NewMul(ctx.Entry.NewZExt(since, types.I64), elemSize)
	elemAddr := ctx.Entry.NewGetElementPtr(types.I8, ptr, offset)

	newSince := ctx.Entry.NewAdd(since, constant.NewInt(types.I32, 1))
	var newArr value.Value = ctx.Entry.NewInsertValue(arr, newSince, 1)

	return ctx.Helper.CondBr(ctx.Entry, notEmpty, 0, 1,
		[]value.Value{elemAddr, newArr},
		nil)
}

// emitArrayGet bounds-checks index against [since,until) and returns a
// pointer to the element in place, threading range_check (spec.md §4.5).
func emitArrayGet(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	rangeCheck, arr, idx := ctx.Inputs[0], ctx.Inputs[1], ctx.Inputs[2]
	ptr := ctx.Entry.NewExtractValue(arr, 0)
	since := ctx.Entry.NewExtractValue(arr, 1)
	until := ctx.Entry.NewExtractValue(arr, 2)

	length := ctx.Entry.NewSub(until, since)
	inBounds := ctx.Entry.NewICmp(enum.IPredULT, idx, length)

	pos := ctx.Entry.NewAdd(since, idx)
	elemSize := constant.NewInt(types.I64, elem.Layout.Size)
	offset := ctx.Entry.NewMul(ctx.Entry.NewZExt(pos, types.I64), elemSize)
	elemAddr := ctx.Entry.NewGetElementPtr(types.I8, ptr, offset)

	rcNext := ctx.Entry.NewAdd(rangeCheck, constant.NewInt(types.I64, 1))
	return ctx.Helper.CondBr(ctx.Entry, inBounds, 0, 1,
		[]value.Value{rcNext, elemAddr},
		[]value.Value{rcNext})
}

// emitArrayLen returns until-since as a u32 (spec.md §4.5).
func emitArrayLen(ctx *EmitContext) error {
	arr := ctx.Inputs[0]
	since := ctx.Entry.NewExtractValue(arr, 1)
	until := ctx.Entry.NewExtractValue(arr, 2)
	length := ctx.Entry.NewSub(until, since)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{length})
}

// emitArraySlice rewrites [since,until) to a narrower sub-window sharing
// the same backing buffer, bounds-checked against the original window
// (spec.md §4.5).
func emitArraySlice(ctx *EmitContext) error {
	rangeCheck, arr, start, length := ctx.Inputs[0], ctx.Inputs[1], ctx.Inputs[2], ctx.Inputs[3]
	since := ctx.Entry.NewExtractValue(arr, 1)
	until := ctx.Entry.NewExtractValue(arr, 2)

	newSince := ctx.Entry.NewAdd(since, start)
	newUntil := ctx.Entry.NewAdd(newSince, length)
	inBounds := ctx.Entry.NewICmp(enum.IPredULE, newUntil, until)

	var sliced value.Value = ctx.Entry.NewInsertValue(arr, newSince, 1)
	sliced = ctx.Entry.NewInsertValue(sliced, newUntil, 2)

	rcNext := ctx.Entry.NewAdd(rangeCheck, constant.NewInt(types.I64, 1))
	return ctx.Helper.CondBr(ctx.Entry, inBounds, 0, 1,
		[]value.Value{rcNext, sliced},
		[]value.Value{rcNext})
}
