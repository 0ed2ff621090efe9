// Grounded on spec.md §4.5 "Aggregate construction / destruction":
// allocate (or reuse) the aggregate slot, store fields at precomputed
// offsets, or extract the tag and cast the payload view.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func init() {
	register("struct_construct", emitStructConstruct)
	register("struct_deconstruct", emitStructDeconstruct)
	register("enum_init", emitEnumInit)
}

// emitStructConstruct builds an aggregate value field by field using
// insertvalue, avoiding a stack round-trip for the common case of small
// structs (the memory-allocated threshold is handled by the calling
// convention, not by construction itself).
func emitStructConstruct(ctx *EmitContext) error {
	structTy, err := resultMIRType(ctx, 0, 0)
	if err != nil {
		return err
	}
	var agg value.Value = constant.NewZeroInitializer(structTy)
	for i, in := range ctx.Inputs {
		agg = ctx.Entry.NewInsertValue(agg, in, uint64(i))
	}
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{agg})
}

// emitStructDeconstruct extracts every field back out in declaration
// order.
func emitStructDeconstruct(ctx *EmitContext) error {
	agg := ctx.Inputs[0]
	st, ok := agg.Type().(*types.StructType)
	if !ok {
		return &badTypeError{"struct_deconstruct", "expected struct operand"}
	}
	fields := make([]value.Value, len(st.Fields))
	for i := range st.Fields {
		fields[i] = ctx.Entry.NewExtractValue(agg, uint64(i))
	}
	return ctx.Helper.Br(ctx.Entry, 0, fields)
}

// emitEnumInit stores the declared variant's tag and payload into the
// enum's {tag, payload_bytes} representation, casting the payload into
// the fixed-size byte array view via a stack slot (variant payloads vary
// in size, so the conversion must go through memory).
func emitEnumInit(ctx *EmitContext) error {
	enumTy, err := resultMIRType(ctx, 0, 0)
	if err != nil {
		return err
	}
	st := enumTy.(*types.StructType)
	tagTy := st.Fields[0]
	payloadTy := st.Fields[1]

	slot := ctx.Helper.Alloca(enumTy)
	tagPtr := ctx.Entry.NewGetElementPtr(enumTy, slot, intConst(0), intConst(0))
	ctx.Entry.NewStore(constant.NewInt(tagTy.(*types.IntType), int64(ctx.Libfunc.Variant.MemberIndex)), tagPtr)

	if len(ctx.Inputs) > 0 {
		payloadPtr := ctx.Entry.NewGetElementPtr(enumTy, slot, intConst(0), intConst(1))
		variantPtr := ctx.Entry.NewBitCast(payloadPtr, types.NewPointer(ctx.Inputs[0].Type()))
		ctx.Entry.NewStore(ctx.Inputs[0], variantPtr)
	}
	_ = payloadTy

	loaded := ctx.Entry.NewLoad(enumTy, slot)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{loaded})
}

// resultMIRType returns the MIR type of branch/result slot (branch,k),
// read from the element type of the slot's pointer (the type builder is
// not consulted) — used by constructors whose own Inputs don't carry
// enough type information (e.g. struct_construct with zero fields).
func resultMIRType(ctx *EmitContext, branch, k int) (types.Type, error) {
	slot, err := ctx.Helper.ResultSlot(branch, k)
	if err != nil {
		return nil, err
	}
	ptrTy, ok := slot.Type().(*types.PointerType)
	if !ok {
		return nil, &badTypeError{ctx.Libfunc.GenericName, "result slot is not a pointer"}
	}
	return ptrTy.ElemType, nil
}

type badTypeError struct {
	libfunc string
	reason  string
}

func (e *badTypeError) Error() string { return e.libfunc + ": " + e.reason }
