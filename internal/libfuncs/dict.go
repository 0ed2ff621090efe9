// Grounded on spec.md §4.5 "Dict operations" and the runtime-ABI entry
// points of spec.md §4.8 (alloc_dict/dict_get/dict_insert/dict_squash):
// the dictionary itself is an opaque runtime object, mirroring how
// original_source/src/libfuncs/felt252_dict.rs defers to the Rust
// runtime's squashed-dict implementation rather than reimplementing a
// hash map in generated code.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
)

func init() {
	register("felt252_dict_new", emitDictNew)
	register("felt252_dict_squash", emitDictSquash)
	register("felt252_dict_entry_get", emitDictEntryGet)
	register("felt252_dict_entry_finalize", emitDictEntryFinalize)
}

func dictRuntimeSymbols(ctx *EmitContext) metadata.RuntimeSymbols {
	rt, ok := metadata.Get[metadata.RuntimeSymbols](ctx.Meta)
	if !ok {
		return metadata.DefaultRuntimeSymbols()
	}
	return rt
}

// dictEntryType is the {dict_ptr, key, slot_ptr} borrow token built by
// typebuilder.go for Felt252DictEntry.
func dictEntryType() *types.StructType {
	return types.NewStruct(types.NewPointer(types.I8), types.NewInt(252), types.NewPointer(types.I8))
}

// emitDictNew allocates a fresh empty dictionary via the runtime,
// threading segment_arena unchanged (spec.md §4.5).
func emitDictNew(ctx *EmitContext) error {
	rt := dictRuntimeSymbols(ctx)
	callee := runtimeFunc(ctx, rt.AllocDict, types.NewPointer(types.I8))
	dict := ctx.Entry.NewCall(callee)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{ctx.Inputs[0], dict})
}

// emitDictEntryGet looks up (or default-initializes) the slot for `key`,
// returning a borrow token that felt252_dict_entry_finalize later
// consumes, plus the value currently stored there (spec.md §4.5).
func emitDictEntryGet(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	rt := dictRuntimeSymbols(ctx)
	dict, key := ctx.Inputs[0], ctx.Inputs[1]

	callee := runtimeFunc(ctx, rt.DictGet, types.NewPointer(types.I8), types.NewPointer(types.I8), types.NewInt(252))
	slot := ctx.Entry.NewCall(callee, dict, key)
	typedSlot := ctx.Entry.NewBitCast(slot, types.NewPointer(elem.MIR))
	current := ctx.Entry.NewLoad(elem.MIR, typedSlot)

	var entry value.Value = constant.NewZeroInitializer(dictEntryType())
	entry = ctx.Entry.NewInsertValue(entry, dict, 0)
	entry = ctx.Entry.NewInsertValue(entry, key, 1)
	entry = ctx.Entry.NewInsertValue(entry, slot, 2)

	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{entry, current})
}

// emitDictEntryFinalize writes the updated value back into the slot the
// matching entry_get borrowed and hands the dictionary back (spec.md
// §4.5).
func emitDictEntryFinalize(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	entry, newValue := ctx.Inputs[0], ctx.Inputs[1]
	dict := ctx.Entry.NewExtractValue(entry, 0)
	slot := ctx.Entry.NewExtractValue(entry, 2)
	typedSlot := ctx.Entry.NewBitCast(slot, types.NewPointer(elem.MIR))
	ctx.Entry.NewStore(newValue, typedSlot)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{dict})
}

// emitDictSquash finalizes every outstanding entry and returns the
// squashed dictionary, threading segment_arena unchanged (spec.md §4.5).
func emitDictSquash(ctx *EmitContext) error {
	rt := dictRuntimeSymbols(ctx)
	segmentArena, dict := ctx.Inputs[0], ctx.Inputs[1]
	callee := runtimeFunc(ctx, rt.DictSquash, types.NewPointer(types.I8), types.NewPointer(types.I8))
	squashed := ctx.Entry.NewCall(callee, dict)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{segmentArena, squashed})
}
