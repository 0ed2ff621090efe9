package libfuncs

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

func TestEmitBoolAndImplTerminates(t *testing.T) {
	ctx, _, _ := newAddContext("bool_and_impl", constant.True, constant.False)
	if err := emitBoolAnd(ctx); err != nil {
		t.Fatalf("emitBoolAnd: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after bool_and_impl")
	}
}

func TestEmitBoolToFelt252Terminates(t *testing.T) {
	ctx, _, _ := newAddContext("bool_to_felt252", constant.True)
	if err := emitBoolToFelt252(ctx); err != nil {
		t.Fatalf("emitBoolToFelt252: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after bool_to_felt252")
	}
}

// TestEmitEnumMatchDispatchesPerVariant exercises a 2-variant enum, which
// is exactly the shape spec.md §7 requires for panic results
// (Value::Enum{tag=1, Array<felt252>}).
func TestEmitEnumMatchDispatchesPerVariant(t *testing.T) {
	mod := mir.NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	enumTy := types.NewStruct(types.I8, arrayDescType())
	enumSlot := fn.Init.NewAlloca(enumTy)

	okTarget := fn.NewStatementBlock("ok")
	errTarget := fn.NewStatementBlock("err")
	okSlot := fn.Init.NewAlloca(types.NewPointer(arrayDescType()))
	errSlot := fn.Init.NewAlloca(types.NewPointer(arrayDescType()))

	h := mir.NewHelper("enum_match", fn, entry, []mir.BranchTarget{
		{Target: okTarget, Mapping: []mir.ArgSource{{Returned: 0}}, Slots: []value.Value{okSlot}},
		{Target: errTarget, Mapping: []mir.ArgSource{{Returned: 0}}, Slots: []value.Value{errSlot}},
	})

	ctx := &EmitContext{
		Meta:       metadata.New(),
		Fn:         fn,
		Entry:      entry,
		Helper:     h,
		Libfunc:    &sierra.ConcreteLibfunc{GenericName: "enum_match", Variant: sierra.LibfuncVariant{BranchArity: 2}},
		InputSlots: []value.Value{enumSlot},
	}
	if err := emitEnumMatch(ctx); err != nil {
		t.Fatalf("emitEnumMatch: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated by a switch after enum_match")
	}
}
