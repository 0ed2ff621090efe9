package libfuncs

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

func boxTestContext(genericName string, resultSlotType types.Type, inputs ...value.Value) (*EmitContext, *mir.Function) {
	felt := sierra.TypeID(0)
	box := sierra.TypeID(1)
	prog := &sierra.Program{Types: []sierra.ConcreteType{
		{ID: felt, Kind: sierra.TypeFelt252},
		{ID: box, Kind: sierra.TypeBox, ElemType: felt},
	}}
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, 8, false)

	mod := mir.NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	target := fn.NewStatementBlock("target")
	slot := fn.Init.NewAlloca(resultSlotType)
	h := mir.NewHelper(genericName, fn, entry, []mir.BranchTarget{
		{Target: target, Mapping: []mir.ArgSource{{Returned: 0}}, Slots: []value.Value{slot}},
	})

	ctx := &EmitContext{
		Reg: reg, TB: tb, Meta: meta,
		Fn: fn, Entry: entry, Helper: h,
		Libfunc: &sierra.ConcreteLibfunc{GenericName: genericName, Variant: sierra.LibfuncVariant{TargetType: felt}},
		Inputs:  inputs,
	}
	return ctx, fn
}

func TestEmitIntoBoxThenUnboxRoundTrips(t *testing.T) {
	v := constant.NewInt(feltType(), 17)
	boxCtx, fn := boxTestContext("into_box", types.NewPointer(types.I8), v)
	if err := emitIntoBox(boxCtx); err != nil {
		t.Fatalf("emitIntoBox: %v", err)
	}
	if boxCtx.Entry.Term == nil {
		t.Error("entry block should be terminated after into_box")
	}
	found := false
	for _, f := range fn.Func.Parent.Funcs {
		if f.Name() == "cairo_native__alloc" {
			found = true
		}
	}
	if !found {
		t.Error("expected into_box to declare the runtime alloc symbol")
	}

	ptr := constant.NewNull(types.NewPointer(types.I8))
	unboxCtx, _ := boxTestContext("unbox", feltType(), ptr)
	if err := emitUnbox(unboxCtx); err != nil {
		t.Fatalf("emitUnbox: %v", err)
	}
	if unboxCtx.Entry.Term == nil {
		t.Error("entry block should be terminated after unbox")
	}
}
