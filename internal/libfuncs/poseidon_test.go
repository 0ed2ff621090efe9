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

func TestEmitHadesPermutationCallsRuntimeAndUnpacksState(t *testing.T) {
	mod := mir.NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	target := fn.NewStatementBlock("target")
	slots := []value.Value{fn.Init.NewAlloca(feltType()), fn.Init.NewAlloca(feltType()), fn.Init.NewAlloca(feltType())}
	h := mir.NewHelper("hades_permutation", fn, entry, []mir.BranchTarget{
		{Target: target, Mapping: []mir.ArgSource{{Returned: 0}, {Returned: 1}, {Returned: 2}}, Slots: slots},
	})

	s0 := constant.NewInt(feltType(), 1)
	s1 := constant.NewInt(feltType(), 2)
	s2 := constant.NewInt(feltType(), 3)
	ctx := &EmitContext{
		Meta:    metadata.New(),
		Fn:      fn,
		Entry:   entry,
		Helper:  h,
		Libfunc: &sierra.ConcreteLibfunc{GenericName: "hades_permutation"},
		Inputs:  []value.Value{s0, s1, s2},
	}

	if err := emitHadesPermutation(ctx); err != nil {
		t.Fatalf("emitHadesPermutation: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after hades_permutation")
	}
	found := false
	for _, f := range fn.Func.Parent.Funcs {
		if f.Name() == "cairo_native__libfunc__hades_permutation" {
			found = true
		}
	}
	if !found {
		t.Error("expected hades_permutation to declare the runtime permutation symbol")
	}
}
