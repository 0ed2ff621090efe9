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

func gasTestContext(genericName string, branchResults [][]types.Type, inputs ...value.Value) (*EmitContext, *mir.Function) {
	mod := mir.NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	branches := make([]mir.BranchTarget, len(branchResults))
	for bi, resultTypes := range branchResults {
		target := fn.NewStatementBlock("target")
		mapping := make([]mir.ArgSource, len(resultTypes))
		slots := make([]value.Value, len(resultTypes))
		for i, t := range resultTypes {
			mapping[i] = mir.ArgSource{Returned: i}
			slots[i] = fn.Init.NewAlloca(t)
		}
		branches[bi] = mir.BranchTarget{Target: target, Mapping: mapping, Slots: slots}
	}
	h := mir.NewHelper(genericName, fn, entry, branches)
	ctx := &EmitContext{
		Meta:    metadata.New(),
		Fn:      fn,
		Entry:   entry,
		Helper:  h,
		Libfunc: &sierra.ConcreteLibfunc{GenericName: genericName},
		Inputs:  inputs,
	}
	return ctx, fn
}

func TestEmitWithdrawGasCondBranches(t *testing.T) {
	rangeCheck := constant.NewInt(types.I64, 0)
	gas := constant.NewInt(gasType(), 1000)
	ctx, _ := gasTestContext("withdraw_gas",
		[][]types.Type{{types.I64, gasType()}, {types.I64, gasType()}},
		rangeCheck, gas)

	if err := emitWithdrawGas(ctx); err != nil {
		t.Fatalf("emitWithdrawGas: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after withdraw_gas")
	}
}

func TestEmitGetAvailableGasRepublishesBoth(t *testing.T) {
	gas := constant.NewInt(gasType(), 500)
	ctx, _ := gasTestContext("get_available_gas", [][]types.Type{{gasType(), feltType()}}, gas)
	if err := emitGetAvailableGas(ctx); err != nil {
		t.Fatalf("emitGetAvailableGas: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after get_available_gas")
	}
}

func TestEmitRedepositGasToppsUpGas(t *testing.T) {
	gas := constant.NewInt(gasType(), 10)
	ctx, _ := gasTestContext("redeposit_gas", [][]types.Type{{gasType()}}, gas)
	if err := emitRedepositGas(ctx); err != nil {
		t.Fatalf("emitRedepositGas: %v", err)
	}
	if ctx.Entry.Term == nil {
		t.Error("entry block should be terminated after redeposit_gas")
	}
}
