// Grounded on spec.md §4.5 "Gas accounting" and original_source/src/
// libfuncs/gas.rs: each statement's static cost comes from the Gas
// Metadata computed once over the whole program (spec.md §4.2), not
// recomputed per call site.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
)

func init() {
	register("withdraw_gas", emitWithdrawGas)
	register("withdraw_gas_all", emitWithdrawGasAll)
	register("redeposit_gas", emitRedepositGas)
	register("get_available_gas", emitGetAvailableGas)
}

func gasType() *types.IntType { return types.NewInt(128) }

func statementGasCost(ctx *EmitContext) uint64 {
	costs, ok := metadata.Get[metadata.GasCosts](ctx.Meta)
	if !ok {
		return 0
	}
	return costs.CostOf(ctx.Statement)
}

// emitWithdrawGas subtracts the statement's precomputed cost when enough
// gas remains, branching (ok, out-of-gas) with range_check threaded
// (spec.md §4.5).
func emitWithdrawGas(ctx *EmitContext) error {
	rangeCheck, gas := ctx.Inputs[0], ctx.Inputs[1]
	cost := constant.NewInt(gasType(), int64(statementGasCost(ctx)))
	enough := ctx.Entry.NewICmp(enum.IPredUGE, gas, cost)
	remaining := ctx.Entry.NewSub(gas, cost)
	rcNext := ctx.Entry.NewAdd(rangeCheck, constant.NewInt(types.I64, 1))
	return ctx.Helper.CondBr(ctx.Entry, enough, 0, 1,
		[]value.Value{rcNext, remaining},
		[]value.Value{rcNext, gas})
}

// emitWithdrawGasAll is the BuiltinCosts-table variant: same deduction,
// without a range_check operand (spec.md §4.5).
func emitWithdrawGasAll(ctx *EmitContext) error {
	gas := ctx.Inputs[0]
	cost := constant.NewInt(gasType(), int64(statementGasCost(ctx)))
	enough := ctx.Entry.NewICmp(enum.IPredUGE, gas, cost)
	remaining := ctx.Entry.NewSub(gas, cost)
	return ctx.Helper.CondBr(ctx.Entry, enough, 0, 1,
		[]value.Value{remaining},
		[]value.Value{gas})
}

// emitRedepositGas refunds the difference between a statically reserved
// amount and what a variable-cost libfunc actually consumed (spec.md
// §4.5).
func emitRedepositGas(ctx *EmitContext) error {
	gas := ctx.Inputs[0]
	refund := constant.NewInt(gasType(), int64(statementGasCost(ctx)))
	topped := ctx.Entry.NewAdd(gas, refund)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{topped})
}

// emitGetAvailableGas republishes the gas_builtin as both the threaded
// builtin and an inspectable felt252 value (spec.md §4.5).
func emitGetAvailableGas(ctx *EmitContext) error {
	gas := ctx.Inputs[0]
	asFelt := ctx.Entry.NewZExt(gas, feltType())
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{gas, asFelt})
}
