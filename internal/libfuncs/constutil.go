package libfuncs

import (
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// bigIntConst builds an arbitrary-width integer constant from a big.Int,
// routing through llir/llvm's decimal-string parser since constant.NewInt
// only accepts an int64 payload and felt252/u128/circuit-limb constants
// regularly exceed that range.
func bigIntConst(typ *types.IntType, v *big.Int) *constant.Int {
	c, err := constant.NewIntFromString(typ, v.String())
	if err != nil {
		panic(err)
	}
	return c
}

// runtimeFunc declares (or reuses) an external function reference for a
// runtime-ABI symbol (spec.md §4.8), used by emitters that call into the
// runtime library rather than emitting inline MIR.
func runtimeFunc(ctx *EmitContext, name string, retType types.Type, paramTypes ...types.Type) *ir.Func {
	mod := ctx.Fn.Func.Parent
	for _, f := range mod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	params := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = ir.NewParam("", pt)
	}
	f := mod.NewFunc(name, retType, params...)
	f.Linkage = 0 // external declaration; no body appended
	return f
}
