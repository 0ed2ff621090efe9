package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

func init() {
	register("function_call", emitFunctionCall)
}

// emitFunctionCall lowers a call to another function in the same program
// (spec.md §4.4: "the function-call libfunc mirrors this" calling
// convention). The callee's ABI is a pure function of its own signature,
// so the emitter recomputes it here rather than consulting a precomputed
// table; internal/lower's LookupFunction reuses whatever *ir.Func this
// declares, whether the callee was already lowered, is being lowered
// right now (self/mutual recursion), or still lies ahead in program
// order (forward reference).
func emitFunctionCall(ctx *EmitContext) error {
	callee, err := ctx.Reg.FunctionOf(ctx.Libfunc.Variant.Callee)
	if err != nil {
		return err
	}

	paramTypes := make([]sierra.TypeID, len(callee.Params))
	for i, p := range callee.Params {
		paramTypes[i] = p.Type
	}
	sig := sierra.FunctionSignature{Params: paramTypes, Returns: callee.Returns}

	cc, err := mir.BuildCallConvention(ctx.TB, ctx.Reg, sig, ctx.PtrSize)
	if err != nil {
		return err
	}

	retType := cc.DirectReturn
	if cc.SRet {
		retType = types.Void
	}
	calleeFunc := runtimeFunc(ctx, callee.Name, retType, cc.MIRParamTypes...)

	var args []value.Value
	var sretPtr value.Value
	if cc.SRet {
		sretPtr = ctx.Helper.Alloca(cc.SRetType)
		args = append(args, sretPtr)
	}

	// ctx.Inputs holds one already-loaded value per sierra-level call
	// argument, 1:1 with cc.Params (elided builtins still occupy a
	// position there even though they never reach the MIR argument list).
	for i, p := range cc.Params {
		if p.Kind == mir.ParamElided {
			continue
		}
		in := ctx.Inputs[i]
		if p.Kind == mir.ParamPointer {
			slot := ctx.Helper.Alloca(in.Type())
			ctx.Entry.NewStore(in, slot)
			args = append(args, slot)
		} else {
			args = append(args, in)
		}
	}

	call := ctx.Entry.NewCall(calleeFunc, args...)

	var results []value.Value
	switch {
	case cc.SRet:
		sretStruct := cc.SRetType.(*types.StructType)
		for i := range cc.ReturnOffsets {
			fieldPtr := ctx.Entry.NewGetElementPtr(cc.SRetType, sretPtr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
			results = append(results, ctx.Entry.NewLoad(sretStruct.Fields[i], fieldPtr))
		}
	case cc.DirectReturn != types.Void:
		results = append(results, call)
	}

	return ctx.Helper.Br(ctx.Entry, 0, results)
}
