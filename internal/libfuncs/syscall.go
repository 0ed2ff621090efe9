// Grounded on spec.md §4.6 "Syscall dispatch": every syscall shares one
// calling shape — pack arguments into a stack buffer, hand a vtable slot
// plus in/out pointers to a single runtime trampoline, unpack results on
// success or a revert-reason array on failure. original_source/src/
// starknet.rs defines one struct-per-syscall and a shared invoke_syscall
// helper; we fold that into emitSyscall below instead of hand-writing a
// dispatch per syscall.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/runtime"
)

func init() {
	register("storage_read", makeSyscall("storage_read", []types.Type{feltType()}))
	register("storage_write", makeSyscall("storage_write", nil))
}

func syscallSlot(ctx *EmitContext, name string) int32 {
	sh, ok := metadata.Get[metadata.SyscallHandler](ctx.Meta)
	if ok {
		if slot, ok := sh.VTableSlot[name]; ok {
			return int32(slot)
		}
	}
	return int32(runtime.VTableSlot[name])
}

// makeSyscall builds the uniform emitter for one syscall name, given the
// MIR types of its success-branch extra results (beyond the threaded
// gas_builtin/system pair).
func makeSyscall(name string, resultTypes []types.Type) Emitter {
	return func(ctx *EmitContext) error {
		gas, system := ctx.Inputs[0], ctx.Inputs[1]
		args := ctx.Inputs[2:]

		argTypes := make([]types.Type, len(args))
		for i, a := range args {
			argTypes[i] = a.Type()
		}
		inTy := types.NewStruct(argTypes...)
		inSlot := ctx.Helper.Alloca(inTy)
		for i, a := range args {
			fieldPtr := ctx.Entry.NewGetElementPtr(inTy, inSlot, intConst(0), intConst(int64(i)))
			ctx.Entry.NewStore(a, fieldPtr)
		}

		outTy := types.NewStruct(append(append([]types.Type{}, resultTypes...), arrayDescType())...)
		outSlot := ctx.Helper.Alloca(outTy)

		dispatch := runtimeFunc(ctx, "cairo_native__syscall_dispatch", types.I1,
			types.NewPointer(types.I8), types.I32, types.NewPointer(types.I8), types.NewPointer(types.I8))
		ok := ctx.Entry.NewCall(dispatch, system, constant.NewInt(types.I32, int64(syscallSlot(ctx, name))), inSlot, outSlot)

		okVals := []value.Value{system, gas}
		for i := range resultTypes {
			fieldPtr := ctx.Entry.NewGetElementPtr(outTy, outSlot, intConst(0), intConst(int64(i)))
			okVals = append(okVals, ctx.Entry.NewLoad(resultTypes[i], fieldPtr))
		}

		revertPtr := ctx.Entry.NewGetElementPtr(outTy, outSlot, intConst(0), intConst(int64(len(resultTypes))))
		revert := ctx.Entry.NewLoad(arrayDescType(), revertPtr)
		errVals := []value.Value{system, gas, revert}

		return ctx.Helper.CondBr(ctx.Entry, ok, 0, 1, okVals, errVals)
	}
}
