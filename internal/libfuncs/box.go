// Grounded on spec.md §4.5 "Box": Box<T> is a single owning heap pointer,
// typebuilder.go gives it the opaque i8* representation also used for
// Nullable<T>, so these two emitters are just an allocate+store and a
// load+bitcast.
package libfuncs

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lambdaclass/cairo-native-go/internal/runtime"
)

func init() {
	register("into_box", emitIntoBox)
	register("unbox", emitUnbox)
}

// emitIntoBox allocates heap storage via the runtime allocator, stores
// the value, and publishes the pointer as the boxed result (spec.md
// §4.5).
func emitIntoBox(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	allocCallee := runtimeFunc(ctx, runtime.SymAlloc, types.NewPointer(types.I8), types.I64)
	size := constant.NewInt(types.I64, elem.Layout.Size)
	raw := ctx.Entry.NewCall(allocCallee, size)
	typed := ctx.Entry.NewBitCast(raw, types.NewPointer(elem.MIR))
	ctx.Entry.NewStore(ctx.Inputs[0], typed)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{raw})
}

// emitUnbox loads the pointee out of the boxed pointer, handing back the
// value directly (ownership of the box itself is the function lowerer's
// concern, per spec.md §5 "Ownership" — ordinary unbox does not free).
func emitUnbox(ctx *EmitContext) error {
	elem, err := arrayElem(ctx)
	if err != nil {
		return err
	}
	typed := ctx.Entry.NewBitCast(ctx.Inputs[0], types.NewPointer(elem.MIR))
	loaded := ctx.Entry.NewLoad(elem.MIR, typed)
	return ctx.Helper.Br(ctx.Entry, 0, []value.Value{loaded})
}
