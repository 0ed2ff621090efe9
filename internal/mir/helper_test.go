package mir

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func TestHelperBrFillsSlotAndTerminates(t *testing.T) {
	mod := NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	target := fn.NewStatementBlock("target")
	slot := fn.Init.NewAlloca(types.I32)

	h := NewHelper("test_libfunc", fn, entry, []BranchTarget{{
		Target:  target,
		Mapping: []ArgSource{{Returned: 0}},
		Slots:   []value.Value{slot},
	}})

	if h.BranchArity() != 1 {
		t.Fatalf("BranchArity() = %d, want 1", h.BranchArity())
	}

	gotSlot, err := h.ResultSlot(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if gotSlot != value.Value(slot) {
		t.Error("ResultSlot should return the exact slot pointer handed in")
	}

	v := constant.NewInt(types.I32, 42)
	if err := h.Br(entry, 0, []value.Value{v}); err != nil {
		t.Fatalf("Br: %v", err)
	}

	// entry is now terminated; a second terminator attempt must fail.
	if err := h.Br(entry, 0, []value.Value{v}); err == nil {
		t.Error("expected InvariantViolation terminating an already-terminated block twice")
	}
}

func TestHelperBrWrongArity(t *testing.T) {
	mod := NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	target := fn.NewStatementBlock("target")
	slot := fn.Init.NewAlloca(types.I32)

	h := NewHelper("test_libfunc", fn, entry, []BranchTarget{{
		Target:  target,
		Mapping: []ArgSource{{Returned: 0}},
		Slots:   []value.Value{slot},
	}})

	if err := h.Br(entry, 0, nil); err == nil {
		t.Error("expected InvariantViolation on wrong result arity")
	}
}

func TestHelperResultSlotOutOfRange(t *testing.T) {
	mod := NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	_, entry := fn.NewEntry()

	h := NewHelper("test_libfunc", fn, entry, nil)
	if _, err := h.ResultSlot(0, 0); err == nil {
		t.Error("expected InvariantViolation resolving a branch index with no branches declared")
	}
}

func TestHelperCondBrFillsBothBranches(t *testing.T) {
	mod := NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	targetTrue := fn.NewStatementBlock("true_target")
	targetFalse := fn.NewStatementBlock("false_target")
	slotTrue := fn.Init.NewAlloca(types.I32)
	slotFalse := fn.Init.NewAlloca(types.I32)

	h := NewHelper("test_libfunc", fn, entry, []BranchTarget{
		{Target: targetTrue, Mapping: []ArgSource{{Returned: 0}}, Slots: []value.Value{slotTrue}},
		{Target: targetFalse, Mapping: []ArgSource{{Returned: 0}}, Slots: []value.Value{slotFalse}},
	})

	cond := constant.NewInt(types.I1, 1)
	vTrue := constant.NewInt(types.I32, 1)
	vFalse := constant.NewInt(types.I32, 0)
	if err := h.CondBr(entry, cond, 0, 1, []value.Value{vTrue}, []value.Value{vFalse}); err != nil {
		t.Fatalf("CondBr: %v", err)
	}

	// entry's own terminator is the CondBr; re-terminating must fail.
	if err := h.Br(entry, 0, []value.Value{vTrue}); err == nil {
		t.Error("expected InvariantViolation re-terminating entry after CondBr")
	}
}

func TestHelperAllocaLandsInInitBlock(t *testing.T) {
	mod := NewModule()
	fn := mod.NewFunction("test_fn", types.Void)
	init, entry := fn.NewEntry()
	init.NewBr(entry)

	h := NewHelper("test_libfunc", fn, entry, nil)
	slot := h.Alloca(types.I64)

	found := false
	for _, inst := range fn.Init.Insts {
		if inst == slot {
			found = true
		}
	}
	if !found {
		t.Error("Alloca should append its instruction to the function's init block")
	}
}
