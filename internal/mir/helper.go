package mir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

// InvariantViolation signals an emitter broke the helper's contract: wrong
// branch arity, missing result slot, or a block left without exactly one
// terminator (spec.md §4.3, §4.7). It indicates a compiler bug, not a
// user-facing error.
type InvariantViolation struct {
	Libfunc string
	Reason  string
}

func (e *InvariantViolation) Error() string {
	return errors.Errorf("invariant violation in libfunc %q: %s", e.Libfunc, e.Reason).Error()
}

// ArgSource is one entry of a branch's argument mapping (spec.md §4.3):
// either a pre-existing External value, or the k-th value the emitter
// Returned for this branch.
type ArgSource struct {
	External value.Value // non-nil when this argument predates the libfunc
	Returned int         // index into the emitter's per-branch result list; valid when External == nil
}

// BranchTarget pairs a branch's destination block with the slots backing
// its pushed variables and the mapping describing how to fill them.
type BranchTarget struct {
	Target  *ir.Block
	Mapping []ArgSource
	Slots   []value.Value // one alloca pointer per pushed variable, parallel to Mapping
}

// Helper wraps one statement's lowering frame, implementing the Libfunc
// Helper contract of spec.md §4.3. A Function Lowerer builds one Helper
// per invoke statement and hands it to the matching emitter.
type Helper struct {
	libfuncName string
	fn          *Function
	entry       *ir.Block
	branches    []BranchTarget
	extra       []*ir.Block
	terminated  map[*ir.Block]bool
}

// NewHelper builds a Helper for one invoke statement. branches must be
// supplied in declaration order, matching the statement's Branches list.
func NewHelper(libfuncName string, fn *Function, entry *ir.Block, branches []BranchTarget) *Helper {
	return &Helper{
		libfuncName: libfuncName,
		fn:          fn,
		entry:       entry,
		branches:    branches,
		terminated:  make(map[*ir.Block]bool),
	}
}

// EntryBlock is the block the emitter appends its operations to.
func (h *Helper) EntryBlock() *ir.Block { return h.entry }

// InitBlock is the prelude block for hoisted stack allocations (spec.md
// §4.3); emitters needing a temporary buffer call h.Alloca instead of
// allocating directly so every allocation lands here.
func (h *Helper) InitBlock() *ir.Block { return h.fn.Init }

// Alloca hoists a stack allocation for typ into the init block and
// returns the pointer, satisfying "allocations must not occur in loop
// bodies" (spec.md §4.3).
func (h *Helper) Alloca(typ types.Type) *ir.InstAlloca {
	return h.fn.Init.NewAlloca(typ)
}

// AppendBlock allocates a fresh intra-libfunc block, linked after the
// most recently appended one (spec.md §4.3 "append_block"). The llir
// function's block list preserves creation order, which is exactly the
// ordering guarantee spec.md §4.3/§9 "Deferred block insertion" asks for.
func (h *Helper) AppendBlock(name string) *ir.Block {
	b := h.fn.NewStatementBlock(name)
	h.extra = append(h.extra, b)
	return b
}

// BranchArity returns how many branches this invocation declares.
func (h *Helper) BranchArity() int { return len(h.branches) }

// ResultSlot returns the writable slot (an alloca pointer) for the k-th
// result of branch i (spec.md §4.3 "results[i][k]").
func (h *Helper) ResultSlot(branch, k int) (value.Value, error) {
	if branch < 0 || branch >= len(h.branches) {
		return nil, &InvariantViolation{h.libfuncName, "branch index out of range"}
	}
	bt := h.branches[branch]
	if k < 0 || k >= len(bt.Slots) {
		return nil, &InvariantViolation{h.libfuncName, "result index out of range"}
	}
	return bt.Slots[k], nil
}

// fillBranch stores values into the Returned slots of branch i, leaving
// External slots untouched (they were already written earlier in the
// function, per spec.md Ownership: each var has one permanent storage
// slot allocated once in the init block).
func (h *Helper) fillBranch(from *ir.Block, branch int, values []value.Value) error {
	if branch < 0 || branch >= len(h.branches) {
		return &InvariantViolation{h.libfuncName, "branch index out of range"}
	}
	bt := h.branches[branch]
	returnedCount := 0
	for _, m := range bt.Mapping {
		if m.External == nil {
			returnedCount++
		}
	}
	if returnedCount != len(values) {
		return &InvariantViolation{h.libfuncName, "branched with wrong arity"}
	}
	vi := 0
	for i, m := range bt.Mapping {
		if m.External != nil {
			continue
		}
		from.NewStore(values[vi], bt.Slots[i])
		vi++
	}
	return nil
}

// markTerminated enforces "exactly one terminator per emitted control
// path" (spec.md §4.3).
func (h *Helper) markTerminated(block *ir.Block) error {
	if h.terminated[block] {
		return &InvariantViolation{h.libfuncName, "block terminated more than once"}
	}
	h.terminated[block] = true
	return nil
}

// Br fills branch i's result slots with values and emits an unconditional
// jump from block to that branch's target (spec.md §4.3 "br").
func (h *Helper) Br(block *ir.Block, branch int, values []value.Value) error {
	if err := h.fillBranch(block, branch, values); err != nil {
		return err
	}
	if err := h.markTerminated(block); err != nil {
		return err
	}
	block.NewBr(h.branches[branch].Target)
	return nil
}

// CondBr fills both branches' slots as applicable and emits a conditional
// jump (spec.md §4.3 "cond_br"). valuesTrue/valuesFalse are each branch's
// published results.
func (h *Helper) CondBr(block *ir.Block, cond value.Value, branchTrue, branchFalse int, valuesTrue, valuesFalse []value.Value) error {
	// LLVM's conditional branch cannot itself carry per-edge stores, so
	// we materialize the stores via two small trampoline blocks, each
	// filling exactly one branch's slots before jumping on.
	trueTramp := h.fn.NewStatementBlock(h.libfuncName + ".cbr.true")
	falseTramp := h.fn.NewStatementBlock(h.libfuncName + ".cbr.false")
	h.extra = append(h.extra, trueTramp, falseTramp)

	if err := h.fillBranch(trueTramp, branchTrue, valuesTrue); err != nil {
		return err
	}
	if err := h.markTerminated(trueTramp); err != nil {
		return err
	}
	trueTramp.NewBr(h.branches[branchTrue].Target)

	if err := h.fillBranch(falseTramp, branchFalse, valuesFalse); err != nil {
		return err
	}
	if err := h.markTerminated(falseTramp); err != nil {
		return err
	}
	falseTramp.NewBr(h.branches[branchFalse].Target)

	if err := h.markTerminated(block); err != nil {
		return err
	}
	block.NewCondBr(cond, trueTramp, falseTramp)
	return nil
}

// SwitchCase pairs a matched integer tag with the branch it selects and
// that branch's published result values.
type SwitchCase struct {
	Tag    int64
	Branch int
	Values []value.Value
}

// Switch emits a multi-way dispatch on flag (spec.md §4.3 "switch"),
// used by enum_match and the signed overflowing add/sub family (the
// zero tests use CondBr). defaultBranch selects
// the branch taken when flag matches none of cases.
func (h *Helper) Switch(block *ir.Block, flag value.Value, flagType *types.IntType, defaultBranch int, defaultValues []value.Value, cases []SwitchCase) error {
	defaultTramp := h.fn.NewStatementBlock(h.libfuncName + ".switch.default")
	h.extra = append(h.extra, defaultTramp)
	if err := h.fillBranch(defaultTramp, defaultBranch, defaultValues); err != nil {
		return err
	}
	if err := h.markTerminated(defaultTramp); err != nil {
		return err
	}
	defaultTramp.NewBr(h.branches[defaultBranch].Target)

	llCases := make([]*ir.Case, 0, len(cases))
	for _, c := range cases {
		tramp := h.fn.NewStatementBlock(h.libfuncName + ".switch.case")
		h.extra = append(h.extra, tramp)
		if err := h.fillBranch(tramp, c.Branch, c.Values); err != nil {
			return err
		}
		if err := h.markTerminated(tramp); err != nil {
			return err
		}
		tramp.NewBr(h.branches[c.Branch].Target)
		llCases = append(llCases, ir.NewCase(constant.NewInt(flagType, c.Tag), tramp))
	}

	if err := h.markTerminated(block); err != nil {
		return err
	}
	block.NewSwitch(flag, defaultTramp, llCases...)
	return nil
}

// sanityCheckArity returns an InvariantViolation when got does not hold
// exactly want variables. It is unexported, so the emitters in
// internal/libfuncs do not call it.
func sanityCheckArity(libfunc string, want int, got []sierra.VarID) error {
	if len(got) != want {
		return &InvariantViolation{libfunc, "input arity mismatch"}
	}
	return nil
}
