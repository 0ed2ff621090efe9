// Package lower implements the Function Lowerer (spec.md §4.3/§4.4): it
// walks one source function's statement graph breadth-first from its
// entry statement (a worklist of branch targets), gives
// every SSA variable a permanent stack slot (spec.md §5 "Ownership"),
// and drives internal/libfuncs' emitters through internal/mir's Helper
// for each invoke statement.
package lower

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/libfuncs"
	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/runtime"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

// Lowerer holds the collaborators shared across every function in one
// compilation (spec.md §4.1/§4.2 Program Registry and Metadata Storage).
type Lowerer struct {
	reg     *registry.Registry
	tb      *typebuilder.Builder
	meta    *metadata.Storage
	mod     *mir.Module
	ptrSize int64
}

// New builds a Lowerer over an already-built registry and type builder.
func New(reg *registry.Registry, tb *typebuilder.Builder, meta *metadata.Storage, mod *mir.Module, ptrSize int64) *Lowerer {
	return &Lowerer{reg: reg, tb: tb, meta: meta, mod: mod, ptrSize: ptrSize}
}

// varState is everything the lowerer remembers about one source variable
// once its slot has been materialized.
type varState struct {
	slot value.Value
	typ  sierra.TypeID
	mir  types.Type
}

// frame is the per-function lowering state: statement block cache, var
// storage, and the pending-statement worklist.
type frame struct {
	fn       *mir.Function
	vars     map[sierra.VarID]*varState
	blocks   map[sierra.StatementIdx]*ir.Block
	visited  map[sierra.StatementIdx]bool
	worklist []sierra.StatementIdx
}

func (fr *frame) ensureBlock(idx sierra.StatementIdx) *ir.Block {
	if b, ok := fr.blocks[idx]; ok {
		return b
	}
	b := fr.fn.NewStatementBlock(fmt.Sprintf("stmt%d", idx))
	fr.blocks[idx] = b
	return b
}

func (fr *frame) enqueue(idx sierra.StatementIdx) {
	if !fr.visited[idx] {
		fr.worklist = append(fr.worklist, idx)
		fr.visited[idx] = true
	}
}

// LowerFunction builds the MIR function for one source function
// (spec.md §4.3 "Function Lowerer").
func (l *Lowerer) LowerFunction(fn *sierra.Function) (*mir.Function, error) {
	params := make([]sierra.TypeID, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	sig := sierra.FunctionSignature{Params: params, Returns: fn.Returns}

	cc, err := mir.BuildCallConvention(l.tb, l.reg, sig, l.ptrSize)
	if err != nil {
		return nil, errors.Wrapf(err, "building calling convention for function %s", fn.Name)
	}

	retType := cc.DirectReturn
	if cc.SRet {
		retType = types.Void
	}

	// A function_call libfunc lowered earlier (forward reference, or this
	// function's own recursive call) may have already declared this name
	// as an external stub; reuse it rather than declaring a duplicate
	// symbol (spec.md §4.4).
	var mfn *mir.Function
	var mirParams []*ir.Param
	if existing, ok := l.mod.LookupFunction(fn.Name); ok {
		mfn = &mir.Function{Func: existing}
		mirParams = existing.Params
	} else {
		mirParams = make([]*ir.Param, len(cc.MIRParamTypes))
		for i, t := range cc.MIRParamTypes {
			mirParams[i] = ir.NewParam(fmt.Sprintf("p%d", i), t)
		}
		mfn = l.mod.NewFunction(fn.Name, retType, mirParams...)
	}
	init, entry := mfn.NewEntry()
	init.NewBr(entry)

	fr := &frame{
		fn:      mfn,
		vars:    make(map[sierra.VarID]*varState),
		blocks:  map[sierra.StatementIdx]*ir.Block{fn.Entry: entry},
		visited: map[sierra.StatementIdx]bool{fn.Entry: true},
	}
	fr.worklist = []sierra.StatementIdx{fn.Entry}

	if err := l.seedParams(fr, fn, cc, mirParams); err != nil {
		return nil, err
	}

	for len(fr.worklist) > 0 {
		idx := fr.worklist[0]
		fr.worklist = fr.worklist[1:]
		if err := l.lowerStatement(fr, fn, cc, mirParams, idx); err != nil {
			return nil, errors.Wrapf(err, "lowering statement %d of function %s", idx, fn.Name)
		}
	}
	return mfn, nil
}

// seedParams gives every function parameter its permanent slot: direct
// params get a fresh alloca initialized from the incoming value, pointer
// params use the incoming pointer as the slot directly, elided builtin
// params get a phantom zero-valued slot so later statements can still
// load/store through them uniformly (spec.md §4.4).
func (l *Lowerer) seedParams(fr *frame, fn *sierra.Function, cc *mir.CallConvention, mirParams []*ir.Param) error {
	for i, p := range fn.Params {
		ccParam := cc.Params[i]
		built, err := l.tb.Build(p.Type)
		if err != nil {
			return err
		}
		switch ccParam.Kind {
		case mir.ParamElided:
			slot := fr.fn.Init.NewAlloca(built.MIR)
			fr.vars[p.Var] = &varState{slot: slot, typ: p.Type, mir: built.MIR}
		case mir.ParamPointer:
			fr.vars[p.Var] = &varState{slot: mirParams[ccParam.MIRIndex], typ: p.Type, mir: built.MIR}
		default: // ParamDirect
			slot := fr.fn.Init.NewAlloca(built.MIR)
			fr.fn.Init.NewStore(mirParams[ccParam.MIRIndex], slot)
			fr.vars[p.Var] = &varState{slot: slot, typ: p.Type, mir: built.MIR}
		}
	}
	return nil
}

func (l *Lowerer) lowerStatement(fr *frame, fn *sierra.Function, cc *mir.CallConvention, mirParams []*ir.Param, idx sierra.StatementIdx) error {
	stmt, err := l.reg.Statement(idx)
	if err != nil {
		return err
	}
	block := fr.ensureBlock(idx)
	l.emitTraceDump(fr, block, idx)

	if stmt.Return != nil {
		return l.lowerReturn(fr, fn, cc, mirParams, block, stmt.Return)
	}
	return l.lowerInvoke(fr, block, idx, stmt.Invoke)
}

func (l *Lowerer) lowerReturn(fr *frame, fn *sierra.Function, cc *mir.CallConvention, mirParams []*ir.Param, block *ir.Block, ret *sierra.ReturnStatement) error {
	var nonElided []value.Value
	vi := 0
	for i := range fn.Returns {
		if cc.ReturnKinds[i] {
			continue
		}
		v, err := l.loadVar(fr, block, ret.Inputs[vi])
		if err != nil {
			return err
		}
		nonElided = append(nonElided, v)
		vi++
	}

	switch {
	case cc.SRet:
		sretPtr := mirParams[0]
		for i, v := range nonElided {
			fieldPtr := block.NewGetElementPtr(cc.SRetType, sretPtr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
			block.NewStore(v, fieldPtr)
		}
		block.NewRet(nil)
	case cc.DirectReturn == types.Void:
		block.NewRet(nil)
	default:
		block.NewRet(nonElided[0])
	}
	return nil
}

func (l *Lowerer) lowerInvoke(fr *frame, block *ir.Block, idx sierra.StatementIdx, inv *sierra.InvokeStatement) error {
	libfunc, err := l.reg.LibfuncOf(inv.Libfunc)
	if err != nil {
		return err
	}

	inputs := make([]value.Value, len(inv.Inputs))
	inputSlots := make([]value.Value, len(inv.Inputs))
	for i, v := range inv.Inputs {
		val, err := l.loadVar(fr, block, v)
		if err != nil {
			return err
		}
		inputs[i] = val
		inputSlots[i] = fr.vars[v].slot
	}

	branchTargets := make([]mir.BranchTarget, len(inv.Branches))
	for bi, br := range inv.Branches {
		var sig sierra.BranchSignature
		if bi < len(libfunc.Branches) {
			sig = libfunc.Branches[bi]
		}
		slots := make([]value.Value, len(br.Pushed))
		mapping := make([]mir.ArgSource, len(br.Pushed))
		for k, v := range br.Pushed {
			var typ sierra.TypeID
			if k < len(sig.VarTypes) {
				typ = sig.VarTypes[k]
			}
			built, err := l.tb.Build(typ)
			if err != nil {
				return err
			}
			slot := fr.fn.Init.NewAlloca(built.MIR)
			fr.vars[v] = &varState{slot: slot, typ: typ, mir: built.MIR}
			slots[k] = slot
			mapping[k] = mir.ArgSource{Returned: k}
		}
		target := fr.ensureBlock(br.Target)
		fr.enqueue(br.Target)
		branchTargets[bi] = mir.BranchTarget{Target: target, Mapping: mapping, Slots: slots}
	}

	helper := mir.NewHelper(libfunc.GenericName, fr.fn, block, branchTargets)
	ctx := &libfuncs.EmitContext{
		Reg: l.reg, TB: l.tb, Meta: l.meta,
		Fn: fr.fn, Entry: block, Helper: helper,
		Statement: idx, Libfunc: libfunc,
		Inputs: inputs, InputSlots: inputSlots,
		PtrSize: l.ptrSize,
	}
	return libfuncs.Emit(ctx)
}

// emitTraceDump calls the runtime trace hook with the statement index
// before lowering it, when metadata.TraceDump is present and enabled
// (SPEC_FULL.md §10, grounded on original_source/src/metadata/trace_dump.rs).
func (l *Lowerer) emitTraceDump(fr *frame, block *ir.Block, idx sierra.StatementIdx) {
	td, ok := metadata.Get[metadata.TraceDump](l.meta)
	if !ok || !td.Enabled {
		return
	}
	sym := td.Symbol
	if sym == "" {
		sym = runtime.SymTraceDump
	}
	mod := fr.fn.Func.Parent
	var callee *ir.Func
	for _, f := range mod.Funcs {
		if f.Name() == sym {
			callee = f
			break
		}
	}
	if callee == nil {
		callee = mod.NewFunc(sym, types.Void, ir.NewParam("", types.I64))
	}
	block.NewCall(callee, constant.NewInt(types.I64, int64(idx)))
}

func (l *Lowerer) loadVar(fr *frame, block *ir.Block, v sierra.VarID) (value.Value, error) {
	vs, ok := fr.vars[v]
	if !ok {
		return nil, errors.Errorf("variable %d read before it was ever pushed", v)
	}
	return block.NewLoad(vs.mir, vs.slot), nil
}
