package lower

import (
	"math/big"
	"testing"

	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

// constAddProgram builds: fn main() -> felt252 { v0 = felt252_const<2>();
// v1 = felt252_const<3>(); v2 = felt252_add(v0, v1); return v2; }
func constAddProgram() *sierra.Program {
	felt := sierra.TypeID(0)
	return &sierra.Program{
		Types: []sierra.ConcreteType{{ID: felt, Kind: sierra.TypeFelt252}},
		Libfuncs: []sierra.ConcreteLibfunc{
			{
				ID: 0, GenericName: "felt252_const",
				Variant:  sierra.LibfuncVariant{ConstValue: big.NewInt(2)},
				Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}},
			},
			{
				ID: 1, GenericName: "felt252_const",
				Variant:  sierra.LibfuncVariant{ConstValue: big.NewInt(3)},
				Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}},
			},
			{
				ID: 2, GenericName: "felt252_add",
				Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}},
			},
		},
		Statements: []sierra.Statement{
			{Invoke: &sierra.InvokeStatement{
				Libfunc: 0, Inputs: nil,
				Branches: []sierra.Branch{{Target: 1, Pushed: []sierra.VarID{0}}},
			}},
			{Invoke: &sierra.InvokeStatement{
				Libfunc: 1, Inputs: nil,
				Branches: []sierra.Branch{{Target: 2, Pushed: []sierra.VarID{1}}},
			}},
			{Invoke: &sierra.InvokeStatement{
				Libfunc: 2, Inputs: []sierra.VarID{0, 1},
				Branches: []sierra.Branch{{Target: 3, Pushed: []sierra.VarID{2}}},
			}},
			{Return: &sierra.ReturnStatement{Inputs: []sierra.VarID{2}}},
		},
		Functions: []sierra.Function{
			{ID: 0, Name: "main", Entry: 0, Returns: []sierra.TypeID{felt}},
		},
	}
}

func TestLowerFunctionConstAdd(t *testing.T) {
	prog := constAddProgram()
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, 8, false)
	mod := mir.NewModule()
	lw := New(reg, tb, meta, mod, 8)

	mfn, err := lw.LowerFunction(&prog.Functions[0])
	if err != nil {
		t.Fatalf("LowerFunction: %v", err)
	}

	if mfn.Name() != "main" {
		t.Errorf("function name = %s, want main", mfn.Name())
	}

	// init, entry (stmt0), plus one block per branch-target statement
	// (stmt1, stmt2, stmt3) = 5 blocks total.
	if got := len(mfn.Blocks); got < 5 {
		t.Errorf("expected at least 5 blocks (init, entry, stmt1, stmt2, stmt3), got %d", got)
	}

	for _, b := range mfn.Blocks {
		if b.Term == nil {
			t.Errorf("block %s has no terminator", b.Name())
		}
	}
}

func TestLowerFunctionUnsupportedLibfunc(t *testing.T) {
	prog := constAddProgram()
	prog.Libfuncs[2].GenericName = "not_a_real_libfunc"
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, 8, false)
	mod := mir.NewModule()
	lw := New(reg, tb, meta, mod, 8)

	if _, err := lw.LowerFunction(&prog.Functions[0]); err == nil {
		t.Error("expected an error lowering a statement invoking an unregistered libfunc")
	}
}

func TestLowerFunctionEmitsTraceDumpWhenEnabled(t *testing.T) {
	prog := constAddProgram()
	reg := registry.Build(prog)
	meta := metadata.New()
	metadata.Insert(meta, metadata.TraceDump{Enabled: true})
	tb := typebuilder.New(reg, meta, 8, false)
	mod := mir.NewModule()
	lw := New(reg, tb, meta, mod, 8)

	if _, err := lw.LowerFunction(&prog.Functions[0]); err != nil {
		t.Fatalf("LowerFunction: %v", err)
	}

	found := false
	for _, f := range mod.Module.Funcs {
		if f.Name() == "cairo_native__trace_dump" {
			found = true
		}
	}
	if !found {
		t.Error("expected a declared call to the trace dump runtime symbol")
	}
}
