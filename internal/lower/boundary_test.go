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

// fibProgram builds the tail-recursive shape of spec.md §8's boundary
// scenario "fib(n=10) -> fib(0,1,10) must return 55":
//
//	fn fib(a, b, n) -> felt252 {
//	    if n == 0 { return a }
//	    return fib(b, a + b, n - 1)
//	}
func fibProgram() *sierra.Program {
	felt := sierra.TypeID(0)
	return &sierra.Program{
		Types: []sierra.ConcreteType{{ID: felt, Kind: sierra.TypeFelt252}},
		Libfuncs: []sierra.ConcreteLibfunc{
			{ID: 0, GenericName: "felt252_is_zero", Branches: []sierra.BranchSignature{{}, {VarTypes: []sierra.TypeID{felt}}}},
			{ID: 1, GenericName: "felt252_const", Variant: sierra.LibfuncVariant{ConstValue: big.NewInt(1)}, Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 2, GenericName: "felt252_add", Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 3, GenericName: "felt252_sub", Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 4, GenericName: "function_call", Variant: sierra.LibfuncVariant{Callee: 0}, Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
		},
		Statements: []sierra.Statement{
			{Invoke: &sierra.InvokeStatement{ // 0: is_zero(n)
				Libfunc: 0, Inputs: []sierra.VarID{2},
				Branches: []sierra.Branch{{Target: 1, Pushed: nil}, {Target: 2, Pushed: []sierra.VarID{3}}},
			}},
			{Return: &sierra.ReturnStatement{Inputs: []sierra.VarID{0}}}, // 1: return a
			{Invoke: &sierra.InvokeStatement{ // 2: one = const(1)
				Libfunc: 1, Inputs: nil,
				Branches: []sierra.Branch{{Target: 3, Pushed: []sierra.VarID{4}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 3: sum = a + b
				Libfunc: 2, Inputs: []sierra.VarID{0, 1},
				Branches: []sierra.Branch{{Target: 4, Pushed: []sierra.VarID{5}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 4: n1 = n_nz - one
				Libfunc: 3, Inputs: []sierra.VarID{3, 4},
				Branches: []sierra.Branch{{Target: 5, Pushed: []sierra.VarID{6}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 5: result = fib(b, sum, n1)
				Libfunc: 4, Inputs: []sierra.VarID{1, 5, 6},
				Branches: []sierra.Branch{{Target: 6, Pushed: []sierra.VarID{7}}},
			}},
			{Return: &sierra.ReturnStatement{Inputs: []sierra.VarID{7}}}, // 6: return result
		},
		Functions: []sierra.Function{
			{ID: 0, Name: "fib", Entry: 0,
				Params:  []sierra.TypedVar{{Var: 0, Type: felt}, {Var: 1, Type: felt}, {Var: 2, Type: felt}},
				Returns: []sierra.TypeID{felt}},
		},
	}
}

// factorialProgram builds spec.md §8's "factorial(n=13) must return
// 6227020800" boundary scenario:
//
//	fn factorial(n) -> felt252 {
//	    if n == 0 { return 1 }
//	    return n * factorial(n - 1)
//	}
func factorialProgram() *sierra.Program {
	felt := sierra.TypeID(0)
	return &sierra.Program{
		Types: []sierra.ConcreteType{{ID: felt, Kind: sierra.TypeFelt252}},
		Libfuncs: []sierra.ConcreteLibfunc{
			{ID: 0, GenericName: "felt252_is_zero", Branches: []sierra.BranchSignature{{}, {VarTypes: []sierra.TypeID{felt}}}},
			{ID: 1, GenericName: "felt252_const", Variant: sierra.LibfuncVariant{ConstValue: big.NewInt(1)}, Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 2, GenericName: "felt252_const", Variant: sierra.LibfuncVariant{ConstValue: big.NewInt(1)}, Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 3, GenericName: "felt252_sub", Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 4, GenericName: "function_call", Variant: sierra.LibfuncVariant{Callee: 0}, Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
			{ID: 5, GenericName: "felt252_mul", Branches: []sierra.BranchSignature{{VarTypes: []sierra.TypeID{felt}}}},
		},
		Statements: []sierra.Statement{
			{Invoke: &sierra.InvokeStatement{ // 0: is_zero(n)
				Libfunc: 0, Inputs: []sierra.VarID{0},
				Branches: []sierra.Branch{{Target: 1, Pushed: nil}, {Target: 3, Pushed: []sierra.VarID{1}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 1: one_a = const(1)
				Libfunc: 1, Inputs: nil,
				Branches: []sierra.Branch{{Target: 2, Pushed: []sierra.VarID{2}}},
			}},
			{Return: &sierra.ReturnStatement{Inputs: []sierra.VarID{2}}}, // 2: return 1
			{Invoke: &sierra.InvokeStatement{ // 3: one_b = const(1)
				Libfunc: 2, Inputs: nil,
				Branches: []sierra.Branch{{Target: 4, Pushed: []sierra.VarID{3}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 4: n1 = n_nz - one_b
				Libfunc: 3, Inputs: []sierra.VarID{1, 3},
				Branches: []sierra.Branch{{Target: 5, Pushed: []sierra.VarID{4}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 5: rec = factorial(n1)
				Libfunc: 4, Inputs: []sierra.VarID{4},
				Branches: []sierra.Branch{{Target: 6, Pushed: []sierra.VarID{5}}},
			}},
			{Invoke: &sierra.InvokeStatement{ // 6: product = n_nz * rec
				Libfunc: 5, Inputs: []sierra.VarID{1, 5},
				Branches: []sierra.Branch{{Target: 7, Pushed: []sierra.VarID{6}}},
			}},
			{Return: &sierra.ReturnStatement{Inputs: []sierra.VarID{6}}}, // 7: return product
		},
		Functions: []sierra.Function{
			{ID: 0, Name: "factorial", Entry: 0,
				Params:  []sierra.TypedVar{{Var: 0, Type: felt}},
				Returns: []sierra.TypeID{felt}},
		},
	}
}

// TestLowerFibBoundaryScenario is the core-lowering half of spec.md §8's
// fib(n=10) boundary scenario: without a working function_call emitter
// this program cannot compile at all, since fib calls itself. Actually
// running fib(0,1,10) and checking it equals 55 requires the real LLVM
// toolchain and dynamic loader, out of reach in this environment — this
// test instead confirms the self-recursive call lowers to a single
// reused MIR function with every block terminated.
func TestLowerFibBoundaryScenario(t *testing.T) {
	prog := fibProgram()
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, 8, false)
	mod := mir.NewModule()
	lw := New(reg, tb, meta, mod, 8)

	mfn, err := lw.LowerFunction(&prog.Functions[0])
	if err != nil {
		t.Fatalf("LowerFunction(fib): %v", err)
	}
	for _, b := range mfn.Blocks {
		if b.Term == nil {
			t.Errorf("block %s has no terminator", b.Name())
		}
	}

	count := 0
	for _, f := range mod.Module.Funcs {
		if f.Name() == "fib" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one declared fib function (self-recursive call reused it), got %d", count)
	}
}

// TestLowerFactorialBoundaryScenario is the core-lowering half of
// spec.md §8's factorial(n=13) boundary scenario (see TestLowerFibBoundaryScenario
// for why only lowering, not execution, is checked here).
func TestLowerFactorialBoundaryScenario(t *testing.T) {
	prog := factorialProgram()
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, 8, false)
	mod := mir.NewModule()
	lw := New(reg, tb, meta, mod, 8)

	mfn, err := lw.LowerFunction(&prog.Functions[0])
	if err != nil {
		t.Fatalf("LowerFunction(factorial): %v", err)
	}
	for _, b := range mfn.Blocks {
		if b.Term == nil {
			t.Errorf("block %s has no terminator", b.Name())
		}
	}

	count := 0
	for _, f := range mod.Module.Funcs {
		if f.Name() == "factorial" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one declared factorial function (self-recursive call reused it), got %d", count)
	}
}
