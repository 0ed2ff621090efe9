// Package executor is the public entry point (spec.md §6 "External
// Interfaces"): Compile turns a source IR program into a loadable
// native module, Execute runs one of its functions, and Quick collapses
// both into a single call for the common one-shot case (supplementing
// original_source/src/ffi.rs's easy, non-builder API surface).
package executor

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lambdaclass/cairo-native-go/internal/codegen"
	"github.com/lambdaclass/cairo-native-go/internal/config"
	"github.com/lambdaclass/cairo-native-go/internal/linker"
	"github.com/lambdaclass/cairo-native-go/internal/lower"
	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/runtime"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

// CompiledModule is a linked, on-disk shared object ready to be loaded
// and executed (spec.md §6), plus the collaborators Execute/Signature/
// RequiredInitialGas need to reason about a function's ABI without
// re-lowering it.
type CompiledModule struct {
	SoPath     string
	ScratchDir string
	Functions  map[string]*sierra.Function

	reg  *registry.Registry
	tb   *typebuilder.Builder
	meta *metadata.Storage

	exe *linker.Executable
}

// Handler is the caller-supplied syscall callback surface threaded
// through Execute (spec.md §6 "execute(module, function_id, args, gas,
// handler)"). The vtable slots it must answer are metadata.SyscallHandler's
// (spec.md §4.6); wiring a live Handler across the cgo call boundary into
// emitted code's syscall_dispatch trampoline is recorded as an open item
// in DESIGN.md rather than built here — internal/linker.Executable.Call
// only marshals up to four scalar uintptr arguments today, with no
// channel for a Go-side callback to answer a native call mid-execution.
type Handler interface{}

// Arg is one function-call argument at the Executor's stable boundary: a
// native-ABI word paired with the sierra type it is declared to carry,
// so Execute can catch a TypeMismatch before ever touching dlsym.
type Arg struct {
	Type  sierra.TypeID
	Value uintptr
}

// ExecutionResult mirrors spec.md §6's `{remaining_gas, return_value,
// builtin_stats}` shape. RemainingGas is nil when the module carries no
// metadata.GasCosts (gas metering opted out entirely, so there is
// nothing to report); BuiltinStats counts the automatically-elided
// builtin parameters the call's calling convention routed around, keyed
// by the source type name spec.md §4.5 assigns them.
type ExecutionResult struct {
	RemainingGas *uint64
	ReturnValue  uintptr
	BuiltinStats map[string]uint64
}

// ArityMismatchError is returned by Execute when the caller supplies the
// wrong number of arguments (spec.md §8 "Negative tests").
type ArityMismatchError struct {
	Function string
	Want     int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	return errors.Errorf("%s: expected %d arguments, got %d", e.Function, e.Want, e.Got).Error()
}

// TypeMismatchError is returned by Execute when an argument's declared
// type doesn't match the function's parameter type at that position
// (spec.md §8 "Negative tests").
type TypeMismatchError struct {
	Function string
	Index    int
	Want     sierra.TypeID
	Got      sierra.TypeID
}

func (e *TypeMismatchError) Error() string {
	return errors.Errorf("%s: argument %d: expected type %d, got %d", e.Function, e.Index, e.Want, e.Got).Error()
}

// Compile runs the full pipeline: Program Registry → Metadata Storage →
// per-function lowering → Object Builder → Linker (spec.md §2 System
// Overview).
func Compile(prog *sierra.Program, cfg *config.Config, log *logrus.Logger) (*CompiledModule, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	reg := registry.Build(prog)
	meta := newDefaultMetadata(log)
	tb := typebuilder.New(reg, meta, cfg.PointerSize, cfg.NonX86_64)
	mod := mir.NewModule()
	lw := lower.New(reg, tb, meta, mod, cfg.PointerSize)

	functions := make(map[string]*sierra.Function, len(prog.Functions))
	for i := range prog.Functions {
		fn := &prog.Functions[i]
		if _, err := lw.LowerFunction(fn); err != nil {
			return nil, errors.Wrapf(err, "compiling function %s", fn.Name)
		}
		functions[fn.Name] = fn
	}

	dir, err := os.MkdirTemp("", "cairo-native-go-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating scratch directory")
	}

	objPath := dir + "/module.o"
	cg := codegen.New(cfg, log)
	if err := cg.WriteObject(mod, dir, objPath); err != nil {
		return nil, err
	}

	archivePath, err := linker.WriteArchive(dir)
	if err != nil {
		return nil, err
	}
	if err := linker.VerifySymbols(archivePath, runtime.AllSymbols); err != nil {
		return nil, err
	}
	soPath := dir + "/module.so"
	if err := linker.Link(objPath, soPath, archivePath); err != nil {
		return nil, err
	}

	return &CompiledModule{
		SoPath: soPath, ScratchDir: dir, Functions: functions,
		reg: reg, tb: tb, meta: meta,
	}, nil
}

// newDefaultMetadata builds the metadata scratchpad every compilation
// seeds with (spec.md §4.2): the field prime, fixed runtime ABI symbol
// names, and a logger (ambient, not domain, but threaded the same way).
func newDefaultMetadata(log *logrus.Logger) *metadata.Storage {
	m := metadata.New()
	metadata.Insert(m, metadata.PrimeModulo{Prime: metadata.DefaultPrime()})
	metadata.Insert(m, metadata.DefaultRuntimeSymbols())
	if log == nil {
		log = logrus.New()
	}
	metadata.Insert(m, metadata.Logger{Logger: log})
	return m
}

// Load dlopens the compiled shared object, caching the handle on cm for
// reuse across multiple Execute calls.
func (cm *CompiledModule) Load() error {
	if cm.exe != nil {
		return nil
	}
	exe, err := linker.Load(cm.SoPath)
	if err != nil {
		return err
	}
	cm.exe = exe
	return nil
}

// Close releases the loaded shared object and scratch directory.
func (cm *CompiledModule) Close() error {
	if cm.exe != nil {
		if err := cm.exe.Close(); err != nil {
			return err
		}
		cm.exe = nil
	}
	return os.RemoveAll(cm.ScratchDir)
}

// Signature returns a function's declared parameter and return types
// (spec.md §6 "CompiledModule.signature(function_id)").
func (cm *CompiledModule) Signature(functionName string) ([]sierra.TypeID, []sierra.TypeID, error) {
	fn, ok := cm.Functions[functionName]
	if !ok {
		return nil, nil, errors.Errorf("unknown function %q", functionName)
	}
	params := make([]sierra.TypeID, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Type
	}
	return params, fn.Returns, nil
}

// RequiredInitialGas sums the static statement-level gas costs
// (metadata.GasCosts) reachable from functionName's entry statement
// (spec.md §6 "CompiledModule.required_initial_gas(function_id)"). The
// second return is false when the compilation carries no gas metadata
// at all, matching the `u64?` optional result: gas metering is opt-in,
// not every compiled module pays for it.
func (cm *CompiledModule) RequiredInitialGas(functionName string) (uint64, bool) {
	fn, ok := cm.Functions[functionName]
	if !ok {
		return 0, false
	}
	costs, ok := metadata.Get[metadata.GasCosts](cm.meta)
	if !ok {
		return 0, false
	}

	var total uint64
	visited := map[sierra.StatementIdx]bool{}
	worklist := []sierra.StatementIdx{fn.Entry}
	for len(worklist) > 0 {
		idx := worklist[0]
		worklist = worklist[1:]
		if visited[idx] {
			continue
		}
		visited[idx] = true
		total += costs.CostOf(idx)

		stmt, err := cm.reg.Statement(idx)
		if err != nil {
			continue
		}
		if stmt.Invoke != nil {
			for _, br := range stmt.Invoke.Branches {
				worklist = append(worklist, br.Target)
			}
		}
	}
	return total, true
}

// Execute calls a compiled function by name, validating arity and
// argument types against its declared signature before ever resolving a
// native symbol (spec.md §6 "execute(module, function_id, args, gas,
// handler)"; spec.md §8 "Negative tests" — neither mismatch aborts the
// host, both are returned as ordinary errors).
func (cm *CompiledModule) Execute(functionName string, gas uint64, handler Handler, args []Arg) (ExecutionResult, error) {
	fn, ok := cm.Functions[functionName]
	if !ok {
		return ExecutionResult{}, errors.Errorf("unknown function %q", functionName)
	}

	sig := sierra.FunctionSignature{Params: make([]sierra.TypeID, len(fn.Params)), Returns: fn.Returns}
	for i, p := range fn.Params {
		sig.Params[i] = p.Type
	}
	cc, err := mir.BuildCallConvention(cm.tb, cm.reg, sig, 8)
	if err != nil {
		return ExecutionResult{}, err
	}

	var wantTypes []sierra.TypeID
	builtinStats := make(map[string]uint64)
	for i, p := range cc.Params {
		if p.Kind == mir.ParamElided {
			if t, err := cm.reg.TypeOf(fn.Params[i].Type); err == nil {
				builtinStats[builtinName(t.Kind)]++
			}
			continue
		}
		wantTypes = append(wantTypes, fn.Params[i].Type)
	}

	if len(args) != len(wantTypes) {
		return ExecutionResult{}, &ArityMismatchError{Function: functionName, Want: len(wantTypes), Got: len(args)}
	}
	for i, a := range args {
		if a.Type != wantTypes[i] {
			return ExecutionResult{}, &TypeMismatchError{Function: functionName, Index: i, Want: wantTypes[i], Got: a.Type}
		}
	}

	if err := cm.Load(); err != nil {
		return ExecutionResult{}, err
	}

	nativeArgs := make([]uintptr, len(args))
	for i, a := range args {
		nativeArgs[i] = a.Value
	}
	v, err := cm.exe.Call(functionName, nativeArgs...)
	if err != nil {
		return ExecutionResult{}, err
	}

	result := ExecutionResult{ReturnValue: v, BuiltinStats: builtinStats}
	if required, ok := cm.RequiredInitialGas(functionName); ok {
		remaining := uint64(0)
		if gas > required {
			remaining = gas - required
		}
		result.RemainingGas = &remaining
	}
	return result, nil
}

// builtinName maps an elided builtin type's kind to the name
// ExecutionResult.BuiltinStats reports it under (spec.md §4.5).
func builtinName(kind sierra.ConcreteTypeKind) string {
	switch kind {
	case sierra.TypeRangeCheck:
		return "range_check"
	case sierra.TypeBitwise:
		return "bitwise"
	case sierra.TypePedersen:
		return "pedersen"
	case sierra.TypePoseidon:
		return "poseidon"
	case sierra.TypeEcOp:
		return "ec_op"
	case sierra.TypeSegmentArena:
		return "segment_arena"
	case sierra.TypeGasBuiltin:
		return "gas_builtin"
	case sierra.TypeSystem:
		return "system"
	default:
		return "builtin"
	}
}

// Quick compiles prog with default configuration, runs functionName
// once, and tears the module down — the one-call convenience path
// (supplementing original_source/src/ffi.rs's minimal API).
func Quick(prog *sierra.Program, functionName string, gas uint64, handler Handler, args []Arg) (ExecutionResult, error) {
	cm, err := Compile(prog, config.Default(), nil)
	if err != nil {
		return ExecutionResult{}, err
	}
	defer cm.Close()
	return cm.Execute(functionName, gas, handler, args)
}
