// Package metadata implements the Metadata Storage scratchpad (spec.md
// §2, §4.2): a heterogeneous, keyed bag of values threaded through
// lowering for the lifetime of one compilation. Modeled after Rust's
// `MetadataStorage::get::<T>()` pattern but expressed through Go's type
// system with a keyed-by-reflect.Type store, the idiomatic equivalent.
package metadata

import (
	"math/big"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

// Storage is single-writer during lowering (spec.md §5) and never shared
// across compilations.
type Storage struct {
	entries map[reflect.Type]interface{}
}

// New builds an empty Storage. Callers typically follow with Insert calls
// for PrimeModulo, GasCosts, DropOverride, etc. before lowering begins.
func New() *Storage {
	return &Storage{entries: make(map[reflect.Type]interface{})}
}

// Insert stores value keyed by its own concrete type, overwriting any
// prior entry of that type.
func Insert[T any](s *Storage, value T) {
	s.entries[reflect.TypeOf(value)] = value
}

// Get retrieves the value of type T, or ok=false if absent.
func Get[T any](s *Storage) (T, bool) {
	var zero T
	v, ok := s.entries[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// PrimeModulo carries the field prime used by felt252 arithmetic
// (spec.md §4.5, GLOSSARY "Felt"). P = 2^251 + 17*2^192 + 1.
type PrimeModulo struct {
	Prime *big.Int
}

// DefaultPrime returns the canonical Cairo field prime.
func DefaultPrime() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	t := new(big.Int).Lsh(big.NewInt(17), 192)
	p.Add(p, t)
	p.Add(p, big.NewInt(1))
	return p
}

// GasCosts maps statement index to the static gas cost charged by
// withdraw_gas at that statement (spec.md §4.5 "Gas").
type GasCosts struct {
	ByStatement map[sierra.StatementIdx]uint64
}

// CostOf returns the gas cost of idx, defaulting to zero for statements
// the gas table does not mention (non-metered libfuncs).
func (g GasCosts) CostOf(idx sierra.StatementIdx) uint64 {
	return g.ByStatement[idx]
}

// DropOverride is the per-type drop thunk referenced by spec.md §9 "drop
// override dispatch": every owning type must register one, and invoking
// drop on a type lacking an override is an InvariantViolation.
type DropOverride struct {
	ByType map[sierra.TypeID]string // type id -> runtime symbol name
}

// DupOverride mirrors DropOverride for types requiring custom duplication
// (e.g. reference-counted handles) rather than a bitwise copy.
type DupOverride struct {
	ByType map[sierra.TypeID]string
}

// RuntimeSymbols binds each runtime-ABI entry point (spec.md §4.8) to the
// symbol name emitted into MIR call sites, so the libfunc emitters never
// hardcode strings.
type RuntimeSymbols struct {
	DebugPrint           string
	FeltInverse          string
	Pedersen             string
	HadesPermutation     string
	EcPointFromXNz       string
	EcStateAdd           string
	EcStateAddMul        string
	EcStateTryFinalizeNz string
	EcPointTryNewNz      string
	AllocDict            string
	DictGet              string
	DictInsert           string
	DictSquash           string
}

// DefaultRuntimeSymbols returns the fixed names spec.md §4.8 requires.
func DefaultRuntimeSymbols() RuntimeSymbols {
	return RuntimeSymbols{
		DebugPrint:           "cairo_native__debug_print",
		FeltInverse:          "cairo_native__libfunc__felt252_inverse",
		Pedersen:             "cairo_native__libfunc__pedersen",
		HadesPermutation:     "cairo_native__libfunc__hades_permutation",
		EcPointFromXNz:       "cairo_native__libfunc__ec__ec_point_from_x_nz",
		EcStateAdd:           "cairo_native__libfunc__ec__ec_state_add",
		EcStateAddMul:        "cairo_native__libfunc__ec__ec_state_add_mul",
		EcStateTryFinalizeNz: "cairo_native__libfunc__ec__ec_state_try_finalize_nz",
		EcPointTryNewNz:      "cairo_native__libfunc__ec__ec_point_try_new_nz",
		AllocDict:            "cairo_native__alloc_dict",
		DictGet:              "cairo_native__dict_get",
		DictInsert:           "cairo_native__dict_insert",
		DictSquash:           "cairo_native__dict_squash",
	}
}

// SyscallHandler carries the fixed vtable slot indices (spec.md §4.6)
// compiler and runtime must agree on.
type SyscallHandler struct {
	VTableSlot map[string]int
}

// TraceDump is an optional metadata entry (SPEC_FULL.md §10) that, when
// present and Enabled, makes the function lowerer emit a runtime call at
// the start of each statement that receives the statement's index (not
// its live values) — a debugging aid carried over from
// original_source/src/metadata/trace_dump.rs.
type TraceDump struct {
	Enabled bool
	Symbol  string
}

// Logger is the debug-utilities entry spec.md §2 mentions; shared by all
// lowering collaborators instead of each owning a logger instance.
type Logger struct {
	*logrus.Logger
}

// NewLogger builds a Logger at the given level.
func NewLogger(level logrus.Level) *Logger {
	l := logrus.New()
	l.SetLevel(level)
	return &Logger{Logger: l}
}
