// Package sierra defines the in-memory representation of the validated,
// typed IR program this compiler consumes. It is the input data model
// described by the source language's registry — concrete types, concrete
// libfuncs, statements and functions — and carries no behavior of its own.
package sierra

import "math/big"

// TypeID and LibfuncID and FunctionID are stable indices assigned by the
// frontend collaborator (out of scope here); the registry resolves them.
type TypeID int
type LibfuncID int
type FunctionID int
type VarID int64
type StatementIdx int

// ConcreteTypeKind enumerates the fixed universe of types from spec.md §3.
type ConcreteTypeKind int

const (
	TypeFelt252 ConcreteTypeKind = iota
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeI128
	TypeBytes31
	TypeBool
	TypeStruct
	TypeEnum
	TypeArray
	TypeNullable
	TypeSnapshot
	TypeBox
	TypeRangeCheck
	TypeBitwise
	TypePedersen
	TypePoseidon
	TypeEcOp
	TypeSegmentArena
	TypeGasBuiltin
	TypeSystem
	TypeFelt252Dict
	TypeFelt252DictEntry
	TypeClassHash
	TypeContractAddress
	TypeStorageAddress
	TypeStorageBaseAddress
	TypeSecp256Point
	TypeCircuitInput
	TypeCircuitAccumulator
	TypeCircuitData
	TypeCircuitOutput
)

// ConcreteType is one declared entry in the program's type section.
type ConcreteType struct {
	ID   TypeID
	Kind ConcreteTypeKind

	// Aggregate payloads. Only the field matching Kind is meaningful.
	StructFields []TypeID
	EnumVariants []TypeID
	ElemType     TypeID // array<T>, nullable<T>, snapshot<T>, box<T>, felt252_dict<T>
}

// ConcreteLibfunc is one declared entry in the program's libfunc section.
// GenericName identifies the libfunc family (e.g. "felt252_add",
// "array_append", "u8_overflowing_add"); Variant carries family-specific
// embedded literals (constants, struct/enum indices).
type ConcreteLibfunc struct {
	ID          LibfuncID
	GenericName string
	Variant     LibfuncVariant

	// ParamTypes names this invocation's declared input var types, and
	// Branches carries each branch's pushed var types in order — both
	// already resolved by the frontend's signature computation (spec.md
	// §4.1), so the lowerer never has to re-derive a libfunc's output
	// shape from its name.
	ParamTypes []TypeID
	Branches   []BranchSignature
}

// LibfuncVariant carries the embedded operands a libfunc declaration may
// bind at program-build time (constants, type/member indices). Exactly one
// field group is populated per GenericName; the zero value means "none".
type LibfuncVariant struct {
	ConstValue   *big.Int // felt252_const, u*_const, class_hash_const, …
	MemberIndex  int     // struct member access / enum variant index
	TargetType   TypeID  // cast/narrowing targets, box/array element type
	BranchArity  int     // declared branch count, used for emitter arity checks
	IsSigned     bool    // true for signed integer families
	BitWidth     int     // width in bits for integer families
	SyscallIndex int     // vtable slot for starknet syscalls (spec §4.6)
	Callee       FunctionID // target of a function_call libfunc (spec §4.4)
}

// BranchSignature is the frontend-computed list of var types a libfunc
// invocation pushes on one branch edge (spec.md §4.1: the registry
// "resolves and indexes" libfunc signatures, which include this per the
// source language's own CoreLibfunc signature data — out of scope to
// recompute here, carried through from program construction instead).
type BranchSignature struct {
	VarTypes []TypeID
}

// Statement is either an Invoke or a Return, matching spec.md §3.
type Statement struct {
	Invoke *InvokeStatement
	Return *ReturnStatement
}

type InvokeStatement struct {
	Libfunc  LibfuncID
	Inputs   []VarID
	Branches []Branch
}

// Branch names a target statement and the ordered variables pushed on
// taking it — the SSA "phi" arguments for that edge.
type Branch struct {
	Target StatementIdx
	Pushed []VarID
}

type ReturnStatement struct {
	Inputs []VarID
}

// FunctionSignature is the typed parameter/return list the registry
// exposes; it does not include the calling-convention transformation
// (sret, builtin elision) applied by internal/mir's BuildCallConvention.
type FunctionSignature struct {
	Params  []TypeID
	Returns []TypeID
}

// Function is one entry in the program's function set.
type Function struct {
	ID      FunctionID
	Name    string
	Entry   StatementIdx
	Params  []TypedVar
	Returns []TypeID
}

type TypedVar struct {
	Var  VarID
	Type TypeID
}

// Program is the full validated IR input, assembled once by the (out of
// scope) frontend and never mutated afterward.
type Program struct {
	Types      []ConcreteType
	Libfuncs   []ConcreteLibfunc
	Statements []Statement
	Functions  []Function
}
