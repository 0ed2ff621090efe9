// Package decode reads the validated, typed program (spec.md §3) from
// its on-disk JSON serialization. Producing that JSON (parsing source
// syntax, running type/borrow validation) is the frontend collaborator
// spec.md places out of scope; this package is the thin boundary where
// that external representation enters the compiler.
package decode

import (
	"encoding/json"
	"math/big"
	"os"

	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

type programJSON struct {
	Types     []typeJSON    `json:"types"`
	Libfuncs  []libfuncJSON `json:"libfuncs"`
	Statements []statementJSON `json:"statements"`
	Functions []functionJSON `json:"functions"`
}

type typeJSON struct {
	ID           sierra.TypeID           `json:"id"`
	Kind         sierra.ConcreteTypeKind `json:"kind"`
	StructFields []sierra.TypeID         `json:"struct_fields,omitempty"`
	EnumVariants []sierra.TypeID         `json:"enum_variants,omitempty"`
	ElemType     sierra.TypeID           `json:"elem_type,omitempty"`
}

type branchSignatureJSON struct {
	VarTypes []sierra.TypeID `json:"var_types"`
}

type libfuncJSON struct {
	ID          sierra.LibfuncID      `json:"id"`
	GenericName string                `json:"generic_name"`
	ConstValue  string                `json:"const_value,omitempty"`
	MemberIndex int                   `json:"member_index,omitempty"`
	TargetType  sierra.TypeID         `json:"target_type,omitempty"`
	BranchArity int                   `json:"branch_arity,omitempty"`
	IsSigned    bool                  `json:"is_signed,omitempty"`
	BitWidth    int                   `json:"bit_width,omitempty"`
	SyscallIndex int                  `json:"syscall_index,omitempty"`
	Callee      sierra.FunctionID     `json:"callee,omitempty"`
	ParamTypes  []sierra.TypeID       `json:"param_types,omitempty"`
	Branches    []branchSignatureJSON `json:"branches,omitempty"`
}

type branchJSON struct {
	Target sierra.StatementIdx `json:"target"`
	Pushed []sierra.VarID      `json:"pushed"`
}

type statementJSON struct {
	Invoke *invokeJSON `json:"invoke,omitempty"`
	Return *returnJSON `json:"return,omitempty"`
}

type invokeJSON struct {
	Libfunc  sierra.LibfuncID `json:"libfunc"`
	Inputs   []sierra.VarID   `json:"inputs"`
	Branches []branchJSON     `json:"branches"`
}

type returnJSON struct {
	Inputs []sierra.VarID `json:"inputs"`
}

type typedVarJSON struct {
	Var  sierra.VarID  `json:"var"`
	Type sierra.TypeID `json:"type"`
}

type functionJSON struct {
	ID      sierra.FunctionID   `json:"id"`
	Name    string              `json:"name"`
	Entry   sierra.StatementIdx `json:"entry"`
	Params  []typedVarJSON      `json:"params"`
	Returns []sierra.TypeID     `json:"returns"`
}

// ReadFile decodes a program from path.
func ReadFile(path string) (*sierra.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading program file %s", path)
	}
	return Decode(data)
}

// Decode parses the JSON program representation into the in-memory
// sierra.Program model.
func Decode(data []byte) (*sierra.Program, error) {
	var raw programJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing program JSON")
	}

	prog := &sierra.Program{
		Types:      make([]sierra.ConcreteType, len(raw.Types)),
		Libfuncs:   make([]sierra.ConcreteLibfunc, len(raw.Libfuncs)),
		Statements: make([]sierra.Statement, len(raw.Statements)),
		Functions:  make([]sierra.Function, len(raw.Functions)),
	}

	for i, t := range raw.Types {
		prog.Types[i] = sierra.ConcreteType{
			ID:           t.ID,
			Kind:         t.Kind,
			StructFields: t.StructFields,
			EnumVariants: t.EnumVariants,
			ElemType:     t.ElemType,
		}
	}

	for i, l := range raw.Libfuncs {
		var constVal *big.Int
		if l.ConstValue != "" {
			v, ok := new(big.Int).SetString(l.ConstValue, 10)
			if !ok {
				return nil, errors.Errorf("libfunc %d: invalid const_value %q", l.ID, l.ConstValue)
			}
			constVal = v
		}
		branches := make([]sierra.BranchSignature, len(l.Branches))
		for bi, b := range l.Branches {
			branches[bi] = sierra.BranchSignature{VarTypes: b.VarTypes}
		}
		prog.Libfuncs[i] = sierra.ConcreteLibfunc{
			ID:          l.ID,
			GenericName: l.GenericName,
			Variant: sierra.LibfuncVariant{
				ConstValue:   constVal,
				MemberIndex:  l.MemberIndex,
				TargetType:   l.TargetType,
				BranchArity:  l.BranchArity,
				IsSigned:     l.IsSigned,
				BitWidth:     l.BitWidth,
				SyscallIndex: l.SyscallIndex,
				Callee:       l.Callee,
			},
			ParamTypes: l.ParamTypes,
			Branches:   branches,
		}
	}

	for i, s := range raw.Statements {
		var stmt sierra.Statement
		if s.Invoke != nil {
			branches := make([]sierra.Branch, len(s.Invoke.Branches))
			for bi, b := range s.Invoke.Branches {
				branches[bi] = sierra.Branch{Target: b.Target, Pushed: b.Pushed}
			}
			stmt.Invoke = &sierra.InvokeStatement{
				Libfunc:  s.Invoke.Libfunc,
				Inputs:   s.Invoke.Inputs,
				Branches: branches,
			}
		}
		if s.Return != nil {
			stmt.Return = &sierra.ReturnStatement{Inputs: s.Return.Inputs}
		}
		prog.Statements[i] = stmt
	}

	for i, f := range raw.Functions {
		params := make([]sierra.TypedVar, len(f.Params))
		for pi, p := range f.Params {
			params[pi] = sierra.TypedVar{Var: p.Var, Type: p.Type}
		}
		prog.Functions[i] = sierra.Function{
			ID:      f.ID,
			Name:    f.Name,
			Entry:   f.Entry,
			Params:  params,
			Returns: f.Returns,
		}
	}

	return prog, nil
}
