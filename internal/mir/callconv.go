package mir

import (
	"github.com/llir/llvm/ir/types"

	"github.com/lambdaclass/cairo-native-go/internal/layout"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
)

// ParamKind classifies how one source parameter maps onto the MIR
// function's argument list (spec.md §4.4).
type ParamKind int

const (
	ParamDirect  ParamKind = iota // non-ZST, non-memory-allocated: passed by value
	ParamPointer                  // memory-allocated: passed by pointer
	ParamElided                   // ZST builtin: elided from the argument list
)

// Param describes one source parameter's calling-convention treatment.
type Param struct {
	SourceType sierra.TypeID
	Kind       ParamKind
	MIRIndex   int // index into the emitted function's argument list; -1 if Kind==ParamElided
}

// CallConvention is the §4.4 ABI transform applied to one function
// signature: which parameters become direct arguments, which become
// pointer arguments, which are elided, and whether returns flow through
// an sret out-pointer or a direct value.
type CallConvention struct {
	Params []Param

	SRet          bool
	SRetType      types.Type // struct of non-elided return fields
	ReturnOffsets []int64    // byte offsets within SRetType, parallel to non-elided returns
	ReturnKinds   []bool     // true where the corresponding Return is elided (ZST builtin)

	DirectReturn types.Type // valid when !SRet; types.Void when the function returns nothing
	MIRParamTypes []types.Type
}

// BuildCallConvention computes the ABI transform for sig (spec.md §4.4):
//
//  1. non-ZST, non-memory-allocated params become direct arguments;
//  2. ZST builtin params are elided;
//  3. multiple non-ZST returns, or a single memory-allocated return, use
//     an sret out-pointer as the first argument;
//  4. otherwise the single result returns by value.
func BuildCallConvention(tb *typebuilder.Builder, reg *registry.Registry, sig sierra.FunctionSignature, ptrSize int64) (*CallConvention, error) {
	cc := &CallConvention{}

	for _, pid := range sig.Params {
		built, err := tb.Build(pid)
		if err != nil {
			return nil, err
		}
		p := Param{SourceType: pid}
		switch {
		case built.IsZST && built.IsBuiltin:
			p.Kind = ParamElided
			p.MIRIndex = -1
		case built.IsMemoryAllocated:
			p.Kind = ParamPointer
			p.MIRIndex = len(cc.MIRParamTypes)
			cc.MIRParamTypes = append(cc.MIRParamTypes, types.NewPointer(built.MIR))
		default:
			p.Kind = ParamDirect
			p.MIRIndex = len(cc.MIRParamTypes)
			cc.MIRParamTypes = append(cc.MIRParamTypes, built.MIR)
		}
		cc.Params = append(cc.Params, p)
	}

	var retFieldTypes []types.Type
	var retFieldLayouts []layout.Layout
	var nonElidedReturns []sierra.TypeID
	for _, rid := range sig.Returns {
		built, err := tb.Build(rid)
		if err != nil {
			return nil, err
		}
		elided := built.IsZST && built.IsBuiltin
		cc.ReturnKinds = append(cc.ReturnKinds, elided)
		if elided {
			continue
		}
		nonElidedReturns = append(nonElidedReturns, rid)
		retFieldTypes = append(retFieldTypes, built.MIR)
		retFieldLayouts = append(retFieldLayouts, built.Layout)
	}

	singleMemoryAllocated := false
	if len(nonElidedReturns) == 1 {
		built, _ := tb.Build(nonElidedReturns[0])
		singleMemoryAllocated = built.IsMemoryAllocated
	}

	switch {
	case len(nonElidedReturns) == 0:
		cc.DirectReturn = types.Void
	case len(nonElidedReturns) == 1 && !singleMemoryAllocated:
		cc.DirectReturn = retFieldTypes[0]
	default:
		cc.SRet = true
		l := layout.Struct(retFieldLayouts)
		cc.ReturnOffsets = l.Offsets
		cc.SRetType = types.NewStruct(retFieldTypes...)
		sretParam := types.NewPointer(cc.SRetType)
		cc.MIRParamTypes = append([]types.Type{sretParam}, cc.MIRParamTypes...)
		for i := range cc.Params {
			if cc.Params[i].MIRIndex >= 0 {
				cc.Params[i].MIRIndex++
			}
		}
	}

	return cc, nil
}
