// Package typebuilder implements the Type Builder (spec.md §4.2):
// build(type_id) -> (mir_type, layout), memoized, recursive over
// aggregates, rejecting cycles. MIR types are represented directly as
// github.com/llir/llvm/ir/types values — the pure-Go LLVM IR type system
// this project uses as its platform-independent compiler IR (spec.md §2
// "MIR"), grounded on other_examples' bin2ll translator which builds
// *types.FuncType/*types.PointerType graphs the same way.
package typebuilder

import (
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/layout"
	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
)

// Built is the (mir_type, layout) pair the Type Builder returns.
type Built struct {
	MIR    types.Type
	Layout layout.Layout

	// IsZST, IsBuiltin, IsMemoryAllocated answer the auxiliary queries
	// every emitter may ask (spec.md §4.2).
	IsZST             bool
	IsBuiltin         bool
	IsMemoryAllocated bool
	OwnsHeapMemory    bool // arrays, dicts, boxes, nullables (spec.md §3 Ownership)
}

// CyclicTypeError signals a cycle in the type graph (spec.md §4.2); the
// valid input language never produces one, so this indicates a corrupt
// or adversarial program.
type CyclicTypeError struct {
	ID sierra.TypeID
}

func (e *CyclicTypeError) Error() string {
	return errors.Errorf("cyclic type detected at type id %d", e.ID).Error()
}

// Builder memoizes built types across one compilation (spec.md §4.2
// "Memoized: a repeated request returns the same MIR type handle").
type Builder struct {
	reg      *registry.Registry
	meta     *metadata.Storage
	ptrSize  int64
	nonX86   bool
	cache    map[sierra.TypeID]*Built
	visiting map[sierra.TypeID]bool
}

// New constructs a Builder bound to reg. ptrSize is the target's pointer
// width in bytes (8 on all targets this compiler emits for; kept
// parametric for the wasm/32-bit backends spec.md never forbids).
func New(reg *registry.Registry, meta *metadata.Storage, ptrSize int64, nonX86_64 bool) *Builder {
	return &Builder{
		reg:      reg,
		meta:     meta,
		ptrSize:  ptrSize,
		nonX86:   nonX86_64,
		cache:    make(map[sierra.TypeID]*Built),
		visiting: make(map[sierra.TypeID]bool),
	}
}

// Build returns the (mir_type, layout) pair for id, building and caching
// it on first request.
func (b *Builder) Build(id sierra.TypeID) (*Built, error) {
	if cached, ok := b.cache[id]; ok {
		return cached, nil
	}
	if b.visiting[id] {
		return nil, &CyclicTypeError{ID: id}
	}
	b.visiting[id] = true
	defer delete(b.visiting, id)

	ct, err := b.reg.TypeOf(id)
	if err != nil {
		return nil, err
	}
	built, err := b.buildConcrete(ct)
	if err != nil {
		return nil, errors.Wrapf(err, "building type %d (%v)", id, ct.Kind)
	}
	b.cache[id] = built
	return built, nil
}

// IsZST exposes the zero-sized predicate of spec.md §4.2 without forcing
// callers to re-derive Built. There are no IsBuiltin or IsMemoryAllocated
// methods; those predicates are read from the Built fields of the same
// names.
func (b *Builder) IsZST(id sierra.TypeID) (bool, error) {
	built, err := b.Build(id)
	if err != nil {
		return false, err
	}
	return built.IsZST, nil
}

func (b *Builder) buildConcrete(ct *sierra.ConcreteType) (*Built, error) {
	switch ct.Kind {
	case sierra.TypeFelt252:
		return &Built{
			MIR:    types.NewInt(252),
			Layout: layout.Felt252(b.nonX86),
		}, nil

	case sierra.TypeU8, sierra.TypeI8:
		return b.integerBuilt(8, ct.Kind == sierra.TypeI8)
	case sierra.TypeU16, sierra.TypeI16:
		return b.integerBuilt(16, ct.Kind == sierra.TypeI16)
	case sierra.TypeU32, sierra.TypeI32:
		return b.integerBuilt(32, ct.Kind == sierra.TypeI32)
	case sierra.TypeU64, sierra.TypeI64:
		return b.integerBuilt(64, ct.Kind == sierra.TypeI64)
	case sierra.TypeU128, sierra.TypeI128:
		return b.integerBuilt(128, ct.Kind == sierra.TypeI128)
	case sierra.TypeBytes31:
		return b.integerBuilt(248, false)

	case sierra.TypeBool:
		return &Built{MIR: types.I1, Layout: layout.Scalar(1)}, nil

	case sierra.TypeStruct:
		return b.buildStruct(ct.StructFields)

	case sierra.TypeEnum:
		return b.buildEnum(ct.EnumVariants)

	case sierra.TypeArray:
		return b.buildArray()

	case sierra.TypeNullable, sierra.TypeBox:
		// Nullable<T> and Box<T> are both single owning pointers; the
		// payload type only matters to the emitters that dereference
		// them (spec.md §4.5 "Box"), not to layout.
		return &Built{
			MIR:               types.NewPointer(types.I8),
			Layout:             layout.Scalar(b.ptrSize),
			IsMemoryAllocated:  true,
			OwnsHeapMemory:     true,
		}, nil

	case sierra.TypeSnapshot:
		// Snapshot<T> is a borrow: it aliases T's own representation
		// (spec.md §3 Ownership) rather than introducing indirection.
		return b.Build(ct.ElemType)

	case sierra.TypeRangeCheck, sierra.TypeBitwise, sierra.TypePedersen,
		sierra.TypePoseidon, sierra.TypeEcOp, sierra.TypeSegmentArena,
		sierra.TypeGasBuiltin, sierra.TypeSystem:
		return b.buildBuiltin(ct.Kind)

	case sierra.TypeFelt252Dict:
		return &Built{
			MIR:               types.NewPointer(types.I8),
			Layout:            layout.Scalar(b.ptrSize),
			IsMemoryAllocated: true,
			OwnsHeapMemory:    true,
		}, nil
	case sierra.TypeFelt252DictEntry:
		// Borrow token: {dict_ptr, key, slot_ptr}.
		dictField := layout.Scalar(b.ptrSize)
		keyField := layout.Felt252(b.nonX86)
		slotField := layout.Scalar(b.ptrSize)
		l := layout.Struct([]layout.Layout{dictField, keyField, slotField})
		st := types.NewStruct(types.NewPointer(types.I8), types.NewInt(252), types.NewPointer(types.I8))
		return &Built{MIR: st, Layout: l}, nil

	case sierra.TypeClassHash, sierra.TypeContractAddress,
		sierra.TypeStorageAddress, sierra.TypeStorageBaseAddress:
		// Starknet address-family types are felt252-shaped scalars.
		return &Built{MIR: types.NewInt(252), Layout: layout.Felt252(b.nonX86)}, nil

	case sierra.TypeSecp256Point:
		// {x: [4]u64, y: [4]u64} limb pairs.
		limb := layout.Scalar(8)
		coord := layout.Struct([]layout.Layout{limb, limb, limb, limb})
		l := layout.Struct([]layout.Layout{coord, coord})
		arr4 := types.NewArray(4, types.I64)
		st := types.NewStruct(arr4, arr4)
		return &Built{MIR: st, Layout: l}, nil

	case sierra.TypeCircuitInput, sierra.TypeCircuitAccumulator,
		sierra.TypeCircuitData, sierra.TypeCircuitOutput:
		// 384-bit limb vectors, six 64-bit limbs (spec.md §3 Circuit).
		l := layout.Layout{Size: 48, Align: 8}
		return &Built{MIR: types.NewArray(6, types.I64), Layout: l}, nil

	default:
		return nil, errors.Errorf("unhandled concrete type kind %v", ct.Kind)
	}
}

func (b *Builder) integerBuilt(bits int, signed bool) (*Built, error) {
	l, err := layout.Integer(bits)
	if err != nil {
		return nil, err
	}
	if bits > 128 {
		limbs := l.Size / 8
		return &Built{MIR: types.NewArray(uint64(limbs), types.I64), Layout: l}, nil
	}
	return &Built{MIR: types.NewInt(uint64(bits)), Layout: l}, nil
}

func (b *Builder) buildStruct(fieldIDs []sierra.TypeID) (*Built, error) {
	fieldMIR := make([]types.Type, len(fieldIDs))
	fieldLayouts := make([]layout.Layout, len(fieldIDs))
	for i, fid := range fieldIDs {
		fb, err := b.Build(fid)
		if err != nil {
			return nil, err
		}
		fieldMIR[i] = fb.MIR
		fieldLayouts[i] = fb.Layout
	}
	l := layout.Struct(fieldLayouts)
	st := types.NewStruct(fieldMIR...)
	st.Packed = false
	return &Built{
		MIR:               st,
		Layout:            l,
		IsMemoryAllocated: layout.IsMemoryAllocated(l, b.ptrSize, false),
	}, nil
}

func (b *Builder) buildEnum(variantIDs []sierra.TypeID) (*Built, error) {
	variantLayouts := make([]layout.Layout, len(variantIDs))
	for i, vid := range variantIDs {
		vb, err := b.Build(vid)
		if err != nil {
			return nil, err
		}
		variantLayouts[i] = vb.Layout
	}
	l := layout.Enum(variantLayouts)
	tagBits := layout.EnumTagWidth(len(variantIDs)) * 8
	payloadBytes := l.Size - l.Offsets[1]
	st := types.NewStruct(types.NewInt(uint64(tagBits)), types.NewArray(uint64(payloadBytes), types.I8))
	return &Built{
		MIR:               st,
		Layout:            l,
		IsMemoryAllocated: layout.IsMemoryAllocated(l, b.ptrSize, false),
	}, nil
}

func (b *Builder) buildArray() (*Built, error) {
	l := layout.Array(b.ptrSize)
	st := types.NewStruct(types.NewPointer(types.I8), types.I32, types.I32, types.I32)
	return &Built{
		MIR:               st,
		Layout:            l,
		IsMemoryAllocated: true,
		OwnsHeapMemory:    true,
	}, nil
}

func (b *Builder) buildBuiltin(kind sierra.ConcreteTypeKind) (*Built, error) {
	// Zero-sized builtins lower to an empty MIR struct (spec.md §4.2);
	// gas_builtin and system carry real payloads even though they are
	// "zero-sized" at the type-universe level per spec.md §3, so they
	// get a scalar/pointer representation instead.
	switch kind {
	case sierra.TypeGasBuiltin:
		l, _ := layout.Integer(128)
		return &Built{MIR: types.I128, Layout: l, IsBuiltin: true}, nil
	case sierra.TypeSystem:
		return &Built{
			MIR:       types.NewPointer(types.I8),
			Layout:    layout.Scalar(b.ptrSize),
			IsBuiltin: true,
		}, nil
	default:
		return &Built{MIR: types.NewStruct(), Layout: layout.ZST(), IsZST: true, IsBuiltin: true}, nil
	}
}
