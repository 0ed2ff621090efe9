// Package layout computes the authoritative memory layout (size,
// alignment, field offsets) for every concrete type, per spec.md §3
// "Physical layout invariants". The Type Builder (internal/typebuilder)
// pairs each MIR type with a Layout produced here.
package layout

import "github.com/pkg/errors"

// Layout describes size and alignment in bytes, plus (for aggregates)
// per-field byte offsets in declaration order.
type Layout struct {
	Size    int64
	Align   int64
	Offsets []int64 // struct field offsets; nil for non-struct layouts
}

// ErrOverflow is returned when a computed layout would exceed what the
// target's address space can represent (spec.md §4.7 LayoutOverflow).
var ErrOverflow = errors.New("layout overflow")

// AlignUp rounds n up to the next multiple of align (align must be a
// power of two).
func AlignUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// maxAlign is the platform ceiling from spec.md §8 "alignof(T) <= 16".
const maxAlign = 16

// Scalar builds a fixed-size, self-aligned scalar layout (used for
// pointers, plain integers below 128 bits, etc).
func Scalar(size int64) Layout {
	align := size
	if align > maxAlign {
		align = maxAlign
	}
	if align < 1 {
		align = 1
	}
	return Layout{Size: size, Align: align}
}

// Felt252 returns the fixed felt252 layout: 32-byte storage, 8-byte
// alignment (16 on non-x86_64, spec.md §3).
func Felt252(nonX86_64 bool) Layout {
	if nonX86_64 {
		return Layout{Size: 32, Align: 16}
	}
	return Layout{Size: 32, Align: 8}
}

// Integer returns the layout for a W-bit integer per spec.md §3: smallest
// power-of-two byte size >= W, alignment == size except the documented
// u128/i128 deviation (size 16, align 8 — spec.md §9 platform deviation).
func Integer(bitWidth int) (Layout, error) {
	if bitWidth <= 0 {
		return Layout{}, errors.Errorf("non-positive integer width %d", bitWidth)
	}
	if bitWidth > 128 {
		// W>128: arrays of 64-bit limbs (spec.md §3), e.g. u256/u512.
		limbs := (bitWidth + 63) / 64
		return Layout{Size: int64(limbs) * 8, Align: 8}, nil
	}
	size := int64(1)
	for size*8 < int64(bitWidth) {
		size *= 2
	}
	if bitWidth == 128 {
		return Layout{Size: 16, Align: 8}, nil
	}
	return Scalar(size), nil
}

// Struct computes C-style natural-alignment packing: each field starts at
// the next offset aligned to its own alignment, and the overall size is
// rounded up to the struct's alignment (max of field alignments).
func Struct(fields []Layout) Layout {
	var offset int64
	var align int64 = 1
	offsets := make([]int64, len(fields))
	for i, f := range fields {
		offset = AlignUp(offset, f.Align)
		offsets[i] = offset
		offset += f.Size
		if f.Align > align {
			align = f.Align
		}
	}
	size := AlignUp(offset, align)
	return Layout{Size: size, Align: align, Offsets: offsets}
}

// EnumTagWidth returns the tag width in bytes for n variants, following
// spec.md §3/§9: ceil(log2(n)) bits, stored as a 1-byte tag for n<=256,
// widening per the same rule beyond that. n==0 or n==1 use a 1-byte tag
// (spec.md §9 open question: unsigned tag, value 0, for single-variant
// enums).
func EnumTagWidth(numVariants int) int64 {
	if numVariants <= 256 {
		return 1
	}
	bits := 0
	for v := numVariants - 1; v > 0; v >>= 1 {
		bits++
	}
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

// Enum computes {tag, payload} layout per spec.md §3: header tag sized by
// EnumTagWidth, payload region sized to the max variant size and aligned
// to the max variant alignment; the payload starts at
// align_up(tagSize, payloadAlign).
func Enum(variants []Layout) Layout {
	tagSize := EnumTagWidth(len(variants))
	var payloadSize, payloadAlign int64 = 0, 1
	for _, v := range variants {
		if v.Size > payloadSize {
			payloadSize = v.Size
		}
		if v.Align > payloadAlign {
			payloadAlign = v.Align
		}
	}
	payloadOffset := AlignUp(tagSize, payloadAlign)
	align := tagSize
	if payloadAlign > align {
		align = payloadAlign
	}
	size := AlignUp(payloadOffset+payloadSize, align)
	return Layout{Size: size, Align: align, Offsets: []int64{0, payloadOffset}}
}

// Array returns the {ptr, since, until, capacity} descriptor layout from
// spec.md §3/§4.2: a pointer-sized ptr followed by three 32-bit fields.
func Array(ptrSize int64) Layout {
	fields := []Layout{
		Scalar(ptrSize), // ptr
		Scalar(4),       // since
		Scalar(4),       // until
		Scalar(4),       // capacity
	}
	return Struct(fields)
}

// ZST is the zero-sized layout used for builtins (spec.md §3 "Zero-sized
// builtins").
func ZST() Layout { return Layout{Size: 0, Align: 1} }

// IsMemoryAllocated implements spec.md §4.2's predicate: "layout.size() >
// 2 machine words OR type requires an invariant pointer". ownsPointer
// covers dicts/arrays/boxes/nullables, which always carry an owning
// pointer regardless of their small descriptor size.
func IsMemoryAllocated(l Layout, ptrSize int64, ownsPointer bool) bool {
	if ownsPointer {
		return true
	}
	return l.Size > 2*ptrSize
}
