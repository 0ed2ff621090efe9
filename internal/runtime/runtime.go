// Package runtime describes the small static library of C-ABI symbols
// the emitted code calls (spec.md §4.8). The archive itself is built
// out-of-tree (spec.md §6 "Runtime library: compiled static archive
// embedded via build-time resource") and embedded here with go:embed,
// mirroring how the teacher embeds its own support library
// (std/compiler/stdlib_rtg.go). Unlike the teacher's go:embed-or-stub
// pair, there is no stub here: archive/runtime.a must be present.
package runtime

import _ "embed"

// Fixed entry-point names, spec.md §4.8. These are compiled into every
// emitted call site by internal/libfuncs and must match the archive's
// real symbol table byte-for-byte.
const (
	SymDebugPrint           = "cairo_native__debug_print"
	SymPedersen              = "cairo_native__libfunc__pedersen"
	SymHadesPermutation      = "cairo_native__libfunc__hades_permutation"
	SymEcPointFromXNz        = "cairo_native__libfunc__ec__ec_point_from_x_nz"
	SymEcStateAdd            = "cairo_native__libfunc__ec__ec_state_add"
	SymEcStateAddMul         = "cairo_native__libfunc__ec__ec_state_add_mul"
	SymEcStateTryFinalizeNz  = "cairo_native__libfunc__ec__ec_state_try_finalize_nz"
	SymEcPointTryNewNz       = "cairo_native__libfunc__ec__ec_point_try_new_nz"
	SymAllocDict             = "cairo_native__alloc_dict"
	SymDictGet               = "cairo_native__dict_get"
	SymDictInsert            = "cairo_native__dict_insert"
	SymDictSquash            = "cairo_native__dict_squash"
	SymFeltInverse           = "cairo_native__libfunc__felt252_inverse"
	SymAlloc                 = "cairo_native__alloc"
	SymRealloc               = "cairo_native__realloc"
	SymFree                  = "cairo_native__free"
	SymArrayEnsureCapacity   = "cairo_native__array_ensure_capacity"
	SymSha256ProcessBlock    = "cairo_native__sha256_process_block"
	SymCircuitInverse        = "cairo_native__circuit_inverse"
	SymTraceDump             = "cairo_native__trace_dump"
)

// AllSymbols lists every entry point the emitted object may reference,
// used by internal/linker to verify the runtime archive it is about to
// link against actually defines them (spec.md §7 "Link errors").
var AllSymbols = []string{
	SymDebugPrint, SymPedersen, SymHadesPermutation, SymEcPointFromXNz,
	SymEcStateAdd, SymEcStateAddMul, SymEcStateTryFinalizeNz, SymEcPointTryNewNz,
	SymAllocDict, SymDictGet, SymDictInsert, SymDictSquash, SymFeltInverse,
	SymAlloc, SymRealloc, SymFree, SymArrayEnsureCapacity, SymSha256ProcessBlock,
	SymCircuitInverse, SymTraceDump,
	"cairo_native__syscall_dispatch",
}

// Archive is the embedded static runtime library. The go:embed directive
// requires archive/runtime.a at build time; internal/linker writes these
// bytes to a scratch file and links against that copy, with no fallback
// to a system-installed runtime.
//
//go:embed archive/runtime.a
var Archive []byte

// VTableSlot are the fixed syscall-handler vtable indices spec.md §4.6 /
// §9 calls a "breaking change to the runtime" if reordered. Order here is
// the contract.
var VTableSlot = map[string]int{
	"call_contract":           0,
	"deploy":                  1,
	"replace_class":           2,
	"library_call":            3,
	"emit_event":              4,
	"send_message_to_l1":      5,
	"get_block_hash":          6,
	"get_execution_info":      7,
	"get_execution_info_v2":   8,
	"storage_read":            9,
	"storage_write":           10,
	"keccak":                  11,
	"sha256_process_block":    12,
	"secp256k1_new":           13,
	"secp256k1_add":           14,
	"secp256k1_mul":           15,
	"secp256k1_get_point_from_x": 16,
	"secp256k1_get_xy":        17,
	"secp256r1_new":           18,
	"secp256r1_add":           19,
	"secp256r1_mul":           20,
	"secp256r1_get_point_from_x": 21,
	"secp256r1_get_xy":        22,
}
