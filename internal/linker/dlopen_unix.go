//go:build unix

// Package linker's platform loader: dlopen/dlsym are not exposed by the
// Go standard library, so this is the one file in the module that drops
// to cgo, scoped as tightly as possible (spec.md §4.6 "Linker/Loader").
package linker

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>

static uintptr_t call0(void *fn) {
	return ((uintptr_t(*)(void))fn)();
}
static uintptr_t call1(void *fn, uintptr_t a0) {
	return ((uintptr_t(*)(uintptr_t))fn)(a0);
}
static uintptr_t call2(void *fn, uintptr_t a0, uintptr_t a1) {
	return ((uintptr_t(*)(uintptr_t, uintptr_t))fn)(a0, a1);
}
static uintptr_t call3(void *fn, uintptr_t a0, uintptr_t a1, uintptr_t a2) {
	return ((uintptr_t(*)(uintptr_t, uintptr_t, uintptr_t))fn)(a0, a1, a2);
}
static uintptr_t call4(void *fn, uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3) {
	return ((uintptr_t(*)(uintptr_t, uintptr_t, uintptr_t, uintptr_t))fn)(a0, a1, a2, a3);
}
*/
import "C"

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Executable is a loaded shared object, kept open for the lifetime of
// the process's use of it (spec.md §6 "ExecutionResult").
type Executable struct {
	handle unsafe.Pointer
	path   string
}

// Load dlopens the shared object produced by Link.
func Load(soPath string) (*Executable, error) {
	cpath := C.CString(soPath)
	defer C.free(unsafe.Pointer(cpath))
	h := C.dlopen(cpath, C.RTLD_NOW)
	if h == nil {
		return nil, errors.Errorf("dlopen %s: %s", soPath, C.GoString(C.dlerror()))
	}
	return &Executable{handle: h, path: soPath}, nil
}

// Close releases the loaded shared object.
func (e *Executable) Close() error {
	if e.handle == nil {
		return nil
	}
	if C.dlclose(e.handle) != 0 {
		return errors.Errorf("dlclose %s: %s", e.path, C.GoString(C.dlerror()))
	}
	e.handle = nil
	return nil
}

// symbol resolves a function pointer by name.
func (e *Executable) symbol(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	C.dlerror() // clear any pending error
	p := C.dlsym(e.handle, cname)
	if p == nil {
		if msg := C.dlerror(); msg != nil {
			return nil, errors.Errorf("dlsym %s: %s", name, C.GoString(msg))
		}
	}
	return p, nil
}

// Call invokes the named entry point with up to four word-sized
// arguments (pointers or integers), returning its word-sized result.
// This covers every compiled entry point our calling convention
// produces: at most one sret pointer plus a handful of direct scalar
// args (spec.md §4.4). A general N-argument/float-argument FFI (what a
// full libffi-backed invoke_dynamic would give you) is out of scope —
// recorded as an open decision in DESIGN.md.
func (e *Executable) Call(name string, args ...uintptr) (uintptr, error) {
	fn, err := e.symbol(name)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, errors.Errorf("symbol %s not found in %s", name, e.path)
	}
	a := make([]C.uintptr_t, 4)
	for i := 0; i < len(args) && i < 4; i++ {
		a[i] = C.uintptr_t(args[i])
	}
	switch len(args) {
	case 0:
		return uintptr(C.call0(fn)), nil
	case 1:
		return uintptr(C.call1(fn, a[0])), nil
	case 2:
		return uintptr(C.call2(fn, a[0], a[1])), nil
	case 3:
		return uintptr(C.call3(fn, a[0], a[1], a[2])), nil
	case 4:
		return uintptr(C.call4(fn, a[0], a[1], a[2], a[3])), nil
	default:
		return 0, errors.Errorf("call to %s: more than 4 arguments unsupported", name)
	}
}
