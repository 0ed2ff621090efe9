// Package linker implements the Linker/Loader component (spec.md §4.6):
// check that the runtime archive defines the symbols the emitted code
// calls, link one compiled object against that archive into a shared
// object, then hand it to the
// platform loader (internal/linker/dlopen_unix.go) for in-process
// execution.
package linker

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/lambdaclass/cairo-native-go/internal/runtime"
)

// LinkError reports a failed external-linker invocation, mirroring
// codegen.ToolchainError for the one other place this module shells out
// to a native toolchain.
type LinkError struct {
	Output string
	Cause  error
}

func (e *LinkError) Error() string { return errors.Wrap(e.Cause, e.Output).Error() }
func (e *LinkError) Unwrap() error { return e.Cause }

// MissingSymbolError is returned by VerifySymbols when the runtime
// archive on disk doesn't define an entry point the emitted object calls
// (spec.md §7 "Link errors").
type MissingSymbolError struct {
	Symbol string
}

func (e *MissingSymbolError) Error() string {
	return errors.Errorf("runtime archive missing required symbol %q", e.Symbol).Error()
}

// Link invokes the system C compiler as the final linker, producing a
// shared object from the compiled module plus the embedded runtime
// archive (spec.md §4.6, §4.8).
func Link(objPath, soPath, archivePath string) error {
	cmd := exec.Command("cc", "-shared", "-fPIC", "-o", soPath, objPath, archivePath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &LinkError{Output: string(out), Cause: err}
	}
	return nil
}

// WriteArchive persists the embedded runtime archive (internal/runtime)
// to a scratch path the system linker can consume.
func WriteArchive(dir string) (string, error) {
	path := filepath.Join(dir, "runtime.a")
	if err := os.WriteFile(path, runtime.Archive, 0o644); err != nil {
		return "", errors.Wrap(err, "writing runtime archive")
	}
	return path, nil
}

// VerifySymbols maps archivePath read-only via mmap-go and scans for
// every symbol name runtime.AllSymbols declares, failing fast with a
// precise diagnostic instead of deferring to the system linker's own
// (much less readable) undefined-symbol error. The scan is a coarse
// byte-substring search over the archive's string/symbol table, which is
// sufficient for ar/ELF archives since symbol names are stored as plain
// NUL-terminated ASCII.
func VerifySymbols(archivePath string, required []string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening runtime archive")
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return errors.Wrap(err, "mapping runtime archive")
	}
	defer m.Unmap()

	for _, sym := range required {
		if !bytes.Contains(m, []byte(sym)) {
			return &MissingSymbolError{Symbol: sym}
		}
	}
	return nil
}
