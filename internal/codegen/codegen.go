// Package codegen implements the Object Builder's final, black-box leg
// (spec.md §4.6): MIR is already real LLVM IR (internal/mir), so the
// only work left here is printing it to text and invoking the external
// LLVM toolchain, the same way tools/build.go shells out to `go build`
// and friends via os/exec rather than reimplementing the Go compiler.
package codegen

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lambdaclass/cairo-native-go/internal/config"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
)

// ToolchainError wraps a failed external command invocation with its
// captured stderr, so callers see the compiler's own diagnostic instead
// of a bare exit-status error (spec.md §7 "Link errors").
type ToolchainError struct {
	Tool   string
	Args   []string
	Output string
	Cause  error
}

func (e *ToolchainError) Error() string {
	return errors.Wrapf(e.Cause, "%s %v failed: %s", e.Tool, e.Args, e.Output).Error()
}

func (e *ToolchainError) Unwrap() error { return e.Cause }

// Builder drives opt/llc over one MIR module, writing intermediates into
// a scratch directory.
type Builder struct {
	cfg *config.Config
	log *logrus.Entry
}

// New creates a Builder bound to a target configuration.
func New(cfg *config.Config, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	return &Builder{cfg: cfg, log: log.WithField("component", "codegen")}
}

// EmitText renders the MIR module's textual LLVM IR, the same
// representation opt/llc consume (spec.md §2 "Object Builder translates
// to native LLVM IR").
func (b *Builder) EmitText(mod *mir.Module) string {
	return mod.Module.String()
}

// WriteObject runs the module through opt (optimization pipeline) and
// llc (object emission) into a PIC .o file at objPath (spec.md §4.6).
func (b *Builder) WriteObject(mod *mir.Module, dir, objPath string) error {
	llPath := filepath.Join(dir, "module.ll")
	if err := os.WriteFile(llPath, []byte(b.EmitText(mod)), 0o644); err != nil {
		return errors.Wrap(err, "writing MIR text")
	}

	optimizedPath := llPath
	if b.cfg.Opt != config.OptNone {
		optimizedPath = filepath.Join(dir, "module.opt.ll")
		if err := b.run("opt", "-S", "-"+b.cfg.Opt.String(), llPath, "-o", optimizedPath); err != nil {
			return err
		}
	}

	args := []string{"-filetype=obj", "-relocation-model=pic"}
	if b.cfg.TargetTriple != "" {
		args = append(args, "-mtriple="+b.cfg.TargetTriple)
	}
	args = append(args, optimizedPath, "-o", objPath)
	if err := b.run("llc", args...); err != nil {
		return err
	}
	b.log.WithField("object", objPath).Info("compiled module to object file")
	return nil
}

func (b *Builder) run(tool string, args ...string) error {
	cmd := exec.Command(tool, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolchainError{Tool: tool, Args: args, Output: string(out), Cause: err}
	}
	return nil
}
