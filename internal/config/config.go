// Package config centralizes the compilation knobs the teacher's
// original Buildfile DSL (tools/build.go) used to hardcode as global
// flags: target platform, optimization preset, and debug-info emission
// (spec.md §6 "External Interfaces").
package config

import "runtime"

// OptLevel mirrors clang/opt's -O0..-O3 presets (spec.md §4.6 "Object
// Builder" optimization pipeline).
type OptLevel int

const (
	OptNone OptLevel = iota
	OptLess
	OptDefault
	OptAggressive
)

func (o OptLevel) String() string {
	switch o {
	case OptNone:
		return "O0"
	case OptLess:
		return "O1"
	case OptDefault:
		return "O2"
	case OptAggressive:
		return "O3"
	default:
		return "O2"
	}
}

// Config is the compilation target configuration threaded from the CLI
// (cmd/sierragen) down through internal/codegen and internal/linker.
type Config struct {
	TargetTriple string
	Opt          OptLevel
	DebugInfo    bool
	NonX86_64    bool // selects the felt252 16-byte-alignment layout variant
	PointerSize  int64
}

// Default returns the host platform's natural configuration.
func Default() *Config {
	triple := hostTriple()
	return &Config{
		TargetTriple: triple,
		Opt:          OptDefault,
		DebugInfo:    false,
		NonX86_64:    runtime.GOARCH != "amd64",
		PointerSize:  8,
	}
}

func hostTriple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	vendor := "unknown"
	osys := runtime.GOOS
	if osys == "darwin" {
		vendor = "apple"
	}
	return arch + "-" + vendor + "-" + osys
}
