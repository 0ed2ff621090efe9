// Command sierragen is the developer-facing CLI over pkg/executor
// (spec.md §6): compile a source IR program to a native object, dump
// its intermediate MIR, or compile-and-run a function in one step.
// Built with cobra, the same subcommand-tree shape saferwall-pe's
// cmd/pedumper.go uses for its own analysis CLI.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lambdaclass/cairo-native-go/internal/config"
	"github.com/lambdaclass/cairo-native-go/internal/ir/decode"
	"github.com/lambdaclass/cairo-native-go/internal/lower"
	"github.com/lambdaclass/cairo-native-go/internal/metadata"
	"github.com/lambdaclass/cairo-native-go/internal/mir"
	"github.com/lambdaclass/cairo-native-go/internal/registry"
	"github.com/lambdaclass/cairo-native-go/internal/sierra"
	"github.com/lambdaclass/cairo-native-go/internal/typebuilder"
	"github.com/lambdaclass/cairo-native-go/pkg/executor"
)

var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "sierragen",
		Short: "Compile and run Sierra-style programs ahead of time",
	}
	root.PersistentFlags().String("log-level", "info", "log verbosity (debug, info, warn, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lvl, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}
		parsed, err := logrus.ParseLevel(lvl)
		if err != nil {
			return err
		}
		log.SetLevel(parsed)
		return nil
	}

	root.AddCommand(compileCmd(), dumpMIRCmd(), runCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func compileCmd() *cobra.Command {
	var out string
	var opt int
	cmd := &cobra.Command{
		Use:   "compile <program.json>",
		Short: "Compile a program to a native shared object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := decode.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg := config.Default()
			cfg.Opt = config.OptLevel(opt)
			cm, err := executor.Compile(prog, cfg, log)
			if err != nil {
				return err
			}
			log.WithField("shared_object", cm.SoPath).Info("compiled")
			if out != "" {
				return copyFile(cm.SoPath, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination path for the compiled shared object")
	cmd.Flags().IntVar(&opt, "opt", int(config.OptDefault), "optimization level (0-3)")
	return cmd
}

func dumpMIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-mir <program.json>",
		Short: "Print the lowered MIR (LLVM IR text) without compiling further",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := decode.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg := config.Default()
			reg := registry.Build(prog)
			meta := metadata.New()
			metadata.Insert(meta, metadata.PrimeModulo{Prime: metadata.DefaultPrime()})
			metadata.Insert(meta, metadata.DefaultRuntimeSymbols())
			tb := typebuilder.New(reg, meta, cfg.PointerSize, cfg.NonX86_64)
			mod := mir.NewModule()
			lw := lower.New(reg, tb, meta, mod, cfg.PointerSize)
			for i := range prog.Functions {
				if _, err := lw.LowerFunction(&prog.Functions[i]); err != nil {
					return err
				}
			}
			fmt.Println(mod.Module.String())
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <program.json> <function> [args...]",
		Short: "Compile and execute a function in one step",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := decode.ReadFile(args[0])
			if err != nil {
				return err
			}
			callArgs, err := buildArgs(prog, args[1], args[2:])
			if err != nil {
				return err
			}
			result, err := executor.Quick(prog, args[1], 0, nil, callArgs)
			if err != nil {
				return err
			}
			fmt.Println(result.ReturnValue)
			return nil
		},
	}
	return cmd
}

// buildArgs pairs the CLI's raw integer arguments with functionName's
// non-elided parameter types in order, so executor.Execute can validate
// them against its declared signature (spec.md §6, §8 "Negative tests").
func buildArgs(prog *sierra.Program, functionName string, raw []string) ([]executor.Arg, error) {
	var fn *sierra.Function
	for i := range prog.Functions {
		if prog.Functions[i].Name == functionName {
			fn = &prog.Functions[i]
			break
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("unknown function %q", functionName)
	}

	cfg := config.Default()
	reg := registry.Build(prog)
	meta := metadata.New()
	tb := typebuilder.New(reg, meta, cfg.PointerSize, cfg.NonX86_64)

	sig := sierra.FunctionSignature{Returns: fn.Returns}
	for _, p := range fn.Params {
		sig.Params = append(sig.Params, p.Type)
	}
	cc, err := mir.BuildCallConvention(tb, reg, sig, cfg.PointerSize)
	if err != nil {
		return nil, err
	}

	var wantTypes []sierra.TypeID
	for i, p := range cc.Params {
		if p.Kind != mir.ParamElided {
			wantTypes = append(wantTypes, fn.Params[i].Type)
		}
	}
	if len(raw) != len(wantTypes) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", functionName, len(wantTypes), len(raw))
	}

	callArgs := make([]executor.Arg, len(raw))
	for i, a := range raw {
		v, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing argument %q: %w", a, err)
		}
		callArgs[i] = executor.Arg{Type: wantTypes[i], Value: uintptr(v)}
	}
	return callArgs, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
