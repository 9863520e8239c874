// Package sim invokes HDL simulators with composed configuration values.
// Each run gets its own build directory under build/<simulator>/ and a
// unique run ID carried through the logs.
package sim

import (
	"fmt"
	"sort"
)

// Simulator builds the command lines for one supported simulator binary.
type Simulator interface {
	// Name is the simulator identifier used in tool settings and build
	// directory naming.
	Name() string

	// Binary is the executable looked up on PATH.
	Binary() string

	// CompileArgs builds the compile/elaborate invocation arguments.
	CompileArgs(in *Invocation) []string

	// LintArgs builds the lint-only invocation arguments, or nil when the
	// simulator cannot lint.
	LintArgs(in *Invocation) []string
}

// Invocation carries everything a simulator needs for one run.
type Invocation struct {
	Top         string
	Sources     []string
	IncludeDirs []string
	Parameters  map[string]any
	Defines     map[string]any
	BuildDir    string
	ExtraArgs   []string
}

// ForSimulator returns the named simulator implementation.
func ForSimulator(name string) (Simulator, error) {
	switch name {
	case "verilator":
		return Verilator{}, nil
	case "icarus":
		return Icarus{}, nil
	}
	return nil, fmt.Errorf("unsupported simulator %q, supported: icarus, verilator", name)
}

// Verilator drives the verilator binary for both simulation builds and
// lint-only checks.
type Verilator struct{}

func (Verilator) Name() string   { return "verilator" }
func (Verilator) Binary() string { return "verilator" }

func (Verilator) CompileArgs(in *Invocation) []string {
	args := []string{
		"--cc", "--exe", "--build", "--timing", "--trace",
		"-j", "0",
		"--Mdir", in.BuildDir,
	}
	args = appendCommon(args, in)
	args = append(args, "--top-module", in.Top)
	return append(args, in.ExtraArgs...)
}

func (Verilator) LintArgs(in *Invocation) []string {
	args := []string{"--lint-only", "-Wall", "-Wno-PROCASSINIT"}
	args = appendCommon(args, in)
	if in.Top != "" {
		args = append(args, "--top-module", in.Top)
	}
	return append(args, in.ExtraArgs...)
}

// appendCommon adds includes, parameters, defines and sources in
// verilator's flag syntax, values in sorted name order.
func appendCommon(args []string, in *Invocation) []string {
	for _, dir := range in.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, name := range sortedKeys(in.Parameters) {
		v := in.Parameters[name]
		if s, ok := v.(string); ok {
			args = append(args, fmt.Sprintf("-G%s=%q", name, s))
			continue
		}
		args = append(args, fmt.Sprintf("-G%s=%s", name, formatValue(v)))
	}
	for _, name := range sortedKeys(in.Defines) {
		v := in.Defines[name]
		if b, ok := v.(bool); ok && b {
			args = append(args, "-D"+name)
			continue
		}
		args = append(args, fmt.Sprintf("-D%s=%s", name, formatValue(v)))
	}
	return append(args, in.Sources...)
}

// Icarus drives iverilog. Lint is not supported; simulation compiles to a
// vvp image in the build directory.
type Icarus struct{}

func (Icarus) Name() string   { return "icarus" }
func (Icarus) Binary() string { return "iverilog" }

func (Icarus) CompileArgs(in *Invocation) []string {
	args := []string{"-g2012", "-o", in.BuildDir + "/sim.vvp"}
	for _, dir := range in.IncludeDirs {
		args = append(args, "-I", dir)
	}
	for _, name := range sortedKeys(in.Parameters) {
		args = append(args, fmt.Sprintf("-P%s.%s=%s", in.Top, name, formatValue(in.Parameters[name])))
	}
	for _, name := range sortedKeys(in.Defines) {
		v := in.Defines[name]
		if b, ok := v.(bool); ok && b {
			args = append(args, "-D"+name)
			continue
		}
		args = append(args, fmt.Sprintf("-D%s=%s", name, formatValue(v)))
	}
	if in.Top != "" {
		args = append(args, "-s", in.Top)
	}
	args = append(args, in.ExtraArgs...)
	return append(args, in.Sources...)
}

func (Icarus) LintArgs(in *Invocation) []string { return nil }

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
