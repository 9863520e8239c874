package config

import (
	"testing"
)

func TestParseFullDocument(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "axis_fifo"
top = "axis_fifo"
type = "rtl"
description = "Streaming FIFO"

[module.sources]
packages = ["rtl/axis_pkg.sv"]
modules = ["rtl/axis_fifo.sv", "@axi-utils/rtl/skid_buffer.sv"]
includes = ["rtl/include"]

[parameters.WIDTH]
default = 8
type = "integer"
range = [1, 512]
description = "data width"

[parameters.DEPTH]
default = 64
values = [16, 64, 256]

[defines.SYNTHESIS]
default = false

[configurations.deep]
inherit = "default"
description = "deep buffers"
parameters = { DEPTH = 256 }

[tools.sim]
configurations = ["all"]

[tools.sim.tests.smoke]
test_module = "tb.smoke"
timeout = 120

[tools.lint]
configurations = ["default", "deep"]
`)

	if cfg.Module.Name != "axis_fifo" || cfg.Module.Top != "axis_fifo" {
		t.Errorf("module identity = %q/%q", cfg.Module.Name, cfg.Module.Top)
	}
	if cfg.Module.Type != ModuleRTL {
		t.Errorf("module type = %q, want rtl", cfg.Module.Type)
	}
	if len(cfg.Sources.Modules) != 2 {
		t.Errorf("modules = %v", cfg.Sources.Modules)
	}

	width := cfg.Parameters["WIDTH"]
	if width == nil || width.Type != TypeInteger || width.Range == nil || width.Range.Max != 512 {
		t.Errorf("WIDTH parameter = %+v", width)
	}
	depth := cfg.Parameters["DEPTH"]
	if depth == nil || len(depth.Values) != 3 {
		t.Errorf("DEPTH parameter = %+v", depth)
	}
	if cfg.Defines["SYNTHESIS"] == nil || cfg.Defines["SYNTHESIS"].Type != TypeBoolean {
		t.Errorf("SYNTHESIS define = %+v", cfg.Defines["SYNTHESIS"])
	}

	deep := cfg.Configurations["deep"]
	if deep == nil || deep.Inherit != "default" {
		t.Fatalf("deep configuration = %+v", deep)
	}
	if deep.Parameters["DEPTH"] != int64(256) {
		t.Errorf("deep DEPTH override = %v", deep.Parameters["DEPTH"])
	}

	simTool := cfg.Tools["sim"]
	if simTool == nil || !simTool.AllowsAll() {
		t.Fatalf("sim tool = %+v", simTool)
	}
	smoke, ok := simTool.Tests["smoke"]
	if !ok || smoke.TestModule != "tb.smoke" || smoke.Timeout != 120 {
		t.Errorf("smoke test = %+v", smoke)
	}
	if cfg.Tools["lint"].AllowsAll() {
		t.Error("lint tool should not allow every configuration")
	}
}

func TestParseScalarShorthand(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8
RATE = 1.5
NAME = "core"
ENABLE = true
`)
	cases := []struct {
		name string
		typ  ValueType
		def  any
	}{
		{"WIDTH", TypeInteger, int64(8)},
		{"RATE", TypeReal, 1.5},
		{"NAME", TypeString, "core"},
		{"ENABLE", TypeBoolean, true},
	}
	for _, tc := range cases {
		p := cfg.Parameters[tc.name]
		if p == nil {
			t.Fatalf("parameter %s missing", tc.name)
		}
		if p.Type != tc.typ || p.Default != tc.def {
			t.Errorf("%s = {type: %s, default: %v}, want {%s, %v}", tc.name, p.Type, p.Default, tc.typ, tc.def)
		}
	}
}

func TestParseRejectsDefaultAndExpr(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
expr = "log2(${DEPTH})"
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsMissingDefault(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters.WIDTH]
type = "integer"
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsMissingModule(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[parameters]
WIDTH = 8
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsMissingTop(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
type = "float"
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsTableInlineValue(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8

[parameters.WIDTH.wide]
value = 16
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}

func TestParseRejectsUndeclaredConfigurationOverride(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8

[configurations.fast]
parameters = { BOGUS = 1 }
`), "test.toml")
	if !IsKind(err, KindUnknownReference) {
		t.Errorf("error = %v, want unknown-reference", err)
	}
}

func TestParseRejectsToolListingUnknownConfiguration(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8

[tools.sim]
configurations = ["missing"]
`), "test.toml")
	if !IsKind(err, KindUnknownReference) {
		t.Errorf("error = %v, want unknown-reference", err)
	}
}

func TestParseTestRequiresTestModule(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[tools.sim.tests.smoke]
timeout = 30
`), "test.toml")
	if !IsKind(err, KindSchema) {
		t.Errorf("error = %v, want schema", err)
	}
}
