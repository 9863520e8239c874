package config

import (
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, doc string) *ModuleConfig {
	t.Helper()
	cfg, err := NewLoader().Parse([]byte(doc), "test.toml")
	if err != nil {
		t.Fatalf("parsing document: %v", err)
	}
	return cfg
}

func testComposer() *Composer {
	return &Composer{LookupEnv: func(string) (string, bool) { return "", false }}
}

const scenarioDoc = `
[module]
name = "fifo"
top = "fifo"

[parameters.WIDTH]
default = 8
wide = 16
`

func TestComposeInlineConfiguration(t *testing.T) {
	cfg := mustParse(t, scenarioDoc)

	resolved, err := testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(16) {
		t.Errorf("WIDTH = %v, want 16", got)
	}

	resolved, err = testComposer().Compose(cfg, "sim", "default", nil)
	if err != nil {
		t.Fatalf("compose default: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(8) {
		t.Errorf("default WIDTH = %v, want 8", got)
	}
}

func TestComposeExplicitConfigurationBeatsInline(t *testing.T) {
	cfg := mustParse(t, scenarioDoc+`
[configurations.wide]
parameters = { WIDTH = 32 }
`)
	resolved, err := testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(32) {
		t.Errorf("WIDTH = %v, want 32", got)
	}
}

func TestComposeAncestorDoesNotBeatChildInline(t *testing.T) {
	cfg := mustParse(t, scenarioDoc+`
[configurations.base]
parameters = { WIDTH = 24 }

[configurations.wide]
inherit = "base"
`)
	resolved, err := testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(16) {
		t.Errorf("WIDTH = %v, want inline 16 over ancestor 24", got)
	}

	// Restating the value in the configuration itself does win.
	cfg.Configurations["wide"].Parameters = map[string]any{"WIDTH": int64(48)}
	resolved, err = testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose restated: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(48) {
		t.Errorf("restated WIDTH = %v, want 48", got)
	}
}

func TestComposeToolOverrideBeatsConfiguration(t *testing.T) {
	cfg := mustParse(t, scenarioDoc+`
[configurations.wide]
parameters = { WIDTH = 32 }

[tools.sim]
parameters = { WIDTH = 64 }
`)
	resolved, err := testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(64) {
		t.Errorf("WIDTH = %v, want 64", got)
	}
}

func TestComposeCallerOverrideWinsAndReverts(t *testing.T) {
	cfg := mustParse(t, scenarioDoc+`
[configurations.wide]
parameters = { WIDTH = 32 }

[tools.sim]
parameters = { WIDTH = 64 }
`)
	resolved, err := testComposer().Compose(cfg, "sim", "wide", map[string]any{"WIDTH": int64(128)})
	if err != nil {
		t.Fatalf("compose with override: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(128) {
		t.Errorf("WIDTH = %v, want 128", got)
	}

	resolved, err = testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose without override: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(64) {
		t.Errorf("WIDTH without caller override = %v, want 64", got)
	}

	cfg.Tools["sim"].Parameters = map[string]any{}
	resolved, err = testComposer().Compose(cfg, "sim", "wide", nil)
	if err != nil {
		t.Fatalf("compose without tool override: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(32) {
		t.Errorf("WIDTH without tool override = %v, want 32", got)
	}
}

func TestComposeDeterministic(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8
DEPTH = 64

[parameters.ADDR_WIDTH]
expr = "log2(${DEPTH})"

[defines]
SYNTHESIS = false

[configurations.big]
parameters = { DEPTH = 1024 }
`)
	first, err := testComposer().Compose(cfg, "sim", "big", map[string]any{"WIDTH": int64(16)})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	second, err := testComposer().Compose(cfg, "sim", "big", map[string]any{"WIDTH": int64(16)})
	if err != nil {
		t.Fatalf("compose again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated composition differs:\nfirst:  %#v\nsecond: %#v", first, second)
	}
	if got := first.Parameters["ADDR_WIDTH"]; got != int64(10) {
		t.Errorf("ADDR_WIDTH = %v, want 10", got)
	}
}

func TestComposeInheritChain(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8
DEPTH = 16

[configurations.base]
parameters = { WIDTH = 32, DEPTH = 32 }

[configurations.child]
inherit = "base"
parameters = { WIDTH = 64 }
`)
	resolved, err := testComposer().Compose(cfg, "sim", "child", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(64) {
		t.Errorf("WIDTH = %v, want child override 64", got)
	}
	if got := resolved.Parameters["DEPTH"]; got != int64(32) {
		t.Errorf("DEPTH = %v, want inherited 32", got)
	}
}

func TestComposeInheritCycle(t *testing.T) {
	doc := `
[module]
name = "core"
top = "core"

[parameters]
WIDTH = 8

[configurations.a]
inherit = "b"

[configurations.b]
inherit = "a"
`
	cfg, err := NewLoader().Parse([]byte(doc), "test.toml")
	if err == nil {
		_, err = testComposer().Compose(cfg, "sim", "a", nil)
	}
	if err == nil {
		t.Fatal("expected circular inheritance error")
	}
	if !IsKind(err, KindCircularDependency) {
		t.Fatalf("error kind = %v, want circular-dependency", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || len(ce.Cycle) < 3 {
		t.Errorf("cycle path missing from error: %v", err)
	}
}

func TestComposeUnknownOverrideNames(t *testing.T) {
	cfg := mustParse(t, scenarioDoc)

	_, err := testComposer().Compose(cfg, "sim", "default", map[string]any{"BOGUS": 1})
	if !IsKind(err, KindUnknownReference) {
		t.Errorf("caller override error = %v, want unknown-reference", err)
	}

	_, err = testComposer().Compose(cfg, "sim", "nope", nil)
	if !IsKind(err, KindUnknownReference) {
		t.Errorf("unknown configuration error = %v, want unknown-reference", err)
	}
}

func TestComposeValidatesRange(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
range = [1, 64]
`)
	_, err := testComposer().Compose(cfg, "sim", "default", map[string]any{"WIDTH": int64(128)})
	if !IsKind(err, KindValidation) {
		t.Fatalf("out-of-range error = %v, want validation", err)
	}

	if _, err := testComposer().Compose(cfg, "sim", "default", map[string]any{"WIDTH": int64(64)}); err != nil {
		t.Errorf("boundary value rejected: %v", err)
	}
}

func TestComposeValuesListTakesPrecedenceOverRange(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
range = [1, 10]
values = [8, 16, 32]
`)
	// 16 violates the range but is allowed by the values list.
	if _, err := testComposer().Compose(cfg, "sim", "default", map[string]any{"WIDTH": int64(16)}); err != nil {
		t.Errorf("allow-listed value rejected: %v", err)
	}
	// 9 satisfies the range but not the allow-list.
	_, err := testComposer().Compose(cfg, "sim", "default", map[string]any{"WIDTH": int64(9)})
	if !IsKind(err, KindValidation) {
		t.Errorf("off-list value error = %v, want validation", err)
	}
}

func TestComposeEnvOverride(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
env = "CORE_WIDTH"
`)
	c := &Composer{LookupEnv: func(name string) (string, bool) {
		if name == "CORE_WIDTH" {
			return "24", true
		}
		return "", false
	}}
	resolved, err := c.Compose(cfg, "sim", "default", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["WIDTH"]; got != int64(24) {
		t.Errorf("WIDTH = %v, want env override 24", got)
	}
}

func TestComposeToolRejectsConfiguration(t *testing.T) {
	cfg := mustParse(t, scenarioDoc+`
[tools.sim]
configurations = ["default"]
`)
	_, err := testComposer().Compose(cfg, "sim", "wide", nil)
	if !IsKind(err, KindValidation) {
		t.Fatalf("disallowed configuration error = %v, want validation", err)
	}
}

func TestParseValueInference(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", int64(42)},
		{"0x10", int64(16)},
		{"2.5", 2.5},
		{"hello", "hello"},
	}
	for _, tc := range cases {
		if got := ParseValue(tc.in); got != tc.want {
			t.Errorf("ParseValue(%q) = %v (%T), want %v", tc.in, got, got, tc.want)
		}
	}
}
