package config

import "testing"

func TestExpressionEvaluation(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
DEPTH = 64

[parameters.ADDR_WIDTH]
expr = "log2(${DEPTH})"

[parameters.TOTAL_BITS]
expr = "${ADDR_WIDTH} * 2 + 1"
`)
	resolved, err := testComposer().Compose(cfg, "sim", "default", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["ADDR_WIDTH"]; got != int64(6) {
		t.Errorf("ADDR_WIDTH = %v, want 6", got)
	}
	if got := resolved.Parameters["TOTAL_BITS"]; got != int64(13) {
		t.Errorf("TOTAL_BITS = %v, want 13", got)
	}
}

func TestExpressionPerConfiguration(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.DEPTH]
default = 64
big = 1024

[parameters.ADDR_WIDTH]
expr = "log2(${DEPTH})"
`)
	resolved, err := testComposer().Compose(cfg, "sim", "big", nil)
	if err != nil {
		t.Fatalf("compose big: %v", err)
	}
	if got := resolved.Parameters["ADDR_WIDTH"]; got != int64(10) {
		t.Errorf("big ADDR_WIDTH = %v, want 10", got)
	}

	resolved, err = testComposer().Compose(cfg, "sim", "default", nil)
	if err != nil {
		t.Fatalf("compose default: %v", err)
	}
	if got := resolved.Parameters["ADDR_WIDTH"]; got != int64(6) {
		t.Errorf("default ADDR_WIDTH = %v, want 6", got)
	}
}

func TestExpressionBuiltins(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
A = 10
B = 3

[parameters.MAXV]
expr = "max(${A}, ${B})"

[parameters.CEILDIV]
expr = "ceil(${A} / 3.0)"
`)
	resolved, err := testComposer().Compose(cfg, "sim", "default", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["MAXV"]; got != int64(10) {
		t.Errorf("MAXV = %v (%T), want 10", got, got)
	}
	if got := resolved.Parameters["CEILDIV"]; got != int64(4) {
		t.Errorf("CEILDIV = %v (%T), want 4", got, got)
	}
}

func TestExpressionOverrideSkipsEvaluation(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters]
DEPTH = 64

[parameters.ADDR_WIDTH]
expr = "log2(${DEPTH})"

[configurations.fixed]
parameters = { ADDR_WIDTH = 12 }
`)
	resolved, err := testComposer().Compose(cfg, "sim", "fixed", nil)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got := resolved.Parameters["ADDR_WIDTH"]; got != int64(12) {
		t.Errorf("ADDR_WIDTH = %v, want explicit 12", got)
	}
}

func TestExpressionCycle(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.A]
expr = "${B} + 1"

[parameters.B]
expr = "${A} + 1"
`)
	_, err := testComposer().Compose(cfg, "sim", "default", nil)
	if !IsKind(err, KindExpression) {
		t.Fatalf("error = %v, want expression", err)
	}
}

func TestExpressionUnknownReference(t *testing.T) {
	_, err := NewLoader().Parse([]byte(`
[module]
name = "core"
top = "core"

[parameters.A]
expr = "${MISSING} + 1"
`), "test.toml")
	if !IsKind(err, KindExpression) {
		t.Fatalf("error = %v, want expression", err)
	}
}

func TestExpressionSelfReference(t *testing.T) {
	cfg := mustParse(t, `
[module]
name = "core"
top = "core"

[parameters.A]
expr = "${A} + 1"
`)
	_, err := testComposer().Compose(cfg, "sim", "default", nil)
	if !IsKind(err, KindExpression) {
		t.Fatalf("error = %v, want expression", err)
	}
}

func TestExpressionRefs(t *testing.T) {
	refs := expressionRefs("log2(${DEPTH}) + ${WIDTH} * ${DEPTH}")
	if len(refs) != 2 || refs[0] != "DEPTH" || refs[1] != "WIDTH" {
		t.Errorf("refs = %v, want [DEPTH WIDTH]", refs)
	}
}
