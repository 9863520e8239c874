package config

import (
	"reflect"
	"testing"
)

const toolDoc = `
[module]
name = "core"
top = "core"

[parameters.WIDTH]
default = 8
wide = 16
narrow = 4

[tools.sim]
configurations = ["default", "wide"]

[tools.lint]
configurations = ["all"]

[tools.synth]
`

func TestValidateToolConfigurations(t *testing.T) {
	cfg := mustParse(t, toolDoc)

	if err := ValidateToolConfigurations(cfg, "sim", []string{"default", "wide"}); err != nil {
		t.Errorf("allowed subset rejected: %v", err)
	}
	err := ValidateToolConfigurations(cfg, "sim", []string{"narrow"})
	if !IsKind(err, KindValidation) {
		t.Errorf("disallowed configuration error = %v, want validation", err)
	}

	// "all" sentinel and an absent configuration list accept everything.
	if err := ValidateToolConfigurations(cfg, "lint", []string{"narrow"}); err != nil {
		t.Errorf("all-sentinel tool rejected configuration: %v", err)
	}
	if err := ValidateToolConfigurations(cfg, "synth", []string{"narrow"}); err != nil {
		t.Errorf("tool without list rejected configuration: %v", err)
	}
	if err := ValidateToolConfigurations(cfg, "unknown-tool", []string{"narrow"}); err != nil {
		t.Errorf("undeclared tool rejected configuration: %v", err)
	}
}

func TestExpandConfigurations(t *testing.T) {
	cfg := mustParse(t, toolDoc)

	got, err := ExpandConfigurations(cfg, "sim", nil)
	if err != nil {
		t.Fatalf("expand empty: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"default"}) {
		t.Errorf("empty request = %v, want [default]", got)
	}

	got, err = ExpandConfigurations(cfg, "sim", []string{"all"})
	if err != nil {
		t.Fatalf("expand all for sim: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"default", "wide"}) {
		t.Errorf("sim all = %v, want the tool's list", got)
	}

	got, err = ExpandConfigurations(cfg, "lint", []string{"all"})
	if err != nil {
		t.Fatalf("expand all for lint: %v", err)
	}
	if !reflect.DeepEqual(got, cfg.ConfigurationNames()) {
		t.Errorf("lint all = %v, want every configuration", got)
	}

	_, err = ExpandConfigurations(cfg, "sim", []string{"missing"})
	if !IsKind(err, KindUnknownReference) {
		t.Errorf("unknown configuration error = %v, want unknown-reference", err)
	}

	_, err = ExpandConfigurations(cfg, "sim", []string{"narrow"})
	if !IsKind(err, KindValidation) {
		t.Errorf("disallowed configuration error = %v, want validation", err)
	}
}
