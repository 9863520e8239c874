package library

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

// mapSource serves transitive manifests from memory.
type mapSource map[string]*Manifest

func (s mapSource) ManifestFor(name string) (*Manifest, error) {
	if m, ok := s[name]; ok {
		return m, nil
	}
	return &Manifest{Libraries: map[string]*Spec{}}, nil
}

func spec(name string) *Spec {
	return &Spec{Name: name, Git: "https://example.com/" + name + ".git", Tag: "v1.0.0"}
}

func manifest(specs ...*Spec) *Manifest {
	m := &Manifest{Libraries: make(map[string]*Spec, len(specs))}
	for _, s := range specs {
		m.Libraries[s.Name] = s
	}
	return m
}

func planNames(plan []PlanEntry) []string {
	names := make([]string, 0, len(plan))
	for _, e := range plan {
		names = append(names, e.Spec.Name)
	}
	return names
}

func TestResolveTransitiveOrder(t *testing.T) {
	// a depends on b, b depends on c: install order must be c, b, a.
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("b")),
		"b": manifest(spec("c")),
	}, zerolog.Nop())

	plan, err := r.Resolve(manifest(spec("a")))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := planNames(plan); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Errorf("plan = %v, want [c b a]", got)
	}
}

func TestResolveCycle(t *testing.T) {
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("b")),
		"b": manifest(spec("a")),
	}, zerolog.Nop())

	_, err := r.Resolve(manifest(spec("a")))
	var ce *CircularDependencyError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CircularDependencyError", err)
	}
	if !reflect.DeepEqual(ce.Cycle, []string{"a", "b", "a"}) {
		t.Errorf("cycle = %v, want [a b a]", ce.Cycle)
	}
	want := "circular library dependency: a -> b -> a"
	if ce.Error() != want {
		t.Errorf("message = %q, want %q", ce.Error(), want)
	}
}

func TestResolveDiamondDeduplicates(t *testing.T) {
	// a and b both depend on shared; shared appears once, before both.
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("shared")),
		"b": manifest(spec("shared")),
	}, zerolog.Nop())

	plan, err := r.Resolve(manifest(spec("a"), spec("b")))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := planNames(plan)
	if !reflect.DeepEqual(got, []string{"shared", "a", "b"}) {
		t.Errorf("plan = %v, want [shared a b]", got)
	}
}

func TestResolveConflictingSelectorKeepsFirstSeen(t *testing.T) {
	conflicting := &Spec{Name: "shared", Git: "https://example.com/shared.git", Tag: "v2.0.0"}
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("shared")),
		"b": manifest(conflicting),
	}, zerolog.Nop())

	plan, err := r.Resolve(manifest(spec("a"), spec("b")))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, entry := range plan {
		if entry.Spec.Name == "shared" && entry.Spec.Tag != "v1.0.0" {
			t.Errorf("shared resolved to %s, want first-seen v1.0.0", entry.Spec.Tag)
		}
	}
}

func TestResolveSelfDependency(t *testing.T) {
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("a")),
	}, zerolog.Nop())

	_, err := r.Resolve(manifest(spec("a")))
	var ce *CircularDependencyError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CircularDependencyError", err)
	}
	if !reflect.DeepEqual(ce.Cycle, []string{"a", "a"}) {
		t.Errorf("cycle = %v, want [a a]", ce.Cycle)
	}
}

func TestResolveRequestedBy(t *testing.T) {
	r := NewGraphResolver(mapSource{
		"a": manifest(spec("b")),
	}, zerolog.Nop())

	plan, err := r.Resolve(manifest(spec("a")))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, entry := range plan {
		switch entry.Spec.Name {
		case "b":
			if entry.RequestedBy != "a" {
				t.Errorf("b requested by %q, want a", entry.RequestedBy)
			}
		case "a":
			if entry.RequestedBy != "" {
				t.Errorf("top-level a requested by %q, want empty", entry.RequestedBy)
			}
		}
	}
}
