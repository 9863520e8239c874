package library

import (
	"path/filepath"

	"github.com/rs/zerolog"
)

// ManifestSource supplies the dependency manifest carried by a library,
// if any. The graph resolver reaches transitive dependencies through it
// and never touches the network or mutates the filesystem itself.
type ManifestSource interface {
	// ManifestFor returns the manifest declared inside the named library,
	// or an empty manifest when the library carries none or is not yet
	// available on disk.
	ManifestFor(name string) (*Manifest, error)
}

// DirManifestSource reads library manifests from an install root where
// each library occupies <root>/<name>.
type DirManifestSource struct {
	Root string
}

func (s DirManifestSource) ManifestFor(name string) (*Manifest, error) {
	return LoadManifest(filepath.Join(s.Root, name, ManifestName))
}

// PlanEntry is one library in a resolved install plan, with the manifest
// that first requested it.
type PlanEntry struct {
	Spec *Spec

	// RequestedBy is the library whose manifest declared this entry, or
	// empty for top-level declarations.
	RequestedBy string
}

// GraphResolver turns a top-level manifest into a flattened install plan:
// transitive, cycle-checked, dependencies before dependents, each library
// exactly once. On conflicting version selectors for the same name the
// first-seen selector stays authoritative and the conflict is logged.
type GraphResolver struct {
	source ManifestSource
	logger zerolog.Logger
}

// NewGraphResolver creates a resolver reading transitive manifests from
// source.
func NewGraphResolver(source ManifestSource, logger zerolog.Logger) *GraphResolver {
	return &GraphResolver{source: source, logger: logger}
}

// frame is one in-progress library on the explicit traversal stack.
type frame struct {
	spec        *Spec
	requestedBy string
	children    []*Spec
	next        int
}

// Resolve computes the install plan for the given top-level manifest.
func (r *GraphResolver) Resolve(top *Manifest) ([]PlanEntry, error) {
	resolved := make(map[string]*Spec)
	onStack := make(map[string]bool)
	var plan []PlanEntry

	for _, rootName := range top.Names() {
		rootSpec := top.Libraries[rootName]
		if r.alreadyResolved(resolved, rootSpec, "") {
			continue
		}

		// Iterative depth-first walk. The stack doubles as the
		// currently-resolving path for cycle reporting.
		stack := []*frame{{spec: rootSpec}}
		onStack[rootName] = true

		for len(stack) > 0 {
			f := stack[len(stack)-1]

			if f.children == nil {
				m, err := r.source.ManifestFor(f.spec.Name)
				if err != nil {
					return nil, err
				}
				f.children = make([]*Spec, 0, len(m.Libraries))
				for _, name := range m.Names() {
					dep := m.Libraries[name]
					dep.Name = name
					f.children = append(f.children, dep)
				}
			}

			if f.next < len(f.children) {
				dep := f.children[f.next]
				f.next++

				if onStack[dep.Name] {
					return nil, &CircularDependencyError{Cycle: cyclePath(stack, dep.Name)}
				}
				if r.alreadyResolved(resolved, dep, f.spec.Name) {
					continue
				}
				stack = append(stack, &frame{spec: dep, requestedBy: f.spec.Name})
				onStack[dep.Name] = true
				continue
			}

			// All dependencies handled; the library itself joins the plan.
			stack = stack[:len(stack)-1]
			delete(onStack, f.spec.Name)
			resolved[f.spec.Name] = f.spec
			plan = append(plan, PlanEntry{Spec: f.spec, RequestedBy: f.requestedBy})
		}
	}
	return plan, nil
}

// alreadyResolved reports whether the name was resolved earlier, logging a
// warning when the new spec disagrees with the authoritative one.
func (r *GraphResolver) alreadyResolved(resolved map[string]*Spec, spec *Spec, requestedBy string) bool {
	first, ok := resolved[spec.Name]
	if !ok {
		return false
	}
	if first.Git != spec.Git || first.SelectorString() != spec.SelectorString() {
		r.logger.Warn().
			Str("library", spec.Name).
			Str("requested_by", requestedBy).
			Str("selected", first.SelectorString()).
			Str("ignored", spec.SelectorString()).
			Msg("conflicting version selectors, keeping first-seen")
	}
	return true
}

// cyclePath extracts the cycle from the traversal stack, starting at the
// repeated name and closing back on it.
func cyclePath(stack []*frame, repeat string) []string {
	start := 0
	for i, f := range stack {
		if f.spec.Name == repeat {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.spec.Name)
	}
	return append(cycle, repeat)
}
