// Package library manages external HDL dependency libraries: the manifest
// document, symbolic path resolution, transitive dependency graph
// resolution, and installation through a version-control client.
package library

import (
	"fmt"
	"strings"
)

// UnknownLibraryError reports a reference to a library name absent from
// the resolved dependency set.
type UnknownLibraryError struct {
	Name      string
	Available []string
}

func (e *UnknownLibraryError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown library %q: no libraries declared", e.Name)
	}
	return fmt.Sprintf("unknown library %q, declared: %s", e.Name, strings.Join(e.Available, ", "))
}

// CircularDependencyError reports a cycle in the transitive library
// dependency graph. Cycle holds the full ordered path, first name
// repeated at the end.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular library dependency: %s", strings.Join(e.Cycle, " -> "))
}

// ManifestError reports a malformed manifest document.
type ManifestError struct {
	Path    string
	Library string
	Message string
	Err     error
}

func (e *ManifestError) Error() string {
	var sb strings.Builder
	sb.WriteString("manifest")
	if e.Path != "" {
		fmt.Fprintf(&sb, " %s", e.Path)
	}
	if e.Library != "" {
		fmt.Fprintf(&sb, " library %q", e.Library)
	}
	fmt.Fprintf(&sb, ": %s", e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}
