package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Spec identifies one external library: its git URL and exactly one
// version selector.
type Spec struct {
	Name   string `toml:"-"`
	Git    string `toml:"git" validate:"required"`
	Tag    string `toml:"tag,omitempty"`
	Branch string `toml:"branch,omitempty"`
	Commit string `toml:"commit,omitempty"`
}

// Selector returns the version selector kind and value.
func (s *Spec) Selector() (kind, value string) {
	switch {
	case s.Tag != "":
		return "tag", s.Tag
	case s.Branch != "":
		return "branch", s.Branch
	case s.Commit != "":
		return "commit", s.Commit
	}
	return "", ""
}

// SelectorString formats the selector for display, e.g. "tag v1.2.0".
func (s *Spec) SelectorString() string {
	kind, value := s.Selector()
	if kind == "" {
		return "unpinned"
	}
	return kind + " " + value
}

func (s *Spec) selectorCount() int {
	n := 0
	for _, v := range []string{s.Tag, s.Branch, s.Commit} {
		if v != "" {
			n++
		}
	}
	return n
}

// Manifest is the library dependency document of one repository root or
// one installed library. ManifestName is its conventional filename inside
// an installed library's directory.
type Manifest struct {
	Libraries map[string]*Spec `toml:"libraries"`

	// Path records where the manifest was loaded from, for diagnostics.
	Path string `toml:"-"`
}

// ManifestName is the manifest filename probed inside installed libraries
// for transitive dependencies.
const ManifestName = "libraries.toml"

var manifestValidate = validator.New()

// LoadManifest reads a manifest document. A missing file yields an empty
// manifest, not an error, so a repository without dependencies needs no
// document at all.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Libraries: make(map[string]*Spec), Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, &ManifestError{Path: path, Message: "cannot read", Err: err}
	}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, &ManifestError{Path: path, Message: "invalid TOML", Err: err}
	}
	if m.Libraries == nil {
		m.Libraries = make(map[string]*Spec)
	}
	for name, spec := range m.Libraries {
		spec.Name = name
		if err := manifestValidate.Struct(spec); err != nil {
			return nil, &ManifestError{Path: path, Library: name, Message: "missing git URL", Err: err}
		}
		if spec.selectorCount() != 1 {
			return nil, &ManifestError{
				Path:    path,
				Library: name,
				Message: "exactly one of tag, branch or commit is required",
			}
		}
	}
	m.Path = path
	return m, nil
}

// Save writes the manifest atomically: the document is staged to a
// temporary file in the target directory and renamed into place, so a
// failed write never leaves a half-updated manifest.
func (m *Manifest) Save(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return &ManifestError{Path: path, Message: "cannot encode", Err: err}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ManifestError{Path: path, Message: "cannot create directory", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".libraries-*.toml")
	if err != nil {
		return &ManifestError{Path: path, Message: "cannot stage write", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &ManifestError{Path: path, Message: "cannot write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &ManifestError{Path: path, Message: "cannot write", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &ManifestError{Path: path, Message: "cannot replace", Err: err}
	}
	return nil
}

// Names returns the declared library names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Libraries))
	for name := range m.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeriveName derives a library name from a git URL: the last path segment
// with any .git suffix stripped. Handles https, ssh scp-like and plain
// path forms.
func DeriveName(url string) string {
	s := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
