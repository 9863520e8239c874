package library

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveSymbolicPath(t *testing.T) {
	repoRoot := "/work/project"
	installDir := "/work/project/.forge/libs"
	r := NewPathResolver(repoRoot, installDir, []string{"axi-utils"})

	got, err := r.Resolve("@axi-utils/rtl/skid_buffer.sv")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := filepath.Join(installDir, "axi-utils", "rtl", "skid_buffer.sv")
	if got != want {
		t.Errorf("resolved = %q, want %q", got, want)
	}
}

func TestResolvePlainPath(t *testing.T) {
	r := NewPathResolver("/work/project", "/work/project/.forge/libs", nil)

	got, err := r.Resolve("rtl/fifo.sv")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := filepath.Join("/work/project", "rtl", "fifo.sv"); got != want {
		t.Errorf("resolved = %q, want %q", got, want)
	}

	abs := "/elsewhere/fifo.sv"
	got, err = r.Resolve(abs)
	if err != nil {
		t.Fatalf("resolve absolute: %v", err)
	}
	if got != abs {
		t.Errorf("absolute path rewritten to %q", got)
	}
}

func TestResolveUnknownLibrary(t *testing.T) {
	r := NewPathResolver("/work", "/work/.forge/libs", []string{"known"})

	_, err := r.Resolve("@mystery/rtl/top.sv")
	var ue *UnknownLibraryError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UnknownLibraryError", err)
	}
	if ue.Name != "mystery" {
		t.Errorf("unknown name = %q", ue.Name)
	}
}

func TestLibraryName(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"@axi-utils/rtl/top.sv", "axi-utils"},
		{"@axi-utils", "axi-utils"},
		{"rtl/top.sv", ""},
	}
	for _, tc := range cases {
		if got := LibraryName(tc.path); got != tc.want {
			t.Errorf("LibraryName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestIncludeDirsProbing(t *testing.T) {
	installDir := t.TempDir()
	for _, dir := range []string{
		filepath.Join(installDir, "axi-utils", "include"),
		filepath.Join(installDir, "axi-utils", "rtl"),
		filepath.Join(installDir, "fifo-lib", "src"),
		filepath.Join(installDir, "bare-lib", "docs"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	r := NewPathResolver("/work", installDir, []string{"axi-utils", "fifo-lib", "bare-lib"})
	got, err := r.IncludeDirs([]string{"axi-utils", "fifo-lib", "bare-lib"})
	if err != nil {
		t.Fatalf("include dirs: %v", err)
	}
	want := []string{
		filepath.Join(installDir, "axi-utils", "include"),
		filepath.Join(installDir, "axi-utils", "rtl"),
		filepath.Join(installDir, "fifo-lib", "src"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("include dirs = %v, want %v", got, want)
	}
}

func TestIncludeDirsUnknownLibrary(t *testing.T) {
	r := NewPathResolver("/work", t.TempDir(), []string{"known"})
	if _, err := r.IncludeDirs([]string{"unknown"}); err == nil {
		t.Error("expected unknown-library error")
	}
}
