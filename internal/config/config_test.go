package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
top = "counter"
diag_format = "json"
jobs = 2

[output]
format = "msgpack"
dir = "build"
`)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		Top:        "counter",
		DiagFormat: "json",
		Jobs:       2,
		Output:     Output{Format: "msgpack", Dir: filepath.Join(dir, "build")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := write(t, t.TempDir(), `top = "m"`)
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Top = "m"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestLoadRejects(t *testing.T) {
	for body, want := range map[string]string{
		`colour = "red"`:             "unknown keys colour",
		`diag_format = "xml"`:        "diag_format",
		"[output]\nformat = \"vcd\"": "output.format",
		`jobs = 0`:                   "jobs must be positive",
		`top = [`:                    "failed to parse TOML",
	} {
		_, err := Load(write(t, t.TempDir(), body))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%q: expected error containing %q, got %v", body, want, err)
		}
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, root, `top = "outer"`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Top != "outer" || path != filepath.Join(root, FileName) {
		t.Fatalf("Discover = %+v at %q", cfg, path)
	}
}
