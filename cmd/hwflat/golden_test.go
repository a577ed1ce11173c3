package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var update = flag.Bool("update", false, "rewrite golden files")

func TestGoldenListings(t *testing.T) {
	matches, err := filepath.Glob("testdata/*.flat.golden")
	if err != nil {
		t.Fatal(err)
	}
	for _, golden := range matches {
		name := strings.TrimSuffix(filepath.Base(golden), ".flat.golden")
		t.Run(name, func(t *testing.T) {
			got, _, err := runCLI(t, "flatten", filepath.Join("testdata", name+".yaml"))
			if err != nil {
				t.Fatalf("flatten %s: %v", name, err)
			}
			if *update {
				if err := os.WriteFile(golden, []byte(got), 0o644); err != nil {
					t.Fatal(err)
				}
				return
			}
			want, err := os.ReadFile(golden)
			if err != nil {
				t.Fatalf("read golden: %v", err)
			}
			if diff := cmp.Diff(string(want), got); diff != "" {
				t.Fatalf("listing mismatch for %s (-want +got):\n%s", name, diff)
			}
		})
	}
}
