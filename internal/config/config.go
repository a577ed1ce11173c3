// Package config loads the hwflat.toml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileName is the project file looked up by Find.
const FileName = "hwflat.toml"

// Config holds project settings. Command-line flags override them.
type Config struct {
	// Top names the module to flatten. Empty means the module marked top.
	Top        string `toml:"top"`
	DiagFormat string `toml:"diag_format"`
	Jobs       int    `toml:"jobs"`
	Output     Output `toml:"output"`
}

// Output controls what the flatten command writes.
type Output struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Default returns the settings used when no project file exists.
func Default() Config {
	return Config{
		DiagFormat: "text",
		Jobs:       runtime.NumCPU(),
		Output:     Output{Format: "dump"},
	}
}

// Load decodes path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "%s: failed to parse TOML", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	if cfg.Output.Dir != "" && !filepath.IsAbs(cfg.Output.Dir) {
		cfg.Output.Dir = filepath.Join(filepath.Dir(path), cfg.Output.Dir)
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.DiagFormat {
	case "text", "json":
	default:
		return fmt.Errorf("diag_format must be text or json, got %q", c.DiagFormat)
	}
	switch c.Output.Format {
	case "dump", "msgpack":
	default:
		return fmt.Errorf("output.format must be dump or msgpack, got %q", c.Output.Format)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be positive, got %d", c.Jobs)
	}
	return nil
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest project file above startDir, or Default when
// there is none.
func Discover(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return Default(), "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}
