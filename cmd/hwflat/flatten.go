package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hwflat/internal/artifact"
	"hwflat/internal/flat"
)

func newFlattenCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flatten [flags] design.yaml...",
		Short: "Elaborate design files into flat programs.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runFlatten(args)
		},
	}
	cmd.Flags().IntP("jobs", "j", 0, "number of designs elaborated in parallel")
	cmd.Flags().String("format", "", "output format (dump|msgpack)")
	cmd.Flags().StringP("out-dir", "o", "", "directory for output files (stdout for dumps when omitted)")
	return cmd
}

func (s *session) runFlatten(paths []string) error {
	designs := make([]*design, len(paths))
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(s.cfg.Jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			d, err := s.flattenFile(path)
			if err != nil {
				failed.Add(1)
				return nil
			}
			designs[i] = d
			return s.writeOutput(d)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if s.cfg.Output.Format == "dump" && s.cfg.Output.Dir == "" {
		for _, d := range designs {
			if d == nil {
				continue
			}
			if len(paths) > 1 {
				fmt.Fprintf(s.stdout, "// %s (top %s)\n", d.path, d.top)
			}
			flat.Dump(d.prog, s.stdout)
		}
	}
	if n := int(failed.Load()); n > 0 {
		return fmt.Errorf("%d of %d designs failed", n, len(paths))
	}
	return nil
}

// writeOutput writes file outputs. Dumps to stdout are written by the caller
// in argument order.
func (s *session) writeOutput(d *design) error {
	base := strings.TrimSuffix(filepath.Base(d.path), filepath.Ext(d.path))
	switch s.cfg.Output.Format {
	case "msgpack":
		dir := s.cfg.Output.Dir
		if dir == "" {
			dir = filepath.Dir(d.path)
		}
		out := filepath.Join(dir, base+".mp")
		s.log.WithField("file", d.path).Debugf("writing %s", out)
		return artifact.WriteFile(out, d.top, d.prog)
	case "dump":
		if s.cfg.Output.Dir == "" {
			return nil
		}
		var buf bytes.Buffer
		flat.Dump(d.prog, &buf)
		if err := os.MkdirAll(s.cfg.Output.Dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
		out := filepath.Join(s.cfg.Output.Dir, base+".flat")
		return errors.Wrapf(os.WriteFile(out, buf.Bytes(), 0o644), "write %s", out)
	default:
		return fmt.Errorf("unknown output format %q", s.cfg.Output.Format)
	}
}
