package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"hwflat/internal/artifact"
	"hwflat/internal/flat"
	"hwflat/internal/frontend"
	"hwflat/internal/ir"
)

func newDumpCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dump design.yaml|program.mp",
		Short: "Print a hierarchical design or a stored flat program.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if filepath.Ext(path) == ".mp" {
				top, prog, err := artifact.ReadFile(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(s.stdout, "top: %s\n", top)
				flat.Dump(prog, s.stdout)
				return nil
			}
			env, err := frontend.LoadFile(path)
			if err != nil {
				return err
			}
			ir.Dump(env, s.stdout)
			return nil
		},
	}
}
