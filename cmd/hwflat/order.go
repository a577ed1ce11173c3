package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hwflat/internal/flat"
)

func newOrderCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "order design.yaml",
		Short: "Print the static firing order of a design's events.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := s.flattenFile(args[0])
			if err != nil {
				return err
			}
			for pos, ev := range d.order.Order {
				fmt.Fprintf(s.stdout, "%3d  #%-4d %s\n", pos, ev, flat.Describe(d.prog.Events[ev]))
			}
			s.listEvents(d, "never fire:", d.order.Stuck)
			s.listEvents(d, "undriven guard:", d.order.Undriven)
			return nil
		},
	}
}

func (s *session) listEvents(d *design, title string, events []int) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(s.stdout, title)
	for _, ev := range events {
		fmt.Fprintf(s.stdout, "     #%-4d %s\n", ev, flat.Describe(d.prog.Events[ev]))
	}
}
