package flat

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable listing of the program.
func Dump(p *Program, w io.Writer) {
	if p == nil {
		fmt.Fprintln(w, "<nil program>")
		return
	}
	fmt.Fprintln(w, "values:")
	for i, v := range p.Values {
		typ := "void"
		if v.Type != nil {
			typ = v.Type.String()
		}
		fmt.Fprintf(w, "  %-6s %-12s guard=%s\n", ValueID(i), typ, p.Guards[i])
	}
	fmt.Fprintln(w, "events:")
	for i, e := range p.Events {
		fmt.Fprintf(w, "  #%-4d %s", i, Describe(e))
		if g := p.EventGuards[i]; g != nil {
			if _, ok := g.(Must); !ok {
				fmt.Fprintf(w, " when %s", g)
			}
		}
		fmt.Fprintln(w)
	}
	if len(p.Deps) > 0 {
		fmt.Fprintln(w, "deps:")
		for _, d := range p.Deps {
			fmt.Fprintf(w, "  #%d -> #%d\n", d.From, d.To)
		}
	}
	if len(p.Channels) > 0 {
		fmt.Fprintln(w, "channels:")
		for i, ch := range p.Channels {
			fmt.Fprintf(w, "  %-3d %-3s signal=%d value=%s\n", i, ch.Dir, ch.Signal, ch.Value)
		}
	}
}

// Describe renders a single event the way Dump lists it.
func Describe(e Event) string {
	switch ev := e.(type) {
	case *Comb:
		return fmt.Sprintf("comb %s (%s) -> (%s)", ev.Name, ids(ev.In), ids(ev.Out))
	case *StReg:
		return fmt.Sprintf("streg (%s) -> next(%s)", ids(ev.Values), ids(ev.Regs))
	case *CondCheck:
		flags := ""
		if ev.OneHot {
			flags += " onehot"
		}
		if ev.HasDefault {
			flags += " default"
		}
		return fmt.Sprintf("condcheck%s (%s) -> (%s)", flags, ids(ev.Conds), ev.Result)
	case *Select:
		return fmt.Sprintf("select [%s] (%s) -> (%s)", ev.Decision, ids(ev.Values), ev.Result)
	default:
		return fmt.Sprintf("%s (%s) -> (%s)", e.Kind(), ids(e.Uses()), ids(e.Defs()))
	}
}

func ids(vs []ValueID) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, ", ")
}
