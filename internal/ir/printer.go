package ir

import (
	"fmt"
	"io"
	"strings"
)

// PrintOp renders a single operation in an MLIR-like form for diagnostics.
// Region-bodied operations are printed without their bodies.
func (e *Env) PrintOp(id OpID) string {
	op := e.Op(id)
	if op == nil {
		return fmt.Sprintf("<missing op %d>", id)
	}
	return renderOp(e, op)
}

// Dump writes a human-readable representation of the whole design.
func Dump(env *Env, w io.Writer) {
	if env == nil {
		fmt.Fprintln(w, "<nil design>")
		return
	}
	for _, id := range env.Modules() {
		mod := env.Op(id).(*Module)
		fmt.Fprintf(w, "%s {\n", renderOp(env, mod))
		dumpRegion(env, w, mod.Body, 1)
		fmt.Fprintln(w, "}")
	}
}

func dumpRegion(env *Env, w io.Writer, region RegionID, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, id := range env.Region(region) {
		op := env.Op(id)
		fmt.Fprintf(w, "%s%s\n", indent, renderOp(env, op))
		cases, ok := op.(*Cases)
		if !ok {
			continue
		}
		for i, body := range cases.Bodies {
			fmt.Fprintf(w, "%s  case %d {\n", indent, i)
			dumpRegion(env, w, body, depth+2)
			fmt.Fprintf(w, "%s  }\n", indent)
		}
		if cases.Default != NoRegion {
			fmt.Fprintf(w, "%s  default {\n", indent)
			dumpRegion(env, w, cases.Default, depth+2)
			fmt.Fprintf(w, "%s  }\n", indent)
		}
	}
}

func renderOp(env *Env, op Operation) string {
	switch o := op.(type) {
	case *Module:
		top := ""
		if o.Top {
			top = " top"
		}
		return fmt.Sprintf("hw.module%s @%s(%s) -> (%s)", top, o.Name, portList(o.Inputs, "%"), portList(o.Outputs, ""))
	case *Input:
		return fmt.Sprintf("hw.input %s", env.refs(o.Ports))
	case *Output:
		return fmt.Sprintf("hw.output %s", env.refs(o.Ports))
	case *Instance:
		target := "?"
		if mod, ok := env.Op(o.Target).(*Module); ok {
			target = mod.Name
		}
		return fmt.Sprintf("%s = hw.instance %q @%s(%s)", env.refs(o.Outputs), o.Name, target, env.refs(o.Inputs))
	case *Register:
		parts := []string{env.ref(o.Input), env.ref(o.Clock)}
		if o.Reset != NoEntity {
			parts = append(parts, "reset "+env.ref(o.Reset))
		}
		if o.ResetValue != NoEntity {
			parts = append(parts, env.ref(o.ResetValue))
		}
		return fmt.Sprintf("%s = seq.compreg %s : %s", env.ref(o.Output), strings.Join(parts, ", "), env.typeOf(o.Output))
	case *Comb:
		return renderComb(env, o)
	case *Select:
		onehot := ""
		if o.OneHot {
			onehot = " onehot"
		}
		dflt := ""
		if o.Default != NoEntity {
			dflt = " default " + env.ref(o.Default)
		}
		return fmt.Sprintf("%s = cmt.select%s [%s] [%s]%s", env.ref(o.Result), onehot, env.refs(o.Conds), env.refs(o.Values), dflt)
	case *Cases:
		onehot := ""
		if o.OneHot {
			onehot = " onehot"
		}
		return fmt.Sprintf("cmt.cases%s [%s] (%d bodies)", onehot, env.refs(o.Conds), len(o.Bodies))
	case *Opaque:
		return fmt.Sprintf("%s = %s %s", env.refs(Flatten(o.Results)), o.Name, env.refs(Flatten(o.Operands)))
	default:
		return fmt.Sprintf("<unknown op %T>", op)
	}
}

func renderComb(env *Env, o *Comb) string {
	defs := env.refs(Flatten(o.Results))
	uses := env.refs(Flatten(o.Operands))
	var typ string
	if ids := Flatten(o.Results); len(ids) > 0 {
		typ = env.typeOf(ids[0])
	}
	switch o.Kind {
	case Assign:
		return fmt.Sprintf("%s = %s", defs, uses)
	case Constant:
		return fmt.Sprintf("%s = hw.constant %v : %s", defs, o.Value, typ)
	case AggregateConstant:
		elems := make([]string, 0, len(o.Elements))
		for _, v := range o.Elements {
			elems = append(elems, v.String())
		}
		return fmt.Sprintf("%s = hw.aggregate_constant [%s] : %s", defs, strings.Join(elems, ", "), typ)
	case ICmp:
		return fmt.Sprintf("%s = comb.icmp %s %s : %s", defs, o.Predicate, uses, typ)
	default:
		return fmt.Sprintf("%s = %s %s : %s", defs, o.OpName(), uses, typ)
	}
}

func (e *Env) ref(id EntityID) string {
	ent, ok := e.Entity(id)
	if !ok {
		return "%?"
	}
	if ent.Name == "" {
		return fmt.Sprintf("%%%d", id)
	}
	return "%" + ent.Name
}

func (e *Env) refs(ids []EntityID) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, e.ref(id))
	}
	return strings.Join(names, ", ")
}

func (e *Env) typeOf(id EntityID) string {
	ent, ok := e.Entity(id)
	if !ok {
		return "none"
	}
	return typeName(ent.Type)
}

func portList(ports []Port, prefix string) string {
	entries := make([]string, 0, len(ports))
	for _, port := range ports {
		entries = append(entries, fmt.Sprintf("%s%s: %s", prefix, port.Name, typeName(port.Type)))
	}
	return strings.Join(entries, ", ")
}
