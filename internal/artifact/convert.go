package artifact

import (
	"github.com/pkg/errors"

	"hwflat/internal/flat"
	"hwflat/internal/ir"
)

// FromProgram converts p into its serialized form.
func FromProgram(top string, p *flat.Program) (*Snapshot, error) {
	if p == nil {
		return nil, errors.New("nil program")
	}
	snap := &Snapshot{Schema: SchemaVersion, Top: top}
	for i, v := range p.Values {
		snap.Values = append(snap.Values, ValueRec{Type: typeRec(v.Type), Guard: guardRec(p.Guards[i])})
	}
	for i, e := range p.Events {
		rec, err := eventRec(e)
		if err != nil {
			return nil, errors.Wrapf(err, "event #%d", i)
		}
		rec.Guard = guardRec(p.EventGuards[i])
		snap.Events = append(snap.Events, rec)
	}
	for _, d := range p.Deps {
		snap.Deps = append(snap.Deps, DepRec{From: d.From, To: d.To})
	}
	for _, ch := range p.Channels {
		snap.Channels = append(snap.Channels, ChannelRec{Value: uint32(ch.Value), Signal: ch.Signal, Out: ch.Dir == flat.Out})
	}
	return snap, nil
}

// Program rebuilds the flat program a snapshot describes.
func (s *Snapshot) Program() (*flat.Program, error) {
	p := &flat.Program{}
	for i, v := range s.Values {
		typ, err := v.Type.dataType()
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		g, err := v.Guard.guard()
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		p.AddValue(typ, g)
	}
	for i, rec := range s.Events {
		e, err := rec.event()
		if err != nil {
			return nil, errors.Wrapf(err, "event #%d", i)
		}
		g, err := rec.Guard.guard()
		if err != nil {
			return nil, errors.Wrapf(err, "event #%d", i)
		}
		p.AddEvent(e, g)
	}
	for _, d := range s.Deps {
		if d.From < 0 || d.From >= len(p.Events) || d.To < 0 || d.To >= len(p.Events) {
			return nil, errors.Errorf("dep #%d -> #%d out of range", d.From, d.To)
		}
		p.AddDep(d.From, d.To)
	}
	for _, ch := range s.Channels {
		dir := flat.In
		if ch.Out {
			dir = flat.Out
		}
		p.AddChannel(flat.ValueID(ch.Value), ch.Signal, dir)
	}
	if err := checkRefs(p); err != nil {
		return nil, err
	}
	return p, nil
}

// checkRefs rejects programs that name values or channels they do not have.
func checkRefs(p *flat.Program) error {
	n := flat.ValueID(len(p.Values))
	check := func(vs []flat.ValueID) error {
		for _, v := range vs {
			if v >= n {
				return errors.Errorf("%s out of range (%d values)", v, n)
			}
		}
		return nil
	}
	for i, g := range p.Guards {
		if err := check(flat.GuardRefs(g)); err != nil {
			return errors.Wrapf(err, "guard of value %d", i)
		}
	}
	for i, e := range p.Events {
		for _, vs := range [][]flat.ValueID{e.Uses(), e.Defs(), flat.GuardRefs(p.EventGuards[i])} {
			if err := check(vs); err != nil {
				return errors.Wrapf(err, "event #%d", i)
			}
		}
		var chans []int
		switch e := e.(type) {
		case *flat.ListenChannel:
			chans = e.Channels
		case *flat.WriteChannel:
			chans = e.Channels
		}
		for _, c := range chans {
			if c < 0 || c >= len(p.Channels) {
				return errors.Errorf("event #%d: channel %d out of range", i, c)
			}
		}
	}
	for i, ch := range p.Channels {
		if err := check([]flat.ValueID{ch.Value}); err != nil {
			return errors.Wrapf(err, "channel %d", i)
		}
	}
	return nil
}

func typeRec(t ir.DataType) *TypeRec {
	switch t := t.(type) {
	case nil:
		return nil
	case ir.UInt:
		return &TypeRec{Kind: "uint", Width: t.Width}
	case ir.Clock:
		return &TypeRec{Kind: "clock"}
	case ir.Array:
		return &TypeRec{Kind: "array", Len: t.Len, Elem: typeRec(t.Elem)}
	case ir.Struct:
		rec := &TypeRec{Kind: "struct"}
		for _, f := range t.Fields {
			rec.Fields = append(rec.Fields, FieldRec{Name: f.Name, Type: typeRec(f.Type)})
		}
		return rec
	default:
		panic(errors.Errorf("unhandled data type %T", t))
	}
}

func (r *TypeRec) dataType() (ir.DataType, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case "uint":
		return ir.UInt{Width: r.Width}, nil
	case "clock":
		return ir.Clock{}, nil
	case "array":
		elem, err := r.Elem.dataType()
		if err != nil {
			return nil, err
		}
		return ir.Array{Elem: elem, Len: r.Len}, nil
	case "struct":
		var fields []ir.Field
		for _, f := range r.Fields {
			t, err := f.Type.dataType()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ir.Field{Name: f.Name, Type: t})
		}
		return ir.Struct{Fields: fields}, nil
	default:
		return nil, errors.Errorf("unknown type kind %q", r.Kind)
	}
}

func guardRec(g flat.Guard) GuardRec {
	switch g := g.(type) {
	case flat.Must:
		return GuardRec{Kind: "must"}
	case flat.Never:
		return GuardRec{Kind: "never"}
	case flat.Ref:
		return GuardRec{Kind: "ref", Value: uint32(g.Value)}
	case flat.And:
		return GuardRec{Kind: "and", Args: guardRecs(g)}
	case flat.Or:
		return GuardRec{Kind: "or", Args: guardRecs(g)}
	case flat.Not:
		return GuardRec{Kind: "not", Args: []GuardRec{guardRec(g.Inner)}}
	default:
		panic(errors.Errorf("unhandled guard %T", g))
	}
}

func guardRecs(gs []flat.Guard) []GuardRec {
	recs := make([]GuardRec, len(gs))
	for i, g := range gs {
		recs[i] = guardRec(g)
	}
	return recs
}

func (r GuardRec) guard() (flat.Guard, error) {
	switch r.Kind {
	case "must":
		return flat.Must{}, nil
	case "never":
		return flat.Never{}, nil
	case "ref":
		return flat.Ref{Value: flat.ValueID(r.Value)}, nil
	case "and", "or":
		args := make([]flat.Guard, len(r.Args))
		for i, a := range r.Args {
			g, err := a.guard()
			if err != nil {
				return nil, err
			}
			args[i] = g
		}
		if r.Kind == "and" {
			return flat.And(args), nil
		}
		return flat.Or(args), nil
	case "not":
		if len(r.Args) != 1 {
			return nil, errors.Errorf("not guard with %d operands", len(r.Args))
		}
		inner, err := r.Args[0].guard()
		if err != nil {
			return nil, err
		}
		return flat.Not{Inner: inner}, nil
	default:
		return nil, errors.Errorf("unknown guard kind %q", r.Kind)
	}
}

func eventRec(e flat.Event) (EventRec, error) {
	rec := EventRec{Kind: e.Kind()}
	switch e := e.(type) {
	case *flat.ListenChannel:
		rec.Channels, rec.Out = e.Channels, values(e.Values)
	case *flat.WriteChannel:
		rec.Channels, rec.In = e.Channels, values(e.Values)
	case *flat.LdReg:
		rec.Out = values(e.Regs)
	case *flat.StReg:
		rec.In, rec.Out = values(e.Values), values(e.Regs)
	case *flat.Comb:
		rec.Op, rec.Name, rec.In, rec.Out = int(e.Op), e.Name, values(e.In), values(e.Out)
	case *flat.CondCheck:
		rec.In, rec.Result = values(e.Conds), uint32(e.Result)
		rec.OneHot, rec.HasDefault = e.OneHot, e.HasDefault
	case *flat.Select:
		rec.In, rec.Result, rec.Decision = values(e.Values), uint32(e.Result), uint32(e.Decision)
	default:
		return rec, errors.Errorf("unhandled event %T", e)
	}
	return rec, nil
}

func (r EventRec) event() (flat.Event, error) {
	in, out := ids(r.In), ids(r.Out)
	switch r.Kind {
	case "listen":
		return &flat.ListenChannel{Channels: r.Channels, Values: out}, nil
	case "write":
		return &flat.WriteChannel{Channels: r.Channels, Values: in}, nil
	case "ldreg":
		return &flat.LdReg{Regs: out}, nil
	case "streg":
		return &flat.StReg{Values: in, Regs: out}, nil
	case "comb":
		return &flat.Comb{Op: ir.OpID(r.Op), Name: r.Name, In: in, Out: out}, nil
	case "condcheck":
		return &flat.CondCheck{Conds: in, Result: flat.ValueID(r.Result), OneHot: r.OneHot, HasDefault: r.HasDefault}, nil
	case "select":
		return &flat.Select{Result: flat.ValueID(r.Result), Decision: flat.ValueID(r.Decision), Values: in}, nil
	default:
		return nil, errors.Errorf("unknown event kind %q", r.Kind)
	}
}

func values(vs []flat.ValueID) []uint32 {
	out := make([]uint32, len(vs))
	for i, v := range vs {
		out[i] = uint32(v)
	}
	return out
}

func ids(vs []uint32) []flat.ValueID {
	out := make([]flat.ValueID, len(vs))
	for i, v := range vs {
		out[i] = flat.ValueID(v)
	}
	return out
}
