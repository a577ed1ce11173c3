package flat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hwflat/internal/ir"
)

func TestMergeGuardAccumulatesWithOr(t *testing.T) {
	var p Program
	v := p.AddValue(ir.UInt{Width: 8}, Never{})
	p.MergeGuard(v, Ref{Value: 1})
	p.MergeGuard(v, Ref{Value: 2})
	if diff := cmp.Diff(Guard(Or{Ref{Value: 1}, Ref{Value: 2}}), p.Guards[v]); diff != "" {
		t.Fatalf("guard mismatch (-want +got):\n%s", diff)
	}
}

func TestConsumersAndSuccessors(t *testing.T) {
	var p Program
	a := p.AddValue(ir.UInt{Width: 1}, Must{})
	b := p.AddValue(ir.UInt{Width: 1}, Never{})
	d := p.AddValue(nil, Must{})
	check := p.AddEvent(&CondCheck{Conds: []ValueID{a}, Result: d, OneHot: true}, Must{})
	sel := p.AddEvent(&Select{Result: b, Decision: d, Values: []ValueID{a, a}}, Must{})
	p.AddDep(check, sel)

	consumers := p.Consumers()
	if diff := cmp.Diff([]int{check, sel}, consumers[a]); diff != "" {
		t.Fatalf("consumers of a (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{sel}, consumers[d]); diff != "" {
		t.Fatalf("consumers of decision (-want +got):\n%s", diff)
	}
	if got := p.Successors(); len(got[check]) != 1 || got[check][0] != sel {
		t.Fatalf("unexpected successors %v", got)
	}
}

func TestDump(t *testing.T) {
	var p Program
	in := p.AddValue(ir.UInt{Width: 8}, Must{})
	out := p.AddValue(ir.UInt{Width: 8}, Never{})
	ch := p.AddChannel(in, 0, In)
	p.AddEvent(&ListenChannel{Channels: []int{ch}, Values: []ValueID{in}}, Must{})
	p.AddEvent(&Comb{Name: "comb.not", In: []ValueID{in}, Out: []ValueID{out}}, Ref{Value: in})

	var buf bytes.Buffer
	Dump(&p, &buf)
	text := buf.String()
	for _, want := range []string{"v0", "i8", "guard=must", "listen () -> (v0)", "comb comb.not (v0) -> (v1) when v0", "in  signal=0 value=v0"} {
		if !strings.Contains(text, want) {
			t.Fatalf("dump missing %q:\n%s", want, text)
		}
	}
}
