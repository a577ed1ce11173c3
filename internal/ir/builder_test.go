package ir

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvAssignsDenseIDs(t *testing.T) {
	env := NewEnv()
	a := env.AddEntity("a", UInt{Width: 8})
	b := env.AddEntity("b", UInt{Width: 8})
	if a != 1 || b != 2 {
		t.Fatalf("expected entity ids 1 and 2, got %d and %d", a, b)
	}
	if _, ok := env.Entity(NoEntity); ok {
		t.Fatalf("NoEntity must not resolve")
	}
	if op := env.Op(OpID(42)); op != nil {
		t.Fatalf("expected nil for unknown op, got %T", op)
	}
	if ids := env.Region(RegionID(7)); ids != nil {
		t.Fatalf("expected nil region, got %v", ids)
	}
}

func TestEnvRegionOrder(t *testing.T) {
	env := NewEnv()
	mod, body := env.AddModule("top", true, nil, nil)
	a := env.AddEntity("a", UInt{Width: 4})
	b := env.AddEntity("b", UInt{Width: 4})
	first := env.AddOp(body, &Input{Ports: []EntityID{a}})
	second := env.AddOp(body, NewAssign(b, a))
	if diff := cmp.Diff([]OpID{first, second}, env.Region(body)); diff != "" {
		t.Fatalf("region order mismatch (-want +got):\n%s", diff)
	}
	if got := env.Modules(); len(got) != 1 || got[0] != mod {
		t.Fatalf("expected single module %d, got %v", mod, got)
	}
	if id, ok := env.ModuleByName("top"); !ok || id != mod {
		t.Fatalf("ModuleByName(top) = %d, %v", id, ok)
	}
}

func TestTypesEqual(t *testing.T) {
	cases := []struct {
		a, b DataType
		want bool
	}{
		{UInt{Width: 8}, UInt{Width: 8}, true},
		{UInt{Width: 8}, UInt{Width: 4}, false},
		{Clock{}, Clock{}, true},
		{Clock{}, UInt{Width: 1}, false},
		{Array{Elem: UInt{Width: 2}, Len: 3}, Array{Elem: UInt{Width: 2}, Len: 3}, true},
		{Array{Elem: UInt{Width: 2}, Len: 3}, Array{Elem: UInt{Width: 2}, Len: 4}, false},
		{Struct{Fields: []Field{{"a", UInt{Width: 1}}}}, Struct{Fields: []Field{{"a", UInt{Width: 1}}}}, true},
		{Struct{Fields: []Field{{"a", UInt{Width: 1}}}}, Struct{Fields: []Field{{"b", UInt{Width: 1}}}}, false},
		{nil, nil, true},
		{nil, UInt{Width: 1}, false},
	}
	for _, tc := range cases {
		if got := TypesEqual(tc.a, tc.b); got != tc.want {
			t.Errorf("TypesEqual(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFlattenSkipsAbsentOperands(t *testing.T) {
	reg := &Register{Input: 3, Output: 4, Clock: 5}
	if diff := cmp.Diff([]EntityID{3, 5}, Flatten(reg.Uses())); diff != "" {
		t.Fatalf("register uses mismatch (-want +got):\n%s", diff)
	}
	sel := &Select{Result: 1, Conds: []EntityID{2}, Values: []EntityID{3}}
	if diff := cmp.Diff([]EntityID{2, 3}, Flatten(sel.Uses())); diff != "" {
		t.Fatalf("select uses mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintOp(t *testing.T) {
	env := NewEnv()
	_, body := env.AddModule("adder", true,
		[]Port{{"a", UInt{Width: 8}}, {"b", UInt{Width: 8}}},
		[]Port{{"s", UInt{Width: 8}}})
	a := env.AddEntity("a", UInt{Width: 8})
	b := env.AddEntity("b", UInt{Width: 8})
	s := env.AddEntity("s", UInt{Width: 8})
	k := env.AddEntity("k", UInt{Width: 8})
	add := env.AddOp(body, NewVariadic("add", s, a, b))
	cst := env.AddOp(body, NewConstant(k, big.NewInt(3)))
	cmpOp := env.AddOp(body, NewICmp("ult", env.AddEntity("lt", UInt{Width: 1}), a, b))

	if got, want := env.PrintOp(add), "%s = comb.add %a, %b : i8"; got != want {
		t.Fatalf("PrintOp(add) = %q, want %q", got, want)
	}
	if got, want := env.PrintOp(cst), "%k = hw.constant 3 : i8"; got != want {
		t.Fatalf("PrintOp(constant) = %q, want %q", got, want)
	}
	if got, want := env.PrintOp(cmpOp), "%lt = comb.icmp ult %a, %b : i1"; got != want {
		t.Fatalf("PrintOp(icmp) = %q, want %q", got, want)
	}
	if got := env.PrintOp(OpID(99)); !strings.Contains(got, "missing op") {
		t.Fatalf("expected missing op marker, got %q", got)
	}
}

func TestDumpIncludesCaseBodies(t *testing.T) {
	env := NewEnv()
	_, body := env.AddModule("m", true, nil, nil)
	c := env.AddEntity("c", UInt{Width: 1})
	x := env.AddEntity("x", UInt{Width: 2})
	y := env.AddEntity("y", UInt{Width: 2})
	arm := env.AddRegion()
	env.AddOp(arm, NewAssign(x, y))
	env.AddOp(body, &Cases{Conds: []EntityID{c}, Bodies: []RegionID{arm}, OneHot: true})

	var buf bytes.Buffer
	Dump(env, &buf)
	out := buf.String()
	for _, want := range []string{"hw.module top @m() -> ()", "cmt.cases onehot [%c] (1 bodies)", "case 0 {", "%x = %y"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}
