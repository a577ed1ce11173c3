package passes

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"hwflat/internal/diag"
	"hwflat/internal/elaborate"
	"hwflat/internal/flat"
	"hwflat/internal/ir"
)

var i8 = ir.UInt{Width: 8}

func delayProgram(t *testing.T) *flat.Program {
	t.Helper()
	env := ir.NewEnv()
	clk := env.AddEntity("clk", ir.Clock{})
	inp := env.AddEntity("inp", i8)
	outp := env.AddEntity("outp", i8)
	r := env.AddEntity("r", i8)
	top, body := env.AddModule("delay", true, nil, nil)
	env.AddOp(body, &ir.Input{Ports: []ir.EntityID{clk, inp}})
	env.AddOp(body, &ir.Output{Ports: []ir.EntityID{outp}})
	env.AddOp(body, &ir.Register{Input: inp, Output: r, Clock: clk})
	env.AddOp(body, ir.NewAssign(outp, r))
	prog, err := elaborate.Elaborate(env, top)
	if err != nil {
		t.Fatalf("elaborate: %v", err)
	}
	return prog
}

func TestFiringOrderDelay(t *testing.T) {
	prog := delayProgram(t)
	order := NewFiringOrder(nil)
	if err := order.Run(prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	// listen, ldreg, streg, assign, write
	if diff := cmp.Diff([]int{0, 2, 3, 4, 1}, order.Order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if len(order.Stuck) != 0 {
		t.Fatalf("unexpected stuck events %v", order.Stuck)
	}
	for i, e := range prog.Events {
		if e.Kind() == "comb" && e.Ready() {
			t.Fatalf("event %d: readiness state should be reset after the pass", i)
		}
	}
}

func TestFiringOrderHonoursDeps(t *testing.T) {
	var p flat.Program
	c := p.AddValue(ir.UInt{Width: 1}, flat.Must{})
	d := p.AddValue(nil, flat.Must{})
	k := p.AddValue(i8, flat.Never{})
	p.AddEvent(&flat.ListenChannel{Values: []flat.ValueID{c}}, flat.Must{})
	check := p.AddEvent(&flat.CondCheck{Conds: []flat.ValueID{c}, Result: d, OneHot: true}, flat.Must{})
	arm := p.AddEvent(&flat.Comb{Name: "hw.constant", Out: []flat.ValueID{k}}, flat.Ref{Value: c})
	p.AddDep(check, arm)

	order := NewFiringOrder(nil)
	if err := order.Run(&p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, check, arm}, order.Order); diff != "" {
		t.Fatalf("constant in an arm must wait for the check (-want +got):\n%s", diff)
	}
}

func TestFiringOrderReportsStuckEvents(t *testing.T) {
	var p flat.Program
	dangling := p.AddValue(i8, flat.Never{})
	out := p.AddValue(i8, flat.Never{})
	p.AddEvent(&flat.Comb{Name: "comb.not", In: []flat.ValueID{dangling}, Out: []flat.ValueID{out}}, flat.Must{})

	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf, "text")
	order := NewFiringOrder(reporter)
	if err := order.Run(&p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0}, order.Stuck); diff != "" {
		t.Fatalf("stuck (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "event #0 can never fire") || reporter.HasErrors() {
		t.Fatalf("expected a warning, got:\n%s", buf.String())
	}
}

func TestFiringOrderReportsUndrivenGuards(t *testing.T) {
	var p flat.Program
	c := p.AddValue(ir.UInt{Width: 1}, flat.Never{})
	k := p.AddValue(i8, flat.Never{})
	p.AddEvent(&flat.Comb{Name: "hw.constant", Out: []flat.ValueID{k}}, flat.AndGuard(flat.Must{}, flat.Ref{Value: c}))

	var buf bytes.Buffer
	order := NewFiringOrder(diag.NewReporter(&buf, "text"))
	if err := order.Run(&p); err != nil {
		t.Fatal(err)
	}
	if len(order.Stuck) != 0 {
		t.Fatalf("a constant has no uses and must fire, stuck %v", order.Stuck)
	}
	if diff := cmp.Diff([]int{0}, order.Undriven); diff != "" {
		t.Fatalf("undriven (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "event #0 is guarded by v0, which nothing drives") {
		t.Fatalf("expected an undriven guard warning, got:\n%s", buf.String())
	}
}

func TestFiringOrderNamesMissingDecision(t *testing.T) {
	var p flat.Program
	a := p.AddValue(i8, flat.Must{})
	d := p.AddValue(nil, flat.Must{})
	y := p.AddValue(i8, flat.Never{})
	p.AddEvent(&flat.ListenChannel{Values: []flat.ValueID{a}}, flat.Must{})
	p.AddEvent(&flat.Select{Result: y, Decision: d, Values: []flat.ValueID{a}}, flat.Must{})

	var buf bytes.Buffer
	order := NewFiringOrder(diag.NewReporter(&buf, "text"))
	if err := order.Run(&p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1}, order.Stuck); diff != "" {
		t.Fatalf("stuck (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "event #1 can never fire (decision v1 never arrives)") {
		t.Fatalf("expected the select to name its decision, got:\n%s", buf.String())
	}
}

func TestTypeCheck(t *testing.T) {
	if err := NewTypeCheck(nil).Run(delayProgram(t)); err != nil {
		t.Fatalf("delay program should type check: %v", err)
	}

	var p flat.Program
	a := p.AddValue(i8, flat.Must{})
	r := p.AddValue(ir.UInt{Width: 4}, flat.Must{})
	c := p.AddValue(i8, flat.Must{})
	d := p.AddValue(nil, flat.Must{})
	p.AddEvent(&flat.StReg{Values: []flat.ValueID{a}, Regs: []flat.ValueID{r}}, flat.Must{})
	p.AddEvent(&flat.CondCheck{Conds: []flat.ValueID{c}, Result: d, OneHot: true}, flat.Must{})
	p.AddEvent(&flat.Select{Result: a, Decision: d, Values: []flat.ValueID{a, r}}, flat.Must{})
	p.AddChannel(d, 0, flat.In)

	var buf bytes.Buffer
	err := NewTypeCheck(diag.NewReporter(&buf, "text")).Run(&p)
	if err == nil || !strings.Contains(err.Error(), "4 type mismatches") {
		t.Fatalf("expected 4 mismatches, got %v\n%s", err, buf.String())
	}
	for _, want := range []string{"register input v0 is i8 but v1 is i4", "condition v2 is i8", "select candidate v1", "carries void"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in:\n%s", want, buf.String())
		}
	}
}

type failing struct{}

func (failing) Name() string            { return "failing" }
func (failing) Run(*flat.Program) error { return errors.New("boom") }

func TestManagerStopsAtFirstFailure(t *testing.T) {
	order := NewFiringOrder(nil)
	m := NewManager()
	m.Add(failing{})
	m.Add(order)
	err := m.Run(delayProgram(t))
	if err == nil || err.Error() != "failing: boom" {
		t.Fatalf("unexpected error %v", err)
	}
	if len(order.Order) != 0 {
		t.Fatal("passes after a failure must not run")
	}
	if err := NewManager().Run(nil); err == nil {
		t.Fatal("expected an error for a nil program")
	}
}
