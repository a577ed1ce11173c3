package passes

import (
	"fmt"

	"hwflat/internal/diag"
	"hwflat/internal/flat"
	"hwflat/internal/ir"
)

// TypeCheck verifies data-type agreement across the flattened program:
// register stores, select candidates, plain assignments, condition values
// and top-level channels.
type TypeCheck struct {
	reporter *diag.Reporter
	failures int
}

// NewTypeCheck constructs the pass. reporter is optional but recommended so
// the pass can say which event disagrees.
func NewTypeCheck(reporter *diag.Reporter) *TypeCheck {
	return &TypeCheck{reporter: reporter}
}

// Name implements the Pass interface.
func (c *TypeCheck) Name() string {
	return "type-check"
}

// Run checks every event and channel of p.
func (c *TypeCheck) Run(p *flat.Program) error {
	c.failures = 0
	for _, ev := range p.Events {
		switch e := ev.(type) {
		case *flat.StReg:
			for i := range e.Values {
				if i < len(e.Regs) {
					c.same(p, ev, e.Values[i], e.Regs[i], "register input")
				}
			}
		case *flat.Select:
			for _, v := range e.Values {
				c.same(p, ev, v, e.Result, "select candidate")
			}
		case *flat.Comb:
			if e.Name == ir.Assign.String() && len(e.In) == 1 && len(e.Out) == 1 {
				c.same(p, ev, e.In[0], e.Out[0], "assignment source")
			}
		case *flat.CondCheck:
			for _, v := range e.Conds {
				if t := p.Values[v].Type; !ir.TypesEqual(t, ir.UInt{Width: 1}) {
					c.report(flat.Describe(ev), fmt.Sprintf("condition %s is %s, want i1", v, typeLabel(t)))
				}
			}
		}
	}
	for i, ch := range p.Channels {
		if t := p.Values[ch.Value].Type; t == nil || ir.IsClock(t) {
			c.report("", fmt.Sprintf("channel %d (%s, signal %d) carries %s", i, ch.Dir, ch.Signal, typeLabel(t)))
		}
	}
	if c.failures > 0 {
		return fmt.Errorf("%d type mismatches", c.failures)
	}
	return nil
}

func (c *TypeCheck) same(p *flat.Program, ev flat.Event, from, to flat.ValueID, what string) {
	a, b := p.Values[from].Type, p.Values[to].Type
	if ir.TypesEqual(a, b) {
		return
	}
	c.report(flat.Describe(ev), fmt.Sprintf("%s %s is %s but %s is %s", what, from, typeLabel(a), to, typeLabel(b)))
}

func (c *TypeCheck) report(subject, msg string) {
	c.failures++
	if c.reporter != nil {
		c.reporter.Error(subject, msg)
	}
}

func typeLabel(t ir.DataType) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
