package passes

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"hwflat/internal/diag"
	"hwflat/internal/flat"
)

// FiringOrder replays the readiness contract of every event without
// computing values: each value is delivered once, by the first event that
// defines it, and an event fires once it is ready and every Dep pointing at
// it has fired. The result is a static schedule for one clock cycle.
type FiringOrder struct {
	reporter *diag.Reporter

	// Order lists event indexes in firing order.
	Order []int
	// Stuck lists events that never became ready.
	Stuck []int
	// Undriven lists events whose guard reads a value no fired event
	// defines.
	Undriven []int
}

// NewFiringOrder constructs the pass. reporter is optional; when set, every
// stuck event is reported as a warning.
func NewFiringOrder(reporter *diag.Reporter) *FiringOrder {
	return &FiringOrder{reporter: reporter}
}

// Name implements the Pass interface.
func (f *FiringOrder) Name() string {
	return "firing-order"
}

// Run computes Order and Stuck. Event readiness state is reset before
// returning.
func (f *FiringOrder) Run(p *flat.Program) error {
	f.Order = f.Order[:0]
	f.Stuck = f.Stuck[:0]
	f.Undriven = f.Undriven[:0]
	p.InitializeAll()
	defer p.InitializeAll()

	consumers := p.Consumers()
	successors := p.Successors()
	blockers := make([]int, len(p.Events))
	for _, d := range p.Deps {
		blockers[d.To]++
	}

	var produced intsets.Sparse
	fired := make([]bool, len(p.Events))
	queued := make([]bool, len(p.Events))
	var queue []int
	push := func(ev int) {
		if !queued[ev] && blockers[ev] == 0 && p.Events[ev].Ready() {
			queued[ev] = true
			queue = append(queue, ev)
		}
	}
	for ev := range p.Events {
		push(ev)
	}

	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		fired[ev] = true
		f.Order = append(f.Order, ev)

		for _, v := range p.Events[ev].Defs() {
			if int(v) >= len(consumers) || !produced.Insert(int(v)) {
				continue
			}
			for _, c := range consumers[v] {
				if fired[c] {
					continue
				}
				if _, err := p.Events[c].Update(v); err != nil {
					return fmt.Errorf("deliver %s to event #%d: %w", v, c, err)
				}
				push(c)
			}
		}
		for _, next := range successors[ev] {
			blockers[next]--
			push(next)
		}
	}

	for ev, done := range fired {
		if done {
			continue
		}
		f.Stuck = append(f.Stuck, ev)
		f.warn(p.Events[ev], stuckReason(ev, p.Events[ev]))
	}
	for ev, g := range p.EventGuards {
		for _, v := range flat.GuardRefs(g) {
			if produced.Has(int(v)) {
				continue
			}
			f.Undriven = append(f.Undriven, ev)
			f.warn(p.Events[ev], fmt.Sprintf("event #%d is guarded by %s, which nothing drives", ev, v))
			break
		}
	}
	return nil
}

func (f *FiringOrder) warn(ev flat.Event, msg string) {
	if f.reporter != nil {
		f.reporter.Warning(flat.Describe(ev), msg)
	}
}

func stuckReason(index int, ev flat.Event) string {
	if sel, ok := ev.(*flat.Select); ok && !sel.HasDecision() {
		return fmt.Sprintf("event #%d can never fire (decision %s never arrives)", index, sel.Decision)
	}
	return fmt.Sprintf("event #%d can never fire (%d uses pending)", index, ev.Pending())
}
