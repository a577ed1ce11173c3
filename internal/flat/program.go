package flat

import "hwflat/internal/ir"

// Dep is an ordering edge between events that def/use does not express:
// event To must not fire before event From.
type Dep struct {
	From int
	To   int
}

// Program is the flattened design: values with their accumulated guards,
// events with the guard they were emitted under, the extra ordering edges and
// the top-level channels.
type Program struct {
	Values      []Value
	Guards      []Guard
	Events      []Event
	EventGuards []Guard
	Deps        []Dep
	Channels    []Channel
}

// AddValue appends a value and returns its flat id.
func (p *Program) AddValue(typ ir.DataType, g Guard) ValueID {
	id := ValueID(len(p.Values))
	p.Values = append(p.Values, Value{Type: typ})
	p.Guards = append(p.Guards, g)
	return id
}

// MergeGuard ors g into the accumulated guard of v.
func (p *Program) MergeGuard(v ValueID, g Guard) {
	p.Guards[v] = OrGuard(p.Guards[v], g)
}

// AddEvent appends an event emitted under guard g and returns its index.
func (p *Program) AddEvent(e Event, g Guard) int {
	p.Events = append(p.Events, e)
	p.EventGuards = append(p.EventGuards, g)
	return len(p.Events) - 1
}

// AddDep records that event to must wait for event from.
func (p *Program) AddDep(from, to int) {
	p.Deps = append(p.Deps, Dep{From: from, To: to})
}

// AddChannel appends a top-level channel and returns its index.
func (p *Program) AddChannel(v ValueID, signal int, dir Direction) int {
	p.Channels = append(p.Channels, Channel{Value: v, Signal: signal, Dir: dir})
	return len(p.Channels) - 1
}

// InitializeAll resets the readiness state of every event.
func (p *Program) InitializeAll() {
	for _, e := range p.Events {
		e.Initialize()
	}
}

// Consumers maps every flat value to the indexes of the events that use it.
func (p *Program) Consumers() [][]int {
	consumers := make([][]int, len(p.Values))
	for i, e := range p.Events {
		seen := make(map[ValueID]bool)
		for _, v := range e.Uses() {
			if seen[v] || int(v) >= len(consumers) {
				continue
			}
			seen[v] = true
			consumers[v] = append(consumers[v], i)
		}
	}
	return consumers
}

// Successors maps every event to the events its explicit Deps release.
func (p *Program) Successors() [][]int {
	succs := make([][]int, len(p.Events))
	for _, d := range p.Deps {
		succs[d.From] = append(succs[d.From], d.To)
	}
	return succs
}
