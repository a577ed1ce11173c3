package flat

import "hwflat/internal/ir"

// Key names a structural identifier within one instantiation. Scope 0 is the
// top module; every inlined instance gets a fresh scope so two instances of
// the same module do not share internal wires.
type Key struct {
	Scope  int
	Entity ir.EntityID
}

// Reduced tells whether Reduce allocated a flat value.
type Reduced int

const (
	New Reduced = iota
	Old
)

func (r Reduced) String() string {
	if r == New {
		return "new"
	}
	return "old"
}

// Reducer assigns dense flat identities to structural identifiers.
type Reducer struct {
	ids  map[Key]ValueID
	next ValueID
}

// NewReducer returns an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{ids: make(map[Key]ValueID)}
}

// Reduce returns the flat value of k, allocating the next one on first use.
// A key previously bound with Bind resolves to its target as Old.
func (r *Reducer) Reduce(k Key) (ValueID, Reduced) {
	if id, ok := r.ids[k]; ok {
		return id, Old
	}
	id := r.NewValue()
	r.ids[k] = id
	return id, New
}

// Bind ties k to an already allocated flat value. Binding must precede any
// other reduction of k.
func (r *Reducer) Bind(k Key, target ValueID) error {
	if prev, ok := r.ids[k]; ok {
		return Violationf(AlreadyReduced, "entity %d (scope %d) already reduced to %s", k.Entity, k.Scope, prev)
	}
	if target >= r.next {
		return Violationf(PortMismatch, "entity %d (scope %d) bound to unallocated %s", k.Entity, k.Scope, target)
	}
	r.ids[k] = target
	return nil
}

// NewValue allocates a flat value with no structural identifier behind it.
func (r *Reducer) NewValue() ValueID {
	id := r.next
	r.next++
	return id
}

// Len is the number of flat values allocated so far.
func (r *Reducer) Len() int {
	return int(r.next)
}
