package flat

import (
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// Guard is a boolean predicate recording when a value is driven or an event's
// branch is taken.
type Guard interface {
	isGuard()
	String() string
}

// Must is the unconditionally active guard.
type Must struct{}

// Never is the guard of a value nothing has driven yet.
type Never struct{}

// Ref is active iff the boolean flat value is true.
type Ref struct {
	Value ValueID
}

// And is the conjunction of its members.
type And []Guard

// Or is the disjunction of its members.
type Or []Guard

// Not negates Inner.
type Not struct {
	Inner Guard
}

func (Must) isGuard()  {}
func (Never) isGuard() {}
func (Ref) isGuard()   {}
func (And) isGuard()   {}
func (Or) isGuard()    {}
func (Not) isGuard()   {}

func (Must) String() string  { return "must" }
func (Never) String() string { return "never" }
func (g Ref) String() string { return g.Value.String() }
func (g And) String() string { return join(g, " & ") }
func (g Or) String() string  { return join(g, " | ") }
func (g Not) String() string { return fmt.Sprintf("!%s", g.Inner) }

func join(gs []Guard, sep string) string {
	parts := make([]string, 0, len(gs))
	for _, g := range gs {
		parts = append(parts, g.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// OrGuard merges the guard of a new write into the accumulated guard of a
// value. Never is the identity and Must absorbs; an existing Or is extended
// instead of nested. The input slices are never modified.
func OrGuard(old, g Guard) Guard {
	switch o := old.(type) {
	case Never:
		return g
	case Must:
		return Must{}
	case Or:
		if _, ok := g.(Must); ok {
			return Must{}
		}
		if _, ok := g.(Never); ok {
			return old
		}
		merged := make(Or, len(o), len(o)+1)
		copy(merged, o)
		return append(merged, g)
	}
	switch g.(type) {
	case Never:
		return old
	case Must:
		return Must{}
	}
	return Or{old, g}
}

// AndGuard builds the conjunction of a and b without simplification.
func AndGuard(a, b Guard) Guard {
	return And{a, b}
}

// GuardRefs returns the flat values g reads, ascending and without
// duplicates.
func GuardRefs(g Guard) []ValueID {
	var set intsets.Sparse
	collectRefs(g, &set)
	ints := set.AppendTo(nil)
	refs := make([]ValueID, len(ints))
	for i, v := range ints {
		refs[i] = ValueID(v)
	}
	return refs
}

func collectRefs(g Guard, set *intsets.Sparse) {
	switch x := g.(type) {
	case Ref:
		set.Insert(int(x.Value))
	case And:
		for _, m := range x {
			collectRefs(m, set)
		}
	case Or:
		for _, m := range x {
			collectRefs(m, set)
		}
	case Not:
		collectRefs(x.Inner, set)
	}
}
