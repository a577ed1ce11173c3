package flat

import "hwflat/internal/ir"

// Event is a schedulable unit of a flattened program. An execution driver
// calls Initialize once, then Update for every used value as it is produced;
// the event may fire once Ready reports true.
type Event interface {
	isEvent()
	// Kind is a short name for dumps and diagnostics.
	Kind() string
	Defs() []ValueID
	Uses() []ValueID
	Initialize()
	// Update marks v as arrived and reports whether the event is now ready.
	Update(v ValueID) (bool, error)
	Ready() bool
	// Pending is the number of declared uses that have not arrived.
	Pending() int
}

// arrivals is the per-use countdown shared by the waiting event kinds. A
// value listed more than once is satisfied by a single arrival.
type arrivals struct {
	seen    []bool
	pending int
	init    bool
}

func (a *arrivals) reset(n int) {
	a.seen = make([]bool, n)
	a.pending = n
	a.init = true
}

func (a *arrivals) mark(kind string, uses []ValueID, v ValueID) error {
	if !a.init {
		return Violationf(NotInitialized, "%s: update(%s) before initialize", kind, v)
	}
	found := false
	for i, u := range uses {
		if u != v {
			continue
		}
		if a.seen[i] {
			return Violationf(RepeatedUse, "%s: %s already arrived", kind, v)
		}
		found = true
		a.seen[i] = true
		a.pending--
	}
	if !found {
		return Violationf(UnknownUse, "%s: %s is not a use", kind, v)
	}
	return nil
}

func (a *arrivals) ready() bool {
	return a.init && a.pending == 0
}

// noWait is embedded by kinds without uses; they are always ready.
type noWait struct {
	init bool
}

func (n *noWait) update(kind string, v ValueID) (bool, error) {
	if !n.init {
		return false, Violationf(NotInitialized, "%s: update(%s) before initialize", kind, v)
	}
	return false, Violationf(UnknownUse, "%s: %s is not a use", kind, v)
}

// ListenChannel represents external arrival on the top module's input ports.
type ListenChannel struct {
	Channels []int
	Values   []ValueID
	noWait
}

func (*ListenChannel) isEvent()                         {}
func (*ListenChannel) Kind() string                     { return "listen" }
func (e *ListenChannel) Defs() []ValueID                { return e.Values }
func (*ListenChannel) Uses() []ValueID                  { return nil }
func (e *ListenChannel) Initialize()                    { e.init = true }
func (e *ListenChannel) Update(v ValueID) (bool, error) { return e.update(e.Kind(), v) }
func (*ListenChannel) Ready() bool                      { return true }
func (*ListenChannel) Pending() int                     { return 0 }

// WriteChannel drives the top module's output ports.
type WriteChannel struct {
	Channels []int
	Values   []ValueID
	arrivals
}

func (*WriteChannel) isEvent()          {}
func (*WriteChannel) Kind() string      { return "write" }
func (*WriteChannel) Defs() []ValueID   { return nil }
func (e *WriteChannel) Uses() []ValueID { return e.Values }
func (e *WriteChannel) Initialize()     { e.reset(len(e.Values)) }
func (e *WriteChannel) Ready() bool     { return e.ready() }
func (e *WriteChannel) Pending() int    { return e.pending }

func (e *WriteChannel) Update(v ValueID) (bool, error) {
	if err := e.mark(e.Kind(), e.Values, v); err != nil {
		return false, err
	}
	return e.Ready(), nil
}

// LdReg produces the registers' current (old) values.
type LdReg struct {
	Regs []ValueID
	noWait
}

func (*LdReg) isEvent()                         {}
func (*LdReg) Kind() string                     { return "ldreg" }
func (e *LdReg) Defs() []ValueID                { return e.Regs }
func (*LdReg) Uses() []ValueID                  { return nil }
func (e *LdReg) Initialize()                    { e.init = true }
func (e *LdReg) Update(v ValueID) (bool, error) { return e.update(e.Kind(), v) }
func (*LdReg) Ready() bool                      { return true }
func (*LdReg) Pending() int                     { return 0 }

// StReg stores Values into the next-state slots of Regs, pairwise. Regs are
// the registers' output values; the store defines nothing in this cycle.
type StReg struct {
	Values []ValueID
	Regs   []ValueID
	arrivals
}

func (*StReg) isEvent()          {}
func (*StReg) Kind() string      { return "streg" }
func (*StReg) Defs() []ValueID   { return nil }
func (e *StReg) Uses() []ValueID { return e.Values }
func (e *StReg) Initialize()     { e.reset(len(e.Values)) }
func (e *StReg) Ready() bool     { return e.ready() }
func (e *StReg) Pending() int    { return e.pending }

func (e *StReg) Update(v ValueID) (bool, error) {
	if err := e.mark(e.Kind(), e.Values, v); err != nil {
		return false, err
	}
	return e.Ready(), nil
}

// Comb evaluates the combinational operation Op of the source design.
type Comb struct {
	Op   ir.OpID
	Name string
	In   []ValueID
	Out  []ValueID
	arrivals
}

func (*Comb) isEvent()          {}
func (*Comb) Kind() string      { return "comb" }
func (e *Comb) Defs() []ValueID { return e.Out }
func (e *Comb) Uses() []ValueID { return e.In }
func (e *Comb) Initialize()     { e.reset(len(e.In)) }
func (e *Comb) Ready() bool     { return e.ready() }
func (e *Comb) Pending() int    { return e.pending }

func (e *Comb) Update(v ValueID) (bool, error) {
	if err := e.mark(e.Kind(), e.In, v); err != nil {
		return false, err
	}
	return e.Ready(), nil
}

// CondCheck evaluates the conditions of a select or cases and defines the
// synthetic decision value that tells which arm is taken.
type CondCheck struct {
	Conds      []ValueID
	Result     ValueID
	OneHot     bool
	HasDefault bool
	arrivals
}

func (*CondCheck) isEvent()          {}
func (*CondCheck) Kind() string      { return "condcheck" }
func (e *CondCheck) Defs() []ValueID { return []ValueID{e.Result} }
func (e *CondCheck) Uses() []ValueID { return e.Conds }
func (e *CondCheck) Initialize()     { e.reset(len(e.Conds)) }
func (e *CondCheck) Ready() bool     { return e.ready() }
func (e *CondCheck) Pending() int    { return e.pending }

func (e *CondCheck) Update(v ValueID) (bool, error) {
	if err := e.mark(e.Kind(), e.Conds, v); err != nil {
		return false, err
	}
	return e.Ready(), nil
}

// Select copies the candidate chosen by Decision into Result. Values holds
// the candidates in arm order followed by the default, when there is one.
// The decision is tracked apart from the candidate countdown.
type Select struct {
	Result      ValueID
	Decision    ValueID
	Values      []ValueID
	hasDecision bool
	arrivals
}

func (*Select) isEvent()          {}
func (*Select) Kind() string      { return "select" }
func (e *Select) Defs() []ValueID { return []ValueID{e.Result} }

func (e *Select) Uses() []ValueID {
	uses := make([]ValueID, 0, len(e.Values)+1)
	uses = append(uses, e.Decision)
	return append(uses, e.Values...)
}

func (e *Select) Initialize() {
	e.hasDecision = false
	e.reset(len(e.Values))
}

func (e *Select) Update(v ValueID) (bool, error) {
	if !e.init {
		return false, Violationf(NotInitialized, "%s: update(%s) before initialize", e.Kind(), v)
	}
	if v == e.Decision {
		if e.hasDecision {
			return false, Violationf(RepeatedUse, "%s: decision %s already arrived", e.Kind(), v)
		}
		e.hasDecision = true
		return e.Ready(), nil
	}
	if err := e.mark(e.Kind(), e.Values, v); err != nil {
		return false, err
	}
	return e.Ready(), nil
}

// HasDecision reports whether the decision value has arrived.
func (e *Select) HasDecision() bool { return e.hasDecision }

func (e *Select) Ready() bool { return e.hasDecision && e.ready() }

func (e *Select) Pending() int {
	if e.hasDecision {
		return e.pending
	}
	return e.pending + 1
}
