package ir

import (
	"math/big"
)

// Env is an arena-backed hierarchical design. Entities, operations and
// regions are addressed by dense integer ids starting at 1. Modules live in
// the design's root list; every other operation lives in a region.
type Env struct {
	entities []Entity
	ops      []Operation
	regions  [][]OpID
	roots    []OpID
}

// NewEnv returns an empty design.
func NewEnv() *Env {
	return &Env{
		entities: []Entity{{}},
		ops:      []Operation{nil},
		regions:  [][]OpID{nil},
	}
}

// AddEntity declares a wire and returns its id.
func (e *Env) AddEntity(name string, typ DataType) EntityID {
	id := EntityID(len(e.entities))
	e.entities = append(e.entities, Entity{ID: id, Name: name, Type: typ})
	return id
}

// AddRegion allocates an empty region.
func (e *Env) AddRegion() RegionID {
	id := RegionID(len(e.regions))
	e.regions = append(e.regions, nil)
	return id
}

// AddOp appends op to region. Passing NoRegion places op in the design's
// root list, which is where modules belong.
func (e *Env) AddOp(region RegionID, op Operation) OpID {
	id := OpID(len(e.ops))
	e.ops = append(e.ops, op)
	if region == NoRegion {
		e.roots = append(e.roots, id)
		return id
	}
	e.regions[region] = append(e.regions[region], id)
	return id
}

// AddModule declares a module together with a fresh body region.
func (e *Env) AddModule(name string, top bool, inputs, outputs []Port) (OpID, RegionID) {
	body := e.AddRegion()
	id := e.AddOp(NoRegion, &Module{
		Name:    name,
		Top:     top,
		Inputs:  inputs,
		Outputs: outputs,
		Body:    body,
	})
	return id, body
}

// Op returns the operation with the given id, or nil.
func (e *Env) Op(id OpID) Operation {
	if id <= NoOp || int(id) >= len(e.ops) {
		return nil
	}
	return e.ops[id]
}

// Entity returns the wire with the given id.
func (e *Env) Entity(id EntityID) (Entity, bool) {
	if id <= NoEntity || int(id) >= len(e.entities) {
		return Entity{}, false
	}
	return e.entities[id], true
}

// Region returns the ordered child operations of a region.
func (e *Env) Region(id RegionID) []OpID {
	if id <= NoRegion || int(id) >= len(e.regions) {
		return nil
	}
	return e.regions[id]
}

// Modules returns every module in declaration order.
func (e *Env) Modules() []OpID {
	var mods []OpID
	for _, id := range e.roots {
		if _, ok := e.ops[id].(*Module); ok {
			mods = append(mods, id)
		}
	}
	return mods
}

// ModuleByName looks a module up by name.
func (e *Env) ModuleByName(name string) (OpID, bool) {
	for _, id := range e.Modules() {
		if e.ops[id].(*Module).Name == name {
			return id, true
		}
	}
	return NoOp, false
}

func single(name string, id EntityID) Operand {
	return Operand{Name: name, IDs: []EntityID{id}}
}

func list(name string, ids []EntityID) Operand {
	return Operand{Name: name, IDs: ids}
}

// NewAssign builds lhs = rhs.
func NewAssign(lhs, rhs EntityID) *Comb {
	return &Comb{Kind: Assign, Operands: []Operand{single("rhs", rhs)}, Results: []Operand{single("lhs", lhs)}}
}

// NewBitCast builds lhs = hw.bitcast rhs.
func NewBitCast(lhs, rhs EntityID) *Comb {
	return &Comb{Kind: BitCast, Operands: []Operand{single("rhs", rhs)}, Results: []Operand{single("lhs", lhs)}}
}

// NewConstant builds lhs = hw.constant value.
func NewConstant(lhs EntityID, value *big.Int) *Comb {
	return &Comb{Kind: Constant, Value: value, Results: []Operand{single("lhs", lhs)}}
}

// NewAggregateConstant builds lhs = hw.aggregate_constant [elements].
func NewAggregateConstant(lhs EntityID, elements []*big.Int) *Comb {
	return &Comb{Kind: AggregateConstant, Elements: elements, Results: []Operand{single("lhs", lhs)}}
}

// NewArrayConcat builds lhs = hw.array_concat operands.
func NewArrayConcat(lhs EntityID, operands ...EntityID) *Comb {
	return &Comb{Kind: ArrayConcat, Operands: []Operand{list("operands", operands)}, Results: []Operand{single("lhs", lhs)}}
}

// NewArrayCreate builds lhs = hw.array_create operands.
func NewArrayCreate(lhs EntityID, operands ...EntityID) *Comb {
	return &Comb{Kind: ArrayCreate, Operands: []Operand{list("operands", operands)}, Results: []Operand{single("lhs", lhs)}}
}

// NewArrayGet builds lhs = hw.array_get array[index].
func NewArrayGet(lhs, array, index EntityID) *Comb {
	return &Comb{
		Kind:     ArrayGet,
		Operands: []Operand{single("array", array), single("index", index)},
		Results:  []Operand{single("lhs", lhs)},
	}
}

// NewArraySlice builds lhs = hw.array_slice array[index].
func NewArraySlice(lhs, array, index EntityID) *Comb {
	return &Comb{
		Kind:     ArraySlice,
		Operands: []Operand{single("array", array), single("index", index)},
		Results:  []Operand{single("lhs", lhs)},
	}
}

// NewStructCreate builds lhs = hw.struct_create operands.
func NewStructCreate(lhs EntityID, operands ...EntityID) *Comb {
	return &Comb{Kind: StructCreate, Operands: []Operand{list("operands", operands)}, Results: []Operand{single("lhs", lhs)}}
}

// NewStructExplode builds outputs = hw.struct_explode input.
func NewStructExplode(input EntityID, outputs ...EntityID) *Comb {
	return &Comb{Kind: StructExplode, Operands: []Operand{single("struct_input", input)}, Results: []Operand{list("outputs", outputs)}}
}

// NewStructExtract builds lhs = hw.struct_extract input[field].
func NewStructExtract(lhs, input, field EntityID) *Comb {
	return &Comb{
		Kind:     StructExtract,
		Operands: []Operand{single("struct_input", input), single("field", field)},
		Results:  []Operand{single("lhs", lhs)},
	}
}

// NewStructInject builds lhs = hw.struct_inject input[field], value.
func NewStructInject(lhs, input, field, value EntityID) *Comb {
	return &Comb{
		Kind:     StructInject,
		Operands: []Operand{single("struct_input", input), single("field", field), single("new_value", value)},
		Results:  []Operand{single("lhs", lhs)},
	}
}

// NewVariadic builds lhs = comb.<predicate> operands.
func NewVariadic(predicate string, lhs EntityID, operands ...EntityID) *Comb {
	return &Comb{Kind: Variadic, Predicate: predicate, Operands: []Operand{list("operands", operands)}, Results: []Operand{single("lhs", lhs)}}
}

// NewBinary builds lhs = comb.<predicate> op0, op1.
func NewBinary(predicate string, lhs, op0, op1 EntityID) *Comb {
	return &Comb{
		Kind:      Binary,
		Predicate: predicate,
		Operands:  []Operand{single("op0", op0), single("op1", op1)},
		Results:   []Operand{single("lhs", lhs)},
	}
}

// NewICmp builds lhs = comb.icmp <predicate> op0, op1.
func NewICmp(predicate string, lhs, op0, op1 EntityID) *Comb {
	return &Comb{
		Kind:      ICmp,
		Predicate: predicate,
		Operands:  []Operand{single("op0", op0), single("op1", op1)},
		Results:   []Operand{single("lhs", lhs)},
	}
}

// NewUnary builds lhs = comb.<predicate> op.
func NewUnary(predicate string, lhs, op EntityID) *Comb {
	return &Comb{Kind: Unary, Predicate: predicate, Operands: []Operand{single("op", op)}, Results: []Operand{single("lhs", lhs)}}
}

// NewMux builds lhs = comb.mux cond, op0, op1.
func NewMux(lhs, cond, op0, op1 EntityID) *Comb {
	return &Comb{
		Kind:     Mux,
		Operands: []Operand{single("cond", cond), single("op0", op0), single("op1", op1)},
		Results:  []Operand{single("lhs", lhs)},
	}
}
