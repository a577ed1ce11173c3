package ir

import (
	"fmt"
	"math/big"
	"strings"
)

// EntityID identifies a wire/signal in a hierarchical design. The zero value
// means "absent" and is never handed out by an Env.
type EntityID int

// OpID identifies an operation in a hierarchical design.
type OpID int

// RegionID identifies an ordered list of child operations.
type RegionID int

// NoEntity, NoOp and NoRegion mark optional references that are not present.
const (
	NoEntity EntityID = 0
	NoOp     OpID     = 0
	NoRegion RegionID = 0
)

// Source is the read-only query surface consumed by elaboration.
type Source interface {
	Op(id OpID) Operation
	Entity(id EntityID) (Entity, bool)
	Region(id RegionID) []OpID
	PrintOp(id OpID) string
}

// DataType is implemented by every wire type.
type DataType interface {
	isDataType()
	String() string
}

// UInt is a plain bit vector.
type UInt struct {
	Width int
}

func (UInt) isDataType() {}

func (t UInt) String() string { return fmt.Sprintf("i%d", t.Width) }

// Clock is the type of clock wires. There is a single implicit clock domain,
// so clock wires never carry data after flattening.
type Clock struct{}

func (Clock) isDataType() {}

func (Clock) String() string { return "!seq.clock" }

// Array is a fixed-length packed array.
type Array struct {
	Elem DataType
	Len  int
}

func (Array) isDataType() {}

func (t Array) String() string { return fmt.Sprintf("!hw.array<%dx%s>", t.Len, typeName(t.Elem)) }

// Field is a named struct member.
type Field struct {
	Name string
	Type DataType
}

// Struct is a packed struct.
type Struct struct {
	Fields []Field
}

func (Struct) isDataType() {}

func (t Struct) String() string {
	parts := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, typeName(f.Type)))
	}
	return "!hw.struct<" + strings.Join(parts, ", ") + ">"
}

// TypesEqual reports whether two data types are structurally identical. Two
// nil types are equal.
func TypesEqual(a, b DataType) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case UInt:
		y, ok := b.(UInt)
		return ok && x.Width == y.Width
	case Clock:
		_, ok := b.(Clock)
		return ok
	case Array:
		y, ok := b.(Array)
		return ok && x.Len == y.Len && TypesEqual(x.Elem, y.Elem)
	case Struct:
		y, ok := b.(Struct)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !TypesEqual(x.Fields[i].Type, y.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsClock reports whether t is the clock type.
func IsClock(t DataType) bool {
	_, ok := t.(Clock)
	return ok
}

func typeName(t DataType) string {
	if t == nil {
		return "none"
	}
	return t.String()
}

// Entity is a wire record.
type Entity struct {
	ID   EntityID
	Name string
	Type DataType
}

// Operand is a named list of entity references. Absent optional references
// are stored as NoEntity.
type Operand struct {
	Name string
	IDs  []EntityID
}

// Operation is implemented by every IR operation node.
type Operation interface {
	isOperation()
	// OpName is the dialect-qualified mnemonic, e.g. "comb.add".
	OpName() string
	Uses() []Operand
	Defs() []Operand
}

// Port is a module boundary signature entry.
type Port struct {
	Name string
	Type DataType
}

// Module defines a hardware module whose body region holds its operations.
type Module struct {
	Name    string
	Top     bool
	Inputs  []Port
	Outputs []Port
	Body    RegionID
}

func (*Module) isOperation()    {}
func (*Module) OpName() string  { return "hw.module" }
func (*Module) Uses() []Operand { return nil }
func (*Module) Defs() []Operand { return nil }

// Input binds the module's input port wires, in port order.
type Input struct {
	Ports []EntityID
}

func (*Input) isOperation()      {}
func (*Input) OpName() string    { return "hw.input" }
func (*Input) Uses() []Operand   { return nil }
func (o *Input) Defs() []Operand { return []Operand{{Name: "inputs", IDs: o.Ports}} }

// Output binds the module's output port wires, in port order.
type Output struct {
	Ports []EntityID
}

func (*Output) isOperation()      {}
func (*Output) OpName() string    { return "hw.output" }
func (o *Output) Uses() []Operand { return []Operand{{Name: "outputs", IDs: o.Ports}} }
func (*Output) Defs() []Operand   { return nil }

// Instance instantiates the module defined by Target.
type Instance struct {
	Name    string
	Target  OpID
	Inputs  []EntityID
	Outputs []EntityID
}

func (*Instance) isOperation()      {}
func (*Instance) OpName() string    { return "hw.instance" }
func (o *Instance) Uses() []Operand { return []Operand{{Name: "inputs", IDs: o.Inputs}} }
func (o *Instance) Defs() []Operand { return []Operand{{Name: "outputs", IDs: o.Outputs}} }

// Register is a clocked register (seq.compreg).
type Register struct {
	Input      EntityID
	Output     EntityID
	Clock      EntityID
	Reset      EntityID
	ResetValue EntityID
}

func (*Register) isOperation()   {}
func (*Register) OpName() string { return "seq.compreg" }

func (o *Register) Uses() []Operand {
	return []Operand{
		{Name: "input", IDs: []EntityID{o.Input}},
		{Name: "clk", IDs: []EntityID{o.Clock}},
		{Name: "reset", IDs: []EntityID{o.Reset}},
		{Name: "reset_val", IDs: []EntityID{o.ResetValue}},
	}
}

func (o *Register) Defs() []Operand { return []Operand{{Name: "output", IDs: []EntityID{o.Output}}} }

// CombKind enumerates the combinational operations elaboration understands.
type CombKind int

const (
	Assign CombKind = iota
	BitCast
	Constant
	AggregateConstant
	ArrayConcat
	ArrayCreate
	ArrayGet
	ArraySlice
	StructCreate
	StructExplode
	StructExtract
	StructInject
	Variadic
	Binary
	ICmp
	Unary
	Mux
)

var combNames = [...]string{
	Assign:            "assign",
	BitCast:           "hw.bitcast",
	Constant:          "hw.constant",
	AggregateConstant: "hw.aggregate_constant",
	ArrayConcat:       "hw.array_concat",
	ArrayCreate:       "hw.array_create",
	ArrayGet:          "hw.array_get",
	ArraySlice:        "hw.array_slice",
	StructCreate:      "hw.struct_create",
	StructExplode:     "hw.struct_explode",
	StructExtract:     "hw.struct_extract",
	StructInject:      "hw.struct_inject",
	Variadic:          "comb.variadic",
	Binary:            "comb.binary",
	ICmp:              "comb.icmp",
	Unary:             "comb.unary",
	Mux:               "comb.mux",
}

func (k CombKind) String() string {
	if k < 0 || int(k) >= len(combNames) {
		return fmt.Sprintf("comb.kind(%d)", int(k))
	}
	return combNames[k]
}

// Comb is a generic combinational operation. Predicate selects the concrete
// function for Variadic, Binary, ICmp and Unary kinds ("add", "shl", "ult",
// "not", ...). Value carries the literal of a Constant; Elements the literals
// of an AggregateConstant.
type Comb struct {
	Kind      CombKind
	Predicate string
	Value     *big.Int
	Elements  []*big.Int
	Operands  []Operand
	Results   []Operand
}

func (*Comb) isOperation() {}

func (o *Comb) OpName() string {
	switch o.Kind {
	case Variadic, Binary, Unary:
		if o.Predicate != "" {
			return "comb." + o.Predicate
		}
	}
	return o.Kind.String()
}

func (o *Comb) Uses() []Operand { return o.Operands }
func (o *Comb) Defs() []Operand { return o.Results }

// Select picks one of Values according to one-hot Conds, falling back to
// Default (when present) if no condition holds.
type Select struct {
	Result  EntityID
	Conds   []EntityID
	Values  []EntityID
	Default EntityID
	OneHot  bool
}

func (*Select) isOperation()   {}
func (*Select) OpName() string { return "cmt.select" }

func (o *Select) Uses() []Operand {
	return []Operand{
		{Name: "conds", IDs: o.Conds},
		{Name: "values", IDs: o.Values},
		{Name: "default", IDs: []EntityID{o.Default}},
	}
}

func (o *Select) Defs() []Operand { return []Operand{{Name: "lhs", IDs: []EntityID{o.Result}}} }

// Cases runs the body whose one-hot condition holds, or Default when none
// does.
type Cases struct {
	Conds   []EntityID
	Bodies  []RegionID
	Default RegionID
	OneHot  bool
}

func (*Cases) isOperation()      {}
func (*Cases) OpName() string    { return "cmt.cases" }
func (o *Cases) Uses() []Operand { return []Operand{{Name: "conds", IDs: o.Conds}} }
func (*Cases) Defs() []Operand   { return nil }

// Opaque carries any dialect operation elaboration does not interpret, such
// as comb.parity or seq.hlmem.
type Opaque struct {
	Name     string
	Operands []Operand
	Results  []Operand
}

func (*Opaque) isOperation()      {}
func (o *Opaque) OpName() string  { return o.Name }
func (o *Opaque) Uses() []Operand { return o.Operands }
func (o *Opaque) Defs() []Operand { return o.Results }

// Flatten returns every present entity reference of the operand lists, in
// order.
func Flatten(operands []Operand) []EntityID {
	var ids []EntityID
	for _, operand := range operands {
		for _, id := range operand.IDs {
			if id != NoEntity {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
