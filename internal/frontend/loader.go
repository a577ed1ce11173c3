// Package frontend reads YAML design descriptions into an ir.Env.
package frontend

import (
	"bytes"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"hwflat/internal/ir"
)

// File is the top-level document of a design file.
type File struct {
	Modules []ModuleSpec `yaml:"modules"`
}

// ModuleSpec declares one module. Every wire a body mentions must be one of
// its inputs, outputs or wires.
type ModuleSpec struct {
	Name    string     `yaml:"name"`
	Top     bool       `yaml:"top"`
	Inputs  []WireSpec `yaml:"inputs"`
	Outputs []WireSpec `yaml:"outputs"`
	Wires   []WireSpec `yaml:"wires"`
	Body    []OpSpec   `yaml:"body"`
}

// WireSpec is a named, typed wire.
type WireSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// OpSpec is one body operation. Which fields apply depends on Op.
type OpSpec struct {
	Op       string   `yaml:"op"`
	Pred     string   `yaml:"pred,omitempty"`
	LHS      string   `yaml:"lhs,omitempty"`
	RHS      string   `yaml:"rhs,omitempty"`
	Value    string   `yaml:"value,omitempty"`
	Elements []string `yaml:"elements,omitempty"`
	Operands []string `yaml:"operands,omitempty"`
	Op0      string   `yaml:"op0,omitempty"`
	Op1      string   `yaml:"op1,omitempty"`
	Cond     string   `yaml:"cond,omitempty"`
	Array    string   `yaml:"array,omitempty"`
	Index    string   `yaml:"index,omitempty"`
	Struct   string   `yaml:"struct,omitempty"`
	Field    string   `yaml:"field,omitempty"`
	NewValue string   `yaml:"new_value,omitempty"`

	// compreg
	Input      string `yaml:"input,omitempty"`
	Output     string `yaml:"output,omitempty"`
	Clock      string `yaml:"clock,omitempty"`
	Reset      string `yaml:"reset,omitempty"`
	ResetValue string `yaml:"reset_value,omitempty"`

	// instance
	Name    string   `yaml:"name,omitempty"`
	Module  string   `yaml:"module,omitempty"`
	Inputs  []string `yaml:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`

	// select and cases
	Conds     []string  `yaml:"conds,omitempty"`
	Values    []string  `yaml:"values,omitempty"`
	Default   string    `yaml:"default,omitempty"`
	Priority  bool      `yaml:"priority,omitempty"`
	Arms      []ArmSpec `yaml:"arms,omitempty"`
	Otherwise []OpSpec  `yaml:"otherwise,omitempty"`
}

// ArmSpec is one guarded body of a cases operation.
type ArmSpec struct {
	Cond string   `yaml:"cond"`
	Body []OpSpec `yaml:"body"`
}

// LoadFile reads and builds the design stored at path.
func LoadFile(path string) (*ir.Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read design")
	}
	env, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return env, nil
}

// Load reads a design from r.
func Load(r io.Reader) (*ir.Env, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read design")
	}
	return Parse(data)
}

// Parse decodes and builds a design. Unknown YAML keys are rejected.
func Parse(data []byte) (*ir.Env, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode design")
	}
	return Build(&f)
}

// Build lowers a decoded file into an ir.Env. Modules may instantiate
// modules declared later in the file.
func Build(f *File) (*ir.Env, error) {
	env := ir.NewEnv()
	b := &builder{env: env, modules: make(map[string]ir.OpID)}
	bodies := make([]ir.RegionID, len(f.Modules))
	for i, m := range f.Modules {
		if m.Name == "" {
			return nil, errors.Errorf("module %d has no name", i)
		}
		if _, dup := b.modules[m.Name]; dup {
			return nil, errors.Errorf("module %s declared twice", m.Name)
		}
		inputs, err := portList(m.Inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s inputs", m.Name)
		}
		outputs, err := portList(m.Outputs)
		if err != nil {
			return nil, errors.Wrapf(err, "module %s outputs", m.Name)
		}
		id, body := env.AddModule(m.Name, m.Top, inputs, outputs)
		b.modules[m.Name] = id
		bodies[i] = body
	}
	for i := range f.Modules {
		if err := b.module(&f.Modules[i], bodies[i]); err != nil {
			return nil, errors.Wrapf(err, "module %s", f.Modules[i].Name)
		}
	}
	return env, nil
}

func portList(wires []WireSpec) ([]ir.Port, error) {
	ports := make([]ir.Port, 0, len(wires))
	for _, w := range wires {
		t, err := ParseType(w.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "port %s", w.Name)
		}
		ports = append(ports, ir.Port{Name: w.Name, Type: t})
	}
	return ports, nil
}

type builder struct {
	env     *ir.Env
	modules map[string]ir.OpID
	wires   map[string]ir.EntityID
}

func (b *builder) module(m *ModuleSpec, body ir.RegionID) error {
	b.wires = make(map[string]ir.EntityID)
	declare := func(specs []WireSpec) ([]ir.EntityID, error) {
		ids := make([]ir.EntityID, 0, len(specs))
		for _, w := range specs {
			if _, dup := b.wires[w.Name]; dup || w.Name == "" {
				return nil, errors.Errorf("wire %q declared twice or unnamed", w.Name)
			}
			t, err := ParseType(w.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "wire %s", w.Name)
			}
			id := b.env.AddEntity(w.Name, t)
			b.wires[w.Name] = id
			ids = append(ids, id)
		}
		return ids, nil
	}
	inputs, err := declare(m.Inputs)
	if err != nil {
		return err
	}
	outputs, err := declare(m.Outputs)
	if err != nil {
		return err
	}
	if _, err := declare(m.Wires); err != nil {
		return err
	}
	b.env.AddOp(body, &ir.Input{Ports: inputs})
	b.env.AddOp(body, &ir.Output{Ports: outputs})
	return b.region(body, m.Body)
}

func (b *builder) region(region ir.RegionID, ops []OpSpec) error {
	for i := range ops {
		op, err := b.op(&ops[i])
		if err != nil {
			return errors.Wrapf(err, "op %d (%s)", i, ops[i].Op)
		}
		b.env.AddOp(region, op)
	}
	return nil
}

func (b *builder) wire(name string) (ir.EntityID, error) {
	id, ok := b.wires[name]
	if !ok {
		return ir.NoEntity, errors.Errorf("unknown wire %q", name)
	}
	return id, nil
}

// optional resolves name, mapping the empty string to NoEntity.
func (b *builder) optional(name string) (ir.EntityID, error) {
	if name == "" {
		return ir.NoEntity, nil
	}
	return b.wire(name)
}

func (b *builder) wireList(names []string) ([]ir.EntityID, error) {
	ids := make([]ir.EntityID, 0, len(names))
	for _, n := range names {
		id, err := b.wire(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// resolver accumulates the first lookup failure so op lowering can stay
// linear.
type resolver struct {
	b   *builder
	err error
}

func (r *resolver) one(name string) ir.EntityID {
	id, err := r.b.wire(name)
	if err != nil && r.err == nil {
		r.err = err
	}
	return id
}

func (r *resolver) opt(name string) ir.EntityID {
	id, err := r.b.optional(name)
	if err != nil && r.err == nil {
		r.err = err
	}
	return id
}

func (r *resolver) list(names []string) []ir.EntityID {
	ids, err := r.b.wireList(names)
	if err != nil && r.err == nil {
		r.err = err
	}
	return ids
}

func (b *builder) op(s *OpSpec) (ir.Operation, error) {
	r := &resolver{b: b}
	var op ir.Operation
	switch s.Op {
	case "assign":
		op = ir.NewAssign(r.one(s.LHS), r.one(s.RHS))
	case "bitcast":
		op = ir.NewBitCast(r.one(s.LHS), r.one(s.RHS))
	case "constant":
		v, err := literal(s.Value)
		if err != nil {
			return nil, err
		}
		op = ir.NewConstant(r.one(s.LHS), v)
	case "aggregate_constant":
		elems := make([]*big.Int, 0, len(s.Elements))
		for _, e := range s.Elements {
			v, err := literal(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		op = ir.NewAggregateConstant(r.one(s.LHS), elems)
	case "array_concat":
		op = ir.NewArrayConcat(r.one(s.LHS), r.list(s.Operands)...)
	case "array_create":
		op = ir.NewArrayCreate(r.one(s.LHS), r.list(s.Operands)...)
	case "array_get":
		op = ir.NewArrayGet(r.one(s.LHS), r.one(s.Array), r.one(s.Index))
	case "array_slice":
		op = ir.NewArraySlice(r.one(s.LHS), r.one(s.Array), r.one(s.Index))
	case "struct_create":
		op = ir.NewStructCreate(r.one(s.LHS), r.list(s.Operands)...)
	case "struct_explode":
		op = ir.NewStructExplode(r.one(s.Struct), r.list(s.Outputs)...)
	case "struct_extract":
		op = ir.NewStructExtract(r.one(s.LHS), r.one(s.Struct), r.one(s.Field))
	case "struct_inject":
		op = ir.NewStructInject(r.one(s.LHS), r.one(s.Struct), r.one(s.Field), r.one(s.NewValue))
	case "variadic":
		op = ir.NewVariadic(s.Pred, r.one(s.LHS), r.list(s.Operands)...)
	case "binary":
		op = ir.NewBinary(s.Pred, r.one(s.LHS), r.one(s.Op0), r.one(s.Op1))
	case "icmp":
		op = ir.NewICmp(s.Pred, r.one(s.LHS), r.one(s.Op0), r.one(s.Op1))
	case "unary":
		op = ir.NewUnary(s.Pred, r.one(s.LHS), r.one(s.Op0))
	case "mux":
		op = ir.NewMux(r.one(s.LHS), r.one(s.Cond), r.one(s.Op0), r.one(s.Op1))
	case "compreg":
		op = &ir.Register{
			Input:      r.one(s.Input),
			Output:     r.one(s.Output),
			Clock:      r.opt(s.Clock),
			Reset:      r.opt(s.Reset),
			ResetValue: r.opt(s.ResetValue),
		}
	case "instance":
		target, ok := b.modules[s.Module]
		if !ok {
			return nil, errors.Errorf("instance %q of unknown module %q", s.Name, s.Module)
		}
		op = &ir.Instance{Name: s.Name, Target: target, Inputs: r.list(s.Inputs), Outputs: r.list(s.Outputs)}
	case "select":
		op = &ir.Select{
			Result:  r.one(s.LHS),
			Conds:   r.list(s.Conds),
			Values:  r.list(s.Values),
			Default: r.opt(s.Default),
			OneHot:  !s.Priority,
		}
	case "cases":
		return b.cases(s)
	case "":
		return nil, errors.New("missing op name")
	default:
		op = &ir.Opaque{
			Name:     s.Op,
			Operands: []ir.Operand{{Name: "operands", IDs: r.list(s.Operands)}},
			Results:  []ir.Operand{{Name: "lhs", IDs: []ir.EntityID{r.opt(s.LHS)}}},
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return op, nil
}

func (b *builder) cases(s *OpSpec) (ir.Operation, error) {
	op := &ir.Cases{OneHot: !s.Priority}
	for i, arm := range s.Arms {
		cond, err := b.wire(arm.Cond)
		if err != nil {
			return nil, errors.Wrapf(err, "arm %d", i)
		}
		body := b.env.AddRegion()
		if err := b.region(body, arm.Body); err != nil {
			return nil, errors.Wrapf(err, "arm %d", i)
		}
		op.Conds = append(op.Conds, cond)
		op.Bodies = append(op.Bodies, body)
	}
	if s.Otherwise != nil {
		op.Default = b.env.AddRegion()
		if err := b.region(op.Default, s.Otherwise); err != nil {
			return nil, errors.Wrap(err, "otherwise")
		}
	}
	return op, nil
}

func literal(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Errorf("bad literal %q", s)
	}
	return v, nil
}
