// Package elaborate flattens a hierarchical design into a flat.Program by
// inlining every instance into the top module.
package elaborate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hwflat/internal/flat"
	"hwflat/internal/ir"
)

// Setting is the binding context a module body is elaborated in.
type Setting interface {
	isSetting()
	guard() flat.Guard
}

// Top elaborates the outermost module: its ports become channels.
type Top struct{}

// SubModule elaborates an inlined instance: its ports alias the caller's
// actual wires, in port order.
type SubModule struct {
	InputsFrom []flat.ValueID
	OutputsTo  []flat.ValueID
	Guard      flat.Guard
}

func (Top) isSetting()                 {}
func (Top) guard() flat.Guard          { return flat.Must{} }
func (*SubModule) isSetting()          {}
func (s *SubModule) guard() flat.Guard { return s.Guard }

// Option configures Elaborate.
type Option func(*elaborator)

// WithLogger routes exploration tracing to l at debug level. Tracing is
// skipped entirely unless l's logger has debug enabled.
func WithLogger(l *logrus.Entry) Option {
	return func(e *elaborator) {
		e.log = l
	}
}

// Elaborate flattens the module top and everything it instantiates. top must
// be a module marked as top. Any structural violation aborts elaboration and
// no program is returned.
func Elaborate(src ir.Source, top ir.OpID, opts ...Option) (*flat.Program, error) {
	mod, ok := src.Op(top).(*ir.Module)
	if !ok {
		return nil, flat.Violationf(flat.BadTop, "op %d is not a module", top)
	}
	if !mod.Top {
		return nil, flat.Violationf(flat.BadTop, "module %s is not marked top", mod.Name)
	}
	e := &elaborator{
		src:     src,
		prog:    &flat.Program{},
		reducer: flat.NewReducer(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.trace = e.log.Logger.IsLevelEnabled(logrus.DebugLevel)
	if err := e.inline(top, Top{}, 0); err != nil {
		return nil, err
	}
	return e.prog, nil
}

// ModuleSource is a Source that can enumerate its modules.
type ModuleSource interface {
	ir.Source
	Modules() []ir.OpID
}

// FindTop returns the single module marked top.
func FindTop(src ModuleSource) (ir.OpID, error) {
	var tops []ir.OpID
	var names []string
	for _, id := range src.Modules() {
		if mod, ok := src.Op(id).(*ir.Module); ok && mod.Top {
			tops = append(tops, id)
			names = append(names, mod.Name)
		}
	}
	switch len(tops) {
	case 0:
		return ir.NoOp, flat.Violationf(flat.BadTop, "no module is marked top")
	case 1:
		return tops[0], nil
	default:
		return ir.NoOp, flat.Violationf(flat.BadTop, "multiple modules marked top: %s", strings.Join(names, ", "))
	}
}

type elaborator struct {
	src     ir.Source
	prog    *flat.Program
	reducer *flat.Reducer
	log     *logrus.Entry
	trace   bool
	scopes  int
	stack   []ir.OpID
}

// frame is one module instantiation being elaborated.
type frame struct {
	module    string
	setting   Setting
	scope     int
	sawInput  bool
	sawOutput bool
}

func (e *elaborator) inline(id ir.OpID, s Setting, scope int) error {
	mod, ok := e.src.Op(id).(*ir.Module)
	if !ok {
		return flat.Violationf(flat.UnknownOp, "op %d is not a module", id)
	}
	for _, active := range e.stack {
		if active == id {
			return flat.Violationf(flat.Recursive, "module %s instantiates itself", mod.Name)
		}
	}
	e.stack = append(e.stack, id)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	f := &frame{module: mod.Name, setting: s, scope: scope}
	return e.region(f, mod.Body, s.guard())
}

func (e *elaborator) region(f *frame, region ir.RegionID, g flat.Guard) error {
	if e.trace {
		e.log.WithFields(logrus.Fields{
			"module": f.module,
			"scope":  f.scope,
			"region": region,
		}).Debug("explore region")
	}
	for _, id := range e.src.Region(region) {
		if e.trace {
			e.log.WithField("op", e.src.PrintOp(id)).Debug("explore op")
		}
		if err := e.op(f, id, g); err != nil {
			var v *flat.Violation
			if errors.As(err, &v) {
				v.InOp(e.src.PrintOp(id))
			}
			return err
		}
	}
	return nil
}

func (e *elaborator) op(f *frame, id ir.OpID, g flat.Guard) error {
	switch o := e.src.Op(id).(type) {
	case nil:
		return flat.Violationf(flat.UnknownOp, "op %d does not exist", id)
	case *ir.Input:
		return e.inputs(f, o)
	case *ir.Output:
		return e.outputs(f, o)
	case *ir.Instance:
		return e.instance(f, o, g)
	case *ir.Register:
		return e.register(f, o, g)
	case *ir.Comb:
		return e.comb(f, id, o, g)
	case *ir.Select:
		return e.selectOp(f, o, g)
	case *ir.Cases:
		return e.cases(f, o, g)
	default:
		return flat.Violationf(flat.Unsupported, "%s cannot be flattened", o.OpName())
	}
}

func (e *elaborator) inputs(f *frame, o *ir.Input) error {
	if f.sawInput {
		return flat.Violationf(flat.DuplicatePort, "module %s has more than one input port operation", f.module)
	}
	f.sawInput = true
	ports, signals, err := e.dataWires(o.Ports)
	if err != nil {
		return err
	}
	switch s := f.setting.(type) {
	case Top:
		values, err := e.addEntities(f, ports, flat.Must{})
		if err != nil {
			return err
		}
		channels := make([]int, len(values))
		for i, v := range values {
			channels[i] = e.prog.AddChannel(v, signals[i], flat.In)
		}
		e.emit(&flat.ListenChannel{Channels: channels, Values: values}, flat.Must{})
		return nil
	case *SubModule:
		return e.bindAll(f, ports, s.InputsFrom)
	default:
		return fmt.Errorf("unknown setting %T", s)
	}
}

func (e *elaborator) outputs(f *frame, o *ir.Output) error {
	if f.sawOutput {
		return flat.Violationf(flat.DuplicatePort, "module %s has more than one output port operation", f.module)
	}
	f.sawOutput = true
	ports, signals, err := e.dataWires(o.Ports)
	if err != nil {
		return err
	}
	switch s := f.setting.(type) {
	case Top:
		values, err := e.addEntities(f, ports, flat.Must{})
		if err != nil {
			return err
		}
		channels := make([]int, len(values))
		for i, v := range values {
			channels[i] = e.prog.AddChannel(v, signals[i], flat.Out)
		}
		e.emit(&flat.WriteChannel{Channels: channels, Values: values}, flat.Must{})
		return nil
	case *SubModule:
		return e.bindAll(f, ports, s.OutputsTo)
	default:
		return fmt.Errorf("unknown setting %T", s)
	}
}

func (e *elaborator) instance(f *frame, o *ir.Instance, g flat.Guard) error {
	if _, ok := g.(flat.Must); !ok {
		return flat.Violationf(flat.Unsupported, "conditional instantiation of %q", o.Name)
	}
	if _, ok := e.src.Op(o.Target).(*ir.Module); !ok {
		return flat.Violationf(flat.UnknownOp, "instance %q targets op %d, which is not a module", o.Name, o.Target)
	}
	ins, _, err := e.dataWires(o.Inputs)
	if err != nil {
		return err
	}
	outs, _, err := e.dataWires(o.Outputs)
	if err != nil {
		return err
	}
	inputsFrom, err := e.addEntities(f, ins, flat.Must{})
	if err != nil {
		return err
	}
	outputsTo, err := e.addEntities(f, outs, flat.Must{})
	if err != nil {
		return err
	}
	e.scopes++
	sub := &SubModule{InputsFrom: inputsFrom, OutputsTo: outputsTo, Guard: flat.Must{}}
	return e.inline(o.Target, sub, e.scopes)
}

func (e *elaborator) register(f *frame, o *ir.Register, g flat.Guard) error {
	if o.Reset != ir.NoEntity || o.ResetValue != ir.NoEntity {
		return flat.Violationf(flat.Unsupported, "register reset is not supported")
	}
	if o.Input == ir.NoEntity || o.Output == ir.NoEntity {
		return flat.Violationf(flat.MissingOperand, "register needs both input and output")
	}
	out, err := e.addEntity(f, o.Output, flat.Must{})
	if err != nil {
		return err
	}
	e.emit(&flat.LdReg{Regs: []flat.ValueID{out}}, g)
	in, err := e.addEntity(f, o.Input, flat.Must{})
	if err != nil {
		return err
	}
	e.emit(&flat.StReg{Values: []flat.ValueID{in}, Regs: []flat.ValueID{out}}, g)
	return nil
}

func (e *elaborator) comb(f *frame, id ir.OpID, o *ir.Comb, g flat.Guard) error {
	uses, err := e.addEntities(f, ir.Flatten(o.Operands), g)
	if err != nil {
		return err
	}
	defs, err := e.addEntities(f, ir.Flatten(o.Results), flat.Never{})
	if err != nil {
		return err
	}
	e.emit(&flat.Comb{Op: id, Name: o.OpName(), In: uses, Out: defs}, g)
	return nil
}

func (e *elaborator) selectOp(f *frame, o *ir.Select, g flat.Guard) error {
	if !o.OneHot {
		return flat.Violationf(flat.Unsupported, "priority select is not supported")
	}
	if o.Result == ir.NoEntity {
		return flat.Violationf(flat.MissingOperand, "select has no result")
	}
	if len(o.Conds) != len(o.Values) {
		return flat.Violationf(flat.MissingOperand, "select has %d conditions for %d values", len(o.Conds), len(o.Values))
	}
	conds, err := e.addEntities(f, o.Conds, g)
	if err != nil {
		return err
	}
	hasDefault := o.Default != ir.NoEntity
	decision, check := e.condCheck(conds, hasDefault, g)

	var dflt flat.ValueID
	if hasDefault {
		if dflt, err = e.addEntity(f, o.Default, g); err != nil {
			return err
		}
	}
	values, err := e.addEntities(f, o.Values, g)
	if err != nil {
		return err
	}
	if hasDefault {
		values = append(values, dflt)
	}
	result, err := e.addEntity(f, o.Result, flat.Never{})
	if err != nil {
		return err
	}
	sel := e.emit(&flat.Select{Result: result, Decision: decision, Values: values}, g)
	e.prog.AddDep(check, sel)
	return nil
}

func (e *elaborator) cases(f *frame, o *ir.Cases, g flat.Guard) error {
	if !o.OneHot {
		return flat.Violationf(flat.Unsupported, "priority cases is not supported")
	}
	if len(o.Conds) != len(o.Bodies) {
		return flat.Violationf(flat.MissingOperand, "cases has %d conditions for %d bodies", len(o.Conds), len(o.Bodies))
	}
	conds, err := e.addEntities(f, o.Conds, g)
	if err != nil {
		return err
	}
	_, check := e.condCheck(conds, o.Default != ir.NoRegion, g)

	for i, body := range o.Bodies {
		arm := flat.AndGuard(g, flat.Ref{Value: conds[i]})
		if err := e.arm(f, check, body, arm); err != nil {
			return err
		}
	}
	if o.Default == ir.NoRegion {
		return nil
	}
	none := make(flat.Or, len(conds))
	for i, c := range conds {
		none[i] = flat.Ref{Value: c}
	}
	return e.arm(f, check, o.Default, flat.AndGuard(g, flat.Not{Inner: none}))
}

// arm elaborates one cases body and orders every event it emits after the
// condition check.
func (e *elaborator) arm(f *frame, check int, body ir.RegionID, g flat.Guard) error {
	start := len(e.prog.Events)
	if err := e.region(f, body, g); err != nil {
		return err
	}
	for ev := start; ev < len(e.prog.Events); ev++ {
		e.prog.AddDep(check, ev)
	}
	return nil
}

func (e *elaborator) condCheck(conds []flat.ValueID, hasDefault bool, g flat.Guard) (flat.ValueID, int) {
	decision := e.reducer.NewValue()
	e.prog.AddValue(nil, g)
	check := e.emit(&flat.CondCheck{Conds: conds, Result: decision, OneHot: true, HasDefault: hasDefault}, g)
	return decision, check
}

func (e *elaborator) emit(ev flat.Event, g flat.Guard) int {
	return e.prog.AddEvent(ev, g)
}
