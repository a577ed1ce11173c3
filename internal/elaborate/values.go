package elaborate

import (
	"fmt"

	"hwflat/internal/flat"
	"hwflat/internal/ir"
)

func (e *elaborator) entity(id ir.EntityID) (ir.Entity, error) {
	ent, ok := e.src.Entity(id)
	if !ok {
		return ir.Entity{}, flat.Violationf(flat.MissingOperand, "entity %d does not exist", id)
	}
	if ent.Type == nil {
		return ir.Entity{}, flat.Violationf(flat.MissingOperand, "entity %d has no data type", id)
	}
	return ent, nil
}

// dataWires drops clock wires from a port list and returns the remaining
// wires with their original positions.
func (e *elaborator) dataWires(ids []ir.EntityID) ([]ir.EntityID, []int, error) {
	wires := make([]ir.EntityID, 0, len(ids))
	positions := make([]int, 0, len(ids))
	for i, id := range ids {
		ent, err := e.entity(id)
		if err != nil {
			return nil, nil, err
		}
		if ir.IsClock(ent.Type) {
			continue
		}
		wires = append(wires, id)
		positions = append(positions, i)
	}
	return wires, positions, nil
}

// addEntity returns the flat value of id in f's scope. A first reduction
// allocates the value with guard g; later ones or g into its guard.
func (e *elaborator) addEntity(f *frame, id ir.EntityID, g flat.Guard) (flat.ValueID, error) {
	ent, err := e.entity(id)
	if err != nil {
		return 0, err
	}
	v, tag := e.reducer.Reduce(flat.Key{Scope: f.scope, Entity: id})
	switch tag {
	case flat.New:
		if got := e.prog.AddValue(ent.Type, g); got != v {
			return 0, fmt.Errorf("value table out of step: reducer gave %s, program %s", v, got)
		}
	default:
		e.prog.MergeGuard(v, g)
	}
	return v, nil
}

func (e *elaborator) addEntities(f *frame, ids []ir.EntityID, g flat.Guard) ([]flat.ValueID, error) {
	values := make([]flat.ValueID, 0, len(ids))
	for _, id := range ids {
		v, err := e.addEntity(f, id, g)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// bindAll aliases a callee's port wires to the caller's actual values.
func (e *elaborator) bindAll(f *frame, ports []ir.EntityID, targets []flat.ValueID) error {
	if len(ports) != len(targets) {
		return flat.Violationf(flat.PortMismatch, "module %s has %d ports but %d actuals", f.module, len(ports), len(targets))
	}
	for i, id := range ports {
		ent, err := e.entity(id)
		if err != nil {
			return err
		}
		target := targets[i]
		if have := e.prog.Values[target].Type; !ir.TypesEqual(have, ent.Type) {
			return flat.Violationf(flat.PortMismatch, "port %s of %s is %s but its actual is %s", ent.Name, f.module, ent.Type, have)
		}
		if err := e.reducer.Bind(flat.Key{Scope: f.scope, Entity: id}, target); err != nil {
			return err
		}
	}
	return nil
}
