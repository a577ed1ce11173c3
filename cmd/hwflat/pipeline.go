package main

import (
	log "github.com/sirupsen/logrus"

	"hwflat/internal/elaborate"
	"hwflat/internal/flat"
	"hwflat/internal/frontend"
	"hwflat/internal/ir"
	"hwflat/internal/passes"
)

// design is one elaborated and analysed design file.
type design struct {
	path  string
	top   string
	prog  *flat.Program
	order *passes.FiringOrder
}

// flattenFile loads, elaborates and analyses one design file. Failures are
// reported through the session reporter before they are returned.
func (s *session) flattenFile(path string) (*design, error) {
	rep := s.reporter.WithFile(path)
	logger := s.log.WithField("file", path)

	env, err := frontend.LoadFile(path)
	if err != nil {
		rep.Err(err)
		return nil, err
	}
	top, err := s.pickTop(env)
	if err != nil {
		rep.Err(err)
		return nil, err
	}
	prog, err := elaborate.Elaborate(env, top, elaborate.WithLogger(logger))
	if err != nil {
		rep.Err(err)
		return nil, err
	}
	logger.WithFields(log.Fields{
		"values": len(prog.Values),
		"events": len(prog.Events),
	}).Debug("elaborated")

	order := passes.NewFiringOrder(rep)
	mgr := passes.NewManager()
	mgr.SetLogger(logger)
	mgr.Add(passes.NewTypeCheck(rep))
	mgr.Add(order)
	if err := mgr.Run(prog); err != nil {
		rep.Err(err)
		return nil, err
	}
	return &design{
		path:  path,
		top:   env.Op(top).(*ir.Module).Name,
		prog:  prog,
		order: order,
	}, nil
}

func (s *session) pickTop(env *ir.Env) (ir.OpID, error) {
	if s.cfg.Top == "" {
		return elaborate.FindTop(env)
	}
	id, ok := env.ModuleByName(s.cfg.Top)
	if !ok {
		return ir.NoOp, flat.Violationf(flat.BadTop, "module %s not found", s.cfg.Top)
	}
	return id, nil
}
