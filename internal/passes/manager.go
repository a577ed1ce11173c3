// Package passes holds analyses that run over a flattened program.
package passes

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"hwflat/internal/flat"
)

// Pass is a single analysis over a program.
type Pass interface {
	Name() string
	Run(p *flat.Program) error
}

// Manager runs passes in insertion order and stops at the first failure.
type Manager struct {
	passes []Pass
	log    logrus.FieldLogger
}

// NewManager returns an empty manager logging through the standard logrus
// logger.
func NewManager() *Manager {
	return &Manager{log: logrus.StandardLogger()}
}

// SetLogger replaces the logger used to trace pass execution.
func (m *Manager) SetLogger(l logrus.FieldLogger) {
	m.log = l
}

// Add appends a pass.
func (m *Manager) Add(p Pass) {
	m.passes = append(m.passes, p)
}

// Run executes every pass over prog.
func (m *Manager) Run(prog *flat.Program) error {
	if prog == nil {
		return fmt.Errorf("pass manager requires a non-nil program")
	}
	for _, p := range m.passes {
		m.log.WithField("pass", p.Name()).Debug("run pass")
		if err := p.Run(prog); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}
