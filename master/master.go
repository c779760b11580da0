// Package master implements a fixed-step co-simulation master. It stands in
// for the external tool that drives the slaves in production, so that models
// can be run and tested end to end.
package master

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
)

// A Slave is a co-simulation slave driven by the master.
type Slave interface {
	Name() string
	Table() *modeldesc.SignalTable

	SetupExperiment(start fmi.Real, stopDefined bool, stop fmi.Real) error
	SystemInit() error
	DoStep(current, stepSize fmi.Real) fmi.Status
	Terminate() error

	GetReal(vrs ...fmi.ValueReference) ([]fmi.Real, error)
	GetInteger(vrs ...fmi.ValueReference) ([]fmi.Integer, error)
	GetBoolean(vrs ...fmi.ValueReference) ([]fmi.Boolean, error)
	SetReal(vrs []fmi.ValueReference, values []fmi.Real) error
	SetInteger(vrs []fmi.ValueReference, values []fmi.Integer) error
	SetBoolean(vrs []fmi.ValueReference, values []fmi.Boolean) error
}

// ErrStepFailed is returned when a slave does not accept a step.
var ErrStepFailed = errors.New("step failed")

// HookPosCommunicationPoint is triggered after every slave has completed a
// step. The item is the new communication point.
var HookPosCommunicationPoint = &sim.HookPos{Name: "CommunicationPoint"}

// A Master advances its slaves in lock step.
type Master struct {
	sim.HookableBase

	slaves      []Slave
	connections []link
	start       sim.VTimeInSec
	stop        sim.VTimeInSec
	stepSize    sim.VTimeInSec
	now         sim.VTimeInSec
	initialized bool
}

// Slaves returns the slaves in the order they are stepped.
func (m *Master) Slaves() []Slave {
	return m.slaves
}

// Time returns the current communication point.
func (m *Master) Time() sim.VTimeInSec {
	return m.now
}

// Initialize sets up the experiment on every slave, initializes them, and
// propagates the initial outputs.
func (m *Master) Initialize() error {
	if m.initialized {
		return fmt.Errorf("%w: master already initialized",
			fmi.ErrLifecycleViolation)
	}

	for _, s := range m.slaves {
		err := s.SetupExperiment(fmi.Real(m.start), true, fmi.Real(m.stop))
		if err == nil {
			err = s.SystemInit()
		}

		if err != nil {
			err = fmt.Errorf("%s: %w", s.Name(), err)
			return errors.Join(err, m.terminateSlaves())
		}
	}

	m.now = m.start
	m.initialized = true

	return m.propagate()
}

// Step advances every slave by one step. Outputs are propagated to the
// connected inputs after all slaves completed the step.
func (m *Master) Step() error {
	if !m.initialized {
		return fmt.Errorf("%w: master not initialized",
			fmi.ErrUninitializedModel)
	}

	h := m.stepSize
	if m.stop.Before(m.now + h) {
		h = m.stop - m.now
	}

	for _, s := range m.slaves {
		status := s.DoStep(fmi.Real(m.now), fmi.Real(h))
		if status != fmi.OK {
			return fmt.Errorf("%w: %s returned %s at %v",
				ErrStepFailed, s.Name(), status, float64(m.now))
		}
	}

	m.now += h

	if err := m.propagate(); err != nil {
		return err
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Pos:    HookPosCommunicationPoint,
		Item:   m.now,
	})

	return nil
}

// Done tells if the stop time is reached.
func (m *Master) Done() bool {
	return !m.now.Before(m.stop)
}

// Terminate terminates every slave and reports the first failure.
func (m *Master) Terminate() error {
	err := m.terminateSlaves()
	m.initialized = false

	return err
}

// terminateSlaves terminates every slave, including those that were never
// initialized.
func (m *Master) terminateSlaves() error {
	var first error

	for _, s := range m.slaves {
		if err := s.Terminate(); err != nil && first == nil {
			first = fmt.Errorf("%s: %w", s.Name(), err)
		}
	}

	return first
}

// Run initializes the slaves, steps them until the stop time or until the
// context is cancelled, and terminates them.
func (m *Master) Run(ctx context.Context) (err error) {
	if err := m.Initialize(); err != nil {
		return err
	}

	defer func() {
		termErr := m.Terminate()
		if err == nil {
			err = termErr
		}
	}()

	for !m.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.Step(); err != nil {
			return err
		}
	}

	return nil
}

// NumSteps returns the number of steps from start to stop.
func (m *Master) NumSteps() int {
	return int(math.Ceil(float64((m.stop-m.start)/m.stepSize) - sim.TimeTolerance))
}
