package adapter

import (
	"fmt"
	"math"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/sim"
)

// SetupExperiment sets the start and stop times. It is only accepted before
// SystemInit.
func (a *Adapter) SetupExperiment(
	start fmi.Real,
	stopDefined bool,
	stop fmi.Real,
) error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInstantiated); err != nil {
		return err
	}

	e := a.Experiment()
	e.Start = sim.VTimeInSec(start)
	e.Stop = sim.VTimeInSec(stop)
	e.StopDefined = stopDefined

	if err := checkExperiment(e); err != nil {
		return err
	}

	a.stateLock.Lock()
	a.experiment = e
	a.now = e.Start
	a.stateLock.Unlock()

	return nil
}

// SystemInit initializes the model and starts the periodic threads at the
// start time. Initializing twice is a lifecycle violation.
func (a *Adapter) SystemInit() error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInstantiated); err != nil {
		return err
	}

	return a.guard("init", func() error {
		start := a.Experiment().Start

		if err := a.model.Init(); err != nil {
			return fmt.Errorf("init %s: %w", a.name, err)
		}

		a.engine.Reset(start)
		a.scheduler.Start(start)

		if err := a.syncOutputsToBuffers(); err != nil {
			return err
		}

		a.stateLock.Lock()
		a.now = start
		a.state = StateInitialized
		a.stateLock.Unlock()

		a.log(fmi.OK, fmi.LogEvents,
			fmt.Sprintf("initialized at %v", float64(start)))

		return nil
	})
}

// SystemDeInit releases the model and brings the adapter back to the
// instantiated state, with the start values in the buffer. It is only
// accepted after SystemInit.
func (a *Adapter) SystemDeInit() error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if a.State() == StateInstantiated {
		return fmt.Errorf("%w: %s is not initialized",
			fmi.ErrLifecycleViolation, a.name)
	}

	if err := a.stateMustBe(StateInitialized, StateStepFailed); err != nil {
		return err
	}

	return a.guard("deinit", func() error {
		err := a.model.DeInit()

		a.engine.Reset(a.Experiment().Start)
		a.buffer.Clear()
		if startErr := a.writeStartValues(); err == nil {
			err = startErr
		}

		a.stateLock.Lock()
		a.state = StateInstantiated
		a.now = a.experiment.Start
		a.stateLock.Unlock()

		if err != nil {
			return fmt.Errorf("deinit %s: %w", a.name, err)
		}

		a.log(fmi.OK, fmi.LogEvents, "deinitialized")

		return nil
	})
}

// Terminate ends the run. It deinitializes the model if needed and is
// accepted in every state but the faulted one.
func (a *Adapter) Terminate() error {
	switch a.State() {
	case StateInitialized, StateStepFailed:
		return a.SystemDeInit()
	case StateFaulted:
		return a.faultErr()
	case StateRunning:
		return fmt.Errorf("%w: cannot terminate while running",
			fmi.ErrLifecycleViolation)
	default:
		return nil
	}
}

func (a *Adapter) stateMustBe(allowed ...State) error {
	s := a.State()

	for _, ok := range allowed {
		if s == ok {
			return nil
		}
	}

	switch s {
	case StateFaulted:
		return a.faultErr()
	case StateInstantiated:
		return fmt.Errorf("%w: %s is not initialized",
			fmi.ErrUninitializedModel, a.name)
	default:
		return fmt.Errorf("%w: %s is %s",
			fmi.ErrLifecycleViolation, a.name, s)
	}
}

func (a *Adapter) faultErr() error {
	a.stateLock.RLock()
	defer a.stateLock.RUnlock()

	return a.fault
}

// guard runs f and turns a panic into a fatal error. The adapter cannot be
// used after that.
func (a *Adapter) guard(op string, f func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err = a.fail(fmt.Errorf("%w: %s %s panicked: %v",
			fmi.ErrFatal, op, a.name, r))
	}()

	return f()
}

func (a *Adapter) fail(err error) error {
	a.stateLock.Lock()
	a.state = StateFaulted
	a.fault = err
	a.stateLock.Unlock()

	a.log(fmi.Fatal, fmi.LogStatusFatal, err.Error())

	return err
}

func (a *Adapter) writeStartValues() error {
	return a.buffer.Update(func(fr *buffer.Frame) error {
		for _, s := range a.table.Signals() {
			v, err := s.StartValue()
			if err != nil {
				return fmt.Errorf("start value of %s: %w", s.Name, err)
			}

			switch v := v.(type) {
			case float64:
				err = fr.SetReal(s.Index, v)
			case fmi.Integer:
				err = fr.SetInteger(s.Index, v)
			case bool:
				err = fr.SetBoolean(s.Index, v)
			}

			if err != nil {
				return err
			}
		}

		return nil
	})
}

func validTime(t sim.VTimeInSec) bool {
	return !math.IsNaN(float64(t)) && !math.IsInf(float64(t), 0)
}

func validStep(h sim.VTimeInSec) bool {
	return validTime(h) && h >= 0
}
