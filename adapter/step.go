package adapter

import (
	"fmt"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/sim"
)

// VdmStep advances the model by one communication step. The step must start
// at the current time of the adapter. Inputs are copied into the model, the
// periodic threads due in [current, current+stepSize) run in time order, the
// continuous part of the model is advanced, and the outputs are copied back
// into the buffer. A step of size zero does nothing.
func (a *Adapter) VdmStep(current, stepSize fmi.Real) error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInitialized); err != nil {
		return err
	}

	t := sim.VTimeInSec(current)
	h := sim.VTimeInSec(stepSize)

	if !validStep(h) {
		return fmt.Errorf("%w: %v", fmi.ErrInvalidStepSize, stepSize)
	}

	now := a.Time()
	if !validTime(t) || !sim.SameTime(t, now) {
		return fmt.Errorf("%w: step starts at %v, %s is at %v",
			fmi.ErrInvalidCommunicationPoint, current, a.name, float64(now))
	}

	if e := a.Experiment(); e.StopDefined && e.Stop.Before(now+h) {
		return fmt.Errorf("%w: step to %v passes the stop time %v",
			fmi.ErrInvalidStepSize, float64(now+h), float64(e.Stop))
	}

	if h == 0 {
		return nil
	}

	return a.step(now, h)
}

// DoStep is VdmStep with the FMI conventions: the result is reported as a
// status and failures are logged through the host logger. Steps always
// complete before DoStep returns, so StepFinished is never called.
func (a *Adapter) DoStep(current, stepSize fmi.Real) fmi.Status {
	err := a.VdmStep(current, stepSize)
	status := fmi.StatusOf(err)

	if err != nil && status != fmi.Fatal {
		a.log(status, fmi.LogStatusError, err.Error())
	}

	return status
}

// step runs one step. The step hooks run under the same panic guard as the
// model, so a failing hook faults the adapter.
func (a *Adapter) step(now, h sim.VTimeInSec) error {
	end := now + h
	info := StepInfo{Time: now, StepSize: h}

	err := a.guard("step", func() error {
		if err := a.syncInputsToModel(); err != nil {
			return err
		}

		a.InvokeHook(sim.HookCtx{
			Domain: a,
			Pos:    HookPosStepStart,
			Item:   info,
		})

		if err := a.engine.RunUntil(end); err != nil {
			return err
		}

		if adv, ok := a.model.(model.Advancer); ok {
			if err := adv.Advance(now, h); err != nil {
				return fmt.Errorf("advance %s: %w", a.name, err)
			}
		}

		if err := a.syncOutputsToBuffers(); err != nil {
			return err
		}

		a.setNow(end)

		if a.NumHooks() > 0 {
			a.InvokeHook(sim.HookCtx{
				Domain: a,
				Pos:    HookPosStepEnd,
				Item:   info,
				Detail: a.buffer.Snapshot(),
			})
		}

		return nil
	})

	if err != nil && a.State() != StateFaulted {
		a.setState(StateStepFailed)
	}

	return err
}
