package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/sim"
)

// SystemMain runs the model on its own, without a master, by repeating steps
// of the main step size. It returns nil when the stop time is reached and the
// context error when the context is cancelled first. Without a stop time, it
// only returns on cancellation or failure. VdmStep is rejected while
// SystemMain runs.
func (a *Adapter) SystemMain(ctx context.Context) error {
	if err := a.enterMain(); err != nil {
		return err
	}

	defer a.leaveMain()

	e := a.Experiment()
	wallStart := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := a.Time()
		if e.StopDefined && !now.Before(e.Stop) {
			return nil
		}

		h := e.MainStepSize
		if e.StopDefined && e.Stop.Before(now+h) {
			h = e.Stop - now
		}

		if err := a.mainStep(now, h); err != nil {
			return err
		}

		if e.RealTime {
			target := time.Duration(float64(now+h-e.Start) * float64(time.Second))
			if err := sleepUntil(ctx, wallStart.Add(target)); err != nil {
				return err
			}
		}
	}
}

func (a *Adapter) enterMain() error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInitialized); err != nil {
		return err
	}

	a.setState(StateRunning)
	a.log(fmi.OK, fmi.LogEvents, "main loop started")

	return nil
}

func (a *Adapter) leaveMain() {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if a.State() == StateRunning {
		a.setState(StateInitialized)
	}

	a.log(fmi.OK, fmi.LogEvents,
		fmt.Sprintf("main loop stopped at %v", float64(a.Time())))
}

func (a *Adapter) mainStep(now, h sim.VTimeInSec) error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	return a.step(now, h)
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
