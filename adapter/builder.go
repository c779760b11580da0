package adapter

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// Builder can build adapters.
type Builder struct {
	callbacks  fmi.CallbackFunctions
	capacity   buffer.Capacity
	signals    []modeldesc.Signal
	table      *modeldesc.SignalTable
	threads    []thread.PeriodicThreadStatus
	model      model.Model
	experiment Experiment
}

// MakeBuilder creates a builder with the default buffer capacity and a main
// step of 10 ms.
func MakeBuilder() Builder {
	return Builder{
		capacity: buffer.DefaultCapacities(),
		experiment: Experiment{
			MainStepSize: 0.01,
		},
	}
}

// WithCallbacks sets the host callbacks. The adapter never owns them.
func (b Builder) WithCallbacks(c fmi.CallbackFunctions) Builder {
	b.callbacks = c
	return b
}

// WithCapacity sets the number of slots of each type in the buffer.
func (b Builder) WithCapacity(c buffer.Capacity) Builder {
	b.capacity = c
	return b
}

// WithSignals sets the variables of the model. Value references and buffer
// slots are assigned in order.
func (b Builder) WithSignals(signals []modeldesc.Signal) Builder {
	b.signals = signals
	return b
}

// WithSignalTable sets an already numbered signal table, for example one read
// from a model description. It replaces WithSignals and WithCapacity.
func (b Builder) WithSignalTable(t *modeldesc.SignalTable) Builder {
	b.table = t
	return b
}

// WithThreads sets the periodic threads.
func (b Builder) WithThreads(threads []thread.PeriodicThreadStatus) Builder {
	b.threads = threads
	return b
}

// WithModel sets the simulated system.
func (b Builder) WithModel(m model.Model) Builder {
	b.model = m
	return b
}

// WithStartTime sets the start time of the experiment.
func (b Builder) WithStartTime(t sim.VTimeInSec) Builder {
	b.experiment.Start = t
	return b
}

// WithStopTime sets the stop time of the experiment.
func (b Builder) WithStopTime(t sim.VTimeInSec) Builder {
	b.experiment.Stop = t
	b.experiment.StopDefined = true

	return b
}

// WithMainStepSize sets the step that SystemMain advances by.
func (b Builder) WithMainStepSize(h sim.VTimeInSec) Builder {
	b.experiment.MainStepSize = h
	return b
}

// WithRealTime makes SystemMain follow the wall clock.
func (b Builder) WithRealTime() Builder {
	b.experiment.RealTime = true
	return b
}

// Build creates an adapter in the instantiated state. It fails if the signals
// do not fit the buffer or if a thread names a method that the model does not
// have.
func (b Builder) Build(name string) (*Adapter, error) {
	b.modelMustBeGiven()

	if name == "" {
		return nil, errors.New("instance name is empty")
	}

	if err := checkExperiment(b.experiment); err != nil {
		return nil, err
	}

	table, err := b.buildTable()
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		name:       name,
		callbacks:  b.callbacks,
		table:      table,
		model:      b.model,
		engine:     sim.NewSerialEngine(),
		experiment: b.experiment,
		now:        b.experiment.Start,
	}

	if a.callbacks == nil {
		a.callbacks = fmi.NewLogCallbacks(log.Default())
	}

	a.scheduler, err = thread.NewScheduler(
		a.engine, b.threads, b.model.Methods())
	if err != nil {
		return nil, err
	}

	a.buffer = buffer.New(name, table.Capacity())
	if err := a.writeStartValues(); err != nil {
		return nil, err
	}

	return a, nil
}

func (b Builder) modelMustBeGiven() {
	if b.model == nil {
		panic("model is not given")
	}
}

func (b Builder) buildTable() (*modeldesc.SignalTable, error) {
	if b.table != nil {
		return b.table, nil
	}

	if err := b.capacity.Validate(); err != nil {
		return nil, err
	}

	return modeldesc.Assign(b.signals, b.capacity)
}

func checkExperiment(e Experiment) error {
	if !validTime(e.Start) {
		return fmt.Errorf("invalid start time %v", e.Start)
	}

	if e.StopDefined && (!validTime(e.Stop) || e.Stop.Before(e.Start)) {
		return fmt.Errorf("invalid stop time %v", e.Stop)
	}

	if !validStep(e.MainStepSize) || e.MainStepSize == 0 {
		return fmt.Errorf("%w: main step %v",
			fmi.ErrInvalidStepSize, e.MainStepSize)
	}

	return nil
}
