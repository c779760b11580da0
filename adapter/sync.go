package adapter

import (
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/modeldesc"
)

// SyncInputsToModel copies the inputs and parameters from the buffer into the
// model. Calling it again without changing the buffer has no further effect.
func (a *Adapter) SyncInputsToModel() error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInitialized); err != nil {
		return err
	}

	return a.guard("input sync", a.syncInputsToModel)
}

// SyncOutputsToBuffers copies the outputs of the model into the buffer,
// overwriting the previous values in one update.
func (a *Adapter) SyncOutputsToBuffers() error {
	a.runLock.Lock()
	defer a.runLock.Unlock()

	if err := a.stateMustBe(StateInitialized); err != nil {
		return err
	}

	return a.guard("output sync", a.syncOutputsToBuffers)
}

func (a *Adapter) syncInputsToModel() error {
	frame := a.buffer.Snapshot()
	in := model.NewView(a.table, &frame,
		modeldesc.CausalityInput, modeldesc.CausalityParameter)

	return a.model.ApplyInputs(in)
}

func (a *Adapter) syncOutputsToBuffers() error {
	return a.buffer.Update(func(fr *buffer.Frame) error {
		out := model.NewView(a.table, fr, modeldesc.CausalityOutput)
		return a.model.CollectOutputs(out)
	})
}
