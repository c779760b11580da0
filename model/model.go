// Package model defines what the adapter expects from the simulated system.
package model

import (
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// A Model is the simulated system behind an adapter. The adapter calls all
// the methods from the goroutine that drives the simulation, so a Model does
// not need to guard its own state.
type Model interface {
	// Init prepares the model for a new run.
	Init() error

	// DeInit releases what Init acquired.
	DeInit() error

	// ApplyInputs copies the inputs and the parameters into the model.
	ApplyInputs(in Inputs) error

	// CollectOutputs copies the model state into the outputs.
	CollectOutputs(out Outputs) error

	// Methods lists the methods that the periodic threads may call.
	Methods() thread.MethodTable
}

// An Advancer is a model with a continuous part that is integrated at the
// end of every step, after the periodic threads have run.
type Advancer interface {
	Advance(now, dt sim.VTimeInSec) error
}
