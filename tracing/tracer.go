// Package tracing collects what happens inside adapters while they step.
package tracing

import (
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// A Step is one communication step of an adapter.
type Step struct {
	Instance string
	Time     sim.VTimeInSec
	StepSize sim.VTimeInSec

	// Values is the buffer content after the outputs are synchronized. It is
	// empty when the step starts.
	Values buffer.Frame
}

// End returns the time that the step reaches.
func (s Step) End() sim.VTimeInSec {
	return s.Time + s.StepSize
}

// A Firing is one execution of a periodic thread.
type Firing struct {
	Instance string
	Thread   thread.PeriodicThreadStatus
	Count    int64
	Time     sim.VTimeInSec
	Err      error
}

// Tracer can collect steps and thread firings.
type Tracer interface {
	StartStep(step Step)
	EndStep(step Step)
	Fire(firing Firing)
}
