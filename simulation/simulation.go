// Package simulation puts the recorder, the tracers, and the monitor around
// a set of adapters.
package simulation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/datarecording"
	"github.com/sarchlab/fmuadapter/master"
	"github.com/sarchlab/fmuadapter/monitoring"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/tracing"
)

// A Simulation provides the services that a co-simulation run needs.
type Simulation struct {
	id string

	dataRecorder datarecording.DataRecorder
	dbTracer     *tracing.DBTracer
	counter      *tracing.CountTracer
	wallTimer    *tracing.WallTimeTracer
	monitor      *monitoring.Monitor
	monitorURL   string

	adapters         []*adapter.Adapter
	adapterNameIndex map[string]int
}

// ID returns the unique identifier of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// when recording is disabled.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, or an empty string.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// GetCountTracer returns the tracer that counts steps and firings.
func (s *Simulation) GetCountTracer() *tracing.CountTracer {
	return s.counter
}

// GetWallTimeTracer returns the tracer that measures the real time of steps.
func (s *Simulation) GetWallTimeTracer() *tracing.WallTimeTracer {
	return s.wallTimer
}

// RegisterAdapter registers an adapter with the simulation and starts
// tracing it.
func (s *Simulation) RegisterAdapter(a *adapter.Adapter) {
	name := a.Name()
	if _, ok := s.adapterNameIndex[name]; ok {
		panic("adapter " + name + " already registered")
	}

	s.adapters = append(s.adapters, a)
	s.adapterNameIndex[name] = len(s.adapters) - 1

	tracing.CollectTrace(a, s.counter)
	tracing.CollectTrace(a, s.wallTimer)

	if s.dbTracer != nil {
		tracing.CollectTrace(a, s.dbTracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterAdapter(a)
	}
}

// GetAdapterByName returns the adapter with the given name, or nil.
func (s *Simulation) GetAdapterByName(name string) *adapter.Adapter {
	i, ok := s.adapterNameIndex[name]
	if !ok {
		return nil
	}

	return s.adapters[i]
}

// Adapters returns all the registered adapters.
func (s *Simulation) Adapters() []*adapter.Adapter {
	out := make([]*adapter.Adapter, len(s.adapters))
	copy(out, s.adapters)

	return out
}

// TrackMaster shows the progress of the master on the monitor.
func (s *Simulation) TrackMaster(name string, m *master.Master) {
	if s.monitor == nil {
		return
	}

	bar := s.monitor.CreateProgressBar(name, uint64(m.NumSteps()))
	m.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos != master.HookPosCommunicationPoint {
			return
		}

		bar.Step(float64(m.Time()))
		if m.Done() {
			s.monitor.CompleteProgressBar(bar)
		}
	}))
}

// Report writes the number of steps and firings of every adapter.
func (s *Simulation) Report(w io.Writer) {
	for _, a := range s.adapters {
		fmt.Fprintf(w, "%s: %s at %.6f, %d steps, %s per step\n",
			a.Name(), a.State(), float64(a.Time()),
			s.counter.StepCount(a.Name()),
			s.wallTimer.AverageTime(a.Name()).Round(time.Microsecond))
	}

	for _, key := range s.counter.ThreadKeys() {
		fmt.Fprintf(w, "  %s: %d firings, %d failed\n",
			key, s.counter.FiringCount(key), s.counter.FailureCount(key))
	}
}

// Terminate flushes the recording and stops the monitor.
func (s *Simulation) Terminate() {
	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			fmt.Printf("failed to close the data recorder: %v\n", err)
		}
	}

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if err := s.monitor.StopServer(ctx); err != nil {
			fmt.Printf("failed to stop the monitor: %v\n", err)
		}
	}
}
