// Package adapter implements the co-simulation slave. An Adapter owns the
// exchange buffer, the signal table, and the periodic threads of one model
// instance, and drives them through the FMI co-simulation lifecycle.
package adapter

import (
	"sync"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// State is the lifecycle state of an adapter.
type State int

// The states of an adapter.
const (
	// StateInstantiated is the state after Build and after SystemDeInit.
	StateInstantiated State = iota

	// StateInitialized accepts steps.
	StateInitialized

	// StateRunning means SystemMain is advancing the model.
	StateRunning

	// StateStepFailed is entered when a step returns an error. Only
	// SystemDeInit and Terminate are accepted.
	StateStepFailed

	// StateFaulted is entered on an unrecoverable failure. Nothing is
	// accepted anymore.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateInstantiated:
		return "instantiated"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStepFailed:
		return "step-failed"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// HookPosStepStart is triggered after the inputs are synchronized and before
// the threads run. The item is a StepInfo.
var HookPosStepStart = &sim.HookPos{Name: "StepStart"}

// HookPosStepEnd is triggered after the outputs are synchronized. The item is
// a StepInfo and the detail is a snapshot of the buffer.
var HookPosStepEnd = &sim.HookPos{Name: "StepEnd"}

// StepInfo describes a communication step.
type StepInfo struct {
	Time     sim.VTimeInSec
	StepSize sim.VTimeInSec
}

// Experiment holds the time settings of a run.
type Experiment struct {
	Start       sim.VTimeInSec
	Stop        sim.VTimeInSec
	StopDefined bool

	// MainStepSize is the step that SystemMain advances by.
	MainStepSize sim.VTimeInSec

	// RealTime makes SystemMain wait for the wall clock to catch up with
	// the simulated time after every step.
	RealTime bool
}

// An Adapter is one instance of a co-simulation slave.
type Adapter struct {
	sim.HookableBase

	name      string
	callbacks fmi.CallbackFunctions
	buffer    *buffer.Buffer
	table     *modeldesc.SignalTable
	model     model.Model
	engine    sim.Engine
	scheduler *thread.Scheduler

	runLock sync.Mutex

	stateLock  sync.RWMutex
	state      State
	now        sim.VTimeInSec
	experiment Experiment
	fault      error
}

// Name returns the instance name.
func (a *Adapter) Name() string {
	return a.name
}

// Buffer returns the exchange buffer.
func (a *Adapter) Buffer() *buffer.Buffer {
	return a.buffer
}

// Table returns the signal table.
func (a *Adapter) Table() *modeldesc.SignalTable {
	return a.table
}

// Engine returns the engine that fires the periodic threads.
func (a *Adapter) Engine() sim.Engine {
	return a.engine
}

// Model returns the simulated system.
func (a *Adapter) Model() model.Model {
	return a.model
}

// Threads returns the current thread table.
func (a *Adapter) Threads() []thread.PeriodicThreadStatus {
	return a.scheduler.Statuses()
}

// Time returns the current communication point.
func (a *Adapter) Time() sim.VTimeInSec {
	a.stateLock.RLock()
	defer a.stateLock.RUnlock()

	return a.now
}

// State returns the lifecycle state.
func (a *Adapter) State() State {
	a.stateLock.RLock()
	defer a.stateLock.RUnlock()

	return a.state
}

// Experiment returns the time settings.
func (a *Adapter) Experiment() Experiment {
	a.stateLock.RLock()
	defer a.stateLock.RUnlock()

	return a.experiment
}

func (a *Adapter) setState(s State) {
	a.stateLock.Lock()
	a.state = s
	a.stateLock.Unlock()
}

func (a *Adapter) setNow(t sim.VTimeInSec) {
	a.stateLock.Lock()
	a.now = t
	a.stateLock.Unlock()
}

func (a *Adapter) log(status fmi.Status, category, message string) {
	a.callbacks.Logger(a.name, status, category, message)
}
