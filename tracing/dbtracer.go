package tracing

import (
	"encoding/json"
	"sync"

	"github.com/sarchlab/fmuadapter/datarecording"
)

const (
	// StepTableName is the table that DBTracers write steps into.
	StepTableName = "fmu_steps"

	// FiringTableName is the table that DBTracers write thread firings into.
	FiringTableName = "fmu_thread_firings"
)

// StepEntry is a row of the step table. The buffer arrays are stored as JSON.
type StepEntry struct {
	Instance string
	Time     float64
	StepSize float64
	Booleans string
	Reals    string
	Integers string
}

// FiringEntry is a row of the firing table.
type FiringEntry struct {
	Instance string
	Object   string
	Call     string
	Count    int64
	Time     float64
	Error    string
}

// DBTracer writes steps and thread firings into a DataRecorder.
type DBTracer struct {
	lock        sync.Mutex
	backend     datarecording.DataRecorder
	skipFirings bool
	steps       uint64
	firings     uint64
}

// NewDBTracer creates the tables and returns a tracer that writes into them.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		backend: backend,
	}

	backend.CreateTable(StepTableName, StepEntry{})
	backend.CreateTable(FiringTableName, FiringEntry{})

	return t
}

// SkipFirings stops the tracer from writing thread firings.
func (t *DBTracer) SkipFirings() *DBTracer {
	t.skipFirings = true
	return t
}

// NumStepsWritten returns the number of step rows inserted so far.
func (t *DBTracer) NumStepsWritten() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps
}

// NumFiringsWritten returns the number of firing rows inserted so far.
func (t *DBTracer) NumFiringsWritten() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.firings
}

// StartStep does nothing.
func (t *DBTracer) StartStep(_ Step) {
}

// EndStep writes the step and the buffer values.
func (t *DBTracer) EndStep(step Step) {
	entry := StepEntry{
		Instance: step.Instance,
		Time:     float64(step.Time),
		StepSize: float64(step.StepSize),
		Booleans: mustMarshal(step.Values.Booleans),
		Reals:    mustMarshal(step.Values.Reals),
		Integers: mustMarshal(step.Values.Integers),
	}

	t.backend.InsertData(StepTableName, entry)

	t.lock.Lock()
	t.steps++
	t.lock.Unlock()
}

// Fire writes the firing.
func (t *DBTracer) Fire(firing Firing) {
	if t.skipFirings {
		return
	}

	entry := FiringEntry{
		Instance: firing.Instance,
		Object:   firing.Thread.ObjectName,
		Call:     firing.Thread.CallName,
		Count:    firing.Count,
		Time:     float64(firing.Time),
	}

	if firing.Err != nil {
		entry.Error = firing.Err.Error()
	}

	t.backend.InsertData(FiringTableName, entry)

	t.lock.Lock()
	t.firings++
	t.lock.Unlock()
}

func mustMarshal[T any](v []T) string {
	if v == nil {
		v = []T{}
	}

	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return string(b)
}
