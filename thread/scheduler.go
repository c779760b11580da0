package thread

import (
	"fmt"
	"sync"

	"github.com/sarchlab/fmuadapter/sim"
)

// A Scheduler fires the periodic threads as events of a discrete-event
// engine. Threads run one at a time on the goroutine that advances the
// engine. Firings happen at origin + k*Period; threads that fire at the same
// time run in the order of the table.
type Scheduler struct {
	engine  sim.Engine
	lock    sync.RWMutex
	origin  sim.VTimeInSec
	threads []*periodicThread
}

type periodicThread struct {
	scheduler *Scheduler
	rank      int
	status    PeriodicThreadStatus
	freq      sim.Freq
	method    Method
}

// NewScheduler validates the descriptors and resolves their methods.
func NewScheduler(
	engine sim.Engine,
	descriptors []PeriodicThreadStatus,
	methods MethodTable,
) (*Scheduler, error) {
	s := &Scheduler{engine: engine}

	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}

		method, ok := methods[d.Key()]
		if !ok || method == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedMethod, d.Key())
		}

		d.LastExecuted = NeverExecuted
		s.threads = append(s.threads, &periodicThread{
			scheduler: s,
			rank:      i,
			status:    d,
			freq:      sim.FreqOf(d.Period),
			method:    method,
		})
	}

	return s, nil
}

// Len returns the number of threads.
func (s *Scheduler) Len() int {
	return len(s.threads)
}

// Start forgets the previous runs and schedules the first firing of every
// thread at the origin. The engine must not be ahead of the origin.
func (s *Scheduler) Start(origin sim.VTimeInSec) {
	s.lock.Lock()
	s.origin = origin
	for _, t := range s.threads {
		t.status.LastExecuted = NeverExecuted
	}
	s.lock.Unlock()

	for _, t := range s.threads {
		t.scheduleTick(0)
	}
}

// Statuses returns a copy of the thread table.
func (s *Scheduler) Statuses() []PeriodicThreadStatus {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]PeriodicThreadStatus, len(s.threads))
	for i, t := range s.threads {
		out[i] = t.status
	}

	return out
}

func (t *periodicThread) scheduleTick(count int64) {
	t.scheduler.lock.RLock()
	at := t.freq.NthTick(t.scheduler.origin, count)
	t.scheduler.lock.RUnlock()

	t.scheduler.engine.Schedule(sim.MakeTickEvent(t, at, count, t.rank))
}

// Name returns the method key of the thread.
func (t *periodicThread) Name() string {
	return t.status.Key()
}

// Handle runs the method of the thread and schedules the next firing.
func (t *periodicThread) Handle(e sim.Event) error {
	tick := e.(sim.TickEvent)

	err := t.method(tick.Time())

	t.scheduler.lock.Lock()
	t.status.LastExecuted = tick.Count
	t.scheduler.lock.Unlock()

	t.scheduleTick(tick.Count + 1)

	if err != nil {
		return fmt.Errorf("thread %s at %.9f: %w",
			t.status.Key(), float64(tick.Time()), err)
	}

	return nil
}

// Status returns the descriptor of the thread handling an event, which lets
// hooks on the engine tell which thread fired.
func Status(h sim.Handler) (PeriodicThreadStatus, bool) {
	t, ok := h.(*periodicThread)
	if !ok {
		return PeriodicThreadStatus{}, false
	}

	t.scheduler.lock.RLock()
	defer t.scheduler.lock.RUnlock()

	return t.status, true
}
