package tracing

import (
	"sync"
	"time"
)

// WallTimeTracer measures how much real time the steps of every instance
// take. Overlapping steps of one instance are not expected.
type WallTimeTracer struct {
	lock     sync.Mutex
	now      func() time.Time
	inflight map[string]time.Time
	total    map[string]time.Duration
	count    map[string]uint64
}

// NewWallTimeTracer creates a new WallTimeTracer.
func NewWallTimeTracer() *WallTimeTracer {
	return &WallTimeTracer{
		now:      time.Now,
		inflight: make(map[string]time.Time),
		total:    make(map[string]time.Duration),
		count:    make(map[string]uint64),
	}
}

// TotalTime returns the real time spent in the steps of an instance.
func (t *WallTimeTracer) TotalTime(instance string) time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total[instance]
}

// AverageTime returns the average real time of a step of an instance.
func (t *WallTimeTracer) AverageTime(instance string) time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	n := t.count[instance]
	if n == 0 {
		return 0
	}

	return t.total[instance] / time.Duration(n)
}

// StartStep records when the step starts.
func (t *WallTimeTracer) StartStep(step Step) {
	t.lock.Lock()
	t.inflight[step.Instance] = t.now()
	t.lock.Unlock()
}

// EndStep adds the duration of the step.
func (t *WallTimeTracer) EndStep(step Step) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflight[step.Instance]
	if !ok {
		return
	}

	delete(t.inflight, step.Instance)
	t.total[step.Instance] += t.now().Sub(start)
	t.count[step.Instance]++
}

// Fire does nothing.
func (t *WallTimeTracer) Fire(_ Firing) {
}
