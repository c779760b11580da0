package tracing

import (
	"sync"
)

// CountTracer counts the steps of every instance and the firings of every
// thread.
type CountTracer struct {
	lock       sync.Mutex
	steps      map[string]uint64
	threadKeys []string
	firings    map[string]uint64
	failures   map[string]uint64
}

// NewCountTracer creates a new CountTracer.
func NewCountTracer() *CountTracer {
	t := &CountTracer{
		steps:    make(map[string]uint64),
		firings:  make(map[string]uint64),
		failures: make(map[string]uint64),
	}

	return t
}

// ThreadKeys returns the keys of the threads that fired, in the order of
// their first firing. Keys are prefixed with the instance name.
func (t *CountTracer) ThreadKeys() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	keys := make([]string, len(t.threadKeys))
	copy(keys, t.threadKeys)

	return keys
}

// StepCount returns the number of completed steps of an instance.
func (t *CountTracer) StepCount(instance string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps[instance]
}

// FiringCount returns how many times a thread fired.
func (t *CountTracer) FiringCount(key string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.firings[key]
}

// FailureCount returns how many firings of a thread returned an error.
func (t *CountTracer) FailureCount(key string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.failures[key]
}

// StartStep does nothing.
func (t *CountTracer) StartStep(_ Step) {
}

// EndStep counts the step.
func (t *CountTracer) EndStep(step Step) {
	t.lock.Lock()
	t.steps[step.Instance]++
	t.lock.Unlock()
}

// Fire counts the firing.
func (t *CountTracer) Fire(firing Firing) {
	key := FiringKey(firing)

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.firings[key]; !ok {
		t.threadKeys = append(t.threadKeys, key)
	}

	t.firings[key]++

	if firing.Err != nil {
		t.failures[key]++
	}
}

// FiringKey names the thread of a firing as instance.object.call.
func FiringKey(f Firing) string {
	return f.Instance + "." + f.Thread.Key()
}
