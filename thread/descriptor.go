// Package thread runs the periodic threads of a model. Each thread is
// described by a PeriodicThreadStatus and calls a method of the model at a
// fixed period of simulated time.
package thread

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/fmuadapter/sim"
)

// NameCapacity is the size of the name fields of a descriptor, including the
// terminating zero byte that generated code stores after the name.
const NameCapacity = 100

// NeverExecuted is the LastExecuted value of a thread that has not run yet.
const NeverExecuted int64 = -1

// ErrUnresolvedMethod is returned when a descriptor names a method that the
// model does not provide.
var ErrUnresolvedMethod = errors.New("unresolved thread method")

// A Method is what a periodic thread calls at every firing.
type Method func(now sim.VTimeInSec) error

// MethodTable maps "object.call" keys to methods. It replaces looking up
// methods by name at every call: the table is resolved once when the
// scheduler is built.
type MethodTable map[string]Method

// MethodKey returns the key of a method in a MethodTable.
func MethodKey(object, call string) string {
	return object + "." + call
}

// PeriodicThreadStatus describes one periodic thread.
type PeriodicThreadStatus struct {
	// Period is the time between two firings in seconds.
	Period sim.VTimeInSec `yaml:"period" json:"period"`

	// ObjectName is the model object that owns the method.
	ObjectName string `yaml:"object" json:"object"`

	// CallName is the method to call.
	CallName string `yaml:"call" json:"call"`

	// LastExecuted is the index of the last firing, counted from the start
	// of the simulation, or NeverExecuted.
	LastExecuted int64 `yaml:"-" json:"last_executed"`
}

// NewPeriodicThreadStatus creates a validated descriptor that has never run.
func NewPeriodicThreadStatus(
	period sim.VTimeInSec,
	object, call string,
) (PeriodicThreadStatus, error) {
	s := PeriodicThreadStatus{
		Period:       period,
		ObjectName:   object,
		CallName:     call,
		LastExecuted: NeverExecuted,
	}

	if err := s.Validate(); err != nil {
		return PeriodicThreadStatus{}, err
	}

	return s, nil
}

// Key returns the MethodTable key of the method that the thread calls.
func (s PeriodicThreadStatus) Key() string {
	return MethodKey(s.ObjectName, s.CallName)
}

// Validate checks the period and the name bounds.
func (s PeriodicThreadStatus) Validate() error {
	p := float64(s.Period)
	if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
		return fmt.Errorf("thread %s: period must be positive and finite, "+
			"got %v", s.Key(), s.Period)
	}

	if err := nameMustFit("object", s.ObjectName); err != nil {
		return err
	}

	return nameMustFit("call", s.CallName)
}

func nameMustFit(field, name string) error {
	if name == "" {
		return fmt.Errorf("thread %s name is empty", field)
	}

	if len(name) >= NameCapacity {
		return fmt.Errorf("thread %s name %q is %d bytes, at most %d allowed",
			field, name, len(name), NameCapacity-1)
	}

	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return fmt.Errorf("thread %s name %q contains a zero byte",
				field, name)
		}
	}

	return nil
}
