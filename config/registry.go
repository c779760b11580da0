package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/model/watertank"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// A ModelFactory creates the models of one kind.
type ModelFactory struct {
	// Signals returns the default signals of the kind.
	Signals func() []modeldesc.Signal

	// Threads returns the default threads of the kind. It may be nil.
	Threads func() ([]thread.PeriodicThreadStatus, error)

	// New creates a model for the final signal table.
	New func(
		table *modeldesc.SignalTable,
		options map[string]float64,
	) (model.Model, error)
}

var (
	registryLock sync.RWMutex
	registry     = map[string]ModelFactory{}
)

// RegisterModel makes a model kind available to the configuration.
func RegisterModel(kind string, f ModelFactory) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, ok := registry[kind]; ok {
		panic(fmt.Sprintf("model kind %s registered twice", kind))
	}

	if f.New == nil {
		panic(fmt.Sprintf("model kind %s has no constructor", kind))
	}

	registry[kind] = f
}

// ModelKinds lists the registered model kinds.
func ModelKinds() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}

	sort.Strings(kinds)

	return kinds
}

func lookupModel(kind string) (ModelFactory, error) {
	registryLock.RLock()
	defer registryLock.RUnlock()

	f, ok := registry[kind]
	if !ok {
		return ModelFactory{}, fmt.Errorf("unknown model kind %q", kind)
	}

	return f, nil
}

func init() {
	RegisterModel("passthrough", ModelFactory{
		New: func(
			table *modeldesc.SignalTable,
			_ map[string]float64,
		) (model.Model, error) {
			return model.NewPassThrough(table), nil
		},
	})

	RegisterModel("watertank.controller", ModelFactory{
		Signals: watertank.ControllerSignals,
		Threads: func() ([]thread.PeriodicThreadStatus, error) {
			return watertank.ControllerThreads(0.01)
		},
		New: func(
			_ *modeldesc.SignalTable,
			_ map[string]float64,
		) (model.Model, error) {
			return watertank.NewController(), nil
		},
	})

	RegisterModel("watertank.tank", ModelFactory{
		Signals: watertank.TankSignals,
		New: func(
			_ *modeldesc.SignalTable,
			options map[string]float64,
		) (model.Model, error) {
			level, ok := options["initial_level"]
			if !ok {
				level = 1.0
			}

			if level < 0 {
				return nil, fmt.Errorf("initial_level %v is negative", level)
			}

			return watertank.NewTank(level), nil
		},
	})
}

func threadsOf(specs []Thread) ([]thread.PeriodicThreadStatus, error) {
	threads := make([]thread.PeriodicThreadStatus, 0, len(specs))

	for _, t := range specs {
		s, err := thread.NewPeriodicThreadStatus(
			sim.VTimeInSec(t.Period), t.Object, t.Call)
		if err != nil {
			return nil, err
		}

		threads = append(threads, s)
	}

	return threads, nil
}
