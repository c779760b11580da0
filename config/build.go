package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/master"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
)

// A Setup is a built co-simulation, ready to run.
type Setup struct {
	Adapters []*adapter.Adapter
	Master   *master.Master
}

// Validate checks what can be checked without building.
func (c *Config) Validate() error {
	e := c.Experiment
	if e.StepSize <= 0 {
		return fmt.Errorf("step %v must be positive", e.StepSize)
	}

	if e.Stop <= e.Start {
		return fmt.Errorf("stop %v must be after start %v", e.Stop, e.Start)
	}

	if len(c.Instances) == 0 {
		return errors.New("no instances")
	}

	names := make(map[string]bool)
	for _, inst := range c.Instances {
		if inst.Name == "" {
			return errors.New("instance without a name")
		}

		if names[inst.Name] {
			return fmt.Errorf("instance %s defined twice", inst.Name)
		}
		names[inst.Name] = true

		if inst.ModelDescription != "" && len(inst.Signals) > 0 {
			return fmt.Errorf("instance %s: signals and model_description "+
				"cannot both be given", inst.Name)
		}
	}

	return nil
}

// Build creates the adapters and the master.
func (c *Config) Build(callbacks fmi.CallbackFunctions) (*Setup, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	setup := &Setup{}

	mb := master.MakeBuilder().
		WithStartTime(sim.VTimeInSec(c.Experiment.Start)).
		WithStopTime(sim.VTimeInSec(c.Experiment.Stop)).
		WithStepSize(sim.VTimeInSec(c.Experiment.StepSize))

	for _, inst := range c.Instances {
		a, err := c.buildInstance(inst, callbacks)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", inst.Name, err)
		}

		setup.Adapters = append(setup.Adapters, a)
		mb = mb.WithSlave(a)
	}

	for _, conn := range c.Connections {
		from, err := master.ParseEndpoint(conn.From)
		if err != nil {
			return nil, err
		}

		to, err := master.ParseEndpoint(conn.To)
		if err != nil {
			return nil, err
		}

		mb = mb.WithConnection(master.Connection{From: from, To: to})
	}

	m, err := mb.Build()
	if err != nil {
		return nil, err
	}

	setup.Master = m

	return setup, nil
}

func (c *Config) buildInstance(
	inst Instance,
	callbacks fmi.CallbackFunctions,
) (*adapter.Adapter, error) {
	factory, err := lookupModel(inst.Model)
	if err != nil {
		return nil, err
	}

	capacity := buffer.DefaultCapacities()
	if inst.Capacity != nil {
		capacity = *inst.Capacity
	}

	table, err := instanceTable(inst, factory, capacity)
	if err != nil {
		return nil, err
	}

	threads, err := threadsOf(inst.Threads)
	if err != nil {
		return nil, err
	}

	if len(inst.Threads) == 0 && factory.Threads != nil {
		threads, err = factory.Threads()
		if err != nil {
			return nil, err
		}
	}

	m, err := factory.New(table, inst.Options)
	if err != nil {
		return nil, err
	}

	b := adapter.MakeBuilder().
		WithCallbacks(callbacks).
		WithSignalTable(table).
		WithThreads(threads).
		WithModel(m).
		WithStartTime(sim.VTimeInSec(c.Experiment.Start)).
		WithStopTime(sim.VTimeInSec(c.Experiment.Stop)).
		WithMainStepSize(sim.VTimeInSec(c.Experiment.StepSize))

	if c.Experiment.RealTime {
		b = b.WithRealTime()
	}

	return b.Build(inst.Name)
}

func instanceTable(
	inst Instance,
	factory ModelFactory,
	capacity buffer.Capacity,
) (*modeldesc.SignalTable, error) {
	var (
		signals []modeldesc.Signal
		err     error
	)

	switch {
	case inst.ModelDescription != "":
		signals, err = signalsFromFile(inst.ModelDescription, capacity)
	case len(inst.Signals) > 0:
		signals, err = signalsOf(inst.Signals)
	case factory.Signals != nil:
		signals = factory.Signals()
	default:
		err = fmt.Errorf("model kind %s needs signals", inst.Model)
	}

	if err != nil {
		return nil, err
	}

	if err := overrideStart(signals, inst.Start); err != nil {
		return nil, err
	}

	if inst.ModelDescription != "" {
		return modeldesc.NewSignalTable(signals, capacity)
	}

	return modeldesc.Assign(signals, capacity)
}

func signalsFromFile(
	path string,
	capacity buffer.Capacity,
) ([]modeldesc.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md, err := modeldesc.Parse(f)
	if err != nil {
		return nil, err
	}

	table, err := modeldesc.TableFromDescription(md, capacity)
	if err != nil {
		return nil, err
	}

	return table.Signals(), nil
}

func signalsOf(specs []Signal) ([]modeldesc.Signal, error) {
	signals := make([]modeldesc.Signal, 0, len(specs))

	for _, s := range specs {
		t, err := modeldesc.ParseType(s.Type)
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", s.Name, err)
		}

		causality, err := modeldesc.ParseCausality(s.Causality)
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", s.Name, err)
		}

		signal := modeldesc.Signal{
			Name:        s.Name,
			Description: s.Description,
			Type:        t,
			Causality:   causality,
			Start:       s.Start,
		}

		if s.Variability != "" {
			if signal.Variability, err = modeldesc.ParseVariability(
				s.Variability); err != nil {
				return nil, fmt.Errorf("signal %q: %w", s.Name, err)
			}
		}

		if s.Initial != "" {
			if signal.Initial, err = modeldesc.ParseInitial(
				s.Initial); err != nil {
				return nil, fmt.Errorf("signal %q: %w", s.Name, err)
			}
		}

		signals = append(signals, signal)
	}

	return signals, nil
}

func overrideStart(signals []modeldesc.Signal, start map[string]string) error {
	for name, v := range start {
		found := false

		for i := range signals {
			if signals[i].Name == name {
				signals[i].Start = v
				found = true
			}
		}

		if !found {
			return fmt.Errorf("start value for unknown signal %q", name)
		}
	}

	return nil
}
