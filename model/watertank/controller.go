package watertank

import (
	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// Controller is a bang-bang level controller.
type Controller struct {
	minLevel float64
	maxLevel float64
	level    float64
	valve    bool
	switches int
}

// NewController creates a controller with a closed valve.
func NewController() *Controller {
	return &Controller{}
}

// Init closes the valve.
func (c *Controller) Init() error {
	c.valve = false
	c.switches = 0

	return nil
}

// DeInit does nothing.
func (c *Controller) DeInit() error {
	return nil
}

// ApplyInputs reads the level and the thresholds.
func (c *Controller) ApplyInputs(in model.Inputs) error {
	var err error

	if c.minLevel, err = in.Real(MinLevel); err != nil {
		return err
	}

	if c.maxLevel, err = in.Real(MaxLevel); err != nil {
		return err
	}

	c.level, err = in.Real(Level)

	return err
}

// CollectOutputs writes the valve command.
func (c *Controller) CollectOutputs(out model.Outputs) error {
	return out.SetBoolean(Valve, c.valve)
}

// Methods returns the controller loop.
func (c *Controller) Methods() thread.MethodTable {
	return thread.MethodTable{
		thread.MethodKey("controller", "loop"): c.loop,
	}
}

// Valve tells if the valve is open.
func (c *Controller) Valve() bool {
	return c.valve
}

// Switches returns how many times the valve changed state.
func (c *Controller) Switches() int {
	return c.switches
}

func (c *Controller) loop(_ sim.VTimeInSec) error {
	open := c.valve

	if c.level >= c.maxLevel {
		open = true
	} else if c.level <= c.minLevel {
		open = false
	}

	if open != c.valve {
		c.switches++
	}
	c.valve = open

	return nil
}
