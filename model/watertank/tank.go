package watertank

import (
	"math"

	"github.com/sarchlab/fmuadapter/model"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// Tank integrates the water level. Water flows in at a constant rate and
// drains in proportion to the level while the valve is open.
type Tank struct {
	initialLevel float64
	level        float64
	inflow       float64
	drain        float64
	valve        bool
}

// NewTank creates a tank that starts at the given level.
func NewTank(initialLevel float64) *Tank {
	return &Tank{initialLevel: initialLevel, level: initialLevel}
}

// Init refills the tank to its initial level.
func (t *Tank) Init() error {
	t.level = t.initialLevel
	return nil
}

// DeInit does nothing.
func (t *Tank) DeInit() error {
	return nil
}

// ApplyInputs reads the valve command and the flow parameters.
func (t *Tank) ApplyInputs(in model.Inputs) error {
	var err error

	if t.inflow, err = in.Real(Inflow); err != nil {
		return err
	}

	if t.drain, err = in.Real(Drain); err != nil {
		return err
	}

	t.valve, err = in.Boolean(Valve)

	return err
}

// CollectOutputs writes the level.
func (t *Tank) CollectOutputs(out model.Outputs) error {
	return out.SetReal(Level, t.level)
}

// Methods returns an empty table. The tank only changes in Advance.
func (t *Tank) Methods() thread.MethodTable {
	return thread.MethodTable{}
}

// Advance integrates the level over dt. The level is solved exactly for a
// constant valve position, so the step size does not affect stability.
func (t *Tank) Advance(_, dt sim.VTimeInSec) error {
	h := float64(dt)

	if !t.valve || t.drain == 0 {
		t.level += t.inflow * h
	} else {
		steady := t.inflow / t.drain
		t.level = steady + (t.level-steady)*math.Exp(-t.drain*h)
	}

	if t.level < 0 {
		t.level = 0
	}

	return nil
}

// Level returns the current level.
func (t *Tank) Level() float64 {
	return t.level
}
