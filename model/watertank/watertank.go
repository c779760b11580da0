// Package watertank provides the water tank example: a controller that opens
// a drain valve when the tank is too full and closes it when the tank is
// almost empty, and the tank that it controls.
package watertank

import (
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/thread"
)

// Signal names shared by the controller and the tank.
const (
	Level    = "level"
	Valve    = "valve"
	MinLevel = "minlevel"
	MaxLevel = "maxlevel"
	Inflow   = "inflow"
	Drain    = "drain"
)

// ControllerSignals lists the variables of the controller.
func ControllerSignals() []modeldesc.Signal {
	return []modeldesc.Signal{
		{Name: MinLevel, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityParameter, Start: "1.0",
			Description: "level at which the valve closes"},
		{Name: MaxLevel, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityParameter, Start: "2.0",
			Description: "level at which the valve opens"},
		{Name: Level, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityInput, Start: "0.0",
			Description: "measured water level"},
		{Name: Valve, Type: modeldesc.TypeBoolean,
			Causality: modeldesc.CausalityOutput,
			Description: "drain valve command"},
	}
}

// ControllerThreads lists the periodic threads of the controller.
func ControllerThreads(period sim.VTimeInSec) ([]thread.PeriodicThreadStatus, error) {
	loop, err := thread.NewPeriodicThreadStatus(period, "controller", "loop")
	if err != nil {
		return nil, err
	}

	return []thread.PeriodicThreadStatus{loop}, nil
}

// TankSignals lists the variables of the tank.
func TankSignals() []modeldesc.Signal {
	return []modeldesc.Signal{
		{Name: Inflow, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityParameter, Start: "1.0",
			Description: "constant inflow in level units per second"},
		{Name: Drain, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityParameter, Start: "2.0",
			Description: "outflow per unit of level when the valve is open"},
		{Name: Valve, Type: modeldesc.TypeBoolean,
			Causality: modeldesc.CausalityInput, Start: "false",
			Description: "drain valve command"},
		{Name: Level, Type: modeldesc.TypeReal,
			Causality: modeldesc.CausalityOutput,
			Description: "water level"},
	}
}
