package model

import (
	"errors"
	"fmt"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
)

// ErrUnknownSignal is returned when a model asks for a signal that is not
// visible through the view, either because it does not exist or because it
// has the wrong causality or type.
var ErrUnknownSignal = errors.New("unknown signal")

// Inputs gives a model read access to its inputs and parameters by name.
type Inputs interface {
	Names() []string
	Real(name string) (fmi.Real, error)
	Integer(name string) (fmi.Integer, error)
	Boolean(name string) (fmi.Boolean, error)
}

// Outputs gives a model write access to its outputs by name.
type Outputs interface {
	Names() []string
	SetReal(name string, v fmi.Real) error
	SetInteger(name string, v fmi.Integer) error
	SetBoolean(name string, v fmi.Boolean) error
}

// A View resolves signal names to the slots of a buffer frame. It only
// exposes the signals with the causalities it was created with.
type View struct {
	table   *modeldesc.SignalTable
	frame   *buffer.Frame
	visible map[string]modeldesc.Signal
	names   []string
}

// NewView creates a view over a frame.
func NewView(
	table *modeldesc.SignalTable,
	frame *buffer.Frame,
	causalities ...modeldesc.Causality,
) *View {
	v := &View{
		table:   table,
		frame:   frame,
		visible: make(map[string]modeldesc.Signal),
	}

	for _, s := range table.WithCausality(causalities...) {
		v.visible[s.Name] = s
		v.names = append(v.names, s.Name)
	}

	return v
}

// Names returns the visible signals in value reference order.
func (v *View) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)

	return out
}

// Signal returns the description of a visible signal.
func (v *View) Signal(name string) (modeldesc.Signal, bool) {
	s, ok := v.visible[name]
	return s, ok
}

func (v *View) lookup(name string, t modeldesc.Type) (modeldesc.Signal, error) {
	s, ok := v.visible[name]
	if !ok {
		return modeldesc.Signal{}, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
	}

	if s.Type != t {
		return modeldesc.Signal{}, fmt.Errorf("%w: %s is %s, not %s",
			ErrUnknownSignal, name, s.Type, t)
	}

	return s, nil
}

// Real reads a real signal.
func (v *View) Real(name string) (fmi.Real, error) {
	s, err := v.lookup(name, modeldesc.TypeReal)
	if err != nil {
		return 0, err
	}

	return v.frame.Real(s.Index)
}

// Integer reads an integer signal.
func (v *View) Integer(name string) (fmi.Integer, error) {
	s, err := v.lookup(name, modeldesc.TypeInteger)
	if err != nil {
		return 0, err
	}

	return v.frame.Integer(s.Index)
}

// Boolean reads a boolean signal.
func (v *View) Boolean(name string) (fmi.Boolean, error) {
	s, err := v.lookup(name, modeldesc.TypeBoolean)
	if err != nil {
		return false, err
	}

	return v.frame.Boolean(s.Index)
}

// SetReal writes a real signal.
func (v *View) SetReal(name string, value fmi.Real) error {
	s, err := v.lookup(name, modeldesc.TypeReal)
	if err != nil {
		return err
	}

	return v.frame.SetReal(s.Index, value)
}

// SetInteger writes an integer signal.
func (v *View) SetInteger(name string, value fmi.Integer) error {
	s, err := v.lookup(name, modeldesc.TypeInteger)
	if err != nil {
		return err
	}

	return v.frame.SetInteger(s.Index, value)
}

// SetBoolean writes a boolean signal.
func (v *View) SetBoolean(name string, value fmi.Boolean) error {
	s, err := v.lookup(name, modeldesc.TypeBoolean)
	if err != nil {
		return err
	}

	return v.frame.SetBoolean(s.Index, value)
}
