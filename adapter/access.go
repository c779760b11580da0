package adapter

import (
	"fmt"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
)

// GetReal reads real variables from the buffer.
func (a *Adapter) GetReal(vrs ...fmi.ValueReference) ([]fmi.Real, error) {
	out := make([]fmi.Real, len(vrs))

	err := a.read(vrs, modeldesc.TypeReal, func(fr buffer.Frame, i, slot int) error {
		v, err := fr.Real(slot)
		out[i] = v

		return err
	})

	return out, err
}

// GetInteger reads integer variables from the buffer.
func (a *Adapter) GetInteger(vrs ...fmi.ValueReference) ([]fmi.Integer, error) {
	out := make([]fmi.Integer, len(vrs))

	err := a.read(vrs, modeldesc.TypeInteger, func(fr buffer.Frame, i, slot int) error {
		v, err := fr.Integer(slot)
		out[i] = v

		return err
	})

	return out, err
}

// GetBoolean reads boolean variables from the buffer.
func (a *Adapter) GetBoolean(vrs ...fmi.ValueReference) ([]fmi.Boolean, error) {
	out := make([]fmi.Boolean, len(vrs))

	err := a.read(vrs, modeldesc.TypeBoolean, func(fr buffer.Frame, i, slot int) error {
		v, err := fr.Boolean(slot)
		out[i] = v

		return err
	})

	return out, err
}

// SetReal writes real inputs or parameters. Either all the values are
// written or none is.
func (a *Adapter) SetReal(vrs []fmi.ValueReference, values []fmi.Real) error {
	if len(vrs) != len(values) {
		return lengthMismatch(len(vrs), len(values))
	}

	return a.write(vrs, modeldesc.TypeReal, func(fr *buffer.Frame, i, slot int) error {
		return fr.SetReal(slot, values[i])
	})
}

// SetInteger writes integer inputs or parameters. Either all the values are
// written or none is.
func (a *Adapter) SetInteger(
	vrs []fmi.ValueReference,
	values []fmi.Integer,
) error {
	if len(vrs) != len(values) {
		return lengthMismatch(len(vrs), len(values))
	}

	return a.write(vrs, modeldesc.TypeInteger, func(fr *buffer.Frame, i, slot int) error {
		return fr.SetInteger(slot, values[i])
	})
}

// SetBoolean writes boolean inputs or parameters. Either all the values are
// written or none is.
func (a *Adapter) SetBoolean(
	vrs []fmi.ValueReference,
	values []fmi.Boolean,
) error {
	if len(vrs) != len(values) {
		return lengthMismatch(len(vrs), len(values))
	}

	return a.write(vrs, modeldesc.TypeBoolean, func(fr *buffer.Frame, i, slot int) error {
		return fr.SetBoolean(slot, values[i])
	})
}

func (a *Adapter) read(
	vrs []fmi.ValueReference,
	t modeldesc.Type,
	get func(fr buffer.Frame, i, slot int) error,
) error {
	if a.State() == StateFaulted {
		return a.faultErr()
	}

	frame := a.buffer.Snapshot()

	for i, vr := range vrs {
		s, err := a.resolve(vr, t)
		if err != nil {
			return err
		}

		if err := get(frame, i, s.Index); err != nil {
			return err
		}
	}

	return nil
}

func (a *Adapter) write(
	vrs []fmi.ValueReference,
	t modeldesc.Type,
	set func(fr *buffer.Frame, i, slot int) error,
) error {
	if a.State() == StateFaulted {
		return a.faultErr()
	}

	for _, vr := range vrs {
		s, err := a.resolve(vr, t)
		if err != nil {
			return err
		}

		if !s.Settable() {
			return fmt.Errorf("%w: %s has causality %s and cannot be set",
				fmi.ErrInvalidValueReference, s.Name, s.Causality)
		}
	}

	return a.buffer.Update(func(fr *buffer.Frame) error {
		for i, vr := range vrs {
			s, _ := a.table.ByValueReference(vr)
			if err := set(fr, i, s.Index); err != nil {
				return err
			}
		}

		return nil
	})
}

func (a *Adapter) resolve(
	vr fmi.ValueReference,
	t modeldesc.Type,
) (modeldesc.Signal, error) {
	s, ok := a.table.ByValueReference(vr)
	if !ok {
		return modeldesc.Signal{}, fmt.Errorf("%w: %d is unknown",
			fmi.ErrInvalidValueReference, vr)
	}

	if s.Type != t {
		return modeldesc.Signal{}, fmt.Errorf("%w: %s is %s, not %s",
			fmi.ErrInvalidValueReference, s.Name, s.Type, t)
	}

	return s, nil
}

func lengthMismatch(nVRs, nValues int) error {
	return fmt.Errorf("%w: %d value references for %d values",
		fmi.ErrInvalidValueReference, nVRs, nValues)
}
