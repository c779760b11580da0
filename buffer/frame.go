package buffer

import (
	"fmt"

	"github.com/sarchlab/fmuadapter/fmi"
)

// Kind tells which of the three arrays a value lives in.
type Kind int

// The kinds of values that the buffer stores.
const (
	KindBoolean Kind = iota
	KindReal
	KindInteger
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindReal:
		return "real"
	case KindInteger:
		return "integer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// A Frame holds one copy of all the values in a buffer. The length of every
// array is fixed when the frame is created.
type Frame struct {
	Booleans []fmi.Boolean
	Reals    []fmi.Real
	Integers []fmi.Integer
}

// NewFrame creates a zeroed frame with the given capacity.
func NewFrame(c Capacity) Frame {
	return Frame{
		Booleans: make([]fmi.Boolean, c.Booleans),
		Reals:    make([]fmi.Real, c.Reals),
		Integers: make([]fmi.Integer, c.Integers),
	}
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	c := Frame{
		Booleans: make([]fmi.Boolean, len(f.Booleans)),
		Reals:    make([]fmi.Real, len(f.Reals)),
		Integers: make([]fmi.Integer, len(f.Integers)),
	}

	copy(c.Booleans, f.Booleans)
	copy(c.Reals, f.Reals)
	copy(c.Integers, f.Integers)

	return c
}

// Capacity returns the lengths of the arrays.
func (f Frame) Capacity() Capacity {
	return Capacity{
		Booleans: len(f.Booleans),
		Reals:    len(f.Reals),
		Integers: len(f.Integers),
	}
}

func checkIndex(k Kind, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s index %d out of range [0, %d)",
			fmi.ErrInvalidIndex, k, i, n)
	}

	return nil
}

// Boolean returns the i-th boolean.
func (f Frame) Boolean(i int) (fmi.Boolean, error) {
	if err := checkIndex(KindBoolean, i, len(f.Booleans)); err != nil {
		return false, err
	}

	return f.Booleans[i], nil
}

// SetBoolean sets the i-th boolean.
func (f Frame) SetBoolean(i int, v fmi.Boolean) error {
	if err := checkIndex(KindBoolean, i, len(f.Booleans)); err != nil {
		return err
	}

	f.Booleans[i] = v

	return nil
}

// Real returns the i-th real.
func (f Frame) Real(i int) (fmi.Real, error) {
	if err := checkIndex(KindReal, i, len(f.Reals)); err != nil {
		return 0, err
	}

	return f.Reals[i], nil
}

// SetReal sets the i-th real.
func (f Frame) SetReal(i int, v fmi.Real) error {
	if err := checkIndex(KindReal, i, len(f.Reals)); err != nil {
		return err
	}

	f.Reals[i] = v

	return nil
}

// Integer returns the i-th integer.
func (f Frame) Integer(i int) (fmi.Integer, error) {
	if err := checkIndex(KindInteger, i, len(f.Integers)); err != nil {
		return 0, err
	}

	return f.Integers[i], nil
}

// SetInteger sets the i-th integer.
func (f Frame) SetInteger(i int, v fmi.Integer) error {
	if err := checkIndex(KindInteger, i, len(f.Integers)); err != nil {
		return err
	}

	f.Integers[i] = v

	return nil
}
