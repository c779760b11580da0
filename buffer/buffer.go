// Package buffer provides the staging area through which a master and a model
// exchange values at every communication point.
package buffer

import (
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/sim"
)

// DefaultCapacity is the number of slots of each kind when the exported model
// does not say otherwise.
const DefaultCapacity = 10

// HookPosBufWrite marks a single value written into the buffer. The item is a
// Write.
var HookPosBufWrite = &sim.HookPos{Name: "Buffer Write"}

// HookPosBufCommit marks a committed Update. The item is a Frame holding the
// values after the update.
var HookPosBufCommit = &sim.HookPos{Name: "Buffer Commit"}

// Capacity is the number of slots of each kind.
type Capacity struct {
	Booleans int `yaml:"booleans" json:"booleans"`
	Reals    int `yaml:"reals" json:"reals"`
	Integers int `yaml:"integers" json:"integers"`
}

// DefaultCapacities returns DefaultCapacity slots of each kind.
func DefaultCapacities() Capacity {
	return Capacity{
		Booleans: DefaultCapacity,
		Reals:    DefaultCapacity,
		Integers: DefaultCapacity,
	}
}

// Of returns the capacity for one kind.
func (c Capacity) Of(k Kind) int {
	switch k {
	case KindBoolean:
		return c.Booleans
	case KindReal:
		return c.Reals
	case KindInteger:
		return c.Integers
	default:
		return 0
	}
}

// Validate checks that no capacity is negative.
func (c Capacity) Validate() error {
	if c.Booleans < 0 || c.Reals < 0 || c.Integers < 0 {
		return fmt.Errorf("negative buffer capacity %+v", c)
	}

	return nil
}

// Write describes one value written into the buffer.
type Write struct {
	Kind  Kind
	Index int
	Value any
}

// A Buffer holds three fixed-length arrays of booleans, reals, and integers.
// All accesses are bounds checked and safe for concurrent use. Readers never
// see a partially applied Update.
type Buffer struct {
	sim.HookableBase

	name  string
	lock  sync.RWMutex
	frame Frame
}

// New creates a zeroed buffer.
func New(name string, c Capacity) *Buffer {
	if err := c.Validate(); err != nil {
		log.Panic(err)
	}

	return &Buffer{
		name:  name,
		frame: NewFrame(c),
	}
}

// Name returns the name of the buffer.
func (b *Buffer) Name() string {
	return b.name
}

// Capacity returns the number of slots of each kind.
func (b *Buffer) Capacity() Capacity {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.frame.Capacity()
}

// Boolean returns the i-th boolean.
func (b *Buffer) Boolean(i int) (fmi.Boolean, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.frame.Boolean(i)
}

// SetBoolean sets the i-th boolean.
func (b *Buffer) SetBoolean(i int, v fmi.Boolean) error {
	b.lock.Lock()
	err := b.frame.SetBoolean(i, v)
	b.lock.Unlock()

	return b.afterWrite(err, KindBoolean, i, v)
}

// Real returns the i-th real.
func (b *Buffer) Real(i int) (fmi.Real, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.frame.Real(i)
}

// SetReal sets the i-th real.
func (b *Buffer) SetReal(i int, v fmi.Real) error {
	b.lock.Lock()
	err := b.frame.SetReal(i, v)
	b.lock.Unlock()

	return b.afterWrite(err, KindReal, i, v)
}

// Integer returns the i-th integer.
func (b *Buffer) Integer(i int) (fmi.Integer, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.frame.Integer(i)
}

// SetInteger sets the i-th integer.
func (b *Buffer) SetInteger(i int, v fmi.Integer) error {
	b.lock.Lock()
	err := b.frame.SetInteger(i, v)
	b.lock.Unlock()

	return b.afterWrite(err, KindInteger, i, v)
}

func (b *Buffer) afterWrite(err error, k Kind, i int, v any) error {
	if err != nil {
		return err
	}

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufWrite,
			Item:   Write{Kind: k, Index: i, Value: v},
		})
	}

	return nil
}

// Snapshot returns a consistent copy of all the values.
func (b *Buffer) Snapshot() Frame {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.frame.Clone()
}

// Update applies several writes as one. The function works on a copy of the
// current values; the copy replaces the buffer content only if the function
// returns nil.
func (b *Buffer) Update(f func(fr *Frame) error) error {
	b.lock.Lock()

	next := b.frame.Clone()

	err := f(&next)
	if err != nil {
		b.lock.Unlock()
		return err
	}

	if next.Capacity() != b.frame.Capacity() {
		b.lock.Unlock()
		return fmt.Errorf("%w: update changed the buffer shape",
			fmi.ErrInvalidIndex)
	}

	b.frame = next
	committed := next.Clone()
	b.lock.Unlock()

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufCommit,
			Item:   committed,
		})
	}

	return nil
}

// Clear sets every slot back to its zero value.
func (b *Buffer) Clear() {
	b.lock.Lock()
	b.frame = NewFrame(b.frame.Capacity())
	b.lock.Unlock()
}
