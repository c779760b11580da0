package master

import (
	"fmt"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/sim"
)

// Builder can build masters.
type Builder struct {
	start       sim.VTimeInSec
	stop        sim.VTimeInSec
	stepSize    sim.VTimeInSec
	slaves      []Slave
	connections []Connection
}

// MakeBuilder creates a builder that runs for one second in steps of 10 ms.
func MakeBuilder() Builder {
	return Builder{
		stop:     1,
		stepSize: 0.01,
	}
}

// WithStartTime sets the first communication point.
func (b Builder) WithStartTime(t sim.VTimeInSec) Builder {
	b.start = t
	return b
}

// WithStopTime sets the last communication point.
func (b Builder) WithStopTime(t sim.VTimeInSec) Builder {
	b.stop = t
	return b
}

// WithStepSize sets the communication step size.
func (b Builder) WithStepSize(h sim.VTimeInSec) Builder {
	b.stepSize = h
	return b
}

// WithSlave adds a slave. Slaves are stepped in the order they are added.
func (b Builder) WithSlave(s Slave) Builder {
	b.slaves = append(b.slaves[:len(b.slaves):len(b.slaves)], s)
	return b
}

// WithConnection adds a connection between two slaves.
func (b Builder) WithConnection(c Connection) Builder {
	b.connections = append(
		b.connections[:len(b.connections):len(b.connections)], c)
	return b
}

// Build checks the connections and creates the master.
func (b Builder) Build() (*Master, error) {
	if b.stepSize <= 0 {
		return nil, fmt.Errorf("%w: %v", fmi.ErrInvalidStepSize, b.stepSize)
	}

	if b.stop.Before(b.start) {
		return nil, fmt.Errorf("stop time %v is before start time %v",
			b.stop, b.start)
	}

	m := &Master{
		slaves:   b.slaves,
		start:    b.start,
		stop:     b.stop,
		stepSize: b.stepSize,
		now:      b.start,
	}

	byName := make(map[string]Slave)
	for _, s := range b.slaves {
		if _, dup := byName[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate slave %q", s.Name())
		}
		byName[s.Name()] = s
	}

	for _, c := range b.connections {
		l, err := resolve(c, byName)
		if err != nil {
			return nil, err
		}

		m.connections = append(m.connections, l)
	}

	return m, nil
}
