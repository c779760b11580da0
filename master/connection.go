package master

import (
	"fmt"
	"strings"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
)

// An Endpoint names a signal of a slave.
type Endpoint struct {
	Slave  string `yaml:"slave"`
	Signal string `yaml:"signal"`
}

// ParseEndpoint reads an endpoint written as "slave.signal".
func ParseEndpoint(s string) (Endpoint, error) {
	i := strings.Index(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Endpoint{}, fmt.Errorf("endpoint %q is not slave.signal", s)
	}

	return Endpoint{Slave: s[:i], Signal: s[i+1:]}, nil
}

func (e Endpoint) String() string {
	return e.Slave + "." + e.Signal
}

// A Connection copies an output of a slave to an input of another slave at
// every communication point.
type Connection struct {
	From Endpoint `yaml:"from"`
	To   Endpoint `yaml:"to"`
}

type link struct {
	conn   Connection
	from   Slave
	to     Slave
	fromVR fmi.ValueReference
	toVR   fmi.ValueReference
	t      modeldesc.Type
}

func resolve(c Connection, slaves map[string]Slave) (link, error) {
	from, ok := slaves[c.From.Slave]
	if !ok {
		return link{}, fmt.Errorf("connection %s: unknown slave %q",
			c.From, c.From.Slave)
	}

	to, ok := slaves[c.To.Slave]
	if !ok {
		return link{}, fmt.Errorf("connection %s: unknown slave %q",
			c.To, c.To.Slave)
	}

	src, ok := from.Table().ByName(c.From.Signal)
	if !ok || src.Causality != modeldesc.CausalityOutput {
		return link{}, fmt.Errorf("connection %s -> %s: %s is not an output",
			c.From, c.To, c.From)
	}

	dst, ok := to.Table().ByName(c.To.Signal)
	if !ok || dst.Causality != modeldesc.CausalityInput {
		return link{}, fmt.Errorf("connection %s -> %s: %s is not an input",
			c.From, c.To, c.To)
	}

	if src.Type != dst.Type {
		return link{}, fmt.Errorf("connection %s -> %s: %s does not fit %s",
			c.From, c.To, src.Type, dst.Type)
	}

	return link{
		conn:   c,
		from:   from,
		to:     to,
		fromVR: src.ValueReference,
		toVR:   dst.ValueReference,
		t:      src.Type,
	}, nil
}

func (l link) transfer() error {
	var err error

	switch l.t {
	case modeldesc.TypeReal:
		var v []fmi.Real
		if v, err = l.from.GetReal(l.fromVR); err == nil {
			err = l.to.SetReal([]fmi.ValueReference{l.toVR}, v)
		}
	case modeldesc.TypeInteger:
		var v []fmi.Integer
		if v, err = l.from.GetInteger(l.fromVR); err == nil {
			err = l.to.SetInteger([]fmi.ValueReference{l.toVR}, v)
		}
	case modeldesc.TypeBoolean:
		var v []fmi.Boolean
		if v, err = l.from.GetBoolean(l.fromVR); err == nil {
			err = l.to.SetBoolean([]fmi.ValueReference{l.toVR}, v)
		}
	}

	if err != nil {
		return fmt.Errorf("connection %s -> %s: %w",
			l.conn.From, l.conn.To, err)
	}

	return nil
}

func (m *Master) propagate() error {
	for _, l := range m.connections {
		if err := l.transfer(); err != nil {
			return err
		}
	}

	return nil
}
