package model

import (
	"strings"

	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/thread"
)

// PassThrough is the identity model. Every output named X or out_X copies
// the input named in_X, or the input named X when no in_X exists, provided
// both have the same type. Outputs without a matching input keep their
// value.
type PassThrough struct {
	pairs    map[string]string
	reals    map[string]fmi.Real
	integers map[string]fmi.Integer
	booleans map[string]fmi.Boolean
}

// NewPassThrough pairs the outputs of a signal table with its inputs.
func NewPassThrough(table *modeldesc.SignalTable) *PassThrough {
	p := &PassThrough{pairs: make(map[string]string)}

	for _, out := range table.WithCausality(modeldesc.CausalityOutput) {
		base := strings.TrimPrefix(out.Name, "out_")
		for _, candidate := range []string{"in_" + base, base} {
			in, ok := table.ByName(candidate)
			if ok && in.Causality == modeldesc.CausalityInput &&
				in.Type == out.Type {
				p.pairs[out.Name] = in.Name
				break
			}
		}
	}

	p.reset()

	return p
}

// Source returns the input that an output mirrors.
func (p *PassThrough) Source(output string) (string, bool) {
	in, ok := p.pairs[output]
	return in, ok
}

func (p *PassThrough) reset() {
	p.reals = make(map[string]fmi.Real)
	p.integers = make(map[string]fmi.Integer)
	p.booleans = make(map[string]fmi.Boolean)
}

// Init forgets the values of the previous run.
func (p *PassThrough) Init() error {
	p.reset()
	return nil
}

// DeInit does nothing.
func (p *PassThrough) DeInit() error {
	return nil
}

// ApplyInputs latches the inputs that feed an output.
func (p *PassThrough) ApplyInputs(in Inputs) error {
	for _, name := range p.pairs {
		if err := p.latch(in, name); err != nil {
			return err
		}
	}

	return nil
}

func (p *PassThrough) latch(in Inputs, name string) error {
	if v, err := in.Real(name); err == nil {
		p.reals[name] = v
		return nil
	}

	if v, err := in.Integer(name); err == nil {
		p.integers[name] = v
		return nil
	}

	v, err := in.Boolean(name)
	if err != nil {
		return err
	}
	p.booleans[name] = v

	return nil
}

// CollectOutputs writes the latched inputs to their outputs.
func (p *PassThrough) CollectOutputs(out Outputs) error {
	for output, input := range p.pairs {
		var err error

		if v, ok := p.reals[input]; ok {
			err = out.SetReal(output, v)
		} else if v, ok := p.integers[input]; ok {
			err = out.SetInteger(output, v)
		} else if v, ok := p.booleans[input]; ok {
			err = out.SetBoolean(output, v)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Methods returns an empty table. The identity model has no threads.
func (p *PassThrough) Methods() thread.MethodTable {
	return thread.MethodTable{}
}
