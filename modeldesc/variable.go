// Package modeldesc describes the scalar variables that an FMU exposes. It
// holds the explicit table from variable names and value references to
// buffer slots, and reads and writes the modelDescription.xml file.
package modeldesc

import (
	"fmt"
	"strings"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
)

// Causality tells how a variable is visible from outside the model.
type Causality string

// Causalities defined by FMI 2.0.
const (
	CausalityParameter           Causality = "parameter"
	CausalityCalculatedParameter Causality = "calculatedParameter"
	CausalityInput               Causality = "input"
	CausalityOutput              Causality = "output"
	CausalityLocal               Causality = "local"
	CausalityIndependent         Causality = "independent"
)

var causalities = []Causality{
	CausalityParameter,
	CausalityCalculatedParameter,
	CausalityInput,
	CausalityOutput,
	CausalityLocal,
	CausalityIndependent,
}

// ParseCausality converts a name to a Causality, ignoring the case.
func ParseCausality(s string) (Causality, error) {
	for _, c := range causalities {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown causality %q", s)
}

// Variability tells when the value of a variable may change.
type Variability string

// Variabilities defined by FMI 2.0.
const (
	VariabilityConstant   Variability = "constant"
	VariabilityFixed      Variability = "fixed"
	VariabilityTunable    Variability = "tunable"
	VariabilityDiscrete   Variability = "discrete"
	VariabilityContinuous Variability = "continuous"
)

var variabilities = []Variability{
	VariabilityConstant,
	VariabilityFixed,
	VariabilityTunable,
	VariabilityDiscrete,
	VariabilityContinuous,
}

// ParseVariability converts a name to a Variability, ignoring the case.
func ParseVariability(s string) (Variability, error) {
	for _, v := range variabilities {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}

	return "", fmt.Errorf("unknown variability %q", s)
}

// Initial tells how the start value of a variable is determined.
type Initial string

// Initial kinds defined by FMI 2.0.
const (
	InitialExact      Initial = "exact"
	InitialApprox     Initial = "approx"
	InitialCalculated Initial = "calculated"
)

// ParseInitial converts a name to an Initial, ignoring the case.
func ParseInitial(s string) (Initial, error) {
	for _, i := range []Initial{InitialExact, InitialApprox, InitialCalculated} {
		if strings.EqualFold(string(i), s) {
			return i, nil
		}
	}

	return "", fmt.Errorf("unknown initial %q", s)
}

// Type is the data type of a scalar variable.
type Type string

// Types defined by FMI 2.0 that the adapter knows about.
const (
	TypeReal    Type = "Real"
	TypeInteger Type = "Integer"
	TypeBoolean Type = "Boolean"
	TypeString  Type = "String"
)

// ParseType converts a name to a Type, ignoring the case.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{TypeReal, TypeInteger, TypeBoolean, TypeString} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}

	return "", fmt.Errorf("unknown type %q", s)
}

// BufferKind returns the buffer array that stores values of the type.
func (t Type) BufferKind() (buffer.Kind, error) {
	switch t {
	case TypeBoolean:
		return buffer.KindBoolean, nil
	case TypeReal:
		return buffer.KindReal, nil
	case TypeInteger:
		return buffer.KindInteger, nil
	default:
		return 0, fmt.Errorf("type %s cannot be stored in the buffer", t)
	}
}

// A Signal is one scalar variable bound to a slot of the buffer.
type Signal struct {
	Name           string
	Description    string
	Type           Type
	Causality      Causality
	Variability    Variability
	Initial        Initial
	ValueReference fmi.ValueReference
	Index          int
	Start          string
}

// Settable tells if the master may write the signal.
func (s Signal) Settable() bool {
	return s.Causality == CausalityInput || s.Causality == CausalityParameter
}

// withDefaults fills the variability and initial the way the exporter does
// for each causality.
func (s Signal) withDefaults() Signal {
	switch s.Causality {
	case CausalityParameter:
		if s.Variability == "" {
			s.Variability = VariabilityFixed
		}
		if s.Initial == "" {
			s.Initial = InitialExact
		}
	case CausalityOutput:
		if s.Variability == "" {
			s.Variability = VariabilityDiscrete
		}
		if s.Initial == "" {
			s.Initial = InitialCalculated
		}
	case CausalityInput:
		if s.Variability == "" {
			s.Variability = VariabilityContinuous
		}
	}

	if s.Type == TypeReal && s.Start != "" {
		s.Start = normalizeRealStart(s.Start)
	}

	return s
}

func normalizeRealStart(start string) string {
	if strings.ContainsAny(start, ".eEnN") {
		return start
	}

	return start + ".0"
}
