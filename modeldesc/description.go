package modeldesc

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/fmi"
)

// FMIVersion is the version of the standard the descriptions follow.
const FMIVersion = "2.0"

// ModelDescription is the content of a modelDescription.xml file.
type ModelDescription struct {
	XMLName                  xml.Name           `xml:"fmiModelDescription"`
	FMIVersion               string             `xml:"fmiVersion,attr"`
	ModelName                string             `xml:"modelName,attr"`
	GUID                     string             `xml:"guid,attr"`
	Description              string             `xml:"description,attr,omitempty"`
	Author                   string             `xml:"author,attr,omitempty"`
	GenerationTool           string             `xml:"generationTool,attr,omitempty"`
	GenerationDateAndTime    string             `xml:"generationDateAndTime,attr,omitempty"`
	VariableNamingConvention string             `xml:"variableNamingConvention,attr,omitempty"`
	NumberOfEventIndicators  int                `xml:"numberOfEventIndicators,attr"`
	CoSimulation             CoSimulation       `xml:"CoSimulation"`
	LogCategories            []LogCategory      `xml:"LogCategories>Category,omitempty"`
	DefaultExperiment        *DefaultExperiment `xml:"DefaultExperiment,omitempty"`
	ModelVariables           []ScalarVariable   `xml:"ModelVariables>ScalarVariable"`
	ModelStructure           ModelStructure     `xml:"ModelStructure"`
}

// CoSimulation lists the capabilities of the co-simulation slave.
type CoSimulation struct {
	ModelIdentifier                        string       `xml:"modelIdentifier,attr"`
	NeedsExecutionTool                     bool         `xml:"needsExecutionTool,attr"`
	CanHandleVariableCommunicationStepSize bool         `xml:"canHandleVariableCommunicationStepSize,attr"`
	CanBeInstantiatedOnlyOncePerProcess    bool         `xml:"canBeInstantiatedOnlyOncePerProcess,attr"`
	CanNotUseMemoryManagementFunctions     bool         `xml:"canNotUseMemoryManagementFunctions,attr"`
	CanGetAndSetFMUstate                   bool         `xml:"canGetAndSetFMUstate,attr"`
	CanSerializeFMUstate                   bool         `xml:"canSerializeFMUstate,attr"`
	ProvidesDirectionalDerivative          bool         `xml:"providesDirectionalDerivative,attr"`
	SourceFiles                            []SourceFile `xml:"SourceFiles>File,omitempty"`
}

// SourceFile names one source file shipped in the FMU.
type SourceFile struct {
	Name string `xml:"name,attr"`
}

// LogCategory is a log category that the slave may report.
type LogCategory struct {
	Name        string `xml:"name,attr"`
	Description string `xml:"description,attr,omitempty"`
}

// DefaultExperiment holds the suggested experiment setup.
type DefaultExperiment struct {
	StartTime float64 `xml:"startTime,attr"`
	StopTime  float64 `xml:"stopTime,attr,omitempty"`
	StepSize  float64 `xml:"stepSize,attr,omitempty"`
}

// ScalarVariable is one variable of the model. Exactly one of the type
// elements is set.
type ScalarVariable struct {
	Name           string         `xml:"name,attr"`
	ValueReference uint32         `xml:"valueReference,attr"`
	Description    string         `xml:"description,attr,omitempty"`
	Causality      string         `xml:"causality,attr,omitempty"`
	Variability    string         `xml:"variability,attr,omitempty"`
	Initial        string         `xml:"initial,attr,omitempty"`
	Real           *TypeAttribute `xml:"Real"`
	Integer        *TypeAttribute `xml:"Integer"`
	Boolean        *TypeAttribute `xml:"Boolean"`
	String         *TypeAttribute `xml:"String"`
}

// TypeAttribute is the type element of a scalar variable.
type TypeAttribute struct {
	Start string `xml:"start,attr,omitempty"`
}

// ModelStructure lists the outputs and their dependencies.
type ModelStructure struct {
	Outputs         []Unknown `xml:"Outputs>Unknown,omitempty"`
	InitialUnknowns []Unknown `xml:"InitialUnknowns>Unknown,omitempty"`
}

// Unknown refers to a scalar variable by its 1-based position in
// ModelVariables.
type Unknown struct {
	Index int `xml:"index,attr"`
}

// Type returns the type of the variable and its type element.
func (v ScalarVariable) Type() (Type, *TypeAttribute, error) {
	var (
		found []Type
		attr  *TypeAttribute
	)

	for _, c := range []struct {
		t Type
		a *TypeAttribute
	}{
		{TypeReal, v.Real},
		{TypeInteger, v.Integer},
		{TypeBoolean, v.Boolean},
		{TypeString, v.String},
	} {
		if c.a != nil {
			found = append(found, c.t)
			attr = c.a
		}
	}

	switch len(found) {
	case 0:
		return "", nil, fmt.Errorf("missing type for: %s", v.Name)
	case 1:
		return found[0], attr, nil
	default:
		return "", nil, fmt.Errorf("more than one type for: %s", v.Name)
	}
}

// GeneratorInfo holds what is needed to generate a description besides the
// signals.
type GeneratorInfo struct {
	ModelName       string
	ModelIdentifier string
	Description     string
	Author          string
	GUID            string
	GenerationTime  time.Time
	SourceFiles     []string

	StartTime, StopTime, StepSize float64
}

// GenerationTool is written into generated descriptions.
const GenerationTool = "fmuadapter"

// Generate builds the model description of the signals in the table.
func Generate(info GeneratorInfo, table *SignalTable) *ModelDescription {
	guid := info.GUID
	if guid == "" {
		guid = "{" + uuid.NewString() + "}"
	}

	generatedAt := info.GenerationTime
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	identifier := info.ModelIdentifier
	if identifier == "" {
		identifier = info.ModelName
	}

	md := &ModelDescription{
		FMIVersion:               FMIVersion,
		ModelName:                info.ModelName,
		GUID:                     guid,
		Description:              info.Description,
		Author:                   info.Author,
		GenerationTool:           GenerationTool,
		GenerationDateAndTime:    generatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		VariableNamingConvention: "flat",
		CoSimulation: CoSimulation{
			ModelIdentifier:                        identifier,
			CanHandleVariableCommunicationStepSize: true,
			CanNotUseMemoryManagementFunctions:     true,
		},
		LogCategories: []LogCategory{
			{Name: fmi.LogEvents},
			{Name: fmi.LogStatusError},
			{Name: fmi.LogStatusFatal},
			{Name: fmi.LogAll},
		},
	}

	for _, f := range info.SourceFiles {
		md.CoSimulation.SourceFiles = append(md.CoSimulation.SourceFiles,
			SourceFile{Name: f})
	}

	if info.StopTime > 0 || info.StepSize > 0 || info.StartTime != 0 {
		md.DefaultExperiment = &DefaultExperiment{
			StartTime: info.StartTime,
			StopTime:  info.StopTime,
			StepSize:  info.StepSize,
		}
	}

	for i, s := range table.Signals() {
		md.ModelVariables = append(md.ModelVariables, scalarVariableOf(s))

		if s.Causality == CausalityOutput {
			md.ModelStructure.Outputs = append(md.ModelStructure.Outputs,
				Unknown{Index: i + 1})
		}
	}

	return md
}

func scalarVariableOf(s Signal) ScalarVariable {
	v := ScalarVariable{
		Name:           s.Name,
		ValueReference: uint32(s.ValueReference),
		Description:    s.Description,
		Causality:      string(s.Causality),
		Variability:    string(s.Variability),
		Initial:        string(s.Initial),
	}

	attr := &TypeAttribute{}
	if s.Initial != InitialCalculated {
		attr.Start = s.Start
	}

	switch s.Type {
	case TypeReal:
		v.Real = attr
	case TypeInteger:
		v.Integer = attr
	case TypeBoolean:
		v.Boolean = attr
	case TypeString:
		v.String = attr
	}

	return v
}

// Write encodes the description as an indented XML document.
func (md *ModelDescription) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")

	if err := enc.Encode(md); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")

	return err
}

// Parse decodes a model description and checks that every variable has a
// type.
func Parse(r io.Reader) (*ModelDescription, error) {
	md := &ModelDescription{}

	if err := xml.NewDecoder(r).Decode(md); err != nil {
		return nil, fmt.Errorf("decoding model description: %w", err)
	}

	for _, v := range md.ModelVariables {
		if _, _, err := v.Type(); err != nil {
			return nil, err
		}
	}

	return md, nil
}

// TableFromDescription rebuilds the signal table of a description. Buffer
// slots are assigned per type in the order of the variables.
func TableFromDescription(
	md *ModelDescription,
	capacity buffer.Capacity,
) (*SignalTable, error) {
	signals := make([]Signal, 0, len(md.ModelVariables))
	next := make(map[buffer.Kind]int)

	for _, v := range md.ModelVariables {
		s, err := signalOf(v)
		if err != nil {
			return nil, err
		}

		kind, err := s.Type.BufferKind()
		if err != nil {
			return nil, fmt.Errorf("signal %q: %w", s.Name, err)
		}

		s.Index = next[kind]
		next[kind]++

		signals = append(signals, s)
	}

	return NewSignalTable(signals, capacity)
}

func signalOf(v ScalarVariable) (Signal, error) {
	t, attr, err := v.Type()
	if err != nil {
		return Signal{}, err
	}

	s := Signal{
		Name:           v.Name,
		Description:    v.Description,
		Type:           t,
		ValueReference: fmi.ValueReference(v.ValueReference),
		Start:          attr.Start,
		Causality:      CausalityLocal,
	}

	if v.Causality != "" {
		if s.Causality, err = ParseCausality(v.Causality); err != nil {
			return Signal{}, fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	if v.Variability != "" {
		if s.Variability, err = ParseVariability(v.Variability); err != nil {
			return Signal{}, fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	if v.Initial != "" {
		if s.Initial, err = ParseInitial(v.Initial); err != nil {
			return Signal{}, fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	return s, nil
}
