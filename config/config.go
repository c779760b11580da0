// Package config describes a co-simulation run in YAML and builds it.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/datarecording"
	"gopkg.in/yaml.v3"
)

//go:embed watertank.yaml
var waterTankYAML []byte

// Config is a whole co-simulation run.
type Config struct {
	Experiment  Experiment   `yaml:"experiment"`
	Instances   []Instance   `yaml:"instances"`
	Connections []Connection `yaml:"connections"`
	Monitor     Monitor      `yaml:"monitor"`
	Recording   Recording    `yaml:"recording"`
}

// Experiment holds the time settings that the master uses.
type Experiment struct {
	Start    float64 `yaml:"start"`
	Stop     float64 `yaml:"stop"`
	StepSize float64 `yaml:"step"`
	RealTime bool    `yaml:"real_time"`
}

// An Instance is one adapter.
type Instance struct {
	Name string `yaml:"name"`

	// Model selects a registered model kind.
	Model string `yaml:"model"`

	// Capacity overrides the default buffer capacity.
	Capacity *buffer.Capacity `yaml:"capacity"`

	// ModelDescription is a modelDescription.xml file to take the signals
	// from. It cannot be combined with Signals.
	ModelDescription string `yaml:"model_description"`

	// Signals replaces the signals of the model kind.
	Signals []Signal `yaml:"signals"`

	// Threads replaces the threads of the model kind.
	Threads []Thread `yaml:"threads"`

	// Start overrides start values by signal name.
	Start map[string]string `yaml:"start"`

	// Options are passed to the model factory.
	Options map[string]float64 `yaml:"options"`
}

// Signal is a scalar variable. Value references and buffer slots are
// assigned in the order of the list.
type Signal struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Causality   string `yaml:"causality"`
	Variability string `yaml:"variability"`
	Initial     string `yaml:"initial"`
	Start       string `yaml:"start"`
	Description string `yaml:"description"`
}

// Thread is a periodic thread.
type Thread struct {
	Period float64 `yaml:"period"`
	Object string  `yaml:"object"`
	Call   string  `yaml:"call"`
}

// Connection links an output to an input, both written as "instance.signal".
type Connection struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Monitor configures the HTTP monitor.
type Monitor struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Recording configures where steps are recorded.
type Recording struct {
	Enabled     bool `yaml:"enabled"`
	SkipFirings bool `yaml:"skip_firings"`

	datarecording.RecorderConfig `yaml:",inline"`
}

// Parse reads a configuration. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return c, nil
}

// LoadFile reads a configuration file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Default returns the water tank configuration.
func Default() *Config {
	c, err := Parse(bytes.NewReader(waterTankYAML))
	if err != nil {
		panic(err)
	}

	return c
}

// Marshal writes the configuration as YAML.
func (c *Config) Marshal(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return err
	}

	return enc.Close()
}
