package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// A Lookup returns the value of an environment variable.
type Lookup func(key string) (string, bool)

// Environment returns a Lookup that reads the process environment first and
// then the given .env files. Missing files are skipped.
func Environment(files ...string) (Lookup, error) {
	dotenv := make(map[string]string)

	for _, f := range files {
		values, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}

		for k, v := range values {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := dotenv[key]

		return v, ok
	}, nil
}

// ApplyEnv overrides the configuration with FMU_* variables.
//
//	FMU_START_TIME, FMU_STOP_TIME, FMU_STEP_SIZE, FMU_REAL_TIME
//	FMU_MONITOR, FMU_MONITOR_PORT, FMU_OPEN_BROWSER
//	FMU_RECORDING, FMU_RECORDER, FMU_RECORDING_PATH, FMU_CLICKHOUSE_DSN
func (c *Config) ApplyEnv(lookup Lookup) error {
	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{"FMU_START_TIME", floatSetter(&c.Experiment.Start)},
		{"FMU_STOP_TIME", floatSetter(&c.Experiment.Stop)},
		{"FMU_STEP_SIZE", floatSetter(&c.Experiment.StepSize)},
		{"FMU_REAL_TIME", boolSetter(&c.Experiment.RealTime)},
		{"FMU_MONITOR", boolSetter(&c.Monitor.Enabled)},
		{"FMU_MONITOR_PORT", intSetter(&c.Monitor.Port)},
		{"FMU_OPEN_BROWSER", boolSetter(&c.Monitor.OpenBrowser)},
		{"FMU_RECORDING", boolSetter(&c.Recording.Enabled)},
		{"FMU_RECORDER", stringSetter(&c.Recording.Type)},
		{"FMU_RECORDING_PATH", stringSetter(&c.Recording.Path)},
		{"FMU_CLICKHOUSE_DSN", stringSetter(&c.Recording.ConnStr)},
	}

	for _, o := range overrides {
		v, ok := lookup(o.key)
		if !ok || v == "" {
			continue
		}

		if err := o.apply(v); err != nil {
			return fmt.Errorf("%s: %w", o.key, err)
		}
	}

	return nil
}

func floatSetter(dst *float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}

		*dst = v

		return nil
	}
}

func intSetter(dst *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}

		*dst = v

		return nil
	}
}

func boolSetter(dst *bool) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}

		*dst = v

		return nil
	}
}

func stringSetter(dst *string) func(string) error {
	return func(s string) error {
		*dst = s
		return nil
	}
}
