package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/buffer"
	"github.com/sarchlab/fmuadapter/config"
	"github.com/sarchlab/fmuadapter/datarecording"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/sarchlab/fmuadapter/tracing"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var plotCmd = &cobra.Command{
	Use:   "plot [database]",
	Short: "Plot recorded signals of an instance.",
	Long: "`plot` reads the steps that a run recorded and draws the named " +
		"signals of one instance over time. The signal names are resolved " +
		"with the configuration that produced the run.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		instance, _ := cmd.Flags().GetString("instance")
		signals, _ := cmd.Flags().GetStringSlice("signal")
		out, _ := cmd.Flags().GetString("output")
		width, _ := cmd.Flags().GetFloat64("width")

		a, err := findAdapter(c, instance)
		if err != nil {
			return err
		}

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		p, err := plotSignals(cmd.Context(), reader, a.Table(),
			instance, signals)
		if err != nil {
			return err
		}

		size := vg.Length(width) * vg.Inch

		return p.Save(size, size*3/4, out)
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().String("instance", "", "Instance to plot.")
	plotCmd.Flags().StringSlice("signal", nil,
		"Signals to plot. All the outputs if empty.")
	plotCmd.Flags().StringP("output", "o", "signals.png",
		"Output image. The format follows the extension.")
	plotCmd.Flags().Float64("width", 6, "Width of the image in inches.")
	_ = plotCmd.MarkFlagRequired("instance")
}

func findAdapter(c *config.Config, instance string) (*adapter.Adapter, error) {
	setup, err := c.Build(fmi.NewLogCallbacks(log.New(io.Discard, "", 0)))
	if err != nil {
		return nil, err
	}

	for _, a := range setup.Adapters {
		if a.Name() == instance {
			return a, nil
		}
	}

	return nil, fmt.Errorf("no instance named %q", instance)
}

func plotSignals(
	ctx context.Context,
	reader datarecording.DataReader,
	table *modeldesc.SignalTable,
	instance string,
	names []string,
) (*plot.Plot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	signals, err := signalsToPlot(table, names)
	if err != nil {
		return nil, err
	}

	reader.MapTable(tracing.StepTableName, tracing.StepEntry{})
	rows, _, err := reader.Query(ctx, tracing.StepTableName,
		datarecording.QueryParams{
			Where:   "Instance = ?",
			Args:    []any{instance},
			OrderBy: "Time",
		})
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no steps recorded for %q", instance)
	}

	series, err := signalSeries(rows, signals)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = instance
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "value"

	lines := make([]any, 0, 2*len(signals))
	for i, s := range signals {
		lines = append(lines, s.Name, series[i])
	}

	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, err
	}

	return p, nil
}

func signalsToPlot(
	table *modeldesc.SignalTable,
	names []string,
) ([]modeldesc.Signal, error) {
	if len(names) == 0 {
		signals := table.WithCausality(modeldesc.CausalityOutput)
		if len(signals) == 0 {
			return nil, fmt.Errorf("no outputs to plot")
		}

		return signals, nil
	}

	signals := make([]modeldesc.Signal, 0, len(names))
	for _, n := range names {
		s, ok := table.ByName(n)
		if !ok {
			return nil, fmt.Errorf("no signal named %q", n)
		}

		signals = append(signals, s)
	}

	return signals, nil
}

// signalSeries turns the step rows into one line per signal. Each point is
// the value at the end of a step.
func signalSeries(
	rows []any,
	signals []modeldesc.Signal,
) ([]plotter.XYs, error) {
	series := make([]plotter.XYs, len(signals))
	for i := range series {
		series[i] = make(plotter.XYs, len(rows))
	}

	for r, row := range rows {
		e := row.(*tracing.StepEntry)

		values, err := decodeFrame(e)
		if err != nil {
			return nil, err
		}

		for i, s := range signals {
			y, err := valueOf(values, s)
			if err != nil {
				return nil, err
			}

			series[i][r].X = e.Time + e.StepSize
			series[i][r].Y = y
		}
	}

	return series, nil
}

func decodeFrame(e *tracing.StepEntry) (buffer.Frame, error) {
	var f buffer.Frame

	if err := json.Unmarshal([]byte(e.Booleans), &f.Booleans); err != nil {
		return f, err
	}

	if err := json.Unmarshal([]byte(e.Reals), &f.Reals); err != nil {
		return f, err
	}

	if err := json.Unmarshal([]byte(e.Integers), &f.Integers); err != nil {
		return f, err
	}

	return f, nil
}

func valueOf(f buffer.Frame, s modeldesc.Signal) (float64, error) {
	kind, err := s.Type.BufferKind()
	if err != nil {
		return 0, err
	}

	switch kind {
	case buffer.KindReal:
		v, err := f.Real(s.Index)
		return v, err
	case buffer.KindInteger:
		v, err := f.Integer(s.Index)
		return float64(v), err
	default:
		v, err := f.Boolean(s.Index)
		if v {
			return 1, err
		}

		return 0, err
	}
}
