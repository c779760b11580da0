package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/sarchlab/fmuadapter/adapter"
	"github.com/sarchlab/fmuadapter/config"
	"github.com/sarchlab/fmuadapter/datarecording"
	"github.com/sarchlab/fmuadapter/fmi"
	"github.com/sarchlab/fmuadapter/sim"
	"github.com/sarchlab/fmuadapter/simulation"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a co-simulation.",
	Long: "`run` builds the instances of the configuration, connects them, " +
		"and steps them with a fixed step size until the stop time.",
}

func runE(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	applyRunFlags(cmd, c)

	standalone, _ := cmd.Flags().GetString("standalone")

	return run(cmd.Context(), c, standalone)
}

func init() {
	runCmd.RunE = runE
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("monitor", false, "Start the monitoring server.")
	runCmd.Flags().Int("port", 0, "Port of the monitoring server.")
	runCmd.Flags().Bool("open-browser", false,
		"Open the monitor in a browser.")
	runCmd.Flags().Bool("hold", false,
		"Keep the monitor running after the simulation ends.")
	runCmd.Flags().Bool("no-record", false, "Do not record the steps.")
	runCmd.Flags().StringP("output", "o", "",
		"Name of the recording database, without the extension.")
	runCmd.Flags().Float64("stop", 0, "Stop time, overriding the config.")
	runCmd.Flags().String("standalone", "",
		"Run one instance on its own main loop instead of the master.")
	runCmd.Flags().Bool("log-events", false,
		"Print every event that the instances handle.")
}

func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("monitor") {
		c.Monitor.Enabled, _ = flags.GetBool("monitor")
	}

	if flags.Changed("port") {
		c.Monitor.Port, _ = flags.GetInt("port")
	}

	if flags.Changed("open-browser") {
		c.Monitor.OpenBrowser, _ = flags.GetBool("open-browser")
		c.Monitor.Enabled = c.Monitor.Enabled || c.Monitor.OpenBrowser
	}

	if noRecord, _ := flags.GetBool("no-record"); noRecord {
		c.Recording.Enabled = false
	}

	if flags.Changed("output") {
		c.Recording.Path, _ = flags.GetString("output")
	}

	if flags.Changed("stop") {
		c.Experiment.Stop, _ = flags.GetFloat64("stop")
	}
}

// run drives the configured instances through the master. With a standalone
// instance, only that instance runs, on its own main loop.
func run(ctx context.Context, c *config.Config, standalone string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	setup, err := c.Build(fmi.NewLogCallbacks(log.Default()))
	if err != nil {
		return err
	}

	adapters := setup.Adapters
	if standalone != "" {
		a, err := standaloneAdapter(setup, standalone)
		if err != nil {
			return err
		}

		adapters = []*adapter.Adapter{a}
	}

	s, err := buildSimulation(c)
	if err != nil {
		return err
	}
	defer s.Terminate()

	logEvents, _ := runCmd.Flags().GetBool("log-events")
	for _, a := range adapters {
		s.RegisterAdapter(a)

		if logEvents {
			a.Engine().AcceptHook(
				sim.NewEventLogger(log.New(os.Stderr, a.Name()+" ", 0)))
		}
	}

	if c.Monitor.OpenBrowser {
		if err := browser.OpenURL(s.MonitorURL()); err != nil {
			log.Printf("cannot open the browser: %v", err)
		}
	}

	var runErr error
	if standalone != "" {
		runErr = runMain(ctx, adapters[0])
	} else {
		s.TrackMaster("co-simulation", setup.Master)
		runErr = setup.Master.Run(ctx)
	}

	s.Report(os.Stdout)

	if hold, _ := runCmd.Flags().GetBool("hold"); hold &&
		s.GetMonitor() != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr,
			"Simulation finished, monitor at %s. Press Ctrl+C to exit.\n",
			s.MonitorURL())
		<-ctx.Done()
	}

	return runErr
}

func standaloneAdapter(
	setup *config.Setup,
	name string,
) (*adapter.Adapter, error) {
	for _, a := range setup.Adapters {
		if a.Name() == name {
			return a, nil
		}
	}

	return nil, fmt.Errorf("no instance named %q", name)
}

// runMain initializes the adapter, runs its main loop until the stop time or
// cancellation, and terminates it.
func runMain(ctx context.Context, a *adapter.Adapter) (err error) {
	if err := a.SystemInit(); err != nil {
		return err
	}

	defer func() {
		termErr := a.Terminate()
		if err == nil {
			err = termErr
		}
	}()

	return a.SystemMain(ctx)
}

func buildSimulation(c *config.Config) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder()

	if c.Monitor.Enabled {
		if c.Monitor.Port > 0 {
			b = b.WithMonitorPort(c.Monitor.Port)
		}
	} else {
		b = b.WithoutMonitoring()
	}

	if !c.Recording.Enabled {
		return b.WithoutRecording().Build(), nil
	}

	recorder, err := datarecording.NewWithConfig(c.Recording.RecorderConfig)
	if err != nil {
		return nil, err
	}

	b = b.WithDataRecorder(recorder)
	if c.Recording.SkipFirings {
		b = b.WithoutFiringTrace()
	}

	return b.Build(), nil
}
