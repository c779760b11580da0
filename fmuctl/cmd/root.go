// Package cmd provides the command-line interface of fmuctl.
package cmd

import (
	"github.com/sarchlab/fmuadapter/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fmuctl",
	Short: "fmuctl runs and inspects co-simulations of FMI adapters.",
	Long: `fmuctl runs co-simulations described in YAML, generates the ` +
		`model descriptions of the instances, and reads recorded runs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file. The water tank example is used if empty.")
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"},
		"Files with FMU_* variables that override the configuration.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig reads the configuration named by the flags and applies the
// environment on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")

	c := config.Default()
	if path != "" {
		var err error

		c, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	lookup, err := config.Environment(envFiles...)
	if err != nil {
		return nil, err
	}

	if err := c.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	return c, c.Validate()
}
