package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/fmuadapter/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration.",
	Long: "`config` prints the configuration after the FMU_* variables are " +
		"applied. With --models, the available model kinds are listed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if models, _ := cmd.Flags().GetBool("models"); models {
			for _, k := range config.ModelKinds() {
				fmt.Println(k)
			}

			return nil
		}

		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return c.Marshal(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().Bool("models", false, "List the model kinds.")
}
