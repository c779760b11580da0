package cmd

import (
	"io"
	"os"

	"github.com/sarchlab/fmuadapter/config"
	"github.com/sarchlab/fmuadapter/modeldesc"
	"github.com/spf13/cobra"
)

var modelDescCmd = &cobra.Command{
	Use:   "modeldesc [instance]",
	Short: "Write the model description of an instance.",
	Long: "`modeldesc` writes the modelDescription.xml of an instance of the " +
		"configuration, with the experiment as the default experiment.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		author, _ := cmd.Flags().GetString("author")

		w := io.Writer(os.Stdout)
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			w = f
		}

		return writeModelDescription(w, c, args[0], author)
	},
}

func init() {
	rootCmd.AddCommand(modelDescCmd)
	modelDescCmd.Flags().StringP("output", "o", "",
		"Output file. The description is printed if empty.")
	modelDescCmd.Flags().String("author", "", "Author of the model.")
}

func writeModelDescription(
	w io.Writer,
	c *config.Config,
	instance, author string,
) error {
	a, err := findAdapter(c, instance)
	if err != nil {
		return err
	}

	md := modeldesc.Generate(modeldesc.GeneratorInfo{
		ModelName:       a.Name(),
		ModelIdentifier: a.Name(),
		Author:          author,
		StartTime:       c.Experiment.Start,
		StopTime:        c.Experiment.Stop,
		StepSize:        c.Experiment.StepSize,
	}, a.Table())

	return md.Write(w)
}
