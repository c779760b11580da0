package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/fmuadapter/datarecording"
	"github.com/sarchlab/fmuadapter/tracing"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [database]",
	Short: "Print the steps recorded in a database.",
	Long: "`inspect` reads the steps that a run recorded into an SQLite " +
		"file. With --firings, the thread firings are printed instead.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instance, _ := cmd.Flags().GetString("instance")
		limit, _ := cmd.Flags().GetInt("limit")
		firings, _ := cmd.Flags().GetBool("firings")

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		return inspect(cmd.Context(), os.Stdout, reader,
			instance, limit, firings)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("instance", "", "Only show one instance.")
	inspectCmd.Flags().Int("limit", 20, "Maximum number of rows, 0 for all.")
	inspectCmd.Flags().Bool("firings", false, "Show the thread firings.")
}

func inspect(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	instance string,
	limit int,
	firings bool,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	table, sample := tracing.StepTableName, any(tracing.StepEntry{})
	if firings {
		table, sample = tracing.FiringTableName, tracing.FiringEntry{}
	}

	reader.MapTable(table, sample)

	params := datarecording.QueryParams{
		OrderBy: "Time, Instance",
		Limit:   limit,
	}
	if instance != "" {
		params.Where = "Instance = ?"
		params.Args = []any{instance}
	}

	rows, total, err := reader.Query(ctx, table, params)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if firings {
		fmt.Fprintln(tw, "INSTANCE\tTHREAD\tCOUNT\tTIME\tERROR")
		for _, r := range rows {
			e := r.(*tracing.FiringEntry)
			fmt.Fprintf(tw, "%s\t%s.%s\t%d\t%.6f\t%s\n",
				e.Instance, e.Object, e.Call, e.Count, e.Time, e.Error)
		}
	} else {
		fmt.Fprintln(tw, "INSTANCE\tTIME\tSTEP\tREALS\tINTEGERS\tBOOLEANS")
		for _, r := range rows {
			e := r.(*tracing.StepEntry)
			fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%s\t%s\t%s\n",
				e.Instance, e.Time, e.StepSize,
				e.Reals, e.Integers, e.Booleans)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d of %d rows\n", len(rows), total)

	return nil
}
