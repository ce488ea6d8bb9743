package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/flexbid/app"
	"github.com/kilianp07/flexbid/core/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the weekly bids once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			res, err := svc.RunOnce(ctx)
			if res.RunID != "" {
				printResult(cmd.OutOrStdout(), res)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func printResult(w io.Writer, res model.WeekResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\n", res.RunID)
	fmt.Fprintln(tw, "WEEKDAY\tSTATUS\tINCOME\tDURATION")
	for _, d := range res.Days {
		switch {
		case d.OK() && d.Solution != nil:
			fmt.Fprintf(tw, "%s\tok\t%.2f\t%s\n", d.Weekday, d.Solution.Income, d.Duration)
		default:
			fmt.Fprintf(tw, "%s\tfailed\t-\t%v\n", d.Weekday, d.Err)
		}
	}
	fmt.Fprintf(tw, "total\t\t%.2f\t\n", res.TotalIncome())
	_ = tw.Flush()
}
