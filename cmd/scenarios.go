package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/flexbid/app"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Build and export the consumption scenarios without optimizing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			sets, err := svc.Scenarios(ctx)
			for _, s := range sets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d scenarios, inertia %.3f, %d bound anomalies\n",
					s.Weekday, len(s.Scenarios), s.Inertia, len(s.Anomalies))
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
