package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/flexbid/infra/logger"
	"github.com/kilianp07/flexbid/infra/market"
)

var (
	priceStart string
	priceEnd   string
	priceOut   string
)

var pricesCmd = &cobra.Command{
	Use:       "prices up|down",
	Short:     "Download historical reserve prices into a price table",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{market.SideUp, market.SideDown},
	RunE:      runPrices,
}

func init() {
	pricesCmd.Flags().StringVar(&priceStart, "start", "", "first delivery day (YYYY-MM-DD)")
	pricesCmd.Flags().StringVar(&priceEnd, "end", "", "day after the last delivery day (YYYY-MM-DD)")
	pricesCmd.Flags().StringVar(&priceOut, "to", "", "output file (defaults to the configured price path)")
	_ = pricesCmd.MarkFlagRequired("start")
	_ = pricesCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.Log.Options()); err != nil {
		return err
	}
	side := args[0]
	start, err := time.Parse(time.DateOnly, priceStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse(time.DateOnly, priceEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	out := priceOut
	if out == "" {
		out = cfg.Input.UpPricePath
		if side == market.SideDown {
			out = cfg.Input.DownPricePath
		}
	}
	if out == "" {
		return fmt.Errorf("no output file: set --to or the %s price path", side)
	}

	src, err := market.NewSource(cfg.Market, side, market.WithLogger(logger.New("market")))
	if err != nil {
		return err
	}
	rows, err := market.Download(ctx, src, start, end, cfg.Market.Chunk())
	if err != nil {
		return err
	}
	if err := market.WriteTable(out, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d hourly %s prices to %s\n", len(rows), side, out)
	return nil
}
