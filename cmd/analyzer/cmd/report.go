package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stock-analyzer-go/config"
	"stock-analyzer-go/gateway"
	"stock-analyzer-go/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a report once and print it",
	}
	cmd.AddCommand(newWeeklyReportCmd(), newDailyReportCmd())
	return cmd
}

func newWeeklyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Rank instruments by 52-week range and suggest buy/watch/avoid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, fetcher, err := reportSetup()
			if err != nil {
				return err
			}
			entries, failed := report.BuildWeekly(cmd.Context(), fetcher, cfg.Instruments)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tWEEK LOW\tWEEK HIGH\tRANGE %\tSUGGESTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
					e.Symbol, e.WeekLow, e.WeekHigh, e.RangePct, e.Suggestion)
			}
			w.Flush()

			if top := report.TopPerformers(entries, 3); len(top) > 0 {
				fmt.Printf("\ntop performers: %v\n", top)
			}
			reportFailures(failed)
			return nil
		},
	}
}

func newDailyReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show today's open, last price and net move per instrument",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, fetcher, err := reportSetup()
			if err != nil {
				return err
			}
			entries, failed := report.BuildDaily(cmd.Context(), fetcher, cfg.Instruments)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tOPEN\tLAST\tNET")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.2f\n", e.Symbol, e.Open, e.Last, e.Net)
			}
			w.Flush()

			reportFailures(failed)
			return nil
		},
	}
}

func reportSetup() (config.AppConfig, gateway.Fetcher, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return cfg, nil, err
	}
	limiter := gateway.NewTokenBucketLimiter(cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	return cfg, gateway.NewNSEClient(cfg.DataSource.BaseURL, limiter), nil
}

func reportFailures(failed []string) {
	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "no quote for: %v\n", failed)
	}
}
