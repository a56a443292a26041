package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"StockPulse/internal/model"
	"StockPulse/internal/pipeline"
	"StockPulse/internal/render"
)

func newAnalyzeCmd(cfgPath *string) *cobra.Command {
	var interval, chartOut string
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Analyze one symbol and print the report",
		Long:  `Fetches the symbol's chart and quote, scores it and prints the advisory text. Numeric symbols are treated as TWSE listings.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if interval == "" {
				interval = a.cfg.Analysis.DefaultInterval
			}
			res, err := a.pipeline.Analyze(cmd.Context(), pipeline.Request{Symbol: args[0], Interval: interval, Trigger: model.TriggerManual})
			if err != nil {
				return fmt.Errorf("%s (%w)", model.UserMessage(err), err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Text)
			fmt.Fprintf(out, "\nUpdated: %s\n", res.UpdatedAt)

			if chartOut == "" {
				return nil
			}
			png, err := render.NewSession().Render(res.Series, res.Indicators)
			if err != nil {
				return fmt.Errorf("render chart: %w", err)
			}
			if err := os.WriteFile(chartOut, png, 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&interval, "interval", "i", "", "bar interval (1d, 5m, 15m, 30m, 60m); defaults to analysis.default_interval")
	cmd.Flags().StringVar(&chartOut, "chart", "", "also write a PNG chart to this path")
	return cmd
}
