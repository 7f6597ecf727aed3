package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-atlas/internal/adapter/render"
	"github.com/couchcryptid/climate-atlas/internal/pipeline"
)

func newCompareCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compare CITY...",
		Short: "Compare the seasonal climate and the risks of cities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid --output %q (allowed: text, json)", output)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			comparator := pipeline.NewComparator(a.sources, pipeline.CompareConfig{
				WeatherPeriod:    a.cfg.CompareWeatherPeriod,
				AirQualityPeriod: a.cfg.AirQualityPeriod,
			}, a.logger, a.metrics)

			result, err := comparator.Compare(ctx, args)
			if err != nil {
				return err
			}
			if output == "json" {
				return render.WriteTablesJSON(cmd.OutOrStdout(), result.Tables())
			}
			return render.WriteTables(cmd.OutOrStdout(), result.Tables())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}
