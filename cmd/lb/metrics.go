package main

import (
	"fmt"

	"github.com/linebid/linebid/internal/holiday"
	"github.com/linebid/linebid/internal/period"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Metrics cache commands",
	}

	cmd.AddCommand(newMetricsRecomputeCmd())
	return cmd
}

func newMetricsRecomputeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the metrics cache for the active period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			active, err := period.Active(gormDB)
			if err != nil {
				return err
			}

			resolver := holiday.NewCachedResolver(&holiday.StoreResolver{DB: gormDB})
			count, err := period.RecomputeAll(gormDB, *active, period.Opts{
				Resolver:   resolver,
				Weights:    cfg.Weights,
				Categories: cfg.ShiftCategories,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed metrics for %d lines in period %d (%s)\n",
				count, active.ID, active.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	return cmd
}
