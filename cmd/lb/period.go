package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/linebid/linebid/internal/holiday"
	"github.com/linebid/linebid/internal/models"
	"github.com/linebid/linebid/internal/period"
	"github.com/spf13/cobra"
)

func newPeriodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Bid period management commands",
	}

	cmd.AddCommand(newPeriodListCmd())
	cmd.AddCommand(newPeriodCreateCmd())
	cmd.AddCommand(newPeriodActivateCmd())
	return cmd
}

func newPeriodListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all bid periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var periods []models.BidPeriod
			if err := gormDB.Order("start_date DESC").Find(&periods).Error; err != nil {
				return fmt.Errorf("period: list: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTART\tCYCLES\tACTIVE")
			for _, p := range periods {
				active := ""
				if p.IsActive {
					active = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					p.ID, p.Name, p.StartDate.Format("2006-01-02"), p.NumCycles, active)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	return cmd
}

func newPeriodCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		start      string
		numCycles  int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new bid period",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := time.Parse("2006-01-02", start)
			if err != nil {
				return fmt.Errorf("period: --start must be YYYY-MM-DD: %w", err)
			}
			if numCycles < 1 {
				return fmt.Errorf("period: --cycles must be at least 1")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			p := models.BidPeriod{Name: name, StartDate: startDate, NumCycles: numCycles}
			if err := gormDB.Create(&p).Error; err != nil {
				return fmt.Errorf("period: create: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created period %d (%s), starting %s, %d cycles\n",
				p.ID, p.Name, start, numCycles)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "period name")
	cmd.Flags().StringVarP(&start, "start", "s", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&numCycles, "cycles", 1, "number of schedule cycles in the period")
	cmd.MarkFlagRequired("start")
	return cmd
}

func newPeriodActivateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "activate <period-id>",
		Short: "Activate a bid period and recompute its metrics",
		Long:  "Deactivates the current period, activates the named one, and rebuilds the metrics cache for every line with a linked schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("period: bad period id %q", args[0])
			}

			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			cache := holiday.NewCachedResolver(&holiday.StoreResolver{DB: gormDB})
			count, err := period.Activate(gormDB, uint(id), cache, period.Opts{
				Resolver:   cache,
				Weights:    cfg.Weights,
				Categories: cfg.ShiftCategories,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Activated period %d, recomputed %d lines\n", id, count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	return cmd
}
