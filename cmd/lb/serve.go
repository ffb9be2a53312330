package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/linebid/linebid/internal/broadcast"
	"github.com/linebid/linebid/internal/holiday"
	"github.com/linebid/linebid/internal/period"
	"github.com/linebid/linebid/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Linebid API server",
		Long:  "Starts the HTTP API with live event streaming, chat notifications, and the scheduled metrics recompute job.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "linebid.yaml", "path to Linebid config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	hub := broadcast.NewHub()
	if cfg.Broadcast.SlackWebhookURL != "" {
		hub.AddSink(&broadcast.SlackSink{WebhookURL: cfg.Broadcast.SlackWebhookURL})
	}
	if cfg.Broadcast.DiscordToken != "" {
		sink, err := broadcast.NewDiscordSink(cfg.Broadcast.DiscordToken, cfg.Broadcast.DiscordChannelID)
		if err != nil {
			return err
		}
		hub.AddSink(sink)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.RecomputeCron != "" {
		scheduler := cron.New()
		resolver := holiday.NewCachedResolver(&holiday.StoreResolver{DB: gormDB})
		opts := period.Opts{
			Resolver:   resolver,
			Weights:    cfg.Weights,
			Categories: cfg.ShiftCategories,
		}
		_, err := scheduler.AddFunc(cfg.RecomputeCron, func() {
			active, err := period.Active(gormDB)
			if err != nil {
				log.Printf("serve: recompute skipped: %v", err)
				return
			}
			count, err := period.RecomputeAll(gormDB, *active, opts)
			if err != nil {
				log.Printf("serve: recompute: %v", err)
				return
			}
			log.Printf("serve: recomputed metrics for %d lines", count)
		})
		if err != nil {
			return fmt.Errorf("serve: bad recompute_cron %q: %w", cfg.RecomputeCron, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	return server.Start(ctx, server.StartOpts{
		DB:   gormDB,
		Cfg:  cfg,
		Hub:  hub,
		Port: port,
		Out:  cmd.OutOrStdout(),
	})
}
