// Package server exposes the bidding core over HTTP: claims, admin
// transitions, favorites, metrics, the activity feed, and an SSE event
// stream. Authentication lives in front of this server; the caller's
// identity arrives in the X-User-ID header.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linebid/linebid/internal/broadcast"
	"github.com/linebid/linebid/internal/claim"
	"github.com/linebid/linebid/internal/config"
	"github.com/linebid/linebid/internal/holiday"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB   *gorm.DB
	Cfg  *config.Config
	Hub  *broadcast.Hub
	Out  io.Writer
	Port int
}

// Start launches the API server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Cfg == nil {
		return fmt.Errorf("server: config is required")
	}
	if opts.Hub == nil {
		opts.Hub = broadcast.NewHub()
	}
	if opts.Port <= 0 {
		opts.Port = opts.Cfg.Server.Port
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	machine := claim.New(opts.DB, opts.Hub, opts.Cfg.Policy.CanClaimLines)
	resolver := holiday.NewCachedResolver(&holiday.StoreResolver{DB: opts.DB})
	registerRoutes(router, opts.DB, opts.Cfg, machine, resolver, opts.Hub)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Linebid API listening on http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
