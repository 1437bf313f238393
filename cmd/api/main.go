package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"silo-dispatch/internal/api"
	"silo-dispatch/internal/config"
	"silo-dispatch/internal/data"
	"silo-dispatch/internal/logger"
	"silo-dispatch/internal/metrics"
	"silo-dispatch/internal/service"
	"silo-dispatch/internal/store"
)

// newRootCmd builds the server command. --config defaults to $SILO_CONFIG.
func newRootCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the silo delivery planning HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath, logger.NewWithWriter("api", cmd.OutOrStdout()))
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&cfgPath, "config", os.Getenv("SILO_CONFIG"), "path to YAML or JSON config (optional)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string, log *logger.ZerologLogger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	log.Infof("loaded %d products from %s", len(catalog.Products), cfg.Catalog.Path)

	sink, err := metrics.NewPromSink()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := data.NewResultCache(time.Duration(cfg.Planner.CacheTTLMinutes) * time.Minute)
	go cache.Cleanup(ctx, time.Minute)

	opts := service.Options{
		Catalog:     catalog,
		Cache:       cache,
		Metrics:     sink,
		Log:         logger.New("planner"),
		Concurrency: cfg.Planner.Concurrency,
	}
	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, logger.New("store"))
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Store = st
		log.Infof("persisting schedules in %s", cfg.Store.Path)
	} else {
		log.Warnf("store.path not set, schedule endpoints are disabled")
	}

	zl := log.Zerolog()
	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.Handler(service.NewPlanner(opts), api.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Log:            &zl,
		}),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown: %v", err)
		}
	}()

	log.Infof("starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Infof("server stopped")
	return nil
}
