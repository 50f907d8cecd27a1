package main

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"susu-app-go/internal/app"
	"susu-app-go/internal/config"
	"susu-app-go/internal/transport/httpserver"
	"susu-app-go/pkg/logger"
)

func serveCmd(log logger.Logger) *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the payout scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(log)
			if err != nil {
				return err
			}
			if noScheduler {
				cfg.Scheduler.Enabled = false
			}
			return serve(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve HTTP only, without the payout scheduler")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, log logger.Logger) error {
	log.Info("app: starting")
	application, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	if cfg.Scheduler.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			application.Scheduler().Start(schedulerCtx)
		}()
	} else {
		log.Warn("app: payout scheduler disabled")
	}

	srv := application.HTTPServer()
	log.Info("http: listening", "addr", srv.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("app: shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout(cfg))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http: graceful shutdown failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	stopScheduler()
	wg.Wait()

	if err := application.Close(shutdownCtx); err != nil {
		log.Error("app: close failed", "err", err)
		runErr = errors.Join(runErr, err)
	}

	if runErr == nil {
		log.Info("app: stopped")
	}
	return runErr
}
