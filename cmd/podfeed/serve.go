package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podfeed/internal/aggregator"
	"podfeed/internal/logger"
	"podfeed/internal/server"
	"podfeed/internal/subscription"

	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the podcast feed API",
		Flags: append(commonFlags(), &cli.StringFlag{
			Name:    "addr",
			Usage:   "HTTP listen address",
			EnvVars: []string{"PODFEED_ADDR"},
		}),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)
			defer logger.Log.Info("Application stopped")

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			store, err := subscription.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			resolver := newResolver(cfg)
			srv := server.NewServer(
				resolver,
				aggregator.New(resolver, aggregator.WithConcurrency(cfg.Concurrency)),
				subscription.NewService(store, resolver),
				server.Options{Feeds: cfg.BuiltInFeeds(), RecommendSample: cfg.RecommendSample},
			)

			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Log.WithField("addr", cfg.Addr).Info("Starting HTTP server")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Log.Info("Shutting down...")
			ctxShutdown, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
			defer cancelShutdown()

			return httpServer.Shutdown(ctxShutdown)
		},
	}
}
