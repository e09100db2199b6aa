package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"etlapi/internal/api"
	"etlapi/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

// NewHTTPHandler builds the HTTP API on top of the app's service.
func (a *App) NewHTTPHandler() (http.Handler, error) {
	h, err := api.NewHandler(a.ETL, a.logger, a.version)
	if err != nil {
		return nil, err
	}
	return api.NewRouter(h, api.RouterConfig{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		Logger: a.logger,
	}), nil
}

// Serve runs the HTTP API on addr until ctx is cancelled, then drains
// in-flight requests and pipeline runs.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.ListenAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an already-bound listener.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	handler, err := a.NewHTTPHandler()
	if err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.cfg.RunTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP API listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.ETL.Stop()
		err := srv.Shutdown(shutdownCtx)
		a.ETL.WaitRunning(shutdownCtx)
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
