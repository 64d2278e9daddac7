// Package server runs the HTTP listener alongside the gRPC health endpoint,
// the queue worker and the scheduler, and shuts them down together.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/internal/app"
	"github.com/cherrydine/cherrydine/internal/kernel"
	"github.com/cherrydine/cherrydine/pkg/database"
	"github.com/cherrydine/cherrydine/pkg/grpc"
	"github.com/cherrydine/cherrydine/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

type Options struct {
	// Worker consumes notification jobs in-process.
	Worker bool
	// Scheduler runs the maintenance tasks in-process.
	Scheduler bool
}

// Run serves until ctx is cancelled or a listener fails.
func Run(ctx context.Context, a *app.Application, opts Options) error {
	k, err := kernel.NewHTTPKernel(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	var rpc *grpc.Server
	if port := config.GRPCPort(); port != "" {
		lis, err := net.Listen("tcp", ":"+port)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("grpc: listen: %w", err)
		}
		rpc = grpc.New(func(ctx context.Context) error { return database.Ping(ctx, a.DB) }, 0)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rpc.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	if opts.Worker {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Queue.Work(ctx)
		}()
	}

	if opts.Scheduler {
		s, err := a.Scheduler()
		if err != nil {
			cancel()
			_ = srv.Close()
			return err
		}
		s.Start()
		defer func() {
			if err := s.Shutdown(); err != nil {
				logger.Warn("schedule: shutdown", "error", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("server: shutting down")
	case runErr = <-errc:
		logger.Error("server: listener failed", "error", runErr)
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http: shutdown", "error", err)
	}
	if rpc != nil {
		rpc.Stop()
	}
	wg.Wait()
	return runErr
}
