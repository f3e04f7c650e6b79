// Package server wires the auth service together: configuration, logging,
// tracing, metrics, the user directory, and the gRPC and HTTP endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config    *config.Config
	version   string
	logger    logging.Logger
	directory *repomanager.Directory
	users     *services.UserService
	guard     *services.Guard
	registry  *prometheus.Registry
	shutdown  telemetry.ShutdownFunc
}

// NewApp validates c and builds every component. Any failure here is fatal:
// a missing key, an unknown algorithm or an unreachable database all abort
// startup. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, version string, w io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewSlogLogger(logging.Setup(common.ServiceName, version, c.LogFormat, c.LogLevel, w))

	hasher, err := hashing.New(c.HashOptions())
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.SigningAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	tp, shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		Endpoint:    c.OTLPEndpoint,
		ServiceName: common.ServiceName,
		Version:     version,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	dir, err := repomanager.OpenDirectory(ctx, c.DatabaseDSN)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithTracer(telemetry.Tracer(tp)),
		services.WithMetrics(m),
	}

	authn, err := services.NewAuthenticator(dir.Repository, hasher, opts...)
	if err != nil {
		_ = dir.Close()
		_ = shutdown(ctx)
		return nil, fmt.Errorf("authenticator init error: %w", err)
	}
	guard := services.NewGuard(codec, dir.Repository, opts...)
	users := services.NewUserService(dir.Repository, hasher, authn, guard, codec, c.AccessTokenValidityDuration, opts...)

	if c.SeedDemoUser {
		if err := users.Seed(ctx, services.DemoUsers); err != nil {
			_ = dir.Close()
			_ = shutdown(ctx)
			return nil, fmt.Errorf("seed error: %w", err)
		}
	}

	logger.Info(ctx, "App initialized",
		"dialect", dir.Dialect.String(),
		"hash", c.HashAlgorithm,
		"alg", codec.Algorithm())

	return &App{
		config:    c,
		version:   version,
		logger:    logger,
		directory: dir,
		users:     users,
		guard:     guard,
		registry:  registry,
		shutdown:  shutdown,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.users, app.guard)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.version, app.logger, app.users, app.registry)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Run serves gRPC and HTTP until ctx is cancelled, a signal arrives or either
// server fails, then flushes traces and closes the directory. The first
// server failure is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		runErr   error
	)
	serve := func(start func(context.Context) error) {
		defer wg.Done()
		if err := start(ctx); err != nil {
			failOnce.Do(func() { runErr = err })
			cancelFunc()
		}
	}

	wg.Add(2)
	go serve(app.startGRPCServer)
	go serve(app.startHTTPServer)

	wg.Wait()

	app.logger.Info(ctx, "Shutting down...")

	shutdownCtx := context.WithoutCancel(ctx)
	if err := app.shutdown(shutdownCtx); err != nil {
		app.logger.Warn(shutdownCtx, "trace provider shutdown failed", "error", err)
	}
	return errors.Join(runErr, app.directory.Close())
}
