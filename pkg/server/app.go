package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockResearch/internal/service/finnhub"
	"StockResearch/internal/usecase"
	"StockResearch/pkg/cache"
	"StockResearch/pkg/config"
	xhttp "StockResearch/pkg/http"
	applogger "StockResearch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	stream     *finnhub.Stream
	warmer     *usecase.Warmer
	audit      usecase.AuditSink
	backend    cache.Backend
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Stream and warmer
// may be nil when disabled by config.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	stream *finnhub.Stream,
	warmer *usecase.Warmer,
	audit usecase.AuditSink,
	backend cache.Backend,
) *App {
	return &App{
		cfg:     cfg,
		logger:  logger,
		handler: handler,
		stream:  stream,
		warmer:  warmer,
		audit:   audit,
		backend: backend,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.stream != nil {
		go a.stream.Run(ctx)
		a.logger.Info("quote stream started",
			applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	if a.warmer != nil {
		go a.warmer.Run(ctx)
		a.logger.Info("cache warmer started",
			applogger.Duration("interval", a.cfg.Warmer.Interval))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.logger.Warn("stream close error", applogger.Error(err))
		}
	}

	// Flush the audit trail before dropping the backend.
	if closer, ok := a.audit.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("audit close error", applogger.Error(err))
		}
	}

	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("cache backend close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
