package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/specialistvlad/flowgraph/internal/flowgraph"
	"github.com/specialistvlad/flowgraph/internal/metrics"
)

// App encapsulates the application's dependencies and configuration.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *blockdef.Registry
	metrics  *metrics.Engine
	gatherer *prometheus.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, block registry and
// metrics registry. Logs go to logW.
func NewApp(logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg, err := blockdef.Builtin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin blocks: %w", err)
	}
	if cfg.BlocksPath != "" {
		if err := reg.LoadDir(ctx, cfg.BlocksPath); err != nil {
			return nil, fmt.Errorf("failed to load blocks from %s: %w", cfg.BlocksPath, err)
		}
	}
	logger.Debug("Block registry ready.", "blocks", reg.Len())

	promReg := prometheus.NewRegistry()
	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  metrics.NewEngine(promReg),
		gatherer: promReg,
	}, nil
}

// Context returns a context carrying the application's logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the application's block registry.
func (a *App) Registry() *blockdef.Registry {
	return a.registry
}

// Gatherer exposes the application's metrics.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.gatherer
}

// NewFlowGraph returns an empty flowgraph with its own evaluation engine,
// wired to the application's logger and metrics.
func (a *App) NewFlowGraph() (*flowgraph.FlowGraph, error) {
	engine := eval.NewEngine(eval.WithLogger(a.logger), eval.WithMetrics(a.metrics))
	return flowgraph.New(a.registry, flowgraph.WithEngine(engine), flowgraph.WithLogger(a.logger))
}
