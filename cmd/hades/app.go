package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hadesai/hades/internal/agent"
	"github.com/hadesai/hades/internal/audit"
	"github.com/hadesai/hades/internal/config"
	"github.com/hadesai/hades/internal/inference"
	"github.com/hadesai/hades/internal/logging"
	"github.com/hadesai/hades/internal/memory"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
	"github.com/hadesai/hades/internal/topics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// app holds the wired components shared by the commands
type app struct {
	config   *config.Config
	logger   *zap.Logger
	registry *topic.Registry
	graph    *topic.Graph
	chain    *inference.Chain
	backend  memory.Backend
	turnLog  *audit.SQLiteTurnLog
	sessions *agent.Sessions
	metrics  *http.Server
}

// loadConfig reads the config named by the persistent flags
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newRegistry builds the configured topic registry and its graph
func newRegistry(cfg *config.Config, logger *zap.Logger) (*topic.Registry, *topic.Graph) {
	analyzer := nlp.NewAnalyzer(nil)
	registry, errs := topics.NewRegistry(cfg.Topics, analyzer.Stem, logger)
	for _, err := range errs {
		logger.Warn("topic skipped", zap.Error(err))
	}
	return registry, topic.NewGraph(registry)
}

// newApp wires everything a conversation needs. withAudit opens the turn log.
func newApp(ctx context.Context, withAudit bool) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{config: cfg, logger: logger}
	a.registry, a.graph = newRegistry(cfg, logger)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inference.NewMetrics(promReg)

	providers, errs := inference.NewProviders(ctx, cfg.AI, logger)
	for _, err := range errs {
		logger.Warn("provider disabled", zap.Error(err))
	}
	if len(providers) > 0 {
		a.chain = inference.NewChain(cfg.AI, providers, metrics, logger)
	}

	if cfg.Memory.Persistence {
		a.backend, err = memory.NewBackend(cfg.Memory)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open memory backend: %w", err)
		}
	}

	var recorder agent.TurnRecorder
	if withAudit && cfg.Audit.Enabled {
		a.turnLog, err = audit.NewSQLiteTurnLog(cfg.Audit.Path)
		if err != nil {
			logger.Warn("audit log disabled", zap.Error(err))
		} else {
			recorder = a.turnLog
		}
	}

	a.sessions = agent.NewSessions(a.registry, agent.Options{
		Config:   cfg.Agent,
		Chain:    a.chain,
		Graph:    a.graph,
		Recorder: recorder,
		Metrics:  metrics,
		Logger:   logger,
	}, a.backend, cfg.Memory)

	if cfg.MetricsAddr != "" {
		a.serveMetrics(promReg)
	}
	return a, nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{Addr: a.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", a.config.MetricsAddr))
}

// Close releases sessions first, then the stores they write to
func (a *app) Close() error {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.CloseAll())
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, a.metrics.Shutdown(ctx))
		cancel()
	}
	if a.turnLog != nil {
		errs = append(errs, a.turnLog.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	a.logger.Sync()
	return errors.Join(errs...)
}
