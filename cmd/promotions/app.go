package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cbm/promotion-engine/metrics"
	"github.com/cbm/promotion-engine/roster"
	"github.com/cbm/promotion-engine/statute"
	"github.com/cbm/promotion-engine/store/sqlite"
)

// app is the wired dependency graph shared by every command.
type app struct {
	store    *sqlite.Store
	service  *roster.Service
	registry *prometheus.Registry
}

func (a *app) Close() error {
	return a.store.Close()
}

// loadStatute reads the configured statute file or falls back to the
// compiled-in tables.
func loadStatute() (statute.Statute, error) {
	if cfg.Statute.Path == "" {
		return statute.Default(), nil
	}
	st, err := statute.Load(cfg.Statute.Path)
	if err != nil {
		return statute.Statute{}, fmt.Errorf("statute %s: %w", cfg.Statute.Path, err)
	}
	return st, nil
}

func newApp() (*app, error) {
	st, err := loadStatute()
	if err != nil {
		return nil, err
	}
	logger.Info("statute loaded",
		zap.String("version", st.Version),
		zap.Stringer("effective_from", st.EffectiveFrom))

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := roster.New(store, store, st,
		roster.WithLogger(logger),
		roster.WithMetrics(metrics.New(registry)),
		roster.WithClock(cfg.Clock()),
		roster.WithWorkers(cfg.Forecast.Workers),
	)
	return &app{store: store, service: svc, registry: registry}, nil
}
