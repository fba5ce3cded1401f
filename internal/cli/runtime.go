package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog/log"

	"github.com/roach88/quarry/internal/metrics"
	"github.com/roach88/quarry/internal/query"
	"github.com/roach88/quarry/internal/search"
	"github.com/roach88/quarry/internal/searchconfig"
	"github.com/roach88/quarry/internal/store"
	"github.com/roach88/quarry/internal/timerange"
)

// runtime is everything a search command needs, built from the loaded
// configuration.
type runtime struct {
	store    *store.Store
	entities *searchconfig.Registry
	service  *search.Service
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func openRuntime(opts *RootOptions) (*runtime, error) {
	cfg := opts.Config

	entities, err := searchconfig.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building entity configurations: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	parser, err := query.NewParser(cfg.Search.CacheSize, m)
	if err != nil {
		return nil, err
	}

	s, err := store.OpenWithOptions(cfg.Database.Path, store.Options{
		MaxOpenConns: cfg.Database.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Debug().Str("path", cfg.Database.Path).Msg("Database opened")

	exec := &search.Executor{
		Parser:      parser,
		Dates:       timerange.NewResolver(timerange.SystemClock{}),
		MaxPageSize: cfg.Search.MaxPageSize,
	}

	return &runtime{
		store:    s,
		entities: entities,
		service:  search.NewService(s, entities, exec, search.WithRecorder(m)),
		metrics:  m,
		registry: registry,
	}, nil
}

// Close releases the database. With dump set, the metrics gathered during
// the command are written to w first.
func (r *runtime) Close(dump bool, w io.Writer) error {
	r.metrics.UpdateDBStats(r.store.DB().Stats())
	if dump {
		if err := writeMetrics(w, r.registry); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics")
		}
	}
	return r.store.Close()
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
