package search

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roach88/quarry/internal/searchconfig"
	"github.com/roach88/quarry/internal/searcherr"
)

// Request modes and outcomes reported to the Recorder.
const (
	ModePage   = "page"
	ModeAround = "around"

	OutcomeOK         = "ok"
	OutcomeSearch     = "search_error"
	OutcomeValidation = "validation_error"
	OutcomeFailure    = "error"
)

// ConnSource hands out request-scoped connections.
type ConnSource interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// Recorder observes finished requests.
type Recorder interface {
	ObserveSearch(entity, mode, outcome string, elapsed time.Duration)
}

// Service is the request boundary: it looks up the entity configuration,
// holds one connection for the whole request and reports the outcome.
type Service struct {
	conns    ConnSource
	registry *searchconfig.Registry
	exec     *Executor
	recorder Recorder
	logger   zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder reports every request to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(conns ConnSource, registry *searchconfig.Registry, exec *Executor, opts ...ServiceOption) *Service {
	s := &Service{
		conns:    conns,
		registry: registry,
		exec:     exec,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs a paginated search over entity.
func (s *Service) Search(ctx context.Context, entity string, req Request) (page *Page, err error) {
	reqLog, done := s.begin(entity, ModePage, req)
	defer func() { done(err) }()

	cfg, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}

	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	page, err = s.exec.Execute(ctx, conn, cfg, req)
	if err != nil {
		return nil, err
	}
	reqLog.Debug().Int64("total", page.Total).Int("results", len(page.Results)).Msg("search finished")
	return page, nil
}

// Around finds the neighbors of id within entity.
func (s *Service) Around(ctx context.Context, entity string, req Request, id int64) (around *Around, err error) {
	_, done := s.begin(entity, ModeAround, req)
	defer func() { done(err) }()

	cfg, err := s.lookup(entity)
	if err != nil {
		return nil, err
	}

	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return s.exec.Around(ctx, conn, cfg, req, id)
}

func (s *Service) lookup(entity string) (*searchconfig.Config, error) {
	cfg, ok := s.registry.Lookup(entity)
	if !ok {
		return nil, searcherr.Searchf("unknown entity: %q", entity)
	}
	return cfg, nil
}

// begin tags the request with an id and returns the function that logs and
// records its outcome.
func (s *Service) begin(entity, mode string, req Request) (*zerolog.Logger, func(error)) {
	requestID, err := uuid.NewV7()
	if err != nil {
		requestID = uuid.New()
	}
	reqLog := s.logger.With().
		Str("request_id", requestID.String()).
		Str("entity", entity).
		Str("mode", mode).
		Str("query", req.Text).
		Logger()
	start := time.Now()

	return &reqLog, func(err error) {
		elapsed := time.Since(start)
		outcome := Outcome(err)
		switch outcome {
		case OutcomeOK:
			reqLog.Debug().Dur("duration", elapsed).Int("page", req.Page).Msg("request served")
		case OutcomeFailure:
			reqLog.Error().Err(err).Dur("duration", elapsed).Msg("request failed")
		default:
			reqLog.Warn().Err(err).Dur("duration", elapsed).Msg("request rejected")
		}
		if s.recorder != nil {
			s.recorder.ObserveSearch(entity, mode, outcome, elapsed)
		}
	}
}

// Outcome classifies a request error for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case searcherr.IsSearch(err):
		return OutcomeSearch
	case searcherr.IsValidation(err):
		return OutcomeValidation
	default:
		return OutcomeFailure
	}
}
