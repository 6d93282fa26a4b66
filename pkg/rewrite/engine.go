package rewrite

import (
	"time"

	"github.com/dd0wney/cluso-rewrite/pkg/config"
	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/metrics"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
	"github.com/google/uuid"
)

// Engine performs rewriting operations against a store. Every
// operation runs as one storage transaction: reads see pre-operation
// state, writes land all-or-nothing, and a failure leaves the store
// untouched.
type Engine struct {
	store   *storage.Store
	cfg     config.Config
	log     logging.Logger
	metrics *metrics.Registry
}

// NewEngine creates a rewriting engine. logger and reg may be nil;
// metrics collection also honors cfg.MetricsEnabled.
func NewEngine(store *storage.Store, cfg config.Config, logger logging.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if !cfg.MetricsEnabled {
		reg = nil
	}
	return &Engine{
		store:   store,
		cfg:     cfg,
		log:     logger,
		metrics: reg,
	}
}

// NewDefaultEngine creates an engine with the default configuration, a
// no-op logger and no metrics. Used by tests and embedders that wire
// observability themselves.
func NewDefaultEngine(store *storage.Store) *Engine {
	return NewEngine(store, config.Default(), logging.NewNopLogger(), nil)
}

// Store exposes the underlying store for read access.
func (e *Engine) Store() *storage.Store {
	return e.store
}

// opLogger returns a logger carrying the operation id, so every line
// of one rewrite can be correlated.
func (e *Engine) opLogger(op string) (logging.Logger, string) {
	id := uuid.NewString()
	return e.log.With(
		logging.String("operation", op),
		logging.String("operation_id", id),
	), id
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordRewrite(op, status, time.Since(start))
}
