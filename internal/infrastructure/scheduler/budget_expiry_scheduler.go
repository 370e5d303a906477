// Package scheduler runs the periodic jobs of the worker.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/oficina/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a running scheduler
var ErrAlreadyRunning = errors.New("scheduler already running")

// BudgetExpirer expires budgets sent at least validity ago, at most batchSize per call
type BudgetExpirer interface {
	ExpireStaleBudgets(ctx context.Context, validity time.Duration, batchSize int) (int, error)
}

// BudgetExpiryScheduler periodically expires stale budgets.
// A sweep keeps pulling batches until one comes back short.
type BudgetExpiryScheduler struct {
	expirer BudgetExpirer
	config  config.BudgetConfig
	logger  *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewBudgetExpiryScheduler creates a new scheduler
func NewBudgetExpiryScheduler(expirer BudgetExpirer, cfg config.BudgetConfig, logger *zap.Logger) *BudgetExpiryScheduler {
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	return &BudgetExpiryScheduler{
		expirer: expirer,
		config:  cfg,
		logger:  logger.Named("budget-expiry"),
	}
}

// Start runs a sweep immediately and then every SweepInterval until Stop or ctx is done
func (s *BudgetExpiryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)

	s.logger.Info("Budget expiry scheduler started",
		zap.Duration("validity", s.config.Validity),
		zap.Duration("interval", s.config.SweepInterval),
	)
	return nil
}

// Stop stops the loop and waits for a running sweep to finish
func (s *BudgetExpiryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.logger.Info("Budget expiry scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *BudgetExpiryScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("budget expiry sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep and returns the number of budgets expired
func (s *BudgetExpiryScheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer("scheduler").Start(ctx, "BudgetExpiryScheduler.RunOnce")
	defer span.End()

	ctx, log := logger.WithCorrelationID(ctx, logger.WithTraceContext(ctx, s.logger), uuid.NewString())

	total := 0
	for {
		n, err := s.expirer.ExpireStaleBudgets(ctx, s.config.Validity, s.config.SweepBatch)
		total += n
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return total, err
		}
		if n < s.config.SweepBatch || ctx.Err() != nil {
			break
		}
	}

	span.SetAttributes(attribute.Int("budgets.expired", total))
	if total > 0 {
		log.Info("stale budgets expired", zap.Int("count", total))
	}
	return total, nil
}
