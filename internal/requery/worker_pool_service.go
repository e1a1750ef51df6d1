package requery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/movaapp/mova-backend/internal/config"
	"github.com/movaapp/mova-backend/internal/domain/shared"
)

type requeryOutcome struct {
	state shared.DeliveryState
	err   error
}

// WorkerPoolService fans delivery requeries out over a bounded worker pool.
// Each purchase gets its own deadline so one stalled provider call cannot
// hold a worker past the configured timeout.
type WorkerPoolService struct {
	base           DeliveryRequerier
	pool           *ants.Pool
	logger         *slog.Logger
	requeryTimeout time.Duration
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan requeryOutcome
}

func NewWorkerPoolService(
	base DeliveryRequerier,
	cfg *config.WorkerConfig,
	logger *slog.Logger,
) (*WorkerPoolService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolService{
		base:           base,
		pool:           pool,
		logger:         logger,
		requeryTimeout: cfg.RequeryTimeout,
		results:        make(map[string]chan requeryOutcome),
	}, nil
}

// Requery submits one purchase to the worker pool and waits for its result.
func (s *WorkerPoolService) Requery(ctx context.Context, purchaseID uuid.UUID) (shared.DeliveryState, error) {
	s.logger.Debug("Submitting purchase to requery worker pool", "purchase_id", purchaseID.String())

	// Create a channel to receive the result of the requery
	resultChan := make(chan requeryOutcome, 1)

	id := purchaseID.String()
	s.mu.Lock()
	s.results[id] = resultChan
	s.mu.Unlock()

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		reqCtx, cancel := context.WithTimeout(ctx, s.requeryTimeout)
		defer cancel()

		state, err := s.base.Requery(reqCtx, purchaseID)

		// Send the result to the channel
		resultChan <- requeryOutcome{state: state, err: err}

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, id)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, id)
		close(resultChan)
		s.mu.Unlock()

		s.logger.Error("Failed to submit purchase to requery worker pool",
			"purchase_id", purchaseID.String(),
			"error", err,
		)
		return "", err
	}

	// Wait for the result from the worker
	outcome := <-resultChan
	return outcome.state, outcome.err
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolService) Shutdown() {
	s.logger.Info("Shutting down requery worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolService) Capacity() int {
	return s.pool.Cap()
}
