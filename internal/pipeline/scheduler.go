package pipeline

import (
	"context"
	"errors"
	"fmt"

	"contract-backend/internal/contracts"
	"contract-backend/internal/workerpool"
)

// Scheduler submits contract runs to a bounded worker pool.
type Scheduler struct {
	Pool   *workerpool.Pool
	Runner *Runner
}

// Schedule queues a run for id. It fails with contracts.ErrAlreadyScheduled
// when a run for id is queued or running.
func (s *Scheduler) Schedule(ctx context.Context, id, storageKey string) error {
	err := s.Pool.Submit(ctx, workerpool.Job{
		ID: id,
		Run: func(runCtx context.Context) error {
			return s.Runner.Run(runCtx, id, storageKey)
		},
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workerpool.ErrAlreadyScheduled):
		return contracts.ErrAlreadyScheduled
	default:
		return fmt.Errorf("%w: %v", contracts.ErrSchedulerUnavailable, err)
	}
}

// RunState reports "queued", "running" or "" for id.
func (s *Scheduler) RunState(id string) string {
	return string(s.Pool.State(id))
}
