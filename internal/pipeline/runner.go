package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contract-backend/internal/contracts"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/telemetry"
	"contract-backend/internal/shared/util"
)

const persistTimeout = 10 * time.Second

// Runner performs one persisted run: processing, then completed or failed.
// Each run writes only its own contract's record.
type Runner struct {
	Repo      contracts.Repo
	Processor *Processor
}

// Run executes the pipeline for id and persists the outcome. It returns the
// run's *Failure when the contract ended as failed, or a store error.
func (r *Runner) Run(ctx context.Context, id, storageKey string) (err error) {
	startedAt := time.Now().UTC()

	current, err := r.Repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("contract lookup id=%s: %w", id, err)
	}

	// TODO: stamp a lease here and sweep expired leases at startup so a crash
	// mid-run does not leave the contract in processing.
	processing := contracts.StatusProcessing
	cleared := ""
	zero := 0
	if err := r.Repo.UpdateFields(ctx, id, contracts.Update{
		Status:       &processing,
		ErrorMessage: &cleared,
		Score:        &zero,
	}); err != nil {
		telemetry.Error("contract.status_update_failed", map[string]any{
			"contract_id": id,
			"status":      processing,
			"error":       err.Error(),
		})
		return fmt.Errorf("set processing id=%s: %w", id, err)
	}
	metrics.IncRunStarted()
	telemetry.Info("contract.status", map[string]any{
		"contract_id":       id,
		"status":            processing,
		"status_transition": fmt.Sprintf("%s->%s", current.Status, processing),
	})

	defer func() {
		if rec := recover(); rec != nil {
			err = r.fail(ctx, id, Result{Failure: fail(KindProcessing, fmt.Errorf("panic: %v", rec))}, startedAt)
		}
	}()

	res := r.Processor.Process(ctx, storageKey)
	if res.Failure != nil {
		return r.fail(ctx, id, res, startedAt)
	}

	completed := contracts.StatusCompleted
	score := res.Score
	f := res.Fields
	raw := res.RawText
	pctx, cancel := persistContext(ctx)
	defer cancel()
	if err := r.Repo.UpdateFields(pctx, id, contracts.Update{
		Status:       &completed,
		Score:        &score,
		ErrorMessage: &cleared,
		RawText:      &raw,
		Fields:       &f,
	}); err != nil {
		res.Failure = fail(KindProcessing, fmt.Errorf("persist result: %w", err))
		return r.fail(ctx, id, res, startedAt)
	}

	finishedAt := time.Now().UTC()
	metrics.IncRunCompleted(score)
	metrics.ObserveRunDurationMs(durationMs(startedAt, finishedAt))
	telemetry.Info("contract.status", map[string]any{
		"contract_id":       id,
		"status":            completed,
		"status_transition": "processing->completed",
		"score":             score,
		"pages":             res.Pages,
		"failed_pages":      len(res.FailedPages),
		"duration_ms":       durationMs(startedAt, finishedAt),
	})
	return nil
}

// fail persists a failed run with score 0, the error message and whatever
// artifacts the run produced before failing.
func (r *Runner) fail(ctx context.Context, id string, res Result, startedAt time.Time) error {
	failed := contracts.StatusFailed
	zero := 0
	msg := util.SanitizeError(res.Failure)
	u := contracts.Update{
		Status:       &failed,
		Score:        &zero,
		ErrorMessage: &msg,
		RawText:      &res.RawText,
		Fields:       &res.Fields,
	}

	finishedAt := time.Now().UTC()
	pctx, cancel := persistContext(ctx)
	defer cancel()
	if err := r.Repo.UpdateFields(pctx, id, u); err != nil {
		telemetry.Error("contract.status_update_failed", map[string]any{
			"contract_id": id,
			"status":      failed,
			"error":       err.Error(),
			"cause":       msg,
		})
		return errors.Join(res.Failure, fmt.Errorf("set failed id=%s: %w", id, err))
	}

	metrics.IncRunFailed(string(res.Failure.Kind))
	metrics.ObserveRunDurationMs(durationMs(startedAt, finishedAt))
	telemetry.Info("contract.status", map[string]any{
		"contract_id":       id,
		"status":            failed,
		"status_transition": "processing->failed",
		"failure_kind":      res.Failure.Kind,
		"error":             msg,
		"duration_ms":       durationMs(startedAt, finishedAt),
	})
	return res.Failure
}

// persistContext keeps request values but outlives a canceled or timed out run,
// so the terminal status is still written.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func durationMs(start, end time.Time) float64 {
	return float64(end.Sub(start).Microseconds()) / 1000.0
}
