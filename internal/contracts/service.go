package contracts

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/shared/storage/object"
	"contract-backend/internal/shared/telemetry"
)

// DefaultMaxUploadBytes caps uploads when Service.MaxUploadBytes is unset.
const DefaultMaxUploadBytes int64 = 50 << 20

const discardTimeout = 10 * time.Second

// Scheduler queues pipeline runs. It is satisfied by pipeline.Scheduler.
type Scheduler interface {
	Schedule(ctx context.Context, id, storageKey string) error
	RunState(id string) string
}

// Service contains business logic for contracts.
type Service struct {
	Repo           Repo
	Store          object.ObjectStore
	Scheduler      Scheduler
	MaxUploadBytes int64
}

// StatusView is a contract's persisted status plus its live run state.
type StatusView struct {
	Contract Contract
	RunState string
}

// Upload validates and stores a PDF, records it as pending and schedules its
// first run. If scheduling fails the pending record is returned together with
// an error wrapping ErrSchedulerUnavailable.
func (s *Service) Upload(ctx context.Context, fileName string, size int64, r io.Reader) (Contract, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Contract{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return Contract{}, fmt.Errorf("%w: only PDF files are accepted", ErrInvalidInput)
	}
	if size > s.maxUploadBytes() {
		return Contract{}, fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, size, s.maxUploadBytes())
	}

	id := uuid.NewString()
	obj, err := s.Store.Save(ctx, id, fileName, r)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	now := time.Now().UTC()
	c := Contract{
		ID:         id,
		FileName:   fileName,
		StorageKey: obj.Key,
		MimeType:   obj.MimeType,
		SizeBytes:  obj.Size,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		s.discard(ctx, id, obj.Key)
		return Contract{}, fmt.Errorf("create contract: %w", err)
	}
	telemetry.Info("contract.uploaded", map[string]any{
		"contract_id": id,
		"file_name":   fileName,
		"size_bytes":  obj.Size,
	})

	if err := s.Scheduler.Schedule(ctx, id, c.StorageKey); err != nil {
		telemetry.Warn("contract.schedule_failed", map[string]any{
			"contract_id": id,
			"error":       err.Error(),
		})
		return c, err
	}
	return c, nil
}

// Get returns a contract by id. Malformed ids are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Contract{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Status returns the persisted status and the live run state of a contract.
func (s *Service) Status(ctx context.Context, id string) (StatusView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{Contract: c, RunState: s.Scheduler.RunState(id)}, nil
}

// List returns one page of contracts.
func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.MinScore != nil && f.MaxScore != nil && *f.MinScore > *f.MaxScore {
		return Page{}, fmt.Errorf("%w: min_score is greater than max_score", ErrInvalidInput)
	}
	return s.Repo.List(ctx, f.Normalize())
}

// Reprocess schedules a fresh run of a stored contract. The persisted status
// is left alone until the run starts; a run already queued or running for the
// same id fails with ErrAlreadyScheduled.
func (s *Service) Reprocess(ctx context.Context, id string) (StatusView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	if err := s.Scheduler.Schedule(ctx, id, c.StorageKey); err != nil {
		return StatusView{}, err
	}
	telemetry.Info("contract.reprocess_scheduled", map[string]any{
		"contract_id": id,
		"status":      c.Status,
	})
	return StatusView{Contract: c, RunState: s.Scheduler.RunState(id)}, nil
}

// OpenFile returns the contract and a reader over its stored file. The caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, id string) (Contract, io.ReadCloser, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Contract{}, nil, err
	}
	body, err := s.Store.Open(ctx, c.StorageKey)
	if err != nil {
		return Contract{}, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return c, body, nil
}

// discard removes a stored file whose record could not be created. Failures
// are logged with the key so the object can be cleaned up by hand.
func (s *Service) discard(ctx context.Context, id, key string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.Store.Delete(dctx, key); err != nil {
		telemetry.Error("contract.orphaned_object", map[string]any{
			"contract_id": id,
			"storage_key": key,
			"error":       err.Error(),
		})
		return
	}
	telemetry.Warn("contract.object_discarded", map[string]any{
		"contract_id": id,
		"storage_key": key,
	})
}

func (s *Service) maxUploadBytes() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}
