// Package pipeline drives a reconciliation entity through its state
// machine: pending -> processing -> {completed | failed}. All entity
// mutation happens here; parsing and matching live in the pure engine.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tally-dev/tally/internal/engine"
	"github.com/tally-dev/tally/internal/filestore"
	"github.com/tally-dev/tally/internal/model"
)

//go:generate mockgen -destination=mocks/mock_pipeline.go -source=pipeline.go -package=mock_pipeline

// Store is the external entity store. Each write is all-or-nothing per
// transition.
type Store interface {
	Get(ctx context.Context, id uint) (*model.Reconciliation, error)
	// MarkProcessing transitions pending -> processing atomically with
	// respect to concurrent invocations. It returns false when the entity
	// was no longer pending.
	MarkProcessing(ctx context.Context, id uint) (bool, error)
	Complete(ctx context.Context, id uint, counts model.Counts, report []byte, processedAt time.Time) error
	Fail(ctx context.Context, id uint, message string, processedAt time.Time) error
}

// Files resolves stored file keys to attachment handles.
type Files interface {
	Blob(key string) filestore.Attachment
}

// Evaluator turns raw feed bytes into a terminal outcome.
type Evaluator interface {
	Evaluate(bankData, processorData []byte) engine.Outcome
}

// Runner executes reconciliation runs against the store.
type Runner struct {
	store  Store
	files  Files
	engine Evaluator
	now    func() time.Time
}

// NewRunner creates a Runner using the default engine.
func NewRunner(store Store, files Files) *Runner {
	return NewRunnerWith(store, files, engine.New(), time.Now)
}

// NewRunnerWith creates a Runner with explicit collaborators.
func NewRunnerWith(store Store, files Files, eval Evaluator, now func() time.Time) *Runner {
	return &Runner{store: store, files: files, engine: eval, now: now}
}

// Process runs one reconciliation. It returns a nil Outcome when the run
// was a no-op: the entity was not pending (duplicate job delivery), a feed
// file is unattached, or another invocation won the processing transition.
//
// Transient retrieval failures propagate as errors before any state
// mutation, so the caller's retry is safe and idempotent. Parser and report
// failures never propagate; they end the run in the failed state.
func (r *Runner) Process(ctx context.Context, id uint) (*engine.Outcome, error) {
	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading reconciliation %d: %w", id, err)
	}
	if rec.Status != model.StatusPending {
		return nil, nil
	}

	bank := r.files.Blob(rec.BankFileKey)
	processor := r.files.Blob(rec.ProcessorFileKey)
	if !bank.Attached() || !processor.Attached() {
		return nil, nil
	}

	// Fetch both files before touching the entity so a transient retrieval
	// failure leaves it in its pre-run state.
	bankData, err := bank.Download()
	if err != nil {
		return nil, err
	}
	processorData, err := processor.Download()
	if err != nil {
		return nil, err
	}

	claimed, err := r.store.MarkProcessing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claiming reconciliation %d: %w", id, err)
	}
	if !claimed {
		return nil, nil
	}

	outcome := r.engine.Evaluate(bankData, processorData)
	processedAt := r.now().UTC()

	switch outcome.Status {
	case model.StatusCompleted:
		err = r.store.Complete(ctx, id, outcome.Counts, outcome.Report, processedAt)
	case model.StatusFailed:
		err = r.store.Fail(ctx, id, outcome.ErrorMessage, processedAt)
	default:
		err = fmt.Errorf("engine returned non-terminal status %q", outcome.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("persisting outcome for reconciliation %d: %w", id, err)
	}

	return &outcome, nil
}
