// Package worker polls the store for pending reconciliations and drives
// them through the pipeline.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/tally-dev/tally/internal/engine"
	"github.com/tally-dev/tally/internal/filestore"
	"github.com/tally-dev/tally/internal/runlog"
)

// Queue lists reconciliations awaiting a run.
type Queue interface {
	PendingIDs(ctx context.Context) ([]uint, error)
}

// Pipeline executes one reconciliation run.
type Pipeline interface {
	Process(ctx context.Context, id uint) (*engine.Outcome, error)
}

// Pool is a fixed set of polling workers sharing one queue and one locker.
type Pool struct {
	queue    Queue
	runner   Pipeline
	locker   *Locker
	workers  int
	interval time.Duration
	logRoot  string
}

// NewPool creates a Pool. logRoot is where the run log is appended; empty
// disables it.
func NewPool(queue Queue, runner Pipeline, workers int, interval time.Duration, logRoot string) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:    queue,
		runner:   runner,
		locker:   NewLocker(),
		workers:  workers,
		interval: interval,
		logRoot:  logRoot,
	}
}

// Run starts the workers and blocks until ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	done := make(chan struct{})
	for i := 1; i <= p.workers; i++ {
		go func(workerID int) {
			defer func() { done <- struct{}{} }()
			log.Infof("[worker %d] started", workerID)
			ticker := time.NewTicker(p.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					log.Infof("[worker %d] stopping", workerID)
					return
				case <-ticker.C:
					p.tick(ctx, workerID)
				}
			}
		}(i)
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
}

// tick claims and processes every pending reconciliation it can. Transient
// retrieval failures are left pending for the next tick; format failures
// have already been turned into the failed state by the pipeline.
func (p *Pool) tick(ctx context.Context, workerID int) {
	ids, err := p.queue.PendingIDs(ctx)
	if err != nil {
		log.Errorf("[worker %d] listing pending: %v", workerID, err)
		return
	}

	for _, id := range ids {
		if !p.locker.TryAcquire(id) {
			continue
		}
		p.processOne(ctx, workerID, id)
		p.locker.Release(id)
	}
}

func (p *Pool) processOne(ctx context.Context, workerID int, id uint) {
	outcome, err := p.runner.Process(ctx, id)
	if err != nil {
		var retrieval *filestore.RetrievalError
		if errors.As(err, &retrieval) {
			log.Warnf("[worker %d] reconciliation %d: %v (will retry)", workerID, id, err)
		} else {
			log.Errorf("[worker %d] reconciliation %d: %v", workerID, id, err)
		}
		return
	}
	if outcome == nil {
		return
	}

	log.Infof("[worker %d] reconciliation %d finished: %s", workerID, id, outcome.Status)
	p.appendRunLog(id, outcome)
}

func (p *Pool) appendRunLog(id uint, outcome *engine.Outcome) {
	if p.logRoot == "" {
		return
	}
	entry := runlog.Entry{
		Timestamp:        time.Now().UTC(),
		ReconciliationID: id,
		Status:           string(outcome.Status),
		Matched:          outcome.Counts.Matched,
		BankOnly:         outcome.Counts.BankOnly,
		ProcessorOnly:    outcome.Counts.ProcessorOnly,
		Discrepancies:    outcome.Counts.Discrepancies,
		Message:          outcome.ErrorMessage,
	}
	if err := runlog.Append(p.logRoot, []runlog.Entry{entry}); err != nil {
		log.Errorf("appending run log: %v", err)
	}
}
