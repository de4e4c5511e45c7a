package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/engine"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/runlog"
	"github.com/tally-dev/tally/internal/worker"
)

type fakeQueue struct {
	mu  sync.Mutex
	ids []uint
}

func (q *fakeQueue) PendingIDs(ctx context.Context) ([]uint, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uint(nil), q.ids...), nil
}

func (q *fakeQueue) contains(id uint) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range q.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (q *fakeQueue) remove(id uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.ids[:0]
	for _, v := range q.ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	q.ids = kept
}

type fakePipeline struct {
	mu        sync.Mutex
	queue     *fakeQueue
	processed []uint
	outcome   *engine.Outcome
	err       error
	done      chan struct{}
}

func (p *fakePipeline) Process(ctx context.Context, id uint) (*engine.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	// Mirror the real pipeline's pending guard: a stale id is a no-op.
	if !p.queue.contains(id) {
		return nil, nil
	}
	p.processed = append(p.processed, id)
	p.queue.remove(id)
	if len(p.queue.ids) == 0 {
		select {
		case p.done <- struct{}{}:
		default:
		}
	}
	return p.outcome, nil
}

func TestPool_ProcessesAllPending(t *testing.T) {
	queue := &fakeQueue{ids: []uint{1, 2, 3}}
	pipe := &fakePipeline{
		queue:   queue,
		outcome: &engine.Outcome{Status: model.StatusCompleted, Counts: model.Counts{Matched: 2}},
		done:    make(chan struct{}, 1),
	}
	logRoot := t.TempDir()

	pool := worker.NewPool(queue, pipe, 3, 5*time.Millisecond, logRoot)
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(finished)
	}()

	select {
	case <-pipe.done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool never drained the queue")
	}
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop on cancel")
	}

	pipe.mu.Lock()
	defer pipe.mu.Unlock()
	seen := make(map[uint]int)
	for _, id := range pipe.processed {
		seen[id]++
	}
	require.Len(t, seen, 3)
	for id, n := range seen {
		assert.Equal(t, 1, n, "reconciliation %d processed %d times", id, n)
	}

	entries, err := runlog.Read(logRoot)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, string(model.StatusCompleted), entries[0].Status)
	assert.Equal(t, 2, entries[0].Matched)
}

func TestPool_ErroredRunsStayQueued(t *testing.T) {
	queue := &fakeQueue{ids: []uint{1}}
	pipe := &fakePipeline{
		queue: queue,
		err:   errors.New("connection refused"),
		done:  make(chan struct{}, 1),
	}
	logRoot := t.TempDir()

	pool := worker.NewPool(queue, pipe, 1, 5*time.Millisecond, logRoot)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pool.Run(ctx)

	// The id is still pending and nothing was logged.
	ids, err := queue.PendingIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)

	entries, err := runlog.Read(logRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
