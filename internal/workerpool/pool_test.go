package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdown(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(WithWorkers(2), WithQueueSize(16))

	var running, maxSeen atomic.Int32
	var done sync.WaitGroup
	for i := 0; i < 8; i++ {
		done.Add(1)
		id := string(rune('a' + i))
		err := p.Submit(context.Background(), Job{ID: id, Run: func(ctx context.Context) error {
			defer done.Done()
			n := running.Add(1)
			for {
				seen := maxSeen.Load()
				if n <= seen || maxSeen.CompareAndSwap(seen, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		}})
		require.NoError(t, err)
	}
	done.Wait()
	shutdown(t, p)

	assert.LessOrEqual(t, maxSeen.Load(), int32(2))
	assert.Equal(t, 0, p.Pending())
}

func TestPoolRejectsDuplicateWhileRunning(t *testing.T) {
	p := New(WithWorkers(1))
	defer shutdown(t, p)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), Job{ID: "c-1", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	assert.Equal(t, StateRunning, p.State("c-1"))
	err := p.Submit(context.Background(), Job{ID: "c-1", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrAlreadyScheduled)

	close(release)
	assert.Eventually(t, func() bool { return p.State("c-1") == StateIdle }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Submit(context.Background(), Job{ID: "c-1", Run: func(context.Context) error { return nil }}))
}

func TestPoolSubmitAfterShutdown(t *testing.T) {
	p := New()
	shutdown(t, p)

	err := p.Submit(context.Background(), Job{ID: "c-1", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPoolSubmitBlocksWhenFull(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(1))
	release := make(chan struct{})
	started := make(chan struct{})
	defer func() {
		close(release)
		shutdown(t, p)
	}()

	block := func(ctx context.Context) error { <-release; return nil }
	require.NoError(t, p.Submit(context.Background(), Job{ID: "running", Run: func(ctx context.Context) error {
		close(started)
		return block(ctx)
	}}))
	<-started
	require.NoError(t, p.Submit(context.Background(), Job{ID: "queued", Run: block}))
	assert.Equal(t, StateQueued, p.State("queued"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, Job{ID: "overflow", Run: block})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, p.State("overflow"))
}

func TestPoolAppliesRunTimeout(t *testing.T) {
	p := New(WithWorkers(1), WithRunTimeout(20*time.Millisecond))
	defer shutdown(t, p)

	got := make(chan error, 1)
	require.NoError(t, p.Submit(context.Background(), Job{ID: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}}))

	select {
	case err := <-got:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not canceled by run timeout")
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	p := New(WithWorkers(1))
	defer shutdown(t, p)

	require.NoError(t, p.Submit(context.Background(), Job{ID: "boom", Run: func(context.Context) error {
		panic("boom")
	}}))

	ran := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), Job{ID: "after", Run: func(context.Context) error {
		close(ran)
		return nil
	}}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive panic")
	}
	assert.Eventually(t, func() bool { return p.State("boom") == StateIdle }, time.Second, 5*time.Millisecond)
}

func TestPoolShutdownDrainsQueue(t *testing.T) {
	p := New(WithWorkers(1), WithQueueSize(8))

	var count atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Submit(context.Background(), Job{ID: id, Run: func(context.Context) error {
			count.Add(1)
			return nil
		}}))
	}
	shutdown(t, p)
	assert.Equal(t, int32(3), count.Load())
}

func TestPoolRequiresJobFields(t *testing.T) {
	p := New()
	defer shutdown(t, p)
	assert.Error(t, p.Submit(context.Background(), Job{ID: "x"}))
	assert.Error(t, p.Submit(context.Background(), Job{Run: func(context.Context) error { return nil }}))
}
