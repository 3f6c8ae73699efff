package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func TestPool_RunReturnsTaskResult(t *testing.T) {
	p := NewPool(PoolConfig{Name: "test", MaxWorkers: 2, MaxCapacity: 4})
	t.Cleanup(p.Stop)

	var calls atomic.Int32
	err := p.Run(context.Background(), func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	boom := errors.New("boom")
	err = p.Run(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := NewPool(PoolConfig{Name: "test", MaxWorkers: 1, MaxCapacity: 1})
	t.Cleanup(p.Stop)

	err := p.Run(context.Background(), func(context.Context) error { panic("bad path") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad path")
}

func TestPool_RejectsWhenFull(t *testing.T) {
	p := NewPool(PoolConfig{Name: "test", MaxWorkers: 1, MaxCapacity: 1})
	release := make(chan struct{})
	t.Cleanup(func() {
		close(release)
		p.Stop()
	})

	started := make(chan struct{})
	go func() {
		_ = p.Run(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// 唯一的 worker 被占用，再填满等待队列
	queued := make(chan error, 1)
	go func() {
		queued <- p.Run(context.Background(), func(context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return p.pool.WaitingTasks() == 1 }, timeout, tick)

	err := p.Run(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolFull)
}

func TestPool_CancelledContext(t *testing.T) {
	p := NewPool(PoolConfig{Name: "test", MaxWorkers: 1, MaxCapacity: 1})
	t.Cleanup(p.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
