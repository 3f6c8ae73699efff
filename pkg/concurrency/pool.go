// Package concurrency 提供有界 worker pool，用于限制同时运行的 CPU 密集型模拟
package concurrency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// ErrPoolFull 等待队列已满
var ErrPoolFull = errors.New("worker pool is full")

// PoolConfig worker pool 配置
type PoolConfig struct {
	Name        string
	MaxWorkers  int
	MaxCapacity int
	IdleTimeout time.Duration
}

// Pool 基于 alitto/pond 的 worker pool
type Pool struct {
	pool   *pond.WorkerPool
	config PoolConfig
}

// NewPool 创建 worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MaxCapacity <= 0 {
		cfg.MaxCapacity = 64
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	p := pond.New(
		cfg.MaxWorkers,
		cfg.MaxCapacity,
		pond.MinWorkers(1),
		pond.IdleTimeout(cfg.IdleTimeout),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(v interface{}) {
			logger.Error(context.Background(), "Worker pool panic recovered", "pool", cfg.Name, "panic", v)
		}),
	)
	return &Pool{pool: p, config: cfg}
}

// Run 提交任务并等待其完成
// 队列已满时立即返回 ErrPoolFull；ctx 取消时不再等待，任务自身通过 ctx 感知取消。
func (p *Pool) Run(ctx context.Context, task func(context.Context) error) error {
	done := make(chan error, 1)
	submitted := p.pool.TrySubmit(func() {
		defer func() {
			if v := recover(); v != nil {
				done <- fmt.Errorf("task panicked: %v", v)
			}
		}()
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- task(ctx)
	})
	if !submitted {
		return fmt.Errorf("%w: %s (capacity %d)", ErrPoolFull, p.config.Name, p.config.MaxCapacity)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 等待已提交任务完成后关闭
func (p *Pool) Stop() {
	p.pool.StopAndWait()
}

// Stats 运行统计
func (p *Pool) Stats() map[string]any {
	return map[string]any{
		"running_workers":  p.pool.RunningWorkers(),
		"idle_workers":     p.pool.IdleWorkers(),
		"waiting_tasks":    p.pool.WaitingTasks(),
		"successful_tasks": p.pool.SuccessfulTasks(),
		"failed_tasks":     p.pool.FailedTasks(),
	}
}
