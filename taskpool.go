package chunkbatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
)

type taskPool struct {
	pool *ants.Pool
}

func newTaskPool(size int) *taskPool {
	pool, err := ants.NewPool(size)
	if err != nil {
		panic(fmt.Sprintf("create task pool of size:%v failed: %v", size, err))
	}
	return &taskPool{
		pool: pool,
	}
}

// Future result of a job started asynchronously
type Future interface {
	// Get blocks until the task ends
	Get() (interface{}, error)
}

type futureImpl struct {
	ch <-chan taskResult
}

type taskResult struct {
	val interface{}
	err error
}

func (f *futureImpl) Get() (interface{}, error) {
	r := <-f.ch
	return r.val, r.err
}

func (pool *taskPool) Submit(ctx context.Context, task func() (interface{}, error)) Future {
	result := make(chan taskResult, 1)
	err := pool.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "panic in pooled task, err:%v, stack:%v", r, string(debug.Stack()))
				result <- taskResult{err: errors.Errorf("panic:%v", r)}
			}
			close(result)
		}()
		val, err := task()
		result <- taskResult{val: val, err: err}
	})
	if err != nil {
		result <- taskResult{err: errors.Wrap(err, "submit task failed")}
		close(result)
	}
	return &futureImpl{
		ch: result,
	}
}

func (pool *taskPool) Release() {
	pool.pool.Release()
}

func (pool *taskPool) SetMaxSize(size int) {
	pool.pool.Tune(size)
}

func (pool *taskPool) Running() int {
	return pool.pool.Running()
}
