package chunkbatch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

//BatchContext contains properties during a job or step execution
type BatchContext struct {
	mu  sync.RWMutex
	kvs map[string]interface{}
}

//NewBatchContext new instance
func NewBatchContext() *BatchContext {
	return &BatchContext{kvs: map[string]interface{}{}}
}

//NewBatchContextFrom new instance holding a copy of kvs
func NewBatchContextFrom(kvs map[string]interface{}) *BatchContext {
	c := NewBatchContext()
	for k, v := range kvs {
		c.kvs[k] = v
	}
	return c
}

func (ctx *BatchContext) Put(key string, value interface{}) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.kvs[key] = value
}

func (ctx *BatchContext) Exists(key string) bool {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.kvs[key] != nil
}

func (ctx *BatchContext) Remove(key string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	delete(ctx.kvs, key)
}

func (ctx *BatchContext) Get(key string, def ...interface{}) interface{} {
	ctx.mu.RLock()
	val := ctx.kvs[key]
	ctx.mu.RUnlock()
	if val == nil && len(def) > 0 {
		val = def[0]
	}
	return val
}

func (ctx *BatchContext) GetInt64(key string, def ...int64) (int64, error) {
	v := ctx.Get(key)
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	switch r := v.(type) {
	case int:
		return int64(r), nil
	case int32:
		return int64(r), nil
	case int64:
		return r, nil
	case uint:
		return int64(r), nil
	case uint32:
		return int64(r), nil
	case uint64:
		return int64(r), nil
	case float64:
		return int64(r), nil
	case json.Number:
		return r.Int64()
	}
	return 0, errors.Errorf("value is nil or not int64: %v", v)
}

func (ctx *BatchContext) GetInt(key string, def ...int) (int, error) {
	if len(def) > 0 {
		v, err := ctx.GetInt64(key, int64(def[0]))
		return int(v), err
	}
	v, err := ctx.GetInt64(key)
	return int(v), err
}

func (ctx *BatchContext) GetString(key string, def ...string) (string, error) {
	v := ctx.Get(key)
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if r, ok := v.(string); ok {
		return r, nil
	}
	return "", errors.Errorf("value is nil or not string: %v", v)
}

func (ctx *BatchContext) GetBool(key string, def ...bool) (bool, error) {
	v := ctx.Get(key)
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if r, ok := v.(bool); ok {
		return r, nil
	}
	return false, errors.Errorf("value is nil or not bool: %v", v)
}

// ToMap returns a copy of all entries
func (ctx *BatchContext) ToMap() map[string]interface{} {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	result := make(map[string]interface{}, len(ctx.kvs))
	for k, v := range ctx.kvs {
		result[k] = v
	}
	return result
}

func (ctx *BatchContext) DeepCopy() *BatchContext {
	return NewBatchContextFrom(ctx.ToMap())
}

func (ctx *BatchContext) Merge(other *BatchContext) {
	for key, value := range other.ToMap() {
		ctx.Put(key, value)
	}
}

func (ctx *BatchContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(ctx.ToMap())
}

func (ctx *BatchContext) UnmarshalJSON(b []byte) error {
	kvs := map[string]interface{}{}
	if err := json.Unmarshal(b, &kvs); err != nil {
		return err
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.kvs = kvs
	return nil
}

// ChunkContext state of the chunk in progress, handed to readers, processors and writers
type ChunkContext struct {
	StepExecution *StepExecution
	// Tx transaction of the chunk, only set while the chunk is being written
	Tx  interface{}
	End bool
	ctx context.Context
}

// Context the context of the running step
func (c *ChunkContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}
