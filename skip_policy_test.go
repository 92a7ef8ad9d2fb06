package chunkbatch

import (
	"strconv"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
)

func TestLimitSkipPolicy_Limit(t *testing.T) {
	policy := NewLimitSkipPolicy(3)
	err := NewBatchError(ErrCodeProcess, "bad email")
	for i := 0; i < 3; i++ {
		decision, e := policy.Evaluate(StageProcess, err)
		assert.Equal(t, Skip, decision)
		assert.Equal(t, nil, e)
	}
	assert.T(t, !policy.Exceeded())
	decision, e := policy.Evaluate(StageRead, NewBatchError(ErrCodeRead, "bad line"))
	assert.Equal(t, Fail, decision)
	assert.Equal(t, ErrCodeSkipLimitExceeded, e.Code())
	assert.Equal(t, StageRead, e.Stage())
	assert.Equal(t, int64(3), policy.Used())
	assert.T(t, policy.Exceeded())
}

func TestLimitSkipPolicy_ZeroLimit(t *testing.T) {
	policy := NewLimitSkipPolicy(0)
	decision, e := policy.Evaluate(StageWrite, NewBatchError(ErrCodeWrite, "duplicate key"))
	assert.Equal(t, Fail, decision)
	assert.Equal(t, ErrCodeSkipLimitExceeded, e.Code())
	assert.Equal(t, int64(0), policy.Used())
}

func TestLimitSkipPolicy_Classes(t *testing.T) {
	_, numErr := strconv.ParseInt("x1", 10, 64)
	parseErr := WrapStageError(StageProcess, numErr)
	readErr := NewBatchError(ErrCodeRead, "bad line")

	policy := NewLimitSkipPolicy(10, "*strconv.NumError", " write ")
	decision, _ := policy.Evaluate(StageProcess, parseErr)
	assert.Equal(t, Skip, decision)
	decision, _ = policy.Evaluate(StageWrite, NewBatchError(ErrCodeDbFail, "deadlock"))
	assert.Equal(t, Skip, decision)

	decision, e := policy.Evaluate(StageRead, readErr)
	assert.Equal(t, Fail, decision)
	assert.Equal(t, ErrCodeNotSkippable, e.Code())
	assert.Equal(t, int64(2), policy.Used())

	byCode := NewLimitSkipPolicy(10, ErrCodeDbFail)
	decision, _ = byCode.Evaluate(StageWrite, WrapStageError(StageWrite, NewBatchError(ErrCodeDbFail, "begin tx")))
	assert.Equal(t, Skip, decision)

	decision, e = NewLimitSkipPolicy(10).Evaluate(StageRead, StopError)
	assert.Equal(t, Fail, decision)
	assert.Equal(t, ErrCodeNotSkippable, e.Code())
}

func TestLimitSkipPolicy_Concurrent(t *testing.T) {
	const limit = 100
	policy := NewLimitSkipPolicy(limit)
	err := NewBatchError(ErrCodeProcess, "invalid")
	var skipped, failed int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				decision, _ := policy.Evaluate(StageProcess, err)
				mu.Lock()
				if decision == Skip {
					skipped++
				} else {
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(limit), skipped)
	assert.Equal(t, int64(400-limit), failed)
	assert.Equal(t, int64(limit), policy.Used())
}

func TestLimitSkipPolicyFactory_FreshBudget(t *testing.T) {
	factory := LimitSkipPolicyFactory(1)
	p1 := factory()
	p2 := factory()
	d, _ := p1.Evaluate(StageRead, NewBatchError(ErrCodeRead, "a"))
	assert.Equal(t, Skip, d)
	d, _ = p2.Evaluate(StageRead, NewBatchError(ErrCodeRead, "b"))
	assert.Equal(t, Skip, d)
	d, _ = p1.Evaluate(StageRead, NewBatchError(ErrCodeRead, "c"))
	assert.Equal(t, Fail, d)
}

func TestLimitSkipPolicy_NegativeLimit(t *testing.T) {
	defer func() {
		assert.NotEqual(t, nil, recover())
	}()
	NewLimitSkipPolicy(-1)
}
