package chunkbatch

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/bmizerany/assert"
)

func TestBatchErr_Format(t *testing.T) {
	batchErr := NewBatchError(ErrCodeGeneral, "new error")
	assert.Equal(t, "new error", batchErr.Message())
	assert.Equal(t, nil, batchErr.Cause())
	assert.T(t, len(batchErr.StackTrace()) > 0)
	fmt.Printf("batchErr detail: %+v\n", batchErr)

	err := fmt.Errorf("some error raised from db")
	batchErr2 := NewBatchError(ErrCodeDbFail, "wrap error", err)
	assert.Equal(t, "wrap error: some error raised from db", batchErr2.Message())
	assert.Equal(t, err, batchErr2.Cause())

	batchErr3 := NewBatchError(ErrCodeDbFail, "wrap error:%v", err)
	assert.Equal(t, "wrap error:some error raised from db", batchErr3.Message())
	assert.Equal(t, nil, batchErr3.Cause())

	batchErr4 := NewBatchError(ErrCodeGeneral, "open file:%v err", "a.csv", err)
	assert.Equal(t, "open file:a.csv err: some error raised from db", batchErr4.Message())
	assert.Equal(t, err, batchErr4.Cause())
}

func TestBatchErr_Stage(t *testing.T) {
	assert.Equal(t, StageRead, NewBatchError(ErrCodeRead, "bad line").Stage())
	assert.Equal(t, StageNone, NewBatchError(ErrCodeGeneral, "x").Stage())

	inner := NewBatchError(ErrCodeWrite, "insert failed")
	outer := NewBatchError(ErrCodeDbFail, "commit", inner)
	assert.Equal(t, StageWrite, outer.Stage())

	wrapped := WrapStageError(StageProcess, fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeProcess, wrapped.Code())
	assert.Equal(t, StageProcess, wrapped.Stage())
	assert.Equal(t, wrapped, WrapStageError(StageProcess, wrapped))
	assert.Equal(t, nil, WrapStageError(StageRead, nil))
}

func TestErrorClass(t *testing.T) {
	_, numErr := strconv.ParseInt("abc", 10, 64)
	processErr := WrapStageError(StageProcess, numErr)
	assert.Equal(t, "*strconv.NumError", ErrorClass(processErr))

	exceeded := newSkipLimitExceededError(StageProcess, 100, processErr)
	assert.Equal(t, "*strconv.NumError", ErrorClass(exceeded))
	assert.Equal(t, ErrCodeSkipLimitExceeded, exceeded.Code())
	assert.Equal(t, StageProcess, exceeded.Stage())

	assert.Equal(t, ErrCodeStop, ErrorClass(StopError))
	assert.Equal(t, "", ErrorClass(nil))
}
