package chunkbatch

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch/util"
)

func TestBatchContext_Get(t *testing.T) {
	ctx := NewBatchContext()
	v := ctx.Get("key")
	assert.Equal(t, v, nil)
	assert.Equal(t, "def", ctx.Get("key", "def"))

	ctx.Put("key", "1111")
	assert.Equal(t, ctx.Get("key"), "1111")
	assert.T(t, ctx.Exists("key"))
	ctx.Remove("key")
	assert.T(t, !ctx.Exists("key"))
}

func TestBatchContext_TypedGetters(t *testing.T) {
	ctx := NewBatchContextFrom(map[string]interface{}{
		"count":  100,
		"line":   float64(7),
		"name":   "customers.csv",
		"header": true,
	})
	count, err := ctx.GetInt("count")
	assert.Equal(t, nil, err)
	assert.Equal(t, 100, count)

	line, err := ctx.GetInt64("line")
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(7), line)

	missing, err := ctx.GetInt64("missing", 3)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(3), missing)

	_, err = ctx.GetInt64("name")
	assert.NotEqual(t, nil, err)

	name, err := ctx.GetString("name")
	assert.Equal(t, nil, err)
	assert.Equal(t, "customers.csv", name)

	header, err := ctx.GetBool("header")
	assert.Equal(t, nil, err)
	assert.T(t, header)
}

func TestBatchContext_MarshalJSON(t *testing.T) {
	batchCtx := NewBatchContext()
	batchCtx.Put("count", 100)
	batchCtx.Put("file", "customers.csv")
	json, err := util.JsonString(batchCtx)
	assert.Equal(t, nil, err)
	assert.Equal(t, `{"count":100,"file":"customers.csv"}`, json)

	batchCtx2 := NewBatchContext()
	err = util.ParseJson(json, batchCtx2)
	assert.Equal(t, nil, err)
	count, err := batchCtx2.GetInt("count")
	assert.Equal(t, nil, err)
	assert.Equal(t, 100, count)

	copied := batchCtx2.DeepCopy()
	copied.Put("file", "other.csv")
	assert.Equal(t, "customers.csv", batchCtx2.Get("file"))
}
