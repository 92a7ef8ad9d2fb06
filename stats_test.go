package chunkbatch

import (
	"sync"
	"testing"

	"github.com/bmizerany/assert"
)

func TestStepStats_Increments(t *testing.T) {
	s := NewStepStats()
	s.itemProcessed()
	s.itemProcessed()
	s.itemFiltered()
	s.readSkipped()
	s.processSkipped()
	s.chunkCommitted(2)
	s.chunkRolledBack(3)

	snap := s.Snapshot()
	assert.Equal(t, int64(5), snap.ReadCount)
	assert.Equal(t, int64(2), snap.ProcessedCount)
	assert.Equal(t, int64(1), snap.FilterCount)
	assert.Equal(t, int64(2), snap.WriteCount)
	assert.Equal(t, int64(1), snap.ReadSkipCount)
	assert.Equal(t, int64(1), snap.ProcessSkipCount)
	assert.Equal(t, int64(3), snap.WriteSkipCount)
	assert.Equal(t, int64(1), snap.CommitCount)
	assert.Equal(t, int64(1), snap.RollbackCount)
	assert.Equal(t, int64(5), snap.SkipCount())
	assert.Equal(t, snap.SkipCount(), s.SkipCount())
	assert.Equal(t, snap.ReadCount, snap.ProcessedCount+snap.FilterCount+snap.ReadSkipCount+snap.ProcessSkipCount)
	assert.Equal(t, "read:5, processed:2, filtered:1, written:2, skipped:5 (read:1, process:1, write:3), commits:1, rollbacks:1", s.String())
}

func TestStepStats_ConcurrentReaders(t *testing.T) {
	s := NewStepStats()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	for j := 0; j < 1000; j++ {
		s.itemProcessed()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), s.ReadCount())
}

func TestStepStats_Restore(t *testing.T) {
	s := NewStepStats()
	s.restore(StatsSnapshot{ReadCount: 10, ProcessedCount: 8, FilterCount: 2, WriteCount: 8, CommitCount: 1})
	assert.Equal(t, int64(10), s.ReadCount())
	assert.Equal(t, int64(8), s.WriteCount())
	assert.Equal(t, int64(1), s.CommitCount())
}
