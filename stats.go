package chunkbatch

import (
	"fmt"
	"sync/atomic"
)

// StepStats counters of a step execution. Only the chunk step increments them;
// observers read them at any time. Counters are individually atomic, a read of
// several counters is not a consistent snapshot across them.
type StepStats struct {
	read        atomic.Int64
	processed   atomic.Int64
	filtered    atomic.Int64
	written     atomic.Int64
	readSkip    atomic.Int64
	processSkip atomic.Int64
	writeSkip   atomic.Int64
	commit      atomic.Int64
	rollback    atomic.Int64
}

// StatsSnapshot point-in-time copy of StepStats
type StatsSnapshot struct {
	ReadCount        int64 `json:"readCount"`
	ProcessedCount   int64 `json:"processedCount"`
	FilterCount      int64 `json:"filterCount"`
	WriteCount       int64 `json:"writeCount"`
	ReadSkipCount    int64 `json:"readSkipCount"`
	ProcessSkipCount int64 `json:"processSkipCount"`
	WriteSkipCount   int64 `json:"writeSkipCount"`
	CommitCount      int64 `json:"commitCount"`
	RollbackCount    int64 `json:"rollbackCount"`
}

// NewStepStats creates zeroed counters
func NewStepStats() *StepStats {
	return &StepStats{}
}

func (s *StepStats) ReadCount() int64        { return s.read.Load() }
func (s *StepStats) ProcessedCount() int64   { return s.processed.Load() }
func (s *StepStats) FilterCount() int64      { return s.filtered.Load() }
func (s *StepStats) WriteCount() int64       { return s.written.Load() }
func (s *StepStats) ReadSkipCount() int64    { return s.readSkip.Load() }
func (s *StepStats) ProcessSkipCount() int64 { return s.processSkip.Load() }
func (s *StepStats) WriteSkipCount() int64   { return s.writeSkip.Load() }
func (s *StepStats) CommitCount() int64      { return s.commit.Load() }
func (s *StepStats) RollbackCount() int64    { return s.rollback.Load() }

// SkipCount items skipped in all stages
func (s *StepStats) SkipCount() int64 {
	return s.ReadSkipCount() + s.ProcessSkipCount() + s.WriteSkipCount()
}

// Snapshot reads all counters
func (s *StepStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		ReadCount:        s.ReadCount(),
		ProcessedCount:   s.ProcessedCount(),
		FilterCount:      s.FilterCount(),
		WriteCount:       s.WriteCount(),
		ReadSkipCount:    s.ReadSkipCount(),
		ProcessSkipCount: s.ProcessSkipCount(),
		WriteSkipCount:   s.WriteSkipCount(),
		CommitCount:      s.CommitCount(),
		RollbackCount:    s.RollbackCount(),
	}
}

func (s *StepStats) String() string {
	return s.Snapshot().String()
}

// SkipCount items skipped in all stages
func (s StatsSnapshot) SkipCount() int64 {
	return s.ReadSkipCount + s.ProcessSkipCount + s.WriteSkipCount
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("read:%d, processed:%d, filtered:%d, written:%d, skipped:%d (read:%d, process:%d, write:%d), commits:%d, rollbacks:%d",
		s.ReadCount, s.ProcessedCount, s.FilterCount, s.WriteCount, s.SkipCount(),
		s.ReadSkipCount, s.ProcessSkipCount, s.WriteSkipCount, s.CommitCount, s.RollbackCount)
}

// restore loads persisted counters, used by repositories rebuilding an execution
func (s *StepStats) restore(snapshot StatsSnapshot) {
	s.read.Store(snapshot.ReadCount)
	s.processed.Store(snapshot.ProcessedCount)
	s.filtered.Store(snapshot.FilterCount)
	s.written.Store(snapshot.WriteCount)
	s.readSkip.Store(snapshot.ReadSkipCount)
	s.processSkip.Store(snapshot.ProcessSkipCount)
	s.writeSkip.Store(snapshot.WriteSkipCount)
	s.commit.Store(snapshot.CommitCount)
	s.rollback.Store(snapshot.RollbackCount)
}

// a unit pulled from the reader is counted as read together with its outcome
func (s *StepStats) itemProcessed() {
	s.read.Add(1)
	s.processed.Add(1)
}

func (s *StepStats) itemFiltered() {
	s.read.Add(1)
	s.filtered.Add(1)
}

func (s *StepStats) readSkipped() {
	s.read.Add(1)
	s.readSkip.Add(1)
}

func (s *StepStats) processSkipped() {
	s.read.Add(1)
	s.processSkip.Add(1)
}

func (s *StepStats) chunkCommitted(size int) {
	s.written.Add(int64(size))
	s.commit.Add(1)
}

func (s *StepStats) chunkRolledBack(size int) {
	s.writeSkip.Add(int64(size))
	s.rollback.Add(1)
}

// chunkAbandoned items of a chunk left unwritten by a fatal read or process failure, no transaction was opened
func (s *StepStats) chunkAbandoned(size int) {
	s.writeSkip.Add(int64(size))
}
