package chunkbatch

import (
	"context"
	"time"
)

const logSeparator = "---------------------------------------------------"

const timeLayout = "2006-01-02 15:04:05"

//LoggingListener reports job and step progress through the package logger
type LoggingListener struct {
}

//NewLoggingListener listener logging the job banner, the step summary and every skipped unit.
//It implements JobListener, StepListener and SkipListener.
func NewLoggingListener() *LoggingListener {
	return &LoggingListener{}
}

func (l *LoggingListener) BeforeJob(execution *JobExecution) BatchError {
	ctx := context.Background()
	logger.Info(ctx, logSeparator)
	logger.Info(ctx, "JOB STARTED: %v at %v", execution.JobName, time.Now().Format(timeLayout))
	logger.Info(ctx, "Job Parameters: %v, runId: %v", execution.JobParams, execution.RunId)
	logger.Info(ctx, logSeparator)
	return nil
}

func (l *LoggingListener) AfterJob(execution *JobExecution) BatchError {
	ctx := context.Background()
	logger.Info(ctx, logSeparator)
	logger.Info(ctx, "JOB FINISHED: %v with status %v at %v", execution.JobName, execution.JobStatus, time.Now().Format(timeLayout))
	logger.Info(ctx, "Exit Status: %v", execution.ExitStatus.ExitCode)
	if execution.FailError != nil {
		logger.Error(ctx, "Failure: class=%v, message=%v", ErrorClass(execution.FailError), execution.ExitStatus.ExitMessage)
	}
	logger.Info(ctx, "Duration: %vms", execution.Duration().Milliseconds())
	logger.Info(ctx, logSeparator)
	return nil
}

func (l *LoggingListener) BeforeStep(execution *StepExecution) BatchError {
	logger.Info(context.Background(), "Step '%v' started.", execution.StepName)
	return nil
}

func (l *LoggingListener) AfterStep(execution *StepExecution) BatchError {
	ctx := context.Background()
	stats := execution.Stats.Snapshot()
	logger.Info(ctx, "Step '%v' finished with status: %v", execution.StepName, execution.StepStatus)
	logger.Info(ctx, "  Read Count: %d", stats.ReadCount)
	logger.Info(ctx, "  Processed Count: %d", stats.ProcessedCount)
	logger.Info(ctx, "  Filtered Count: %d", stats.FilterCount)
	logger.Info(ctx, "  Written Count: %d", stats.WriteCount)
	logger.Info(ctx, "  Read Skipped Count: %d", stats.ReadSkipCount)
	logger.Info(ctx, "  Process Skipped Count: %d", stats.ProcessSkipCount)
	logger.Info(ctx, "  Write Skipped Count (due to errors): %d", stats.WriteSkipCount)
	logger.Info(ctx, "  Commit Count: %d", stats.CommitCount)
	logger.Info(ctx, "  Rollback Count: %d", stats.RollbackCount)
	logger.Info(ctx, "  Skip Budget Used: %d/%d", execution.SkipBudgetUsed, execution.SkipLimit)
	if execution.FailError != nil {
		logger.Error(ctx, "  Failed at %v stage: %v", execution.FailStage(), execution.FailError)
	}
	return nil
}

func (l *LoggingListener) OnSkipRead(chunkCtx *ChunkContext, err BatchError) {
	logger.Warn(chunkCtx.Context(), "Error reading item, skipped: %v", err.Message())
}

func (l *LoggingListener) OnSkipProcess(chunkCtx *ChunkContext, item interface{}, err BatchError) {
	logger.Warn(chunkCtx.Context(), "Error processing item: %+v - %v", item, err.Message())
}

func (l *LoggingListener) OnSkipWrite(chunkCtx *ChunkContext, item interface{}, err BatchError) {
	logger.Warn(chunkCtx.Context(), "  Problematic item: %+v - %v", item, err.Message())
}
