package chunkbatch

import (
	"context"
	"database/sql"
	"time"

	"github.com/chararch/chunkbatch/status"
	"github.com/chararch/chunkbatch/util"
)

//SQLRepositorySchema MySQL tables used by the repository returned from NewSQLRepository
const SQLRepositorySchema = `
CREATE TABLE IF NOT EXISTS batch_job_execution (
  job_execution_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  run_id VARCHAR(64) NOT NULL,
  job_name VARCHAR(128) NOT NULL,
  job_key VARCHAR(64) NOT NULL,
  job_params TEXT,
  create_time DATETIME(6) NOT NULL,
  start_time DATETIME(6) NULL,
  end_time DATETIME(6) NULL,
  status VARCHAR(16) NOT NULL,
  exit_code VARCHAR(16),
  exit_message TEXT,
  last_updated DATETIME(6) NOT NULL,
  version BIGINT NOT NULL,
  KEY idx_job_name (job_name)
);
CREATE TABLE IF NOT EXISTS batch_step_execution (
  step_execution_id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  job_execution_id BIGINT NOT NULL,
  step_name VARCHAR(128) NOT NULL,
  create_time DATETIME(6) NOT NULL,
  start_time DATETIME(6) NULL,
  end_time DATETIME(6) NULL,
  status VARCHAR(16) NOT NULL,
  read_count BIGINT NOT NULL DEFAULT 0,
  process_count BIGINT NOT NULL DEFAULT 0,
  filter_count BIGINT NOT NULL DEFAULT 0,
  write_count BIGINT NOT NULL DEFAULT 0,
  read_skip_count BIGINT NOT NULL DEFAULT 0,
  process_skip_count BIGINT NOT NULL DEFAULT 0,
  write_skip_count BIGINT NOT NULL DEFAULT 0,
  commit_count BIGINT NOT NULL DEFAULT 0,
  rollback_count BIGINT NOT NULL DEFAULT 0,
  skip_limit BIGINT NOT NULL DEFAULT 0,
  skip_budget_used BIGINT NOT NULL DEFAULT 0,
  execution_context TEXT,
  exit_code VARCHAR(16),
  exit_message TEXT,
  last_updated DATETIME(6) NOT NULL,
  version BIGINT NOT NULL,
  KEY idx_job_execution (job_execution_id)
);`

const jobExecutionColumns = "job_execution_id, run_id, job_name, job_key, job_params, create_time, start_time, end_time, status, exit_code, exit_message, version"

const stepExecutionColumns = "step_execution_id, job_execution_id, step_name, create_time, start_time, end_time, status, read_count, process_count, filter_count, write_count, read_skip_count, process_skip_count, write_skip_count, commit_count, rollback_count, skip_limit, skip_budget_used, execution_context, exit_code, exit_message, version"

type sqlRepository struct {
	db *sql.DB
}

//NewSQLRepository JobRepository persisting executions in the batch_job_execution and batch_step_execution tables
func NewSQLRepository(db *sql.DB) JobRepository {
	if db == nil {
		panic("db must not be nil")
	}
	return &sqlRepository{db: db}
}

type batchJobExecution struct {
	JobExecutionId int64
	RunId          string
	JobName        string
	JobKey         string
	JobParams      sql.NullString
	CreateTime     time.Time
	StartTime      sql.NullTime
	EndTime        sql.NullTime
	Status         string
	ExitCode       sql.NullString
	ExitMessage    sql.NullString
	Version        int64
}

type batchStepExecution struct {
	StepExecutionId  int64
	JobExecutionId   int64
	StepName         string
	CreateTime       time.Time
	StartTime        sql.NullTime
	EndTime          sql.NullTime
	Status           string
	Stats            StatsSnapshot
	SkipLimit        int64
	SkipBudgetUsed   int64
	ExecutionContext sql.NullString
	ExitCode         sql.NullString
	ExitMessage      sql.NullString
	Version          int64
}

func (r *sqlRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	if execution.JobExecutionId == 0 {
		params, err := util.JsonString(execution.JobParams)
		if err != nil {
			return NewBatchError(ErrCodeGeneral, "marshal job params failed", err)
		}
		res, err := r.db.ExecContext(ctx, "insert into batch_job_execution(run_id, job_name, job_key, job_params, create_time, start_time, end_time, status, exit_code, exit_message, last_updated, version) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			execution.RunId, execution.JobName, execution.JobKey, params, execution.CreateTime, nullTime(execution.StartTime), nullTime(execution.EndTime),
			string(execution.JobStatus), execution.ExitStatus.ExitCode, execution.ExitStatus.ExitMessage, time.Now(), 1)
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "insert batch_job_execution failed", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "get batch_job_execution id failed", err)
		}
		execution.JobExecutionId = id
		execution.Version = 1
		return nil
	}
	res, err := r.db.ExecContext(ctx, "update batch_job_execution set status=?, start_time=?, end_time=?, exit_code=?, exit_message=?, last_updated=?, version=? where job_execution_id=? and version=?",
		string(execution.JobStatus), nullTime(execution.StartTime), nullTime(execution.EndTime), execution.ExitStatus.ExitCode, execution.ExitStatus.ExitMessage,
		time.Now(), execution.Version+1, execution.JobExecutionId, execution.Version)
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "update batch_job_execution failed", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected <= 0 {
		return NewBatchError(ErrCodeConcurrency, "update batch_job_execution:%v version:%v failed", execution.JobExecutionId, execution.Version)
	}
	execution.Version++
	return nil
}

func (r *sqlRepository) SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	executionCtx, err := util.JsonString(execution.StepExecutionContext)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "marshal step execution context failed", err)
	}
	stats := execution.Stats.Snapshot()
	if execution.StepExecutionId == 0 {
		res, err := r.db.ExecContext(ctx, "insert into batch_step_execution(job_execution_id, step_name, create_time, start_time, end_time, status, read_count, process_count, filter_count, write_count, read_skip_count, process_skip_count, write_skip_count, commit_count, rollback_count, skip_limit, skip_budget_used, execution_context, exit_code, exit_message, last_updated, version) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			execution.jobExecutionId(), execution.StepName, execution.CreateTime, nullTime(execution.StartTime), nullTime(execution.EndTime), string(execution.StepStatus),
			stats.ReadCount, stats.ProcessedCount, stats.FilterCount, stats.WriteCount, stats.ReadSkipCount, stats.ProcessSkipCount, stats.WriteSkipCount, stats.CommitCount, stats.RollbackCount,
			execution.SkipLimit, execution.SkipBudgetUsed, executionCtx, execution.ExitStatus.ExitCode, execution.ExitStatus.ExitMessage, time.Now(), 1)
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "insert batch_step_execution failed", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "get batch_step_execution id failed", err)
		}
		execution.StepExecutionId = id
		execution.Version = 1
		return nil
	}
	res, err := r.db.ExecContext(ctx, "update batch_step_execution set start_time=?, end_time=?, status=?, read_count=?, process_count=?, filter_count=?, write_count=?, read_skip_count=?, process_skip_count=?, write_skip_count=?, commit_count=?, rollback_count=?, skip_budget_used=?, execution_context=?, exit_code=?, exit_message=?, last_updated=?, version=? where step_execution_id=? and version=?",
		nullTime(execution.StartTime), nullTime(execution.EndTime), string(execution.StepStatus),
		stats.ReadCount, stats.ProcessedCount, stats.FilterCount, stats.WriteCount, stats.ReadSkipCount, stats.ProcessSkipCount, stats.WriteSkipCount, stats.CommitCount, stats.RollbackCount,
		execution.SkipBudgetUsed, executionCtx, execution.ExitStatus.ExitCode, execution.ExitStatus.ExitMessage, time.Now(), execution.Version+1, execution.StepExecutionId, execution.Version)
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "update batch_step_execution failed", err)
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected <= 0 {
		return NewBatchError(ErrCodeConcurrency, "update batch_step_execution:%v version:%v failed", execution.StepExecutionId, execution.Version)
	}
	execution.Version++
	return nil
}

func (r *sqlRepository) FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError) {
	return r.queryJobExecution(ctx, "select "+jobExecutionColumns+" from batch_job_execution where job_execution_id=?", jobExecutionId)
}

func (r *sqlRepository) FindLastJobExecution(ctx context.Context, jobName string) (*JobExecution, BatchError) {
	return r.queryJobExecution(ctx, "select "+jobExecutionColumns+" from batch_job_execution where job_name=? order by job_execution_id desc limit 1", jobName)
}

func (r *sqlRepository) queryJobExecution(ctx context.Context, query string, args ...interface{}) (*JobExecution, BatchError) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "query batch_job_execution failed", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, NewBatchError(ErrCodeDbFail, "query batch_job_execution failed", err)
		}
		return nil, nil
	}
	e := &batchJobExecution{}
	err = rows.Scan(&e.JobExecutionId, &e.RunId, &e.JobName, &e.JobKey, &e.JobParams, &e.CreateTime, &e.StartTime, &e.EndTime, &e.Status, &e.ExitCode, &e.ExitMessage, &e.Version)
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "scan batch_job_execution failed", err)
	}
	params, err := util.ParseJsonObject(e.JobParams.String)
	if err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "parse job params of job execution:%v failed", e.JobExecutionId, err)
	}
	execution := &JobExecution{
		JobExecutionId: e.JobExecutionId,
		RunId:          e.RunId,
		JobName:        e.JobName,
		JobKey:         e.JobKey,
		JobParams:      params,
		JobStatus:      status.BatchStatus(e.Status),
		ExitStatus:     ExitStatus{ExitCode: e.ExitCode.String, ExitMessage: e.ExitMessage.String},
		StepExecutions: make([]*StepExecution, 0),
		JobContext:     NewBatchContext(),
		CreateTime:     e.CreateTime,
		StartTime:      e.StartTime.Time,
		EndTime:        e.EndTime.Time,
		Version:        e.Version,
	}
	return execution, nil
}

func (r *sqlRepository) FindStepExecutions(ctx context.Context, jobExecutionId int64) ([]*StepExecution, BatchError) {
	rows, err := r.db.QueryContext(ctx, "select "+stepExecutionColumns+" from batch_step_execution where job_execution_id=? order by step_execution_id", jobExecutionId)
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "query batch_step_execution failed", err)
	}
	defer rows.Close()

	results := make([]*StepExecution, 0)
	for rows.Next() {
		e := &batchStepExecution{}
		s := &e.Stats
		err = rows.Scan(&e.StepExecutionId, &e.JobExecutionId, &e.StepName, &e.CreateTime, &e.StartTime, &e.EndTime, &e.Status,
			&s.ReadCount, &s.ProcessedCount, &s.FilterCount, &s.WriteCount, &s.ReadSkipCount, &s.ProcessSkipCount, &s.WriteSkipCount, &s.CommitCount, &s.RollbackCount,
			&e.SkipLimit, &e.SkipBudgetUsed, &e.ExecutionContext, &e.ExitCode, &e.ExitMessage, &e.Version)
		if err != nil {
			return nil, NewBatchError(ErrCodeDbFail, "scan batch_step_execution failed", err)
		}
		executionCtx := NewBatchContext()
		if e.ExecutionContext.Valid && e.ExecutionContext.String != "" {
			if er := util.ParseJson(e.ExecutionContext.String, executionCtx); er != nil {
				return nil, NewBatchError(ErrCodeGeneral, "parse execution context of step execution:%v failed", e.StepExecutionId, er)
			}
		}
		stats := NewStepStats()
		stats.restore(e.Stats)
		results = append(results, &StepExecution{
			StepExecutionId:      e.StepExecutionId,
			StepName:             e.StepName,
			StepStatus:           status.BatchStatus(e.Status),
			ExitStatus:           ExitStatus{ExitCode: e.ExitCode.String, ExitMessage: e.ExitMessage.String},
			StepContext:          NewBatchContext(),
			StepExecutionContext: executionCtx,
			Stats:                stats,
			SkipLimit:            e.SkipLimit,
			SkipBudgetUsed:       e.SkipBudgetUsed,
			CreateTime:           e.CreateTime,
			StartTime:            e.StartTime.Time,
			EndTime:              e.EndTime.Time,
			Version:              e.Version,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "query batch_step_execution failed", err)
	}
	return results, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
