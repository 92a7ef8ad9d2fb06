package chunkbatch

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch/status"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := newJobExecution("migrate", "k1", map[string]interface{}{})
	assert.Equal(t, nil, repo.SaveJobExecution(ctx, first))
	second := newJobExecution("migrate", "k2", map[string]interface{}{})
	assert.Equal(t, nil, repo.SaveJobExecution(ctx, second))
	assert.T(t, second.JobExecutionId > first.JobExecutionId)
	assert.Equal(t, int64(1), second.Version)

	assert.Equal(t, nil, repo.SaveJobExecution(ctx, second))
	assert.Equal(t, int64(2), second.Version)

	found, err := repo.FindJobExecution(ctx, first.JobExecutionId)
	assert.Equal(t, nil, err)
	assert.T(t, found == first)

	last, err := repo.FindLastJobExecution(ctx, "migrate")
	assert.Equal(t, nil, err)
	assert.T(t, last == second)

	none, err := repo.FindLastJobExecution(ctx, "other")
	assert.Equal(t, nil, err)
	assert.T(t, none == nil)

	step := newStepExecution("load", second)
	assert.Equal(t, nil, repo.SaveStepExecution(ctx, step))
	steps, err := repo.FindStepExecutions(ctx, second.JobExecutionId)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(steps))
	assert.T(t, steps[0] == step)

	unknown := newJobExecution("migrate", "k3", nil)
	unknown.JobExecutionId = 999
	assert.Equal(t, ErrCodeDbFail, repo.SaveJobExecution(ctx, unknown).Code())
}

func TestSQLRepository_SaveJobExecution(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()
	repo := NewSQLRepository(db)
	ctx := context.Background()

	execution := newJobExecution("migrate", "key", map[string]interface{}{"date": "20220110"})
	mock.ExpectExec("insert into batch_job_execution").
		WithArgs(execution.RunId, "migrate", "key", `{"date":"20220110"}`, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"STARTING", "", "", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(42, 1))
	assert.Equal(t, nil, repo.SaveJobExecution(ctx, execution))
	assert.Equal(t, int64(42), execution.JobExecutionId)

	execution.start()
	mock.ExpectExec("update batch_job_execution").
		WithArgs("RUNNING", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", sqlmock.AnyArg(), int64(2), int64(42), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Equal(t, nil, repo.SaveJobExecution(ctx, execution))
	assert.Equal(t, int64(2), execution.Version)

	mock.ExpectExec("update batch_job_execution").WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.SaveJobExecution(ctx, execution)
	assert.Equal(t, ErrCodeConcurrency, err.(BatchError).Code())
	assert.Equal(t, int64(2), execution.Version)

	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestSQLRepository_SaveStepExecution(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()
	repo := NewSQLRepository(db)
	ctx := context.Background()

	job := newJobExecution("migrate", "key", nil)
	job.JobExecutionId = 7
	execution := newStepExecution("load", job)
	mock.ExpectExec("insert into batch_step_execution").WillReturnResult(sqlmock.NewResult(3, 1))
	assert.Equal(t, nil, repo.SaveStepExecution(ctx, execution))
	assert.Equal(t, int64(3), execution.StepExecutionId)

	execution.Stats.itemProcessed()
	execution.Stats.chunkCommitted(1)
	mock.ExpectExec("update batch_step_execution").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "STARTING", int64(1), int64(1), int64(0), int64(1), int64(0), int64(0), int64(0), int64(1), int64(0),
			int64(0), sqlmock.AnyArg(), "", "", sqlmock.AnyArg(), int64(2), int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Equal(t, nil, repo.SaveStepExecution(ctx, execution))

	mock.ExpectExec("update batch_step_execution").WillReturnError(sqlmock.ErrCancelled)
	err = repo.SaveStepExecution(ctx, execution)
	assert.Equal(t, ErrCodeDbFail, err.(BatchError).Code())

	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestSQLRepository_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()
	repo := NewSQLRepository(db)
	ctx := context.Background()
	now := time.Now()

	jobRows := sqlmock.NewRows([]string{"job_execution_id", "run_id", "job_name", "job_key", "job_params", "create_time", "start_time", "end_time", "status", "exit_code", "exit_message", "version"}).
		AddRow(int64(42), "run-1", "migrate", "key", `{"batch":7}`, now, now, nil, "FAILED", "FAILED", "skip limit exceeded", int64(3))
	mock.ExpectQuery("select (.+) from batch_job_execution where job_execution_id").WithArgs(int64(42)).WillReturnRows(jobRows)

	execution, err := repo.FindJobExecution(ctx, 42)
	assert.Equal(t, nil, err)
	assert.Equal(t, "run-1", execution.RunId)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, "skip limit exceeded", execution.ExitStatus.ExitMessage)
	assert.T(t, execution.EndTime.IsZero())
	assert.Equal(t, "7", execution.JobParams["batch"].(interface{ String() string }).String())

	mock.ExpectQuery("select (.+) from batch_job_execution where job_name").WithArgs("none").
		WillReturnRows(sqlmock.NewRows([]string{"job_execution_id"}))
	none, err := repo.FindLastJobExecution(ctx, "none")
	assert.Equal(t, nil, err)
	assert.T(t, none == nil)

	stepRows := sqlmock.NewRows([]string{"step_execution_id", "job_execution_id", "step_name", "create_time", "start_time", "end_time", "status",
		"read_count", "process_count", "filter_count", "write_count", "read_skip_count", "process_skip_count", "write_skip_count", "commit_count", "rollback_count",
		"skip_limit", "skip_budget_used", "execution_context", "exit_code", "exit_message", "version"}).
		AddRow(int64(3), int64(42), "load", now, now, now, "COMPLETED", int64(5), int64(3), int64(1), int64(3), int64(0), int64(1), int64(0), int64(1), int64(0),
			int64(100), int64(1), `{"file":"customers.csv"}`, "COMPLETED", "", int64(4))
	mock.ExpectQuery("select (.+) from batch_step_execution").WithArgs(int64(42)).WillReturnRows(stepRows)

	steps, err := repo.FindStepExecutions(ctx, 42)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(steps))
	assert.Equal(t, "load", steps[0].StepName)
	assert.Equal(t, int64(5), steps[0].Stats.ReadCount())
	assert.Equal(t, int64(1), steps[0].Stats.ProcessSkipCount())
	assert.Equal(t, int64(1), steps[0].SkipBudgetUsed)
	assert.Equal(t, "customers.csv", steps[0].StepExecutionContext.Get("file"))

	assert.Equal(t, nil, mock.ExpectationsWereMet())
}
