package customer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/status"
)

func writeInput(t *testing.T, name string, lines ...string) string {
	dir := t.TempDir()
	content := "id,firstName,lastName,email,phone,loyaltyTier\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func runMigration(t *testing.T, opts JobOptions, params string) *chunkbatch.JobExecution {
	job := NewMigrationJob(opts)
	assert.Equal(t, nil, chunkbatch.Register(job))
	defer chunkbatch.Unregister(job)
	execution, err := chunkbatch.Start(context.Background(), JobName, params)
	assert.Equal(t, nil, err)
	return execution
}

func migrateStep(execution *chunkbatch.JobExecution) *chunkbatch.StepExecution {
	for _, step := range execution.GetStepExecutions() {
		if step.StepName == MigrateStep {
			return step
		}
	}
	return nil
}

func TestMigration_MixedInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()

	dir := writeInput(t, "customers_20220110.csv",
		"1,Ann,Lee,ann@example.com,+1 555-0101,Gold",
		"2,Bob,Ray,bob-at-example.com,555-0102,Silver",
		"3,Cid,Moe,cid@example.com,(555) 0103,Bronze",
		"4,Dee,Kay,dee@example.com,555 0104,UnknownTier",
		"5,Eve,Fox,eve@example.com,555.0105,Platinum",
	)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS customers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("insert into customers").
		WithArgs(int64(1), "Ann", "Lee", "ann@example.com", "15550101", "Premium",
			int64(3), "Cid", "Moe", "cid@example.com", "5550103", "Basic",
			int64(5), "Eve", "Fox", "eve@example.com", "5550105", "Elite").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	config := chunkbatch.DefaultStepConfig()
	config.ChunkSize = 10
	execution := runMigration(t, JobOptions{
		DB:        db,
		Input:     filepath.Join(dir, "customers_{date,yyyyMMdd}.csv"),
		Config:    config,
		Listeners: []interface{}{chunkbatch.NewLoggingListener()},
	}, `{"date":"2022-01-10"}`)

	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	step := migrateStep(execution)
	stats := step.Stats.Snapshot()
	assert.Equal(t, int64(5), stats.ReadCount)
	assert.Equal(t, int64(3), stats.ProcessedCount)
	assert.Equal(t, int64(1), stats.FilterCount)
	assert.Equal(t, int64(1), stats.ProcessSkipCount)
	assert.Equal(t, int64(3), stats.WriteCount)
	assert.Equal(t, int64(1), stats.CommitCount)
	assert.Equal(t, int64(0), stats.RollbackCount)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestMigration_SkipLimitExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()

	lines := make([]string, 0, 150)
	for i := 1; i <= 150; i++ {
		lines = append(lines, fmt.Sprintf("%d,First%d,Last%d,broken-email-%d,5550000,Gold", i, i, i, i))
	}
	dir := writeInput(t, "customers.csv", lines...)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS customers").WillReturnResult(sqlmock.NewResult(0, 0))

	execution := runMigration(t, JobOptions{
		DB:     db,
		Input:  filepath.Join(dir, "customers.csv"),
		Config: chunkbatch.DefaultStepConfig(),
	}, "")

	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, "FAILED", execution.ExitStatus.ExitCode)
	step := migrateStep(execution)
	assert.Equal(t, status.FAILED, step.StepStatus)
	assert.Equal(t, chunkbatch.StageProcess, step.FailStage())
	be := step.FailError.(chunkbatch.BatchError)
	assert.Equal(t, chunkbatch.ErrCodeSkipLimitExceeded, be.Code())
	assert.Equal(t, int64(100), step.Stats.ProcessSkipCount())
	assert.Equal(t, int64(0), step.Stats.WriteCount())
	assert.Equal(t, int64(0), step.Stats.CommitCount())
	assert.Equal(t, int64(100), step.SkipBudgetUsed)
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestMigration_MalformedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()

	dir := writeInput(t, "customers.csv",
		"1,Ann,Lee,ann@example.com,5550101,Gold",
		"2,Bob,Ray",
		"3,Cid,Moe,cid@example.com,5550103,Bronze",
	)
	mock.ExpectBegin()
	mock.ExpectExec("insert into customers").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	execution := runMigration(t, JobOptions{
		DB:         db,
		Input:      filepath.Join(dir, "customers.csv"),
		Config:     chunkbatch.DefaultStepConfig(),
		SkipSchema: true,
	}, "")

	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	step := migrateStep(execution)
	assert.Equal(t, int64(1), step.Stats.ReadSkipCount())
	assert.Equal(t, int64(2), step.Stats.WriteCount())
	assert.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestMigration_MissingInput(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.Equal(t, nil, err)
	defer db.Close()

	execution := runMigration(t, JobOptions{
		DB:         db,
		Input:      filepath.Join(t.TempDir(), "missing.csv"),
		Config:     chunkbatch.DefaultStepConfig(),
		SkipSchema: true,
	}, "")
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, chunkbatch.StageRead, migrateStep(execution).FailStage())
}
