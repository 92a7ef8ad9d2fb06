package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/chararch/chunkbatch"
	"github.com/chararch/chunkbatch/status"
)

func TestPrintReport(t *testing.T) {
	fail := chunkbatch.NewBatchError(chunkbatch.ErrCodeSkipLimitExceeded, "skip limit:100 exceeded at process stage")
	execution := &chunkbatch.JobExecution{
		JobName:    "customerMigration",
		RunId:      "run-1",
		JobStatus:  status.FAILED,
		ExitStatus: chunkbatch.ExitStatus{ExitCode: "FAILED", ExitMessage: fail.Message()},
		FailError:  fail,
		StepExecutions: []*chunkbatch.StepExecution{
			{StepName: "migrateCustomers", StepStatus: status.FAILED, Stats: chunkbatch.NewStepStats()},
		},
	}
	var out bytes.Buffer
	printReport(&out, execution)
	report := out.String()
	assert.T(t, strings.Contains(report, "finished with status FAILED"))
	assert.T(t, strings.Contains(report, "step migrateCustomers: FAILED, read=0"))
	assert.T(t, strings.Contains(report, "failure: class=skip_limit_exceeded stage=- message=skip limit:100 exceeded at process stage"))

	execution = &chunkbatch.JobExecution{JobName: "customerMigration", JobStatus: status.STOPPED}
	assert.Equal(t, "job customerMigration ended with status STOPPED", failureLine(execution))
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--input", "customers.csv"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	ee, ok := err.(*exitError)
	assert.T(t, ok)
	assert.Equal(t, exitUsage, ee.code)
	assert.T(t, strings.Contains(err.Error(), "dsn"))
}

func TestRunCmd_InvalidParam(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "--input", "customers.csv", "--dsn", "u:p@tcp(localhost:3306)/shop", "--param", "novalue"})
	err := root.Execute()
	ee, ok := err.(*exitError)
	assert.T(t, ok)
	assert.Equal(t, exitUsage, ee.code)
}
