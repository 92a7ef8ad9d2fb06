package chunkbatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/chararch/chunkbatch/status"
	"github.com/google/uuid"
)

//ExitStatus exit code and message reported when an execution ends
type ExitStatus struct {
	ExitCode    string
	ExitMessage string
}

//JobExecution one run of a job
type JobExecution struct {
	JobExecutionId int64
	//RunId unique identity of this run, distinguishes runs with identical params
	RunId          string
	JobName        string
	JobKey         string
	JobParams      map[string]interface{}
	JobStatus      status.BatchStatus
	ExitStatus     ExitStatus
	StepExecutions []*StepExecution
	JobContext     *BatchContext
	CreateTime     time.Time
	StartTime      time.Time
	EndTime        time.Time
	FailError      error
	Version        int64

	mu            sync.Mutex
	stopRequested atomic.Bool
}

func newJobExecution(jobName string, jobKey string, params map[string]interface{}) *JobExecution {
	return &JobExecution{
		RunId:          uuid.NewString(),
		JobName:        jobName,
		JobKey:         jobKey,
		JobParams:      params,
		JobStatus:      status.STARTING,
		StepExecutions: make([]*StepExecution, 0),
		JobContext:     NewBatchContext(),
		CreateTime:     time.Now(),
	}
}

func (e *JobExecution) AddStepExecution(execution *StepExecution) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StepExecutions = append(e.StepExecutions, execution)
}

//GetStepExecutions copy of the step executions of this run
func (e *JobExecution) GetStepExecutions() []*StepExecution {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]*StepExecution, len(e.StepExecutions))
	copy(result, e.StepExecutions)
	return result
}

//RequestStop asks the running job to stop before its next chunk
func (e *JobExecution) RequestStop() {
	e.stopRequested.Store(true)
}

func (e *JobExecution) StopRequested() bool {
	return e.stopRequested.Load()
}

//Duration wall time of the run, up to now if it has not ended
func (e *JobExecution) Duration() time.Duration {
	return duration(e.StartTime, e.EndTime)
}

func (e *JobExecution) start() {
	e.StartTime = time.Now()
	e.JobStatus = status.RUNNING
}

func (e *JobExecution) finish(err BatchError) {
	e.JobStatus, e.ExitStatus = exitOf(err)
	if err != nil && err.Code() != ErrCodeStop {
		e.FailError = err
	}
	e.EndTime = time.Now()
}

//StepExecution one run of a step inside a JobExecution
type StepExecution struct {
	StepExecutionId int64
	StepName        string
	StepStatus      status.BatchStatus
	ExitStatus      ExitStatus
	//StepContext properties shared by all executions of the step
	StepContext *BatchContext
	//StepExecutionContext properties of this execution only
	StepExecutionContext *BatchContext
	JobExecution         *JobExecution
	Stats                *StepStats
	//SkipLimit skip budget of the execution, SkipBudgetUsed units consumed so far
	SkipLimit      int64
	SkipBudgetUsed int64
	CreateTime     time.Time
	StartTime      time.Time
	EndTime        time.Time
	FailError      error
	LastUpdated    time.Time
	Version        int64
}

func newStepExecution(stepName string, jobExecution *JobExecution) *StepExecution {
	return &StepExecution{
		StepName:             stepName,
		StepStatus:           status.STARTING,
		StepContext:          NewBatchContext(),
		StepExecutionContext: NewBatchContext(),
		JobExecution:         jobExecution,
		Stats:                NewStepStats(),
		CreateTime:           time.Now(),
	}
}

//FailStage the pipeline stage of the fatal error, empty if the step did not fail in a stage
func (execution *StepExecution) FailStage() Stage {
	if be, ok := execution.FailError.(BatchError); ok {
		return be.Stage()
	}
	return StageNone
}

func (execution *StepExecution) Duration() time.Duration {
	return duration(execution.StartTime, execution.EndTime)
}

func (execution *StepExecution) start() {
	execution.StartTime = time.Now()
	execution.StepStatus = status.RUNNING
}

func (execution *StepExecution) finish(err BatchError) {
	execution.StepStatus, execution.ExitStatus = exitOf(err)
	if err != nil && err.Code() != ErrCodeStop {
		execution.FailError = err
	}
	execution.EndTime = time.Now()
}

func (execution *StepExecution) jobExecutionId() int64 {
	if execution.JobExecution == nil {
		return 0
	}
	return execution.JobExecution.JobExecutionId
}

func exitOf(err BatchError) (status.BatchStatus, ExitStatus) {
	if err == nil {
		return status.COMPLETED, ExitStatus{ExitCode: string(status.COMPLETED)}
	}
	if err.Code() == ErrCodeStop {
		return status.STOPPED, ExitStatus{ExitCode: string(status.STOPPED), ExitMessage: err.Message()}
	}
	return status.FAILED, ExitStatus{ExitCode: string(status.FAILED), ExitMessage: err.Message()}
}

func duration(start, end time.Time) time.Duration {
	if start.IsZero() {
		return 0
	}
	if end.IsZero() {
		return time.Since(start)
	}
	return end.Sub(start)
}
