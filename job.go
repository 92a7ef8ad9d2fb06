package chunkbatch

import (
	"context"
	"runtime/debug"

	"github.com/chararch/chunkbatch/status"
)

//Job job interface
type Job interface {
	Name() string
	//Start runs the steps in order; the final status is recorded in execution, the returned error reports repository failures only
	Start(ctx context.Context, execution *JobExecution) BatchError
	//Stop requests the execution to stop before its next chunk
	Stop(ctx context.Context, execution *JobExecution) BatchError
	GetSteps() []Step
}

type simpleJob struct {
	name      string
	steps     []Step
	listeners []JobListener
}

func newSimpleJob(name string, steps []Step, listeners []JobListener) *simpleJob {
	return &simpleJob{
		name:      name,
		steps:     steps,
		listeners: listeners,
	}
}

func (job *simpleJob) Name() string {
	return job.name
}

func (job *simpleJob) Start(ctx context.Context, execution *JobExecution) (err BatchError) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in job executing, jobName:%v, jobExecutionId:%v, err:%v, stack:%v", job.name, execution.JobExecutionId, er, string(debug.Stack()))
			execution.finish(NewBatchError(ErrCodeGeneral, "panic in job execution: %v", er))
		}
		if e := saveJobExecution(ctx, execution); e != nil {
			logger.Error(ctx, "save job execution failed, jobName:%v, jobExecutionId:%v, err:%v", job.name, execution.JobExecutionId, e)
			if err == nil {
				err = e
			}
		}
	}()
	logger.Info(ctx, "start running job, jobName:%v, jobExecutionId:%v, runId:%v, params:%v", job.name, execution.JobExecutionId, execution.RunId, execution.JobParams)
	notifyBeforeJob(ctx, job.listeners, execution)
	execution.start()
	if err = saveJobExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save job execution failed, jobName:%v, jobExecutionId:%v, err:%v", job.name, execution.JobExecutionId, err)
		execution.finish(err)
		notifyAfterJob(ctx, job.listeners, execution)
		return err
	}
	var stepErr BatchError
	for _, step := range job.steps {
		if ctx.Err() != nil || execution.StopRequested() {
			stepErr = StopError
			break
		}
		if stepErr = execStep(ctx, step, execution); stepErr != nil {
			logger.Error(ctx, "execute step failed, jobExecutionId:%v, step:%v, err:%v", execution.JobExecutionId, step.Name(), stepErr)
			break
		}
	}
	execution.finish(stepErr)
	notifyAfterJob(ctx, job.listeners, execution)
	logger.Info(ctx, "finish job execution, jobName:%v, jobExecutionId:%v, jobStatus:%v", job.name, execution.JobExecutionId, execution.JobStatus)
	return nil
}

func execStep(ctx context.Context, step Step, execution *JobExecution) BatchError {
	stepExecution := newStepExecution(step.Name(), execution)
	if e := saveStepExecution(ctx, stepExecution); e != nil {
		logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecutionId, step.Name(), e)
		return e
	}
	execution.AddStepExecution(stepExecution)
	err := step.Exec(ctx, stepExecution)
	if err == nil && stepExecution.StepStatus != status.COMPLETED {
		err = NewBatchError(ErrCodeGeneral, "step:%v ended with status:%v", step.Name(), stepExecution.StepStatus)
	}
	return err
}

func (job *simpleJob) Stop(ctx context.Context, execution *JobExecution) BatchError {
	logger.Info(ctx, "stop job requested, jobName:%v, jobExecutionId:%v", job.name, execution.JobExecutionId)
	execution.RequestStop()
	return nil
}

func (job *simpleJob) GetSteps() []Step {
	return job.steps
}
