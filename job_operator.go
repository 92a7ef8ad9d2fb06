package chunkbatch

import (
	"context"
	"sync"

	"github.com/chararch/chunkbatch/util"
	"github.com/pkg/errors"
)

var registryMu sync.RWMutex
var jobRegistry = make(map[string]Job)

// running executions by id, used to deliver stop requests
var runningMu sync.Mutex
var runningExecutions = make(map[int64]*JobExecution)

// Register register job to the engine
func Register(job Job) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := jobRegistry[job.Name()]; ok {
		return errors.Errorf("job with name:%v has already been registered", job.Name())
	}
	jobRegistry[job.Name()] = job
	return nil
}

// Unregister unregister job from the engine
func Unregister(job Job) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(jobRegistry, job.Name())
}

func findJob(jobName string) (Job, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	job, ok := jobRegistry[jobName]
	return job, ok
}

// Start start job by job name and JSON params, returns when the job ends
func Start(ctx context.Context, jobName string, params string) (*JobExecution, error) {
	execution, future, err := doStart(ctx, jobName, params)
	if err != nil {
		return execution, err
	}
	if _, err = future.Get(); err != nil {
		return execution, err
	}
	return execution, nil
}

// StartAsync start job by job name and JSON params asynchronously, the Future completes when the job ends
func StartAsync(ctx context.Context, jobName string, params string) (*JobExecution, Future, error) {
	return doStart(ctx, jobName, params)
}

func doStart(ctx context.Context, jobName string, params string) (*JobExecution, Future, error) {
	job, ok := findJob(jobName)
	if !ok {
		logger.Error(ctx, "can not find job with name:%v", jobName)
		return nil, nil, errors.Errorf("can not find job with name:%v", jobName)
	}
	jobParams, err := util.ParseJsonObject(params)
	if err != nil {
		logger.Error(ctx, "parse job params error, jobName:%v, params:%v, err:%v", jobName, params, err)
		return nil, nil, errors.Wrapf(err, "parse params of job:%v", jobName)
	}
	paramsJson, _ := util.JsonString(jobParams)
	execution := newJobExecution(jobName, util.MD5(paramsJson), jobParams)
	if err := saveJobExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save job execution failed, jobName:%v, err:%v", jobName, err)
		return nil, nil, err
	}
	addRunning(execution)
	future := jobPool.Submit(ctx, func() (interface{}, error) {
		defer removeRunning(execution)
		if er := job.Start(ctx, execution); er != nil {
			return execution, er
		}
		return execution, nil
	})
	logger.Info(ctx, "job started, jobName:%v, jobExecutionId:%v, runId:%v", jobName, execution.JobExecutionId, execution.RunId)
	return execution, future, nil
}

func addRunning(execution *JobExecution) {
	runningMu.Lock()
	defer runningMu.Unlock()
	runningExecutions[execution.JobExecutionId] = execution
}

func removeRunning(execution *JobExecution) {
	runningMu.Lock()
	defer runningMu.Unlock()
	delete(runningExecutions, execution.JobExecutionId)
}

func findRunning(filter func(execution *JobExecution) bool) []*JobExecution {
	runningMu.Lock()
	defer runningMu.Unlock()
	result := make([]*JobExecution, 0)
	for _, execution := range runningExecutions {
		if filter(execution) {
			result = append(result, execution)
		}
	}
	return result
}

// Stop stop job by job name or job execution id; running executions stop before their next chunk
func Stop(ctx context.Context, jobId interface{}) error {
	var executions []*JobExecution
	switch id := jobId.(type) {
	case string:
		if _, ok := findJob(id); !ok {
			logger.Error(ctx, "can not find job with name:%v", id)
			return errors.Errorf("can not find job with name:%v", id)
		}
		executions = findRunning(func(e *JobExecution) bool { return e.JobName == id })
	case int64:
		executions = findRunning(func(e *JobExecution) bool { return e.JobExecutionId == id })
	default:
		logger.Error(ctx, "job identifier:%v is either job name or job execution id", jobId)
		return errors.Errorf("job identifier:%v is either job name or job execution id", jobId)
	}
	if len(executions) == 0 {
		logger.Error(ctx, "there is no running job execution:%v to stop", jobId)
		return errors.Errorf("there is no running job execution:%v to stop", jobId)
	}
	for _, execution := range executions {
		job, ok := findJob(execution.JobName)
		if !ok {
			execution.RequestStop()
			continue
		}
		if err := job.Stop(ctx, execution); err != nil {
			return err
		}
	}
	return nil
}

// GetJobExecution a running execution, or the one kept by the job repository
func GetJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, error) {
	if running := findRunning(func(e *JobExecution) bool { return e.JobExecutionId == jobExecutionId }); len(running) > 0 {
		return running[0], nil
	}
	execution, err := getRepository().FindJobExecution(ctx, jobExecutionId)
	if err != nil {
		return nil, err
	}
	if execution == nil {
		return nil, errors.Errorf("can not find job execution with execution id:%v", jobExecutionId)
	}
	if err = loadStepExecutions(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// GetLastJobExecution the latest execution of a job kept by the job repository, nil if the job never ran
func GetLastJobExecution(ctx context.Context, jobName string) (*JobExecution, error) {
	execution, err := getRepository().FindLastJobExecution(ctx, jobName)
	if err != nil {
		return nil, err
	}
	if execution == nil {
		return nil, nil
	}
	if err = loadStepExecutions(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

func loadStepExecutions(ctx context.Context, execution *JobExecution) BatchError {
	if len(execution.GetStepExecutions()) > 0 {
		return nil
	}
	steps, err := getRepository().FindStepExecutions(ctx, execution.JobExecutionId)
	if err != nil {
		return err
	}
	for _, step := range steps {
		step.JobExecution = execution
		execution.AddStepExecution(step)
	}
	return nil
}
