package chunkbatch

import (
	"context"
	"sync"
)

//JobRepository keeps the job and step executions of the engine
type JobRepository interface {
	//SaveJobExecution inserts the execution when its id is 0, updates it otherwise
	SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError
	//SaveStepExecution inserts the execution when its id is 0, updates it otherwise
	SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError
	FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError)
	FindLastJobExecution(ctx context.Context, jobName string) (*JobExecution, BatchError)
	FindStepExecutions(ctx context.Context, jobExecutionId int64) ([]*StepExecution, BatchError)
}

type memoryRepository struct {
	mu             sync.RWMutex
	lastJobId      int64
	lastStepId     int64
	jobExecutions  map[int64]*JobExecution
	stepExecutions map[int64][]*StepExecution
}

//NewMemoryRepository JobRepository keeping executions in process memory, the default repository
func NewMemoryRepository() JobRepository {
	return &memoryRepository{
		jobExecutions:  make(map[int64]*JobExecution),
		stepExecutions: make(map[int64][]*StepExecution),
	}
}

func (r *memoryRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if execution.JobExecutionId == 0 {
		r.lastJobId++
		execution.JobExecutionId = r.lastJobId
		execution.Version = 1
		r.jobExecutions[execution.JobExecutionId] = execution
		return nil
	}
	if _, ok := r.jobExecutions[execution.JobExecutionId]; !ok {
		return NewBatchError(ErrCodeDbFail, "job execution:%v not found", execution.JobExecutionId)
	}
	execution.Version++
	return nil
}

func (r *memoryRepository) SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if execution.StepExecutionId == 0 {
		r.lastStepId++
		execution.StepExecutionId = r.lastStepId
		execution.Version = 1
		jobExecutionId := execution.jobExecutionId()
		r.stepExecutions[jobExecutionId] = append(r.stepExecutions[jobExecutionId], execution)
		return nil
	}
	execution.Version++
	return nil
}

func (r *memoryRepository) FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobExecutions[jobExecutionId], nil
}

func (r *memoryRepository) FindLastJobExecution(ctx context.Context, jobName string) (*JobExecution, BatchError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *JobExecution
	for id, execution := range r.jobExecutions {
		if execution.JobName == jobName && (last == nil || id > last.JobExecutionId) {
			last = execution
		}
	}
	return last, nil
}

func (r *memoryRepository) FindStepExecutions(ctx context.Context, jobExecutionId int64) ([]*StepExecution, BatchError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	steps := r.stepExecutions[jobExecutionId]
	result := make([]*StepExecution, len(steps))
	copy(result, steps)
	return result, nil
}

func saveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	return getRepository().SaveJobExecution(ctx, execution)
}

func saveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	return getRepository().SaveStepExecution(ctx, execution)
}
