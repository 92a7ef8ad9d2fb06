package chunkbatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/hashicorp/go-multierror"
)

// Step step interface
type Step interface {
	Name() string
	// Exec runs the step; the returned error is the fatal error of the step, StopError if it was stopped
	Exec(ctx context.Context, execution *StepExecution) BatchError
	addListener(listener StepListener)
}

// simpleStep tasklet step running a Handler once
type simpleStep struct {
	name      string
	handler   Handler
	listeners []StepListener
}

type handlerAdapter struct {
	task Task
}

func (h *handlerAdapter) Handle(execution *StepExecution) BatchError {
	return h.task(execution)
}

func newSimpleStep(name string, handler interface{}, listeners []StepListener) *simpleStep {
	switch h := handler.(type) {
	case Handler:
		return &simpleStep{
			name:      name,
			handler:   h,
			listeners: listeners,
		}
	case Task:
		return &simpleStep{
			name: name,
			handler: &handlerAdapter{
				task: h,
			},
			listeners: listeners,
		}
	default:
		panic(fmt.Sprintf("not supported step handler:%v for:%v", handler, name))
	}
}

func (step *simpleStep) Name() string {
	return step.name
}

func (step *simpleStep) Exec(ctx context.Context, execution *StepExecution) (err BatchError) {
	defer func() {
		err = execEnd(ctx, execution, err, recover())
	}()
	logger.Info(ctx, "step execute start, jobExecutionId:%v, stepName:%v", execution.jobExecutionId(), execution.StepName)
	notifyBeforeStep(ctx, step.listeners, execution)
	execution.start()
	if err = saveStepExecution(ctx, execution); err == nil {
		if stopRequested(ctx, execution) {
			err = StopError
		} else {
			err = step.handle(ctx, execution)
		}
	}
	if err != nil && err.Code() != ErrCodeStop {
		logger.Error(ctx, "step execute failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, err)
	}
	execution.finish(err)
	notifyAfterStep(ctx, step.listeners, execution)
	logger.Info(ctx, "step execute finish, jobExecutionId:%v, stepName:%v, stepStatus:%v", execution.jobExecutionId(), execution.StepName, execution.StepStatus)
	return err
}

func (step *simpleStep) handle(ctx context.Context, execution *StepExecution) (err BatchError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in step handler, jobExecutionId:%v, stepName:%v, err:%v, stack:%v", execution.jobExecutionId(), execution.StepName, r, string(debug.Stack()))
			err = NewBatchError(ErrCodeGeneral, "panic in step:%v handler: %v", execution.StepName, r)
		}
	}()
	return step.handler.Handle(execution)
}

func (step *simpleStep) addListener(listener StepListener) {
	step.listeners = append(step.listeners, listener)
}

// execEnd persists the final state of a step execution
func execEnd(ctx context.Context, execution *StepExecution, err BatchError, recoverErr interface{}) BatchError {
	if recoverErr != nil {
		logger.Error(ctx, "panic in step executing, jobExecutionId:%v, stepName:%v, err:%v, stack:%v", execution.jobExecutionId(), execution.StepName, recoverErr, string(debug.Stack()))
		err = NewBatchError(ErrCodeGeneral, "panic in step execution: %v", recoverErr)
		execution.finish(err)
	}
	for i := 0; i < 3; i++ {
		e := saveStepExecution(ctx, execution)
		if e != nil && (e.Code() == ErrCodeDbFail || e.Code() == ErrCodeConcurrency) {
			logger.Error(ctx, "save step execution failed and retry for recoverable err, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, e)
			continue
		}
		if e != nil {
			logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, e)
		}
		break
	}
	return err
}

// stopRequested a stop is requested by Stop() or by cancelling the context
func stopRequested(ctx context.Context, execution *StepExecution) bool {
	if ctx.Err() != nil {
		return true
	}
	return execution.JobExecution != nil && execution.JobExecution.StopRequested()
}

// chunkStep step implementation that process data in chunk
type chunkStep struct {
	name              string
	reader            Reader
	processor         Processor
	writer            Writer
	chunkSize         int
	skipLimit         int64
	skipPolicyFactory SkipPolicyFactory
	txManager         TransactionManager
	listeners         []StepListener
	chunkListeners    []ChunkListener
	skipListeners     []SkipListener
}

type chunk struct {
	items     []interface{}
	skipItems []interface{}
	end       bool
}

func newChunk(size int) *chunk {
	return &chunk{
		items:     make([]interface{}, 0, size),
		skipItems: make([]interface{}, 0),
	}
}

func (step *chunkStep) Name() string {
	return step.name
}

func (step *chunkStep) Exec(ctx context.Context, execution *StepExecution) (err BatchError) {
	defer func() {
		err = execEnd(ctx, execution, err, recover())
	}()
	logger.Info(ctx, "step execute start, jobExecutionId:%v, stepName:%v, chunkSize:%v, skipLimit:%v", execution.jobExecutionId(), execution.StepName, step.chunkSize, step.skipLimit)
	notifyBeforeStep(ctx, step.listeners, execution)
	execution.SkipLimit = step.skipLimit
	execution.start()
	if err = saveStepExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, err)
	} else if err = step.doOpenIfNecessary(execution); err != nil {
		logger.Error(ctx, "open resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, err)
	} else {
		policy := step.skipPolicyFactory()
		err = step.doChunks(ctx, execution, policy)
		if closeErr := step.doCloseIfNecessary(execution); closeErr != nil {
			logger.Error(ctx, "close resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}
	if err != nil && err.Code() != ErrCodeStop {
		logger.Error(ctx, "step execute failed, jobExecutionId:%v, stepName:%v, stage:%v, err:%v", execution.jobExecutionId(), execution.StepName, err.Stage(), err)
	}
	execution.finish(err)
	notifyAfterStep(ctx, step.listeners, execution)
	logger.Info(ctx, "step execute finish, jobExecutionId:%v, stepName:%v, stepStatus:%v, %v", execution.jobExecutionId(), execution.StepName, execution.StepStatus, execution.Stats)
	return err
}

// doChunks runs chunks until the source is exhausted, a fatal error occurs or a stop is requested
func (step *chunkStep) doChunks(ctx context.Context, execution *StepExecution, policy SkipPolicy) BatchError {
	for {
		if stopRequested(ctx, execution) {
			logger.Info(ctx, "step stopped before next chunk, jobExecutionId:%v, stepName:%v", execution.jobExecutionId(), execution.StepName)
			return StopError
		}
		chunkCtx := &ChunkContext{
			StepExecution: execution,
			ctx:           ctx,
		}
		end, err := step.doChunk(ctx, chunkCtx, policy)
		if budget, ok := policy.(skipBudget); ok {
			execution.SkipBudgetUsed = budget.Used()
		}
		if err != nil {
			return err
		}
		if e := saveStepExecution(ctx, execution); e != nil {
			logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.jobExecutionId(), execution.StepName, e)
			return e
		}
		if end {
			return nil
		}
	}
}

func (step *chunkStep) doChunk(ctx context.Context, chunkCtx *ChunkContext, policy SkipPolicy) (end bool, err BatchError) {
	execution := chunkCtx.StepExecution
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic on chunk executing, jobExecutionId:%v, stepName:%v, err:%v, stack:%v", execution.jobExecutionId(), execution.StepName, er, string(debug.Stack()))
			err = NewBatchError(ErrCodeGeneral, "panic on chunk executing, stepName:%v, err:%v", execution.StepName, er)
			notifyChunkError(ctx, step.chunkListeners, chunkCtx, err)
		}
	}()
	notifyBeforeChunk(ctx, step.chunkListeners, chunkCtx)
	ch := newChunk(step.chunkSize)
	if err = step.fill(ctx, chunkCtx, ch, policy); err != nil {
		if len(ch.items) > 0 {
			// accepted items of an unfinished chunk are never written
			execution.Stats.chunkAbandoned(len(ch.items))
		}
		notifyChunkError(ctx, step.chunkListeners, chunkCtx, err)
		return false, err
	}
	chunkCtx.End = ch.end
	logger.Debug(ctx, "chunk filled, jobExecutionId:%v, stepName:%v, items:%v, skipped:%v, end:%v", execution.jobExecutionId(), execution.StepName, len(ch.items), len(ch.skipItems), ch.end)
	if len(ch.items) > 0 {
		if err = step.write(ctx, chunkCtx, ch, policy); err != nil {
			return false, err
		}
	}
	notifyAfterChunk(ctx, step.chunkListeners, chunkCtx)
	return ch.end, nil
}

// fill reads and processes units until the chunk holds chunkSize accepted items or the source is exhausted
func (step *chunkStep) fill(ctx context.Context, chunkCtx *ChunkContext, ch *chunk, policy SkipPolicy) BatchError {
	stats := chunkCtx.StepExecution.Stats
	for len(ch.items) < step.chunkSize {
		item, err := step.reader.Read(chunkCtx)
		if err != nil {
			readErr := WrapStageError(StageRead, err)
			if fatal := step.skip(ctx, chunkCtx, policy, StageRead, nil, readErr); fatal != nil {
				return fatal
			}
			stats.readSkipped()
			continue
		}
		if item == nil {
			ch.end = true
			return nil
		}
		result, err := step.process(ctx, chunkCtx, item)
		if err != nil {
			processErr := WrapStageError(StageProcess, err)
			if fatal := step.skip(ctx, chunkCtx, policy, StageProcess, item, processErr); fatal != nil {
				return fatal
			}
			stats.processSkipped()
			ch.skipItems = append(ch.skipItems, item)
			continue
		}
		if result.Filtered() {
			logger.Debug(ctx, "item filtered, stepName:%v, item:%v, reason:%v", chunkCtx.StepExecution.StepName, item, result.Reason())
			stats.itemFiltered()
			continue
		}
		stats.itemProcessed()
		ch.items = append(ch.items, result.Item())
	}
	return nil
}

// process calls the processor; a panic fails the item like a returned error
func (step *chunkStep) process(ctx context.Context, chunkCtx *ChunkContext, item interface{}) (result ProcessResult, err BatchError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in processor, stepName:%v, item:%v, err:%v, stack:%v", chunkCtx.StepExecution.StepName, item, r, string(debug.Stack()))
			result, err = ProcessResult{}, NewBatchError(ErrCodeProcess, "panic in processor: %v", r)
		}
	}()
	return step.processor.Process(item, chunkCtx)
}

// write writes the chunk in one transaction; a failed chunk is rolled back and evaluated once by the skip policy
func (step *chunkStep) write(ctx context.Context, chunkCtx *ChunkContext, ch *chunk, policy SkipPolicy) BatchError {
	execution := chunkCtx.StepExecution
	err := step.writeInTx(ctx, chunkCtx, ch.items)
	if err == nil {
		execution.Stats.chunkCommitted(len(ch.items))
		logger.Debug(ctx, "chunk committed, jobExecutionId:%v, stepName:%v, items:%v", execution.jobExecutionId(), execution.StepName, len(ch.items))
		return nil
	}
	execution.Stats.chunkRolledBack(len(ch.items))
	logger.Error(ctx, "chunk rolled back, jobExecutionId:%v, stepName:%v, items:%v, err:%v", execution.jobExecutionId(), execution.StepName, len(ch.items), err)
	notifyChunkError(ctx, step.chunkListeners, chunkCtx, err)
	decision, fatal := policy.Evaluate(StageWrite, err)
	if decision != Skip {
		if fatal == nil {
			fatal = err
		}
		return fatal
	}
	for _, item := range ch.items {
		notifySkip(ctx, step.skipListeners, chunkCtx, StageWrite, item, err)
	}
	return nil
}

// writeInTx an in-flight chunk is not interrupted by cancellation of ctx
func (step *chunkStep) writeInTx(ctx context.Context, chunkCtx *ChunkContext, items []interface{}) (err BatchError) {
	tx, err := step.txManager.BeginTx(context.WithoutCancel(ctx))
	if err != nil {
		return WrapStageError(StageWrite, err)
	}
	chunkCtx.Tx = tx
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in writer, stepName:%v, err:%v, stack:%v", chunkCtx.StepExecution.StepName, r, string(debug.Stack()))
			err = NewBatchError(ErrCodeWrite, "panic in writer: %v", r)
		}
		if err != nil {
			if rbErr := step.txManager.Rollback(tx); rbErr != nil {
				logger.Warn(ctx, "rollback transaction err, stepName:%v, err:%v", chunkCtx.StepExecution.StepName, rbErr)
			}
		}
		chunkCtx.Tx = nil
	}()
	if err = step.writer.Write(items, chunkCtx); err != nil {
		return WrapStageError(StageWrite, err)
	}
	if err = step.txManager.Commit(tx); err != nil {
		return WrapStageError(StageWrite, err)
	}
	return nil
}

// skip evaluates a read or process failure, returns the fatal error when the step must fail
func (step *chunkStep) skip(ctx context.Context, chunkCtx *ChunkContext, policy SkipPolicy, stage Stage, item interface{}, err BatchError) BatchError {
	decision, fatal := policy.Evaluate(stage, err)
	if decision != Skip {
		if fatal == nil {
			fatal = err
		}
		logger.Error(ctx, "%v failure is fatal, stepName:%v, err:%v", stage, chunkCtx.StepExecution.StepName, fatal)
		return fatal
	}
	logger.Debug(ctx, "%v failure skipped, stepName:%v, item:%v, err:%v", stage, chunkCtx.StepExecution.StepName, item, err)
	notifySkip(ctx, step.skipListeners, chunkCtx, stage, item, err)
	return nil
}

func (step *chunkStep) doOpenIfNecessary(execution *StepExecution) BatchError {
	if rc, ok := step.reader.(OpenCloser); ok {
		if err := rc.Open(execution); err != nil {
			return WrapStageError(StageRead, err)
		}
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if err := wc.Open(execution); err != nil {
			if rc, ok := step.reader.(OpenCloser); ok {
				_ = rc.Close(execution)
			}
			return WrapStageError(StageWrite, err)
		}
	}
	return nil
}

// doCloseIfNecessary closes reader and writer, both are closed even if one of them fails
func (step *chunkStep) doCloseIfNecessary(execution *StepExecution) BatchError {
	var result *multierror.Error
	if rc, ok := step.reader.(OpenCloser); ok {
		if err := rc.Close(execution); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if err := wc.Close(execution); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return NewBatchError(ErrCodeGeneral, "close step resources failed", err)
	}
	return nil
}

func (step *chunkStep) addListener(listener StepListener) {
	step.listeners = append(step.listeners, listener)
}

func (step *chunkStep) addChunkListener(listener ChunkListener) {
	step.chunkListeners = append(step.chunkListeners, listener)
}

func (step *chunkStep) addSkipListener(listener SkipListener) {
	step.skipListeners = append(step.skipListeners, listener)
}
