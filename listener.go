package chunkbatch

import (
	"context"
	"reflect"
	"runtime/debug"
)

//JobListener job listener
type JobListener interface {
	//BeforeJob execute before job start
	BeforeJob(execution *JobExecution) BatchError
	//AfterJob execute after job end either normally or abnormally
	AfterJob(execution *JobExecution) BatchError
}

//StepListener step listener
type StepListener interface {
	//BeforeStep execute before step start
	BeforeStep(execution *StepExecution) BatchError
	//AfterStep execute after step end either normally or abnormally
	AfterStep(execution *StepExecution) BatchError
}

//ChunkListener chunk listener
type ChunkListener interface {
	//BeforeChunk execute before start of a chunk in a chunkStep
	BeforeChunk(context *ChunkContext) BatchError
	//AfterChunk execute after end of a chunk in a chunkStep
	AfterChunk(context *ChunkContext) BatchError
	//OnError execute when a chunk fails to fill or to write
	OnError(context *ChunkContext, err BatchError)
}

//SkipListener notified each time a unit is skipped
type SkipListener interface {
	OnSkipRead(context *ChunkContext, err BatchError)
	OnSkipProcess(context *ChunkContext, item interface{}, err BatchError)
	//OnSkipWrite called once per item of a rolled back chunk
	OnSkipWrite(context *ChunkContext, item interface{}, err BatchError)
}

//notify runs a listener callback; errors and panics are logged and never reach the caller
func notify(ctx context.Context, listener interface{}, event string, fn func() BatchError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in listener, listener:%v, event:%v, err:%v, stack:%v", reflect.TypeOf(listener).String(), event, r, string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		logger.Error(ctx, "listener executing error, listener:%v, event:%v, err:%v", reflect.TypeOf(listener).String(), event, err)
	}
}

func notifyBeforeJob(ctx context.Context, listeners []JobListener, execution *JobExecution) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "BeforeJob", func() BatchError { return l.BeforeJob(execution) })
	}
}

func notifyAfterJob(ctx context.Context, listeners []JobListener, execution *JobExecution) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "AfterJob", func() BatchError { return l.AfterJob(execution) })
	}
}

func notifyBeforeStep(ctx context.Context, listeners []StepListener, execution *StepExecution) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "BeforeStep", func() BatchError { return l.BeforeStep(execution) })
	}
}

func notifyAfterStep(ctx context.Context, listeners []StepListener, execution *StepExecution) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "AfterStep", func() BatchError { return l.AfterStep(execution) })
	}
}

func notifyBeforeChunk(ctx context.Context, listeners []ChunkListener, chunkCtx *ChunkContext) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "BeforeChunk", func() BatchError { return l.BeforeChunk(chunkCtx) })
	}
}

func notifyAfterChunk(ctx context.Context, listeners []ChunkListener, chunkCtx *ChunkContext) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "AfterChunk", func() BatchError { return l.AfterChunk(chunkCtx) })
	}
}

func notifyChunkError(ctx context.Context, listeners []ChunkListener, chunkCtx *ChunkContext, err BatchError) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "OnError", func() BatchError {
			l.OnError(chunkCtx, err)
			return nil
		})
	}
}

func notifySkip(ctx context.Context, listeners []SkipListener, chunkCtx *ChunkContext, stage Stage, item interface{}, err BatchError) {
	for _, l := range listeners {
		l := l
		notify(ctx, l, "OnSkip", func() BatchError {
			switch stage {
			case StageRead:
				l.OnSkipRead(chunkCtx, err)
			case StageProcess:
				l.OnSkipProcess(chunkCtx, item, err)
			case StageWrite:
				l.OnSkipWrite(chunkCtx, item, err)
			}
			return nil
		})
	}
}
