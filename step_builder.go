package chunkbatch

import (
	"fmt"

	"github.com/chararch/chunkbatch/file"
)

type stepBuilder struct {
	name              string
	task              Task
	handler           Handler
	reader            Reader
	processor         Processor
	writer            Writer
	config            StepConfig
	skipPolicyFactory SkipPolicyFactory
	txManager         TransactionManager
	stepListeners     []StepListener
	chunkListeners    []ChunkListener
	skipListeners     []SkipListener
}

//NewStep initialize a step builder
func NewStep(name string, handler ...interface{}) *stepBuilder {
	if name == "" {
		panic("step name must not be empty")
	}
	builder := &stepBuilder{
		name:           name,
		processor:      &nilProcessor{},
		writer:         &nilWriter{},
		config:         DefaultStepConfig(),
		stepListeners:  make([]StepListener, 0),
		chunkListeners: make([]ChunkListener, 0),
		skipListeners:  make([]SkipListener, 0),
	}
	for _, h := range handler {
		builder.Handler(h)
	}
	return builder
}

func (builder *stepBuilder) Handler(handler interface{}) *stepBuilder {
	valid := false
	switch val := handler.(type) {
	case Task:
		builder.Task(val)
		valid = true
	case func(execution *StepExecution) BatchError:
		builder.Task(val)
		valid = true
	case func() error:
		builder.Task(func(execution *StepExecution) BatchError {
			if e := val(); e != nil {
				if be, ok := e.(BatchError); ok {
					return be
				}
				return NewBatchError(ErrCodeGeneral, "execute step:%v error", execution.StepName, e)
			}
			return nil
		})
		valid = true
	case Handler:
		builder.handler = val
		valid = true
	default:
		if r, ok := handler.(Reader); ok {
			builder.Reader(r)
			valid = true
		}
		if p, ok := handler.(Processor); ok {
			builder.Processor(p)
			valid = true
		}
		if w, ok := handler.(Writer); ok {
			builder.Writer(w)
			valid = true
		}
		if l, ok := handler.(StepListener); ok {
			builder.stepListeners = append(builder.stepListeners, l)
			valid = true
		}
		if l, ok := handler.(ChunkListener); ok {
			builder.chunkListeners = append(builder.chunkListeners, l)
			valid = true
		}
		if l, ok := handler.(SkipListener); ok {
			builder.skipListeners = append(builder.skipListeners, l)
			valid = true
		}
	}
	if !valid {
		panic(fmt.Sprintf("invalid handler type:%T for step:%v", handler, builder.name))
	}
	return builder
}

func (builder *stepBuilder) Task(task Task) *stepBuilder {
	builder.task = task
	return builder
}

func (builder *stepBuilder) Reader(reader Reader) *stepBuilder {
	builder.reader = reader
	return builder
}

func (builder *stepBuilder) Processor(processor Processor) *stepBuilder {
	builder.processor = processor
	return builder
}

func (builder *stepBuilder) Writer(writer Writer) *stepBuilder {
	builder.writer = writer
	return builder
}

//ReadFile reads items from a CSV or TSV file described by fd, the file name may contain {param,format} patterns
func (builder *stepBuilder) ReadFile(fd file.FileObjectModel, readers ...file.FileItemReader) *stepBuilder {
	fr := &fileReader{fd: fd}
	if len(readers) > 0 {
		fr.reader = readers[0]
	} else if fd.Type != "" {
		fr.reader = file.GetFileItemReader(fd.Type)
	}
	if fr.reader == nil {
		panic(fmt.Sprintf("file type:%v is non-standard and no FileItemReader specified for step:%v", fd.Type, builder.name))
	}
	builder.reader = fr
	return builder
}

func (builder *stepBuilder) ChunkSize(chunkSize int) *stepBuilder {
	builder.config.ChunkSize = chunkSize
	return builder
}

func (builder *stepBuilder) SkipLimit(skipLimit int64) *stepBuilder {
	builder.config.SkipLimit = skipLimit
	return builder
}

//SkippableErrors error classes the default skip policy tolerates: "all", a stage name, an error code or an error type name
func (builder *stepBuilder) SkippableErrors(classes ...string) *stepBuilder {
	builder.config.SkippableErrorClasses = classes
	return builder
}

//Config applies chunk size, skip limit and skippable error classes at once
func (builder *stepBuilder) Config(config StepConfig) *stepBuilder {
	builder.config = config
	return builder
}

//SkipPolicy replaces the default limit policy; factory is called once per step execution
func (builder *stepBuilder) SkipPolicy(factory SkipPolicyFactory) *stepBuilder {
	builder.skipPolicyFactory = factory
	return builder
}

//TransactionManager overrides the global transaction manager for this step
func (builder *stepBuilder) TransactionManager(txManager TransactionManager) *stepBuilder {
	builder.txManager = txManager
	return builder
}

func (builder *stepBuilder) Listener(listener ...interface{}) *stepBuilder {
	for _, l := range listener {
		valid := false
		if ll, ok := l.(StepListener); ok {
			builder.stepListeners = append(builder.stepListeners, ll)
			valid = true
		}
		if ll, ok := l.(ChunkListener); ok {
			builder.chunkListeners = append(builder.chunkListeners, ll)
			valid = true
		}
		if ll, ok := l.(SkipListener); ok {
			builder.skipListeners = append(builder.skipListeners, ll)
			valid = true
		}
		if !valid {
			panic(fmt.Sprintf("not supported listener:%+v for step:%v", l, builder.name))
		}
	}
	return builder
}

func (builder *stepBuilder) Build() Step {
	if builder.handler != nil {
		return newSimpleStep(builder.name, builder.handler, builder.stepListeners)
	}
	if builder.task != nil {
		return newSimpleStep(builder.name, builder.task, builder.stepListeners)
	}
	if builder.reader == nil {
		panic(fmt.Sprintf("no handler or reader specified for step: %s", builder.name))
	}
	if err := builder.config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config of step:%v, %v", builder.name, err.Message()))
	}
	txMgr := builder.txManager
	if txMgr == nil {
		txMgr = getTxManager()
	}
	if txMgr == nil {
		txMgr = &nopTxManager{}
	}
	policyFactory := builder.skipPolicyFactory
	if policyFactory == nil {
		policyFactory = LimitSkipPolicyFactory(builder.config.SkipLimit, builder.config.SkippableErrorClasses...)
	}
	return &chunkStep{
		name:              builder.name,
		reader:            builder.reader,
		processor:         builder.processor,
		writer:            builder.writer,
		chunkSize:         builder.config.ChunkSize,
		skipLimit:         builder.config.SkipLimit,
		skipPolicyFactory: policyFactory,
		txManager:         txMgr,
		listeners:         builder.stepListeners,
		chunkListeners:    builder.chunkListeners,
		skipListeners:     builder.skipListeners,
	}
}
