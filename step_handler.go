package chunkbatch

//Task function of a tasklet step
type Task func(execution *StepExecution) BatchError

//Handler executes a tasklet step
type Handler interface {
	Handle(execution *StepExecution) BatchError
}

//Reader pulls the next unit from a source.
//A nil item with nil error signals the end of the stream; an error reports a unit that could not be read.
type Reader interface {
	Read(chunkCtx *ChunkContext) (interface{}, BatchError)
}

//Processor transforms a unit; the result is either accepted or filtered, an error is a per-item failure
type Processor interface {
	Process(item interface{}, chunkCtx *ChunkContext) (ProcessResult, BatchError)
}

//Writer writes a chunk of accepted items, inside the chunk transaction found in chunkCtx.Tx
type Writer interface {
	Write(items []interface{}, chunkCtx *ChunkContext) BatchError
}

//OpenCloser implemented by readers and writers holding resources for the duration of a step
type OpenCloser interface {
	Open(execution *StepExecution) BatchError
	Close(execution *StepExecution) BatchError
}

//ProcessResult outcome of Processor.Process that is not an error
type ProcessResult struct {
	item     interface{}
	filtered bool
	reason   string
}

//Accept passes item on to the writer
func Accept(item interface{}) ProcessResult {
	return ProcessResult{item: item}
}

//Filter drops the unit deliberately, it is counted as filtered and never written
func Filter(reason string) ProcessResult {
	return ProcessResult{filtered: true, reason: reason}
}

func (r ProcessResult) Item() interface{} {
	return r.item
}

//Filtered an accepted nil item counts as filtered too
func (r ProcessResult) Filtered() bool {
	return r.filtered || r.item == nil
}

func (r ProcessResult) Reason() string {
	return r.reason
}

type nilProcessor struct {
}

func (p *nilProcessor) Process(item interface{}, chunkCtx *ChunkContext) (ProcessResult, BatchError) {
	return Accept(item), nil
}

type nilWriter struct {
}

func (w *nilWriter) Write(items []interface{}, chunkCtx *ChunkContext) BatchError {
	return nil
}
