package chunkbatch

import (
	"sync"

	"github.com/chararch/chunkbatch/file"
)

//fileReader adapts a file.FileItemReader to Reader, one open handle per step execution
type fileReader struct {
	fd     file.FileObjectModel
	reader file.FileItemReader

	mu      sync.Mutex
	handles map[*StepExecution]*openFile
}

type openFile struct {
	fileName string
	handle   interface{}
}

func (r *fileReader) Open(execution *StepExecution) BatchError {
	fd := r.fd
	fp := &FilePath{NamePattern: fd.FileName}
	fileName, err := fp.Format(execution)
	if err != nil {
		return NewBatchError(ErrCodeRead, "resolve file path:%v", fd.FileName, err)
	}
	fd.FileName = fileName
	if fd.FileStore == nil {
		fd.FileStore = &file.LocalFileSystem{}
	}
	ok, err := fd.FileStore.Exists(fileName)
	if err != nil {
		return NewBatchError(ErrCodeRead, "check existence of file:%v", fd, err)
	}
	if !ok {
		return NewBatchError(ErrCodeRead, "file:%v does not exist", fd)
	}
	handle, err := r.reader.Open(fd)
	if err != nil {
		return NewBatchError(ErrCodeRead, "open file reader:%v", fd, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles == nil {
		r.handles = make(map[*StepExecution]*openFile)
	}
	r.handles[execution] = &openFile{fileName: fileName, handle: handle}
	execution.StepExecutionContext.Put(fileReaderFileNameKey, fileName)
	return nil
}

const fileReaderFileNameKey = "chunkbatch.fileReader.fileName"

func (r *fileReader) current(execution *StepExecution) *openFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[execution]
}

func (r *fileReader) Read(chunkCtx *ChunkContext) (interface{}, BatchError) {
	f := r.current(chunkCtx.StepExecution)
	if f == nil {
		return nil, NewBatchError(ErrCodeRead, "file reader of step:%v is not open", chunkCtx.StepExecution.StepName)
	}
	item, err := r.reader.ReadItem(f.handle)
	if err != nil {
		return nil, NewBatchError(ErrCodeRead, "read item from file:%v", f.fileName, err)
	}
	return item, nil
}

func (r *fileReader) Close(execution *StepExecution) BatchError {
	r.mu.Lock()
	f := r.handles[execution]
	delete(r.handles, execution)
	r.mu.Unlock()
	if f == nil {
		return nil
	}
	if err := r.reader.Close(f.handle); err != nil {
		return NewBatchError(ErrCodeRead, "close file reader:%v", f.fileName, err)
	}
	return nil
}
