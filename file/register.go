package file

import "sync"

var (
	readersMu   sync.RWMutex
	fileReaders = map[string]FileItemReader{}
)

// RegisterFileType register a FileItemReader for a non-standard file type
func RegisterFileType(ftype string, reader FileItemReader) {
	readersMu.Lock()
	defer readersMu.Unlock()
	fileReaders[ftype] = reader
}

// GetFileItemReader get FileItemReader by type
func GetFileItemReader(ftype string) FileItemReader {
	switch ftype {
	case TSV:
		return &xsvFileItemReader{separator: '\t'}
	case CSV:
		return &xsvFileItemReader{separator: ','}
	}
	readersMu.RLock()
	defer readersMu.RUnlock()
	return fileReaders[ftype]
}
