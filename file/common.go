package file

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

const (
	LocalFileStorage = "LocalFile"
	FTPFileStorage   = "FTP"
)

const (
	TSV = "tsv"
	CSV = "csv"
)

//FileObjectModel describes an input file and the struct its records are mapped to
type FileObjectModel struct {
	FileStore FileStorage
	//FileName may contain {param,format} patterns resolved from job params when the step starts
	FileName string
	Type     string
	//Encoding only utf-8 is supported, empty means utf-8
	Encoding string
	//Header the first record holds column names, matched against `header` tags
	Header bool
	//FieldSeparator overrides the separator implied by Type
	FieldSeparator string
	//ItemPrototype struct or pointer to struct, each record is decoded into a new *T
	ItemPrototype interface{}
}

func (fd FileObjectModel) String() string {
	return fmt.Sprintf("%v://%s", fd.FileStore, fd.FileName)
}

//ItemType the struct type records are decoded into
func (fd FileObjectModel) ItemType() (reflect.Type, error) {
	if fd.ItemPrototype == nil {
		return nil, errors.Errorf("no ItemPrototype for %v", fd)
	}
	tp := reflect.TypeOf(fd.ItemPrototype)
	if tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return nil, errors.Errorf("the underlying type of ItemPrototype is not struct for %v", fd)
	}
	return tp, nil
}

func checkEncoding(encoding string) error {
	switch strings.ToLower(strings.ReplaceAll(encoding, "-", "")) {
	case "", "utf8":
		return nil
	}
	return errors.Errorf("unsupported encoding:%v", encoding)
}

//FileStorage where input files live
type FileStorage interface {
	Exists(fileName string) (ok bool, err error)
	Open(fileName, encoding string) (reader io.ReadCloser, err error)
}

//FileItemReader decodes the records of a file into items
type FileItemReader interface {
	Open(fd FileObjectModel) (handle interface{}, err error)
	Close(handle interface{}) error
	//ReadItem returns nil, nil at end of file. A malformed record yields a *RecordError,
	//the reader stays usable and the next call returns the following record.
	ReadItem(handle interface{}) (interface{}, error)
}

//RecordError a record that could not be decoded
type RecordError struct {
	FileName string
	Line     int
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed record at %s line %d: %v", e.FileName, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
