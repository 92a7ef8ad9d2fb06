package file

import (
	"encoding/csv"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeFormat = "2006-01-02 15:04:05"

type xsvFileItemReader struct {
	separator rune
}

type xsvReadHandle struct {
	fd       FileObjectModel
	itemType reflect.Type
	file     io.ReadCloser
	reader   *csv.Reader
	fields   []*xsvField
}

//xsvField maps a column to a struct field
type xsvField struct {
	fieldIndex []int
	header     string
	order      int
	format     string
	column     int
}

func (r *xsvFileItemReader) Open(fd FileObjectModel) (interface{}, error) {
	itemType, err := fd.ItemType()
	if err != nil {
		return nil, err
	}
	fields, err := parseXsvFields(itemType)
	if err != nil {
		return nil, err
	}
	if fd.FileStore == nil {
		return nil, errors.Errorf("no FileStore for %v", fd.FileName)
	}
	f, err := fd.FileStore.Open(fd.FileName, fd.Encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "open file %v", fd)
	}
	reader := csv.NewReader(f)
	reader.Comma = r.separator
	if fd.FieldSeparator != "" {
		sep := []rune(fd.FieldSeparator)
		if len(sep) != 1 {
			f.Close()
			return nil, errors.Errorf("invalid field separator:%q", fd.FieldSeparator)
		}
		reader.Comma = sep[0]
	}
	if reader.Comma == '\t' {
		reader.LazyQuotes = true
	}
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true
	handle := &xsvReadHandle{
		fd:       fd,
		itemType: itemType,
		file:     f,
		reader:   reader,
		fields:   fields,
	}
	if fd.Header {
		if err = handle.bindHeader(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return handle, nil
}

func (r *xsvFileItemReader) Close(handle interface{}) error {
	if h, ok := handle.(*xsvReadHandle); ok {
		return h.file.Close()
	}
	return errors.Errorf("invalid handle:%T", handle)
}

func (r *xsvFileItemReader) ReadItem(handle interface{}) (interface{}, error) {
	h, ok := handle.(*xsvReadHandle)
	if !ok {
		return nil, errors.Errorf("invalid handle:%T", handle)
	}
	record, err := h.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		if pe, ok := err.(*csv.ParseError); ok {
			return nil, &RecordError{FileName: h.fd.FileName, Line: pe.StartLine, Err: pe.Err}
		}
		return nil, errors.Wrapf(err, "read %v", h.fd)
	}
	line, _ := h.reader.FieldPos(0)
	item := reflect.New(h.itemType)
	if err = h.decode(record, item.Elem()); err != nil {
		return nil, &RecordError{FileName: h.fd.FileName, Line: line, Err: err}
	}
	return item.Interface(), nil
}

func (h *xsvReadHandle) bindHeader() error {
	record, err := h.reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read header of %v", h.fd)
	}
	columns := make(map[string]int, len(record))
	for i, name := range record {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, f := range h.fields {
		if f.header == "" {
			continue
		}
		idx, ok := columns[f.header]
		if !ok {
			return errors.Errorf("column %v not found in header of %v", f.header, h.fd)
		}
		f.column = idx
	}
	return nil
}

func (h *xsvReadHandle) decode(record []string, item reflect.Value) error {
	for _, f := range h.fields {
		if f.column < 0 {
			continue
		}
		if f.column >= len(record) {
			return errors.Errorf("expected at least %d fields, got %d", f.column+1, len(record))
		}
		if err := setField(item.FieldByIndex(f.fieldIndex), record[f.column], f.format); err != nil {
			name := f.header
			if name == "" {
				name = strconv.Itoa(f.order)
			}
			return errors.Wrapf(err, "field %v", name)
		}
	}
	return nil
}

func parseXsvFields(itemType reflect.Type) ([]*xsvField, error) {
	fields := make([]*xsvField, 0, itemType.NumField())
	for i := 0; i < itemType.NumField(); i++ {
		sf := itemType.Field(i)
		if !sf.IsExported() {
			continue
		}
		header := sf.Tag.Get("header")
		orderTag := sf.Tag.Get("order")
		if header == "" && orderTag == "" {
			continue
		}
		field := &xsvField{
			fieldIndex: sf.Index,
			header:     header,
			format:     sf.Tag.Get("format"),
			column:     -1,
			order:      -1,
		}
		if orderTag != "" {
			order, err := strconv.Atoi(orderTag)
			if err != nil || order < 0 {
				return nil, errors.Errorf("invalid order tag %q on field %v", orderTag, sf.Name)
			}
			field.order = order
			field.column = order
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, errors.Errorf("no field of %v has header or order tag", itemType)
	}
	return fields, nil
}

func setField(v reflect.Value, s string, format string) error {
	if v.Kind() == reflect.Ptr {
		if s == "" {
			return nil
		}
		p := reflect.New(v.Type().Elem())
		if err := setField(p.Elem(), s, format); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	if v.Type() == reflect.TypeOf(time.Time{}) {
		if s == "" {
			return nil
		}
		if format == "" {
			format = defaultTimeFormat
		}
		t, err := time.ParseInLocation(format, s, time.Local)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(t))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		if s == "" {
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(n)
	default:
		return errors.Errorf("unsupported field type:%v", v.Type())
	}
	return nil
}
