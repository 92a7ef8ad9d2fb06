package chunkbatch

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BatchError error type used throughout the engine
type BatchError interface {
	Code() string
	Message() string
	Error() string
	Stage() Stage
	Cause() error
	Unwrap() error
	StackTrace() errors.StackTrace
}

// Stage the pipeline stage an error was raised in
type Stage string

const (
	StageNone    Stage = ""
	StageRead    Stage = "read"
	StageProcess Stage = "process"
	StageWrite   Stage = "write"
)

const (
	ErrCodeRead              = "read"
	ErrCodeProcess           = "process"
	ErrCodeWrite             = "write"
	ErrCodeSkipLimitExceeded = "skip_limit_exceeded"
	ErrCodeNotSkippable      = "not_skippable"
	ErrCodeStop              = "stop"
	ErrCodeConcurrency       = "concurrency"
	ErrCodeDbFail            = "db_fail"
	ErrCodeConfig            = "config"
	ErrCodeGeneral           = "general"
)

type batchErr struct {
	code  string
	msg   string
	stage Stage
	err   error
	stack errors.StackTrace
}

func (err *batchErr) Code() string {
	return err.code
}

func (err *batchErr) Message() string {
	return err.msg
}

func (err *batchErr) Stage() Stage {
	return err.stage
}

func (err *batchErr) Error() string {
	if err.stage != StageNone {
		return fmt.Sprintf("batch err, code:%v, stage:%v, message:%v", err.code, err.stage, err.msg)
	}
	return fmt.Sprintf("batch err, code:%v, message:%v", err.code, err.msg)
}

// Cause the innermost error of the chain, nil if the error has no cause
func (err *batchErr) Cause() error {
	return errors.Cause(err.err)
}

func (err *batchErr) Unwrap() error {
	return err.err
}

func (err *batchErr) StackTrace() errors.StackTrace {
	return err.stack
}

func (err *batchErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s%+v", err.Error(), err.stack)
			return
		}
		fallthrough
	case 's':
		_, _ = s.Write([]byte(err.Error()))
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

func callers() errors.StackTrace {
	st := errors.New("").(interface{ StackTrace() errors.StackTrace }).StackTrace()
	if len(st) > 2 {
		return st[2:]
	}
	return st
}

// NewBatchError creates a BatchError. msg is formatted with args; when the last
// arg is an error not consumed by a verb in msg it becomes the cause.
func NewBatchError(code string, msg string, args ...interface{}) BatchError {
	var cause error
	if len(args) > 0 {
		if e, ok := args[len(args)-1].(error); ok {
			cause = e
			verbs := strings.Count(msg, "%") - 2*strings.Count(msg, "%%")
			if verbs < len(args) {
				args = args[:len(args)-1]
			} else {
				cause = nil
			}
		}
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	be := &batchErr{code: code, msg: msg, stage: stageOf(code), err: cause, stack: callers()}
	if cause != nil {
		be.msg = fmt.Sprintf("%s: %v", msg, cause)
		if inner, ok := cause.(BatchError); ok && be.stage == StageNone {
			be.stage = inner.Stage()
		}
	}
	return be
}

// WrapStageError turns any error raised by a reader, processor or writer into a
// BatchError of the matching stage. Errors already carrying that stage are kept.
func WrapStageError(stage Stage, err error) BatchError {
	if err == nil {
		return nil
	}
	if be, ok := err.(BatchError); ok && be.Stage() == stage {
		return be
	}
	code := ErrCodeGeneral
	switch stage {
	case StageRead:
		code = ErrCodeRead
	case StageProcess:
		code = ErrCodeProcess
	case StageWrite:
		code = ErrCodeWrite
	}
	msg := err.Error()
	if be, ok := err.(BatchError); ok {
		msg = be.Message()
	}
	return &batchErr{code: code, msg: msg, stage: stage, err: err, stack: callers()}
}

func stageOf(code string) Stage {
	switch code {
	case ErrCodeRead:
		return StageRead
	case ErrCodeProcess:
		return StageProcess
	case ErrCodeWrite:
		return StageWrite
	}
	return StageNone
}

func newSkipLimitExceededError(stage Stage, limit int64, cause BatchError) BatchError {
	return &batchErr{
		code:  ErrCodeSkipLimitExceeded,
		msg:   fmt.Sprintf("skip limit:%d exceeded at %v stage: %v", limit, stage, cause.Message()),
		stage: stage,
		err:   cause,
		stack: cause.StackTrace(),
	}
}

func newNotSkippableError(stage Stage, cause BatchError) BatchError {
	return &batchErr{
		code:  ErrCodeNotSkippable,
		msg:   fmt.Sprintf("non-skippable error at %v stage: %v", stage, cause.Message()),
		stage: stage,
		err:   cause,
		stack: cause.StackTrace(),
	}
}

// ErrorClass names the triggering error of a chain: the Go type of the first
// foreign error wrapped by BatchErrors, or the code of the innermost BatchError.
func ErrorClass(err error) string {
	class := ""
	for cur := err; cur != nil; cur = stderrors.Unwrap(cur) {
		be, ok := cur.(BatchError)
		if !ok {
			return fmt.Sprintf("%T", cur)
		}
		class = be.Code()
	}
	return class
}

var (
	StopError       BatchError = &batchErr{code: ErrCodeStop, msg: "job stopping"}
	ConcurrentError BatchError = &batchErr{code: ErrCodeConcurrency, msg: "concurrency error"}
)
