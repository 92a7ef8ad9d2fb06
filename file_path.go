package chunkbatch

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

//FilePath a file name pattern such as "customers_{date,yyyyMMdd}.csv", each {[category:]param[,format]}
//is replaced by the param value. category is "job" (job context) or "step" (step context);
//without category job params are looked up first, then the step context and the job context.
type FilePath struct {
	NamePattern string
}

var paramRegexp = regexp.MustCompile(`\{[^}]+\}`)

//Format resolve the pattern against a step execution
func (f *FilePath) Format(execution *StepExecution) (string, error) {
	var err error
	path := paramRegexp.ReplaceAllStringFunc(f.NamePattern, func(s string) string {
		if err != nil {
			return s
		}
		expr := s[1 : len(s)-1]
		category, param, format := "", expr, ""
		if idx := strings.Index(expr, ":"); idx > 0 {
			category, param = expr[:idx], expr[idx+1:]
		}
		if idx := strings.Index(param, ","); idx > 0 {
			param, format = param[:idx], param[idx+1:]
		}
		var val interface{}
		if val, err = lookupParam(execution, category, strings.TrimSpace(param)); err != nil {
			return s
		}
		var str string
		str, err = formatParam(val, strings.TrimSpace(format))
		return str
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func lookupParam(execution *StepExecution, category, param string) (interface{}, error) {
	job := execution.JobExecution
	switch category {
	case "":
		if job != nil {
			if v, ok := job.JobParams[param]; ok {
				return v, nil
			}
		}
		if execution.StepContext.Exists(param) {
			return execution.StepContext.Get(param), nil
		}
		if job != nil && job.JobContext.Exists(param) {
			return job.JobContext.Get(param), nil
		}
		return nil, errors.Errorf("can not find param:%v", param)
	case "job":
		if job != nil && job.JobContext.Exists(param) {
			return job.JobContext.Get(param), nil
		}
		return nil, errors.Errorf("can not find param:%v in job context", param)
	case "step":
		if execution.StepContext.Exists(param) {
			return execution.StepContext.Get(param), nil
		}
		return nil, errors.Errorf("can not find param:%v in step context", param)
	}
	return nil, errors.Errorf("unsupported param category:%v", category)
}

var dateFormatReplacer = strings.NewReplacer("yyyy", "2006", "MM", "01", "dd", "02", "HH", "15", "mm", "04", "SS", "05")
var dateFmtRegexp = regexp.MustCompile("yyyy|MM|dd|HH|mm|SS")

//formatParam formats: "" as is, a date layout made of yyyy MM dd HH mm SS, or "N#" for a zero padded number of N digits
func formatParam(val interface{}, format string) (string, error) {
	if val == nil {
		return "", nil
	}
	switch {
	case format == "":
		return fmt.Sprintf("%v", val), nil
	case dateFmtRegexp.MatchString(format):
		dt, err := parseDate(val)
		if err != nil {
			return "", err
		}
		return dt.Format(dateFormatReplacer.Replace(format)), nil
	case strings.Contains(format, "#"):
		digits, err := strconv.Atoi(strings.Trim(format, "#"))
		if err != nil || digits <= 0 {
			return "", errors.Errorf("unsupported format:%v", format)
		}
		n, err := parseInteger(val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%0*d", digits, n), nil
	}
	return "", errors.Errorf("unsupported format:%v", format)
}

func parseDate(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		switch len(v) {
		case 8:
			return time.ParseInLocation("20060102", v, time.Local)
		case 10:
			return time.ParseInLocation("2006-01-02", v, time.Local)
		case 19:
			return time.ParseInLocation("2006-01-02 15:04:05", v, time.Local)
		}
	}
	return time.Time{}, errors.Errorf("can not parse to date:%v", val)
}

func parseInteger(val interface{}) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, errors.Errorf("can not parse to integer:%v", val)
}
