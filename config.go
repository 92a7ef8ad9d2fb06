package chunkbatch

import (
	"strings"
)

const (
	//DefaultChunkSize default number of accepted items written per transaction
	DefaultChunkSize = 500
	//DefaultSkipLimit default number of tolerated per-item failures of a step execution
	DefaultSkipLimit = 100
)

//StepConfig tunables of a chunk step
type StepConfig struct {
	ChunkSize             int      `mapstructure:"chunkSize" json:"chunkSize"`
	SkipLimit             int64    `mapstructure:"skipLimit" json:"skipLimit"`
	SkippableErrorClasses []string `mapstructure:"skippableErrorClasses" json:"skippableErrorClasses"`
}

//DefaultStepConfig chunk size 500, skip limit 100, every error class skippable
func DefaultStepConfig() StepConfig {
	return StepConfig{
		ChunkSize:             DefaultChunkSize,
		SkipLimit:             DefaultSkipLimit,
		SkippableErrorClasses: []string{SkippableAll},
	}
}

//Validate checks the config before any execution begins
func (c StepConfig) Validate() BatchError {
	if c.ChunkSize <= 0 {
		return NewBatchError(ErrCodeConfig, "chunkSize must be positive, got %d", c.ChunkSize)
	}
	if c.SkipLimit < 0 {
		return NewBatchError(ErrCodeConfig, "skipLimit must not be negative, got %d", c.SkipLimit)
	}
	for _, class := range c.SkippableErrorClasses {
		if strings.TrimSpace(class) == "" {
			return NewBatchError(ErrCodeConfig, "skippableErrorClasses must not contain empty entries")
		}
	}
	return nil
}
