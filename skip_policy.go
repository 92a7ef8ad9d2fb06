package chunkbatch

import (
	"strings"
	"sync/atomic"
)

//SkipDecision outcome of evaluating a per-item failure
type SkipDecision int

const (
	//Skip the failed unit is dropped and the step goes on
	Skip SkipDecision = iota
	//Fail the failure is fatal to the step
	Fail
)

func (d SkipDecision) String() string {
	if d == Skip {
		return "SKIP"
	}
	return "FAIL"
}

//SkippableAll error class matching every stage failure
const SkippableAll = "all"

//SkipPolicy decides whether a stage failure is tolerated.
//When the decision is Fail, the returned error is the one the step fails with.
type SkipPolicy interface {
	Evaluate(stage Stage, err BatchError) (SkipDecision, BatchError)
}

//SkipPolicyFactory creates the policy of one step execution, skip budgets are never shared between executions
type SkipPolicyFactory func() SkipPolicy

//skipBudget implemented by policies that can report the budget consumed
type skipBudget interface {
	Used() int64
}

//LimitSkipPolicy tolerates up to Limit skippable failures across all stages of a step execution
type LimitSkipPolicy struct {
	limit    int64
	classes  []string
	used     atomic.Int64
	exceeded atomic.Bool
}

//NewLimitSkipPolicy skippable classes are stage names (read, process, write), error codes,
//error type names like *strconv.NumError, or "all". No class means "all".
func NewLimitSkipPolicy(limit int64, classes ...string) *LimitSkipPolicy {
	if limit < 0 {
		panic("skip limit must not be negative")
	}
	if len(classes) == 0 {
		classes = []string{SkippableAll}
	}
	normalized := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			normalized = append(normalized, c)
		}
	}
	return &LimitSkipPolicy{limit: limit, classes: normalized}
}

func (p *LimitSkipPolicy) Evaluate(stage Stage, err BatchError) (SkipDecision, BatchError) {
	if !p.skippable(stage, err) {
		return Fail, newNotSkippableError(stage, err)
	}
	for {
		cur := p.used.Load()
		if cur >= p.limit {
			p.exceeded.Store(true)
			return Fail, newSkipLimitExceededError(stage, p.limit, err)
		}
		if p.used.CompareAndSwap(cur, cur+1) {
			return Skip, nil
		}
	}
}

func (p *LimitSkipPolicy) skippable(stage Stage, err BatchError) bool {
	if err.Code() == ErrCodeStop {
		return false
	}
	class := ErrorClass(err)
	for _, c := range p.classes {
		switch {
		case strings.EqualFold(c, SkippableAll):
			return true
		case strings.EqualFold(c, string(stage)):
			return true
		case c == err.Code() || c == class:
			return true
		}
	}
	return false
}

func (p *LimitSkipPolicy) Limit() int64 {
	return p.limit
}

func (p *LimitSkipPolicy) Used() int64 {
	return p.used.Load()
}

//Exceeded reports whether a failure has been refused for lack of budget
func (p *LimitSkipPolicy) Exceeded() bool {
	return p.exceeded.Load()
}

//LimitSkipPolicyFactory factory creating a fresh LimitSkipPolicy per step execution
func LimitSkipPolicyFactory(limit int64, classes ...string) SkipPolicyFactory {
	return func() SkipPolicy {
		return NewLimitSkipPolicy(limit, classes...)
	}
}

//NeverSkipPolicy fails the step on the first stage failure
type NeverSkipPolicy struct{}

func (NeverSkipPolicy) Evaluate(stage Stage, err BatchError) (SkipDecision, BatchError) {
	return Fail, err
}
