package main

import (
	"fmt"
	"io"

	"github.com/chararch/chunkbatch"
)

func printReport(w io.Writer, execution *chunkbatch.JobExecution) {
	fmt.Fprintf(w, "job %s (run %s) finished with status %s in %v\n", execution.JobName, execution.RunId, execution.JobStatus, execution.Duration())
	for _, step := range execution.GetStepExecutions() {
		s := step.Stats.Snapshot()
		fmt.Fprintf(w, "  step %s: %s, read=%d processed=%d filtered=%d written=%d skipped=%d (read=%d process=%d write=%d) commits=%d rollbacks=%d\n",
			step.StepName, step.StepStatus, s.ReadCount, s.ProcessedCount, s.FilterCount, s.WriteCount, s.SkipCount(),
			s.ReadSkipCount, s.ProcessSkipCount, s.WriteSkipCount, s.CommitCount, s.RollbackCount)
	}
	if execution.FailError != nil || execution.ExitStatus.ExitMessage != "" {
		fmt.Fprintln(w, failureLine(execution))
	}
}

func failureLine(execution *chunkbatch.JobExecution) string {
	if execution.FailError == nil {
		if execution.ExitStatus.ExitMessage != "" {
			return fmt.Sprintf("job %s ended with status %s: %s", execution.JobName, execution.JobStatus, execution.ExitStatus.ExitMessage)
		}
		return fmt.Sprintf("job %s ended with status %s", execution.JobName, execution.JobStatus)
	}
	stage := chunkbatch.StageNone
	if be, ok := execution.FailError.(chunkbatch.BatchError); ok {
		stage = be.Stage()
	}
	if stage == chunkbatch.StageNone {
		stage = "-"
	}
	return fmt.Sprintf("failure: class=%s stage=%s message=%s", chunkbatch.ErrorClass(execution.FailError), stage, execution.ExitStatus.ExitMessage)
}
