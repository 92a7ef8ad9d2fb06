package metrics

import (
	"github.com/chararch/chunkbatch"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chunkbatch"

//Listener exports job and step outcomes as Prometheus metrics.
//It implements JobListener, StepListener and SkipListener.
type Listener struct {
	jobStatus    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	stepStatus   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepItems    *prometheus.CounterVec
	stepChunks   *prometheus.CounterVec
	skips        *prometheus.CounterVec
}

//NewListener creates the collectors and registers them with reg, prometheus.DefaultRegisterer when reg is nil
func NewListener(reg prometheus.Registerer) (*Listener, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	l := &Listener{
		jobStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_executions_total",
			Help:      "Finished job executions by status.",
		}, []string{"job_name", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of job executions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"job_name", "status"}),
		stepStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_executions_total",
			Help:      "Finished step executions by status.",
		}, []string{"job_name", "step_name", "status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of step executions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"job_name", "step_name", "status"}),
		stepItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_items_total",
			Help:      "Units handled by finished steps, by outcome (read, processed, filtered, written).",
		}, []string{"job_name", "step_name", "outcome"}),
		stepChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_chunks_total",
			Help:      "Chunks of finished steps, by outcome (commit, rollback).",
		}, []string{"job_name", "step_name", "outcome"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_items_total",
			Help:      "Skipped units by stage.",
		}, []string{"job_name", "step_name", "stage"}),
	}
	for _, c := range []prometheus.Collector{l.jobStatus, l.jobDuration, l.stepStatus, l.stepDuration, l.stepItems, l.stepChunks, l.skips} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Listener) BeforeJob(execution *chunkbatch.JobExecution) chunkbatch.BatchError {
	return nil
}

func (l *Listener) AfterJob(execution *chunkbatch.JobExecution) chunkbatch.BatchError {
	st := string(execution.JobStatus)
	l.jobStatus.WithLabelValues(execution.JobName, st).Inc()
	l.jobDuration.WithLabelValues(execution.JobName, st).Observe(execution.Duration().Seconds())
	return nil
}

func (l *Listener) BeforeStep(execution *chunkbatch.StepExecution) chunkbatch.BatchError {
	return nil
}

func (l *Listener) AfterStep(execution *chunkbatch.StepExecution) chunkbatch.BatchError {
	job := jobName(execution)
	st := string(execution.StepStatus)
	l.stepStatus.WithLabelValues(job, execution.StepName, st).Inc()
	l.stepDuration.WithLabelValues(job, execution.StepName, st).Observe(execution.Duration().Seconds())

	stats := execution.Stats.Snapshot()
	l.stepItems.WithLabelValues(job, execution.StepName, "read").Add(float64(stats.ReadCount))
	l.stepItems.WithLabelValues(job, execution.StepName, "processed").Add(float64(stats.ProcessedCount))
	l.stepItems.WithLabelValues(job, execution.StepName, "filtered").Add(float64(stats.FilterCount))
	l.stepItems.WithLabelValues(job, execution.StepName, "written").Add(float64(stats.WriteCount))
	l.stepChunks.WithLabelValues(job, execution.StepName, "commit").Add(float64(stats.CommitCount))
	l.stepChunks.WithLabelValues(job, execution.StepName, "rollback").Add(float64(stats.RollbackCount))
	return nil
}

func (l *Listener) OnSkipRead(ctx *chunkbatch.ChunkContext, err chunkbatch.BatchError) {
	l.skip(ctx, chunkbatch.StageRead)
}

func (l *Listener) OnSkipProcess(ctx *chunkbatch.ChunkContext, item interface{}, err chunkbatch.BatchError) {
	l.skip(ctx, chunkbatch.StageProcess)
}

func (l *Listener) OnSkipWrite(ctx *chunkbatch.ChunkContext, item interface{}, err chunkbatch.BatchError) {
	l.skip(ctx, chunkbatch.StageWrite)
}

func (l *Listener) skip(ctx *chunkbatch.ChunkContext, stage chunkbatch.Stage) {
	l.skips.WithLabelValues(jobName(ctx.StepExecution), ctx.StepExecution.StepName, string(stage)).Inc()
}

func jobName(execution *chunkbatch.StepExecution) string {
	if execution.JobExecution == nil {
		return ""
	}
	return execution.JobExecution.JobName
}
