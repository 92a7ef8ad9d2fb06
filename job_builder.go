package chunkbatch

import "fmt"

type jobBuilder struct {
	name           string
	steps          []Step
	jobListeners   []JobListener
	stepListeners  []StepListener
	chunkListeners []ChunkListener
	skipListeners  []SkipListener
}

//NewJob new instance of job builder
func NewJob(name string, steps ...Step) *jobBuilder {
	if name == "" {
		panic("job name must not be empty")
	}
	builder := &jobBuilder{
		name:  name,
		steps: steps,
	}
	return builder
}

func (builder *jobBuilder) Step(step ...Step) *jobBuilder {
	builder.steps = append(builder.steps, step...)
	return builder
}

//Listener registers listeners; step, chunk and skip listeners are added to every step of the job
func (builder *jobBuilder) Listener(listener ...interface{}) *jobBuilder {
	for _, l := range listener {
		valid := false
		if ll, ok := l.(JobListener); ok {
			builder.jobListeners = append(builder.jobListeners, ll)
			valid = true
		}
		if ll, ok := l.(StepListener); ok {
			builder.stepListeners = append(builder.stepListeners, ll)
			valid = true
		}
		if ll, ok := l.(ChunkListener); ok {
			builder.chunkListeners = append(builder.chunkListeners, ll)
			valid = true
		}
		if ll, ok := l.(SkipListener); ok {
			builder.skipListeners = append(builder.skipListeners, ll)
			valid = true
		}
		if !valid {
			panic(fmt.Sprintf("not supported listener:%+v for job:%v", l, builder.name))
		}
	}
	return builder
}

func (builder *jobBuilder) Build() Job {
	if len(builder.steps) == 0 {
		panic(fmt.Sprintf("job:%v has no step", builder.name))
	}
	for _, step := range builder.steps {
		for _, sl := range builder.stepListeners {
			step.addListener(sl)
		}
		if chkStep, ok := step.(*chunkStep); ok {
			for _, cl := range builder.chunkListeners {
				chkStep.addChunkListener(cl)
			}
			for _, skl := range builder.skipListeners {
				chkStep.addSkipListener(skl)
			}
		}
	}
	return newSimpleJob(builder.name, builder.steps, builder.jobListeners)
}
