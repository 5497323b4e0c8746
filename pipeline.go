package aethelgard

import (
	"fmt"
	"sync"
)

// PipelineState is the lifecycle state of the stage pipeline.
type PipelineState int8

const (
	StateReady PipelineState = iota
	StateRunning
	StatePaused // at least one stage done, more remain
	StateComplete
	StateFailed
)

func (s PipelineState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "ready"
}

type stageFunc func(m *Map, progress func(float64)) error

// Stage is one named step of the generation pipeline.
type Stage struct {
	Name string
	fn   stageFunc

	mu       sync.Mutex
	progress float64
	status   string
}

func newStage(name string, fn stageFunc) *Stage {
	return &Stage{Name: name, fn: fn, status: "pending"}
}

// Progress returns the stage's last reported completion fraction.
func (s *Stage) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Status returns a short human-readable state of the stage.
func (s *Stage) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Stage) setProgress(v float64) {
	s.mu.Lock()
	s.progress = v
	s.mu.Unlock()
}

func (s *Stage) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Pipeline sequences the generation stages. Stages run synchronously on
// the caller's goroutine; the pipeline only guards against overlapping
// calls, it does not schedule work itself.
type Pipeline struct {
	m      *Map
	stages []*Stage

	mu     sync.Mutex
	cursor int
	state  PipelineState
	err    error
	onDone []func(stageName string)
}

func newPipeline(m *Map, stages []*Stage) *Pipeline {
	return &Pipeline{m: m, stages: stages}
}

// Stages returns the stage list in execution order.
func (p *Pipeline) Stages() []*Stage {
	return p.stages
}

// State returns the current pipeline state.
func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error of the failed stage, if any.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Cursor returns the index of the next stage to run.
func (p *Pipeline) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// OnStageComplete registers a callback invoked after each stage
// finishes successfully. Callbacks run on the goroutine driving the
// pipeline, after the pipeline lock is released.
func (p *Pipeline) OnStageComplete(fn func(stageName string)) {
	p.mu.Lock()
	p.onDone = append(p.onDone, fn)
	p.mu.Unlock()
}

// Step runs the next pending stage and returns. Calling Step while
// another goroutine is mid-stage is a no-op, not an error; this is what
// lets a UI hammer the step button safely. Stepping a Complete or
// Failed pipeline is also a no-op.
func (p *Pipeline) Step() error {
	p.mu.Lock()
	if p.state == StateRunning || p.state == StateComplete || p.state == StateFailed {
		p.mu.Unlock()
		return nil
	}
	stage := p.stages[p.cursor]
	p.state = StateRunning
	p.mu.Unlock()

	err := p.runStage(stage)

	p.mu.Lock()
	if err != nil {
		p.state = StateFailed
		p.err = fmt.Errorf("pipeline: stage %q: %w", stage.Name, err)
		p.mu.Unlock()
		return p.err
	}
	p.cursor++
	if p.cursor == len(p.stages) {
		p.state = StateComplete
	} else {
		p.state = StatePaused
	}
	callbacks := append([]func(string){}, p.onDone...)
	p.mu.Unlock()

	for _, fn := range callbacks {
		fn(stage.Name)
	}
	return nil
}

// RunAll steps until the pipeline is Complete or a stage fails.
func (p *Pipeline) RunAll() error {
	for {
		switch p.State() {
		case StateComplete:
			return nil
		case StateFailed:
			return p.Err()
		case StateRunning:
			return nil
		}
		if err := p.Step(); err != nil {
			return err
		}
	}
}

// RunStage reruns a single stage by name, out of cursor order. The
// cursor does not move; downstream stages that depend on the rerun
// stage's output are the caller's responsibility. Stage RNGs are salted
// by stage name, so an out-of-order rerun produces the same output the
// in-order run did.
func (p *Pipeline) RunStage(name string) error {
	var stage *Stage
	for _, s := range p.stages {
		if s.Name == name {
			stage = s
			break
		}
	}
	if stage == nil {
		return fmt.Errorf("pipeline: unknown stage %q", name)
	}

	p.mu.Lock()
	if p.state == StateRunning {
		p.mu.Unlock()
		return nil
	}
	prev := p.state
	p.state = StateRunning
	p.mu.Unlock()

	err := p.runStage(stage)

	p.mu.Lock()
	if err != nil {
		p.state = StateFailed
		p.err = fmt.Errorf("pipeline: stage %q: %w", stage.Name, err)
		p.mu.Unlock()
		return p.err
	}
	p.state = prev
	p.mu.Unlock()
	return nil
}

// runStage executes the stage function with panic containment: a panic
// inside a stage fails the pipeline instead of tearing down the caller.
func (p *Pipeline) runStage(stage *Stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stage.setStatus("failed")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	stage.setStatus("running")
	stage.setProgress(0)
	if err := stage.fn(p.m, stage.setProgress); err != nil {
		stage.setStatus("failed")
		return err
	}
	stage.setProgress(1)
	stage.setStatus("done")
	return nil
}

// Reset rewinds the cursor to the first stage and clears any failure.
// Tile buffers and locks keep their data; the stages overwrite what
// they own when they run again.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		return
	}
	p.cursor = 0
	p.state = StateReady
	p.err = nil
	for _, s := range p.stages {
		s.setProgress(0)
		s.setStatus("pending")
	}
}
