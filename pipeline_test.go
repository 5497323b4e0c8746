package aethelgard

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineStepByStep(t *testing.T) {
	m, err := NewMap(1, testConfig())
	require.NoError(t, err)
	p := m.Pipeline

	assert.Equal(t, StateReady, p.State())
	numStages := len(p.Stages())

	for i := 0; i < numStages; i++ {
		require.NoError(t, p.Step())
		assert.Equal(t, i+1, p.Cursor())
		if i < numStages-1 {
			assert.Equal(t, StatePaused, p.State())
		}
	}
	assert.Equal(t, StateComplete, p.State())

	// Stepping a complete pipeline does nothing.
	require.NoError(t, p.Step())
	assert.Equal(t, numStages, p.Cursor())
	assert.Equal(t, StateComplete, p.State())
}

func TestPipelineCallbacks(t *testing.T) {
	m, err := NewMap(2, testConfig())
	require.NoError(t, err)

	var order []string
	m.Pipeline.OnStageComplete(func(name string) {
		order = append(order, name)
	})
	require.NoError(t, m.Generate())

	var want []string
	for _, s := range m.Pipeline.Stages() {
		want = append(want, s.Name)
	}
	assert.Equal(t, want, order)

	for _, s := range m.Pipeline.Stages() {
		assert.Equal(t, "done", s.Status())
		assert.Equal(t, 1.0, s.Progress())
	}
}

func TestPipelineReset(t *testing.T) {
	m, err := NewMap(3, testConfig())
	require.NoError(t, err)
	require.NoError(t, m.Generate())
	require.Equal(t, StateComplete, m.Pipeline.State())

	m.Pipeline.Reset()
	assert.Equal(t, StateReady, m.Pipeline.State())
	assert.Equal(t, 0, m.Pipeline.Cursor())
	for _, s := range m.Pipeline.Stages() {
		assert.Equal(t, "pending", s.Status())
	}

	// A reset pipeline runs through again.
	require.NoError(t, m.Pipeline.RunAll())
	assert.Equal(t, StateComplete, m.Pipeline.State())
}

func TestPipelineRunStage(t *testing.T) {
	m, err := NewMap(4, testConfig())
	require.NoError(t, err)
	require.NoError(t, m.Generate())

	assert.Error(t, m.Pipeline.RunStage("bogus"))

	// Rerunning a stage out of order must reproduce its in-order output.
	plates := append([]int(nil), m.PlateID...)
	require.NoError(t, m.Pipeline.RunStage("plates"))
	assert.Equal(t, plates, m.PlateID)
	assert.Equal(t, StateComplete, m.Pipeline.State(), "out-of-order rerun keeps the pipeline state")
}

func TestStepWhileRunningIsNoOp(t *testing.T) {
	m, err := NewMap(5, testConfig())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	p := newPipeline(m, []*Stage{
		newStage("block", func(*Map, func(float64)) error {
			close(entered)
			<-release
			return nil
		}),
		newStage("after", func(*Map, func(float64)) error { return nil }),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, p.Step())
	}()

	<-entered
	assert.Equal(t, StateRunning, p.State())
	require.NoError(t, p.Step(), "concurrent step is a silent no-op")
	assert.Equal(t, 0, p.Cursor(), "the no-op step must not advance the cursor")

	close(release)
	wg.Wait()
	assert.Equal(t, 1, p.Cursor())
	assert.Equal(t, StatePaused, p.State())
}

func TestPipelineFailure(t *testing.T) {
	m, err := NewMap(6, testConfig())
	require.NoError(t, err)

	boom := errors.New("boom")
	p := newPipeline(m, []*Stage{
		newStage("ok", func(_ *Map, progress func(float64)) error {
			progress(1)
			return nil
		}),
		newStage("fails", func(*Map, func(float64)) error { return boom }),
		newStage("never", func(*Map, func(float64)) error {
			panic("must not run")
		}),
	})

	err = p.RunAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, "failed", p.Stages()[1].Status())

	// A failed pipeline refuses to step until reset.
	require.NoError(t, p.Step())
	assert.Equal(t, StateFailed, p.State())

	p.Reset()
	assert.Equal(t, StateReady, p.State())
	assert.NoError(t, p.Err())
}

func TestPipelinePanicContainment(t *testing.T) {
	m, err := NewMap(7, testConfig())
	require.NoError(t, err)

	p := newPipeline(m, []*Stage{
		newStage("explodes", func(*Map, func(float64)) error {
			panic("kaboom")
		}),
	})
	err = p.Step()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, StateFailed, p.State())
}
