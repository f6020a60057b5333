package engine

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matms/mat-engine/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

type recorder struct {
	log []string
}

func (r *recorder) ReceivesEvent(core.EventKind) bool { return true }

func (r *recorder) ReceiveEvent(ev core.Event) {
	r.log = append(r.log, ev.String())
}

func newTestSequencer(t *testing.T, hooks SequencerHooks) (*Sequencer, *recorder) {
	t.Helper()
	bus := core.NewEventBus()
	rec := &recorder{}
	require.True(t, bus.Register(rec))
	return NewSequencer(bus, core.NewChrono(), hooks), rec
}

func TestSequencerFullFrame(t *testing.T) {
	var seq *Sequencer
	var calls []string
	var queueLens []int
	hooks := SequencerHooks{
		Update: func() error {
			calls = append(calls, "update")
			queueLens = append(queueLens, seq.Events().Len())
			return nil
		},
		Render: func() error {
			calls = append(calls, "render")
			queueLens = append(queueLens, seq.Events().Len())
			return nil
		},
		RequestRedraw: func() { calls = append(calls, "redraw") },
	}
	seq, rec := newTestSequencer(t, hooks)

	for frame := 1; frame <= 3; frame++ {
		rec.log = nil
		calls = nil
		queueLens = nil

		seq.NewEvents()
		assert.Equal(t, SequencerMainEvents, seq.State())
		assert.Equal(t, 0, seq.Events().Len())
		require.NoError(t, seq.MainEventsCleared())
		assert.Equal(t, SequencerRender, seq.State())
		require.NoError(t, seq.RedrawRequested())
		assert.Equal(t, SequencerIdle, seq.State())

		assert.Equal(t, []string{"Start", "PreUpdate", "PostUpdate", "PreRender", "PostRender"}, rec.log)
		assert.Equal(t, []string{"update", "redraw", "render"}, calls)
		assert.Equal(t, []int{0, 0}, queueLens, "queue is empty when the callbacks run")
		assert.Equal(t, 0, seq.Events().Len())
		assert.Equal(t, uint64(frame), seq.chrono.FrameNumber())
	}
}

func TestSequencerResizeDeliveredOnNextDrain(t *testing.T) {
	seq, rec := newTestSequencer(t, SequencerHooks{})

	seq.NewEvents()
	seq.WindowResized(640, 480)
	assert.Equal(t, []string{"Start"}, rec.log, "resize is not applied synchronously")
	require.NoError(t, seq.MainEventsCleared())
	require.NoError(t, seq.RedrawRequested())

	assert.Equal(t, []string{"Start", "WindowResize(640, 480)", "PreUpdate", "PostUpdate", "PreRender", "PostRender"}, rec.log)
}

func TestSequencerResizeBetweenFrames(t *testing.T) {
	seq, rec := newTestSequencer(t, SequencerHooks{})

	seq.WindowResized(100, 50)
	seq.NewEvents()
	require.NoError(t, seq.MainEventsCleared())

	assert.Equal(t, []string{"Start", "WindowResize(100, 50)", "PreUpdate", "PostUpdate"}, rec.log)
}

func TestSequencerDefersEventsPushedDuringDrain(t *testing.T) {
	seq, rec := newTestSequencer(t, SequencerHooks{})
	pushed := false
	seq.Events().Register(&core.ReceiverFunc{
		Kinds: []core.EventKind{core.EventPreUpdate},
		Fn: func(core.Event) {
			if !pushed {
				pushed = true
				seq.Events().Push(core.NewWindowResizeEvent(1, 1))
			}
		},
	})

	seq.NewEvents()
	require.NoError(t, seq.MainEventsCleared())

	assert.Equal(t, []string{"Start", "PreUpdate", "WindowResize(1, 1)", "PostUpdate"}, rec.log,
		"the resize pushed while PreUpdate drained waits for the PostUpdate drain")
	assert.Equal(t, 0, seq.Events().Len())
}

func TestSequencerPanicsOnLeftoverEvents(t *testing.T) {
	seq, _ := newTestSequencer(t, SequencerHooks{})
	seq.Events().Push(core.Event{Kind: core.EventPreRender})

	assert.Panics(t, func() { seq.NewEvents() })
}

func TestSequencerMisuse(t *testing.T) {
	seq, _ := newTestSequencer(t, SequencerHooks{})

	assert.PanicsWithValue(t, "sequencer: MainEventsCleared called in state Idle, want MainEvents", func() {
		_ = seq.MainEventsCleared()
	})
	assert.Panics(t, func() { _ = seq.RedrawRequested() })

	seq.NewEvents()
	assert.Panics(t, func() { seq.NewEvents() })
}

func TestSequencerUpdateErrorAbortsFrame(t *testing.T) {
	boom := errors.New("boom")
	rendered := false
	seq, rec := newTestSequencer(t, SequencerHooks{
		Update: func() error { return boom },
		Render: func() error { rendered = true; return nil },
	})

	seq.NewEvents()
	err := seq.MainEventsCleared()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, SequencerIdle, seq.State())
	assert.False(t, rendered)
	assert.Equal(t, []string{"Start", "PreUpdate"}, rec.log)

	// the next frame starts cleanly
	assert.NotPanics(t, func() { seq.NewEvents() })
}

func TestSequencerStateString(t *testing.T) {
	assert.Equal(t, "PostRender", SequencerPostRender.String())
	assert.Equal(t, "SequencerState(9)", SequencerState(9).String())
}
