package engine

import (
	"fmt"

	"github.com/matms/mat-engine/engine/core"
)

type SequencerState uint8

const (
	SequencerIdle SequencerState = iota
	SequencerStart
	SequencerMainEvents
	SequencerUpdate
	SequencerRender
	SequencerPostRender
)

func (s SequencerState) String() string {
	switch s {
	case SequencerIdle:
		return "Idle"
	case SequencerStart:
		return "Start"
	case SequencerMainEvents:
		return "MainEvents"
	case SequencerUpdate:
		return "Update"
	case SequencerRender:
		return "Render"
	case SequencerPostRender:
		return "PostRender"
	}
	return fmt.Sprintf("SequencerState(%d)", uint8(s))
}

// SequencerHooks are the per-frame callbacks the sequencer drives. Nil hooks
// are skipped.
type SequencerHooks struct {
	Update        func() error
	Render        func() error
	RequestRedraw func()
}

// Sequencer turns the window's per-frame signals into the ordered lifecycle
// events of one frame:
//
//	NewEvents          Start
//	MainEventsCleared  PreUpdate, update, PostUpdate, redraw request
//	RedrawRequested    PreRender, render, PostRender
//
// Every lifecycle event is drained as soon as it is queued, so receivers see
// a resize reported by the window in FIFO order with the next drain.
type Sequencer struct {
	state  SequencerState
	events *core.EventBus
	chrono *core.Chrono
	hooks  SequencerHooks

	// resizes reported outside of MainEvents, queued once the frame starts
	pending []core.Event
}

func NewSequencer(events *core.EventBus, chrono *core.Chrono, hooks SequencerHooks) *Sequencer {
	return &Sequencer{
		state:  SequencerIdle,
		events: events,
		chrono: chrono,
		hooks:  hooks,
	}
}

func (s *Sequencer) State() SequencerState {
	return s.state
}

func (s *Sequencer) Events() *core.EventBus {
	return s.events
}

func (s *Sequencer) expect(op string, want SequencerState) {
	if s.state != want {
		panic(fmt.Sprintf("sequencer: %s called in state %s, want %s", op, s.state, want))
	}
}

func (s *Sequencer) emit(kind core.EventKind) {
	s.events.Push(core.Event{Kind: kind})
	s.events.Drain()
}

// NewEvents starts a frame: it advances the chrono and delivers Start. The
// event queue must be empty, anything left over is a missed drain.
func (s *Sequencer) NewEvents() {
	s.expect("NewEvents", SequencerIdle)
	s.state = SequencerStart
	s.chrono.StartNewFrame()
	if n := s.events.Len(); n != 0 {
		panic(fmt.Sprintf("sequencer: %d events left in the queue at the start of frame %d", n, s.chrono.FrameNumber()))
	}
	s.emit(core.EventStart)

	s.state = SequencerMainEvents
	for _, ev := range s.pending {
		s.events.Push(ev)
	}
	s.pending = s.pending[:0]
}

// WindowResized queues a WindowResize event. It is delivered with the next
// drain, never synchronously.
func (s *Sequencer) WindowResized(width, height uint32) {
	ev := core.NewWindowResizeEvent(width, height)
	if s.state != SequencerMainEvents {
		s.pending = append(s.pending, ev)
		return
	}
	s.events.Push(ev)
}

// MainEventsCleared runs the update half of the frame and requests a redraw.
// An update error aborts the frame and returns the sequencer to Idle.
func (s *Sequencer) MainEventsCleared() error {
	s.expect("MainEventsCleared", SequencerMainEvents)
	s.state = SequencerUpdate
	s.emit(core.EventPreUpdate)
	if s.hooks.Update != nil {
		if err := s.hooks.Update(); err != nil {
			s.abort()
			return fmt.Errorf("frame %d update: %w", s.chrono.FrameNumber(), err)
		}
	}
	s.emit(core.EventPostUpdate)

	s.state = SequencerRender
	if s.hooks.RequestRedraw != nil {
		s.hooks.RequestRedraw()
	}
	return nil
}

// RedrawRequested runs the render half of the frame and ends it.
func (s *Sequencer) RedrawRequested() error {
	s.expect("RedrawRequested", SequencerRender)
	s.emit(core.EventPreRender)
	if s.hooks.Render != nil {
		if err := s.hooks.Render(); err != nil {
			s.abort()
			return fmt.Errorf("frame %d render: %w", s.chrono.FrameNumber(), err)
		}
	}
	s.state = SequencerPostRender
	s.emit(core.EventPostRender)
	s.state = SequencerIdle
	return nil
}

// abort delivers whatever the failed frame left queued.
func (s *Sequencer) abort() {
	s.events.Drain()
	s.state = SequencerIdle
}
