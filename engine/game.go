package engine

import "github.com/matms/mat-engine/engine/core"

// Game is the application driven by the engine. Every callback is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnEvent         OnEvent
	FnShutdown        Shutdown
}

type Initialize func(ctx *Context) error
type Update func(ctx *Context) error

// Render runs between StartRender and CompleteRender; ctx.Frame() is the
// frame to draw into.
type Render func(ctx *Context) error
type OnEvent func(ctx *Context, ev core.Event)
type Shutdown func(ctx *Context) error

// gameReceiver forwards lifecycle events to FnOnEvent.
type gameReceiver struct {
	ctx *Context
	fn  OnEvent
}

func (r *gameReceiver) ReceivesEvent(core.EventKind) bool { return true }

func (r *gameReceiver) ReceiveEvent(ev core.Event) {
	r.fn(r.ctx, ev)
}
