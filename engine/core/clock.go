package core

import "time"

// Clock measures wall time between Start and the last Update.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	elapsed   time.Duration
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	if c.now == nil {
		c.now = time.Now
	}
	c.startTime = c.now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// Chrono tracks the frame counter and per-frame timing of the engine loop.
type Chrono struct {
	clock       *Clock
	frameNumber uint64
	lastFrame   time.Duration
	delta       time.Duration
}

func NewChrono() *Chrono {
	return newChronoWithClock(NewClock())
}

func newChronoWithClock(c *Clock) *Chrono {
	c.Start()
	return &Chrono{clock: c}
}

// StartNewFrame advances the frame counter and measures the time since the
// previous frame started.
func (ch *Chrono) StartNewFrame() {
	ch.clock.Update()
	now := ch.clock.Elapsed()
	if ch.frameNumber > 0 {
		ch.delta = now - ch.lastFrame
	}
	ch.lastFrame = now
	ch.frameNumber++
}

// FrameNumber is 1 during the first frame and increases by one per frame.
func (ch *Chrono) FrameNumber() uint64 {
	return ch.frameNumber
}

// Delta is the duration of the previous frame, zero during the first frame.
func (ch *Chrono) Delta() time.Duration {
	return ch.delta
}

// DeltaSeconds is Delta as float32 seconds, the unit animation code works in.
func (ch *Chrono) DeltaSeconds() float32 {
	return float32(ch.delta.Seconds())
}

// Elapsed is the time since the engine started, measured at the last frame start.
func (ch *Chrono) Elapsed() time.Duration {
	return ch.lastFrame
}
