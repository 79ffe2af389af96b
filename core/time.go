package core

import (
	"sync/atomic"
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond <= 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}
	pollDelay := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if pollDelay <= 0 {
		pollDelay = time.Millisecond
	}

	return &Time{
		fps:            cfg.FramesPerSecond,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: pollDelay,
		eventTicker:    time.NewTicker(pollDelay),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay time.Duration
	eventTicker    *time.Ticker

	frames uint64
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// EventPollDelay is the interval of the event ticker.
func (t *Time) EventPollDelay() time.Duration {
	return t.eventPollDelay
}

// CountFrame records a committed frame, safe for concurrent use.
func (t *Time) CountFrame() {
	atomic.AddUint64(&t.frames, 1)
}

// TakeFrameCount returns the frames counted since the last call and
// resets the counter.
func (t *Time) TakeFrameCount() uint64 {
	return atomic.SwapUint64(&t.frames, 0)
}

// Stop stops both tickers.
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
