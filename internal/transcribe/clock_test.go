// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcribe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives a RecordingClock through scripted wall-clock time.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }
func (f *fakeClock) now() time.Time          { return f.t }

func newTestClock() (*RecordingClock, *fakeClock) {
	fc := &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	c := NewRecordingClock()
	c.now = fc.now
	return c, fc
}

func TestActiveElapsed_ExcludesPausedIntervals(t *testing.T) {
	c, fc := newTestClock()
	c.Start()

	fc.advance(1000 * time.Millisecond)
	c.Pause()
	fc.advance(5000 * time.Millisecond)
	c.Resume()

	assert.InDelta(t, 1.0, c.ActiveElapsed().Seconds(), 0.001,
		"active time after resume must exclude the paused interval")
}

func TestActiveElapsed_WhilePaused(t *testing.T) {
	c, fc := newTestClock()
	c.Start()

	fc.advance(2 * time.Second)
	c.Pause()
	elapsedAtPause := c.ActiveElapsed()

	fc.advance(10 * time.Second)
	assert.Equal(t, elapsedAtPause, c.ActiveElapsed(),
		"active time must not advance while paused")
}

func TestActiveElapsed_MonotonicWhileRunning(t *testing.T) {
	c, fc := newTestClock()
	c.Start()

	prev := c.ActiveElapsed()
	for i := 0; i < 10; i++ {
		fc.advance(137 * time.Millisecond)
		cur := c.ActiveElapsed()
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestActiveElapsed_ZeroBeforeStart(t *testing.T) {
	c, _ := newTestClock()
	assert.Equal(t, time.Duration(0), c.ActiveElapsed())
}

func TestPauseResume_Idempotent(t *testing.T) {
	c, fc := newTestClock()
	c.Start()

	c.Resume() // resume while running: no-op
	fc.advance(time.Second)
	c.Pause()
	c.Pause() // double pause: no-op
	fc.advance(3 * time.Second)
	c.Resume()
	c.Resume()

	assert.InDelta(t, 1.0, c.ActiveElapsed().Seconds(), 0.001)
}

func TestStart_ResetsPreviousSession(t *testing.T) {
	c, fc := newTestClock()
	c.Start()
	fc.advance(4 * time.Second)
	c.Pause()
	fc.advance(2 * time.Second)

	c.Start()
	fc.advance(500 * time.Millisecond)
	assert.False(t, c.IsPaused())
	assert.InDelta(t, 0.5, c.ActiveElapsed().Seconds(), 0.001)
}
