// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcribe

import (
	"sync"
	"time"
)

// RecordingClock tracks active recording time: wall-clock time since start,
// minus every paused interval. ActiveElapsed is ≥ 0 and non-decreasing while
// the clock is running.
type RecordingClock struct {
	mu             sync.Mutex
	startTime      time.Time
	pauseStartTime time.Time
	totalPaused    time.Duration
	paused         bool
	started        bool

	// now is injectable for testing; defaults to time.Now.
	now func() time.Time
}

func NewRecordingClock() *RecordingClock {
	return &RecordingClock{now: time.Now}
}

// Start resets the clock and begins counting active time.
func (c *RecordingClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = c.now()
	c.pauseStartTime = time.Time{}
	c.totalPaused = 0
	c.paused = false
	c.started = true
}

// Pause freezes active time. Pausing an already paused clock is a no-op.
func (c *RecordingClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.paused {
		return
	}
	c.paused = true
	c.pauseStartTime = c.now()
}

// Resume folds the just-ended pause into the paused total.
func (c *RecordingClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || !c.paused {
		return
	}
	c.totalPaused += c.now().Sub(c.pauseStartTime)
	c.paused = false
}

// IsPaused reports whether the clock is currently paused.
func (c *RecordingClock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// ActiveElapsed returns wall-clock time since Start minus all paused
// intervals, including the in-progress one.
func (c *RecordingClock) ActiveElapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return 0
	}
	elapsed := c.now().Sub(c.startTime) - c.totalPaused
	if c.paused {
		elapsed -= c.now().Sub(c.pauseStartTime)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}
