// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcribe

import (
	"sort"
	"strings"
	"sync"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// Assembler turns an unordered stream of partial/final transcript events into
// clean segments and exposed full text.
//
// Partial events are held as a single in-flight span, replaced by each
// subsequent partial and superseded once a final arrives. Final events are
// appended with the backend's timestamps, or with timestamps derived from the
// recording clock when the backend supplied none.
//
// Final entries are kept in arrival order; temporal ordering is restored once,
// at Normalize time, because network delivery order is not guaranteed to match
// speech order.
type Assembler struct {
	mu       sync.Mutex
	logger   commons.Logger
	clock    *RecordingClock
	inflight string
	finals   []internal_type.TranscriptSegment
}

func NewAssembler(logger commons.Logger, clock *RecordingClock) *Assembler {
	return &Assembler{
		logger: logger,
		clock:  clock,
	}
}

// Start clears all captured entries and starts the recording clock.
func (a *Assembler) Start() {
	a.mu.Lock()
	a.inflight = ""
	a.finals = nil
	a.mu.Unlock()
	a.clock.Start()
}

// Push consumes one backend event.
func (a *Assembler) Push(ev internal_type.TranscriptEvent) {
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	if !ev.IsFinal {
		a.mu.Lock()
		a.inflight = ev.Text
		a.mu.Unlock()
		return
	}

	start, end := ev.StartTime, ev.EndTime
	if !ev.HasTiming {
		// Anchor the entry at the moment of finalization on the active
		// timeline, excluding paused intervals.
		at := a.clock.ActiveElapsed().Seconds()
		start, end = at, at
	}

	a.mu.Lock()
	a.inflight = ""
	a.finals = append(a.finals, internal_type.TranscriptSegment{
		Text:      ev.Text,
		StartTime: start,
		EndTime:   end,
	})
	a.mu.Unlock()
}

// InFlight returns the current provisional span, empty when the last partial
// has been finalized.
func (a *Assembler) InFlight() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight
}

// Text returns the space-joined concatenation of all final entries in
// original arrival order. This deliberately differs from the sort used for
// segment normalization: live display reflects arrival order, persisted
// segments reflect temporal order.
func (a *Assembler) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	parts := make([]string, len(a.finals))
	for i, f := range a.finals {
		parts[i] = f.Text
	}
	return strings.Join(parts, " ")
}

// Normalize produces the ordered, non-overlapping segment list: entries are
// sorted by start time, then any entry starting before its predecessor's
// (already adjusted) end time has its start rewritten to that end time. No
// words are discarded; overlapping spans are slightly compressed.
func (a *Assembler) Normalize() []internal_type.TranscriptSegment {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]internal_type.TranscriptSegment, len(a.finals))
	copy(out, a.finals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})

	for i := 1; i < len(out); i++ {
		prevEnd := out[i-1].EndTime
		if out[i].StartTime < prevEnd {
			out[i].StartTime = prevEnd
			if out[i].EndTime < out[i].StartTime {
				out[i].EndTime = out[i].StartTime
			}
		}
	}
	return out
}

// HasFinals reports whether any final entries were captured.
func (a *Assembler) HasFinals() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.finals) > 0
}

// PauseRecording / ResumeRecording update clock bookkeeping only; captured
// entries are never mutated.
func (a *Assembler) PauseRecording()  { a.clock.Pause() }
func (a *Assembler) ResumeRecording() { a.clock.Resume() }

// Clock exposes the recording clock for elapsed-time consumers.
func (a *Assembler) Clock() *RecordingClock { return a.clock }
