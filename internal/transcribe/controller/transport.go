// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcribe_controller

import (
	"sync"
	"time"

	internal_audio "github.com/rapidaai/scribe/internal/audio"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

const (
	// DefaultBatchInterval is how often buffered frames are drained and sent.
	DefaultBatchInterval = 100 * time.Millisecond

	// DefaultMaxBufferedSamples caps the transport buffer at 30s of capture
	// audio. Overflow drops the oldest frames and counts them; a full buffer
	// means the ticker has been starved far beyond any realistic tick jitter.
	DefaultMaxBufferedSamples = 30 * 48000
)

// ============================================================================
// StreamingTransport — frame batching toward the speech backend
// ============================================================================

// StreamingTransport accumulates raw capture frames and, on a fixed-interval
// tick, concatenates them, resamples to the backend rate, encodes LINEAR16
// and forwards the batch to the speech service.
//
// frames (push) -> buffer -> tick -> concat -> resample -> PCM16 -> SendAudio
type StreamingTransport struct {
	mu     sync.Mutex
	logger commons.Logger

	resampler internal_type.AudioResampler
	service   internal_type.SpeechService

	frames     [][]float32
	buffered   int // samples currently buffered
	maxSamples int
	dropped    uint64

	sourceRate uint32
	targetRate uint32

	interval time.Duration
	stopCh   chan struct{}

	// guard is consulted at tick time; a false return makes the tick a no-op.
	// This protects against a late-firing ticker after a mode switch.
	guard func() bool
}

// TransportOption customises a StreamingTransport.
type TransportOption func(*StreamingTransport)

// WithBatchInterval overrides the drain tick interval.
func WithBatchInterval(d time.Duration) TransportOption {
	return func(t *StreamingTransport) { t.interval = d }
}

// WithMaxBufferedSamples overrides the overflow cap.
func WithMaxBufferedSamples(n int) TransportOption {
	return func(t *StreamingTransport) { t.maxSamples = n }
}

func NewStreamingTransport(
	logger commons.Logger,
	resampler internal_type.AudioResampler,
	service internal_type.SpeechService,
	guard func() bool,
	opts ...TransportOption,
) *StreamingTransport {
	t := &StreamingTransport{
		logger:     logger,
		resampler:  resampler,
		service:    service,
		guard:      guard,
		targetRate: internal_audio.SCRIBE_INTERNAL_AUDIO_CONFIG.SampleRate,
		maxSamples: DefaultMaxBufferedSamples,
		interval:   DefaultBatchInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Push appends one capture frame to the buffer. Called from the audio
// source's delivery goroutine.
func (t *StreamingTransport) Push(frame []float32, sampleRate uint32) {
	if len(frame) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sourceRate = sampleRate
	t.frames = append(t.frames, frame)
	t.buffered += len(frame)

	// Drop-oldest on overflow.
	for t.buffered > t.maxSamples && len(t.frames) > 0 {
		t.buffered -= len(t.frames[0])
		t.frames = t.frames[1:]
		t.dropped++
	}
	if t.dropped > 0 && t.dropped%100 == 1 {
		t.logger.Warnw("Streaming buffer overflow, dropping oldest frames",
			"droppedFrames", t.dropped)
	}
}

// StartBatching begins the drain ticker. Starting an already running
// transport restarts the ticker rather than duplicating it.
func (t *StreamingTransport) StartBatching() {
	t.mu.Lock()
	if t.stopCh != nil {
		close(t.stopCh)
	}
	stopCh := make(chan struct{})
	t.stopCh = stopCh
	interval := t.interval
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				t.flushTick()
			}
		}
	}()
}

// StopBatching halts the drain ticker. Buffered frames stay put so a resume
// does not lose audio captured right before the pause.
func (t *StreamingTransport) StopBatching() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

// DroppedFrames reports how many frames were discarded on overflow.
func (t *StreamingTransport) DroppedFrames() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// flushTick drains the buffer and ships one batch. Empty buffer or a stale
// mode makes the tick a no-op.
func (t *StreamingTransport) flushTick() {
	if t.guard != nil && !t.guard() {
		return
	}

	t.mu.Lock()
	if t.buffered == 0 {
		t.mu.Unlock()
		return
	}
	batch := make([]float32, 0, t.buffered)
	for _, f := range t.frames {
		batch = append(batch, f...)
	}
	t.frames = nil
	t.buffered = 0
	sourceRate := t.sourceRate
	t.mu.Unlock()

	resampled := t.resampler.Resample(batch, sourceRate, t.targetRate)
	pcm := internal_audio.FloatToPCM16(resampled)

	if err := t.service.SendAudio(pcm); err != nil {
		t.logger.Errorw("Failed to send audio batch",
			"error", &internal_type.TransportError{Op: "send_audio", Err: err},
			"samples", len(resampled))
	}
}
