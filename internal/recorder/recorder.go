// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/scribe/internal/audio"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// chunk is a recorded audio fragment placed at a specific position on the
// timeline. ByteOffset is the byte position relative to StartRecording().
type chunk struct {
	ByteOffset int
	Data       []byte
}

// captureSource accumulates microphone frames on a wall-clock timeline and
// renders the final WAV artifact at stop. It implements the AudioSource
// boundary: a platform capture driver feeds it via Feed, and the streaming
// transport subscribes through OnAudioData.
//
// Frames arriving while paused are discarded — paused intervals appear as
// gaps on the timeline, not silence-padded audio, because the final artifact
// spans active time only.
type captureSource struct {
	logger commons.Logger

	mu        sync.Mutex
	started   bool
	paused    bool
	startTime time.Time
	// pausedTotal accumulates completed pause intervals so chunk placement
	// stays on the active timeline.
	pausedTotal time.Duration
	pauseStart  time.Time

	chunks []chunk
	cursor int // byte position just past the last written byte

	cb        func(frame []float32, sampleRate uint32)
	lastLevel float32

	config internal_audio.Config

	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
}

// CaptureSource is the concrete capture buffer type, exposed so the platform
// layer can feed frames into it.
type CaptureSource interface {
	internal_type.AudioSource
	// Feed delivers one frame from the platform capture driver.
	Feed(frame []float32, sampleRate uint32)
}

func NewCaptureSource(logger commons.Logger) CaptureSource {
	return &captureSource{
		logger: logger,
		config: internal_audio.SCRIBE_INTERNAL_AUDIO_CONFIG,
		clock:  time.Now,
	}
}

// StartRecording begins the capture timeline. Audio is placed based on when
// it arrives relative to this moment.
func (r *captureSource) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("capture already started")
	}
	r.started = true
	r.paused = false
	r.startTime = r.clock()
	r.pausedTotal = 0
	r.chunks = nil
	r.cursor = 0
	r.lastLevel = 0
	return nil
}

// durationBytes converts a duration to a frame-aligned byte count.
func (r *captureSource) durationBytes(d time.Duration) int {
	raw := int(d.Seconds() * float64(r.config.BytesPerSecond()))
	frameSize := internal_audio.AudioBytesPerSample * int(r.config.Channels)
	return (raw / frameSize) * frameSize
}

// Feed places one frame on the active timeline and forwards it to the
// registered consumer. Frames arriving while paused or before start are
// dropped.
func (r *captureSource) Feed(frame []float32, sampleRate uint32) {
	if len(frame) == 0 {
		return
	}

	r.mu.Lock()
	if !r.started || r.paused {
		r.mu.Unlock()
		return
	}

	r.lastLevel = meterLevel(frame)

	// Wall-clock byte offset on the active timeline. Resample bookkeeping:
	// the stored artifact is at the internal rate, so frames are converted
	// by the consumer; here we store the raw LINEAR16 of what arrived,
	// normalized to the internal rate length via the frame's own rate.
	active := r.clock().Sub(r.startTime) - r.pausedTotal
	offset := r.durationBytes(active)
	if r.cursor > offset {
		offset = r.cursor
	}

	data := internal_audio.FloatToPCM16(rateAdjust(frame, sampleRate, r.config.SampleRate))
	r.chunks = append(r.chunks, chunk{ByteOffset: offset, Data: data})
	r.cursor = offset + len(data)
	cb := r.cb
	r.mu.Unlock()

	if cb != nil {
		cb(frame, sampleRate)
	}
}

// PauseRecording suspends accumulation. Idempotent.
func (r *captureSource) PauseRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.paused {
		return nil
	}
	r.paused = true
	r.pauseStart = r.clock()
	return nil
}

// ResumeRecording folds the completed pause into the timeline bookkeeping.
func (r *captureSource) ResumeRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || !r.paused {
		return nil
	}
	r.pausedTotal += r.clock().Sub(r.pauseStart)
	r.paused = false
	return nil
}

// StopRecording renders the accumulated chunks into one WAV spanning the
// active session duration, gaps as silence.
func (r *captureSource) StopRecording() (*internal_type.CaptureResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return nil, fmt.Errorf("capture not started")
	}

	active := r.clock().Sub(r.startTime) - r.pausedTotal
	if r.paused {
		active -= r.clock().Sub(r.pauseStart)
	}
	sessionBytes := r.durationBytes(active)

	// Minimum buffer size: max(sessionBytes, furthest chunk end).
	totalLen := sessionBytes
	for _, c := range r.chunks {
		if end := c.ByteOffset + len(c.Data); end > totalLen {
			totalLen = end
		}
	}

	pcm := make([]byte, totalLen)
	audioBytes := 0
	for _, c := range r.chunks {
		copy(pcm[c.ByteOffset:], c.Data)
		audioBytes += len(c.Data)
	}

	r.logger.Infof("Capture stop: audio=%d (%.2fs), totalLen=%d (%.2fs), chunks=%d",
		audioBytes, float64(audioBytes)/float64(r.config.BytesPerSecond()),
		totalLen, float64(totalLen)/float64(r.config.BytesPerSecond()),
		len(r.chunks))

	wav := createWAVFile(pcm, r.config)
	duration := time.Duration(float64(totalLen) / float64(r.config.BytesPerSecond()) * float64(time.Second))

	r.started = false
	r.paused = false
	r.chunks = nil
	r.cursor = 0

	return &internal_type.CaptureResult{AudioWAV: wav, Duration: duration}, nil
}

// AudioLevel reports the mean absolute amplitude of the last frame, in [0, 1].
func (r *captureSource) AudioLevel() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLevel
}

func (r *captureSource) OnAudioData(cb func(frame []float32, sampleRate uint32)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb = cb
}

func (r *captureSource) RemoveAudioDataCallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb = nil
}

// meterLevel averages absolute sample values; good enough for a UI meter.
func meterLevel(frame []float32) float32 {
	abs := make([]float32, len(frame))
	for i, s := range frame {
		abs[i] = utils.AbsFloat32(s)
	}
	level := utils.AverageFloat32(abs)
	if level > 1 {
		level = 1
	}
	return level
}

// rateAdjust decimates or repeats samples so stored audio lands at the target
// rate. Storage quality is not the concern here — the streaming path uses the
// spline resampler; this keeps the artifact's timeline consistent.
func rateAdjust(frame []float32, from, to uint32) []float32 {
	if from == to || from == 0 {
		return frame
	}
	ratio := float64(from) / float64(to)
	outLen := int(float64(len(frame)) / ratio)
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float32, outLen)
	for i := range out {
		src := int(float64(i) * ratio)
		if src >= len(frame) {
			src = len(frame) - 1
		}
		out[i] = frame[src]
	}
	return out
}
