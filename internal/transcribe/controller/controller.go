// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transcribe_controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_transcribe "github.com/rapidaai/scribe/internal/transcribe"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// State of the mode controller.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateStopping State = "stopping"
)

// DefaultStopTimeout bounds the wait for the backend's stop acknowledgment.
// A slow or unresponsive speech service must never block the overall
// recording-stop flow indefinitely.
const DefaultStopTimeout = 6 * time.Second

// StartConfig selects and configures the transcription backend.
type StartConfig struct {
	Mode       internal_type.TranscriptionMode
	Credential string
	Options    utils.Option
}

// ============================================================================
// ModeController — live/simulated transcription façade
// ============================================================================

// ModeController selects between the live streaming backend and the offline
// simulated one, owns the streaming transport's lifecycle, and exposes
// start/stop/pause/resume to the recording orchestrator.
//
// State machine: Idle → Starting → Active → (Paused ⇄ Active) → Stopping → Idle.
// Starting a new mode while a session is active is not supported; the caller
// must stop first.
type ModeController struct {
	mu     sync.Mutex
	logger commons.Logger

	state  State
	handle internal_type.SessionHandle

	source    internal_type.AudioSource
	live      internal_type.SpeechService
	simulated internal_type.SimulatedSpeechService
	assembler *internal_transcribe.Assembler

	transport   *StreamingTransport
	stopTimeout time.Duration

	transportOpts []TransportOption
}

// ControllerOption customises a ModeController.
type ControllerOption func(*ModeController)

// WithStopTimeout overrides the stop acknowledgment ceiling.
func WithStopTimeout(d time.Duration) ControllerOption {
	return func(c *ModeController) { c.stopTimeout = d }
}

// WithTransportOptions forwards options to the streaming transport.
func WithTransportOptions(opts ...TransportOption) ControllerOption {
	return func(c *ModeController) { c.transportOpts = opts }
}

func NewModeController(
	logger commons.Logger,
	source internal_type.AudioSource,
	resampler internal_type.AudioResampler,
	live internal_type.SpeechService,
	simulated internal_type.SimulatedSpeechService,
	assembler *internal_transcribe.Assembler,
	opts ...ControllerOption,
) *ModeController {
	c := &ModeController{
		logger:      logger,
		state:       StateIdle,
		source:      source,
		live:        live,
		simulated:   simulated,
		assembler:   assembler,
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.transport = NewStreamingTransport(logger, resampler, live, c.isLive, c.transportOpts...)
	return c
}

// isLive is the transport's tick guard: a tick that fires after the mode has
// switched away from live is a no-op.
func (c *ModeController) isLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Mode == internal_type.ModeLive && c.state != StateIdle
}

// State returns the current controller state.
func (c *ModeController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the active session handle (zero value when idle).
func (c *ModeController) Session() internal_type.SessionHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Start validates the config, opens a backend session and begins streaming.
// For live mode a non-empty credential is required before any backend call.
func (c *ModeController) Start(ctx context.Context, cfg StartConfig) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("transcription already active in state %s, stop first", c.state)
	}
	c.state = StateStarting
	c.mu.Unlock()

	fail := func(err error) error {
		c.mu.Lock()
		c.state = StateIdle
		c.handle = internal_type.SessionHandle{}
		c.mu.Unlock()
		return err
	}

	switch cfg.Mode {
	case internal_type.ModeLive:
		if utils.IsEmpty(cfg.Credential) {
			return fail(&internal_type.ConfigurationError{
				Field:  "credential",
				Reason: "live transcription requires an API credential",
			})
		}
		if err := c.live.Initialize(ctx, cfg.Credential, cfg.Options); err != nil {
			return fail(&internal_type.TransportError{Op: "initialize", Err: err})
		}
		c.live.OnResult(c.assembler.Push)
		sessionID, err := c.live.Start(ctx)
		if err != nil {
			return fail(&internal_type.TransportError{Op: "start", Err: err})
		}

		c.mu.Lock()
		c.handle = internal_type.SessionHandle{Mode: internal_type.ModeLive, SessionID: sessionID}
		c.state = StateActive
		c.mu.Unlock()

		c.source.OnAudioData(c.transport.Push)
		c.transport.StartBatching()
		c.logger.Infow("Live transcription started", "session", sessionID)
		return nil

	case internal_type.ModeSimulated:
		c.simulated.OnResult(c.assembler.Push)
		sessionID, err := c.simulated.Start(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to start simulated transcription: %w", err))
		}

		c.mu.Lock()
		c.handle = internal_type.SessionHandle{Mode: internal_type.ModeSimulated, SessionID: sessionID}
		c.state = StateActive
		c.mu.Unlock()

		c.logger.Infow("Simulated transcription started", "session", sessionID)
		return nil

	default:
		return fail(&internal_type.ConfigurationError{
			Field:  "mode",
			Reason: fmt.Sprintf("unknown transcription mode %q", cfg.Mode),
		})
	}
}

// Pause suspends the data feed. For live mode the batching timer stops and
// the audio callback detaches, but the backend connection stays open —
// reconnecting a streaming session is expensive and unreliable, so only the
// feed is paused. For simulated mode this forwards to the backend.
func (c *ModeController) Pause() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	mode := c.handle.Mode
	c.mu.Unlock()

	switch mode {
	case internal_type.ModeLive:
		c.transport.StopBatching()
		c.source.RemoveAudioDataCallback()
	case internal_type.ModeSimulated:
		c.simulated.Pause()
	}
}

// Resume re-attaches the audio feed (live) or forwards to the backend
// (simulated).
func (c *ModeController) Resume() {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.state = StateActive
	mode := c.handle.Mode
	c.mu.Unlock()

	switch mode {
	case internal_type.ModeLive:
		c.source.OnAudioData(c.transport.Push)
		c.transport.StartBatching()
	case internal_type.ModeSimulated:
		c.simulated.Resume()
	}
}

// Stop ends the backend session. The backend's stop acknowledgment is raced
// against a fixed ceiling — if it does not arrive in time the controller
// proceeds anyway (log-only) so the recording-stop flow is never blocked.
// The session handle is cleared regardless of outcome.
func (c *ModeController) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopping
	handle := c.handle
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.handle = internal_type.SessionHandle{}
		c.state = StateIdle
		c.mu.Unlock()
	}()

	switch handle.Mode {
	case internal_type.ModeLive:
		c.transport.StopBatching()
		c.source.RemoveAudioDataCallback()

		ackCh := make(chan error, 1)
		go func() { ackCh <- c.live.Stop(ctx) }()

		select {
		case err := <-ackCh:
			if err != nil {
				c.logger.Warnw("Speech backend stop returned error", "error", err)
				return &internal_type.TransportError{Op: "stop", Err: err}
			}
		case <-time.After(c.stopTimeout):
			c.logger.Warnw("Speech backend stop acknowledgment timed out, proceeding",
				"timeout", c.stopTimeout, "session", handle.SessionID)
		}
		return nil

	case internal_type.ModeSimulated:
		if err := c.simulated.Stop(handle.SessionID); err != nil {
			c.logger.Warnw("Simulated backend stop returned error", "error", err)
			return err
		}
		return nil
	}
	return nil
}

// Cleanup is the teardown path: best-effort stop that swallows and logs
// errors. It runs during process shutdown and must not raise.
func (c *ModeController) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		c.logger.Warnw("Cleanup stop failed", "error", err)
	}
}
