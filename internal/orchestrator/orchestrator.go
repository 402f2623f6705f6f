// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	internal_transcribe "github.com/rapidaai/scribe/internal/transcribe"
	internal_transcribe_controller "github.com/rapidaai/scribe/internal/transcribe/controller"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// =============================================================================
// Recording Orchestrator
// =============================================================================

// State is the orchestrator's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopping  State = "stopping"
)

const (
	DefaultElapsedInterval        = 1 * time.Second
	DefaultAudioLevelInterval     = 100 * time.Millisecond
	DefaultAssistantNotesInterval = 30 * time.Second
)

// defaultRetryDelays is the per-attempt wait before retrying the assistant
// connection. Explicit values keep the worst-case wait bounded instead of a
// computed backoff curve.
var defaultRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

const defaultAssistantRetries = 3

// TranscriptController is the mode-switching transcription façade the
// orchestrator drives.
type TranscriptController interface {
	Start(ctx context.Context, cfg internal_transcribe_controller.StartConfig) error
	Stop(ctx context.Context) error
	Pause()
	Resume()
	Cleanup()
}

// Dependencies bundles the orchestrator's collaborators. Cloud, Summary,
// Assistant, Status and Sleep are optional; a nil entry disables the feature.
type Dependencies struct {
	Source      internal_type.AudioSource
	Controller  TranscriptController
	Assembler   *internal_transcribe.Assembler
	Persistence internal_type.PersistenceGateway
	Notes       internal_type.NotesHandoff
	Cloud       internal_type.CloudSync
	Summary     internal_type.SummaryService
	Assistant   internal_type.AssistantLink
	Status      internal_type.StatusSink
	Sleep       internal_type.SleepInhibitor
}

// StartOptions carries per-recording configuration.
type StartOptions struct {
	Mode       internal_type.TranscriptionMode
	Credential string
	CourseID   string
	UserID     string
	Title      string
	Options    utils.Option
}

type OrchestratorOption func(*Orchestrator)

// WithAssistantRetries sets how many retries follow the initial assistant
// connection attempt.
func WithAssistantRetries(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.assistantRetries = n
		}
	}
}

// WithRetryDelays overrides the per-attempt retry delay table.
func WithRetryDelays(delays ...time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if len(delays) > 0 {
			o.retryDelays = delays
		}
	}
}

// WithIntervals overrides the periodic timer durations.
func WithIntervals(elapsed, audioLevel, assistantNotes time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.elapsedInterval = elapsed
		o.audioLevelInterval = audioLevel
		o.assistantNotesInterval = assistantNotes
	}
}

// Orchestrator is the top-level recording state machine. It coordinates audio
// capture, the transcription controller, and the save pipeline, and owns the
// periodic timers and background tasks of a recording session.
type Orchestrator struct {
	logger commons.Logger
	deps   Dependencies

	mu             sync.Mutex
	state          State
	current        StartOptions
	bookmarks      []internal_type.Bookmark
	assistantReady bool

	intervals map[string]chan struct{}

	elapsedCb func(active time.Duration)
	levelCb   func(level float32)

	assistantRetries       int
	retryDelays            []time.Duration
	elapsedInterval        time.Duration
	audioLevelInterval     time.Duration
	assistantNotesInterval time.Duration

	// sleep is injectable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration)

	background errgroup.Group
}

func NewOrchestrator(logger commons.Logger, deps Dependencies, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		logger:                 logger,
		deps:                   deps,
		state:                  StateIdle,
		intervals:              make(map[string]chan struct{}),
		assistantRetries:       defaultAssistantRetries,
		retryDelays:            defaultRetryDelays,
		elapsedInterval:        DefaultElapsedInterval,
		audioLevelInterval:     DefaultAudioLevelInterval,
		assistantNotesInterval: DefaultAssistantNotesInterval,
		sleep:                  sleepWithContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// AssistantReady reports whether the AI companion connection was established.
func (o *Orchestrator) AssistantReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.assistantReady
}

// OnElapsed registers the periodic active-time callback.
func (o *Orchestrator) OnElapsed(cb func(active time.Duration)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.elapsedCb = cb
}

// OnAudioLevel registers the periodic input-level callback.
func (o *Orchestrator) OnAudioLevel(cb func(level float32)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.levelCb = cb
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start begins a recording session. Starting while one is already in
// progress is rejected; callers must stop first.
func (o *Orchestrator) Start(ctx context.Context, opts StartOptions) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return fmt.Errorf("recording already in progress")
	}
	o.state = StateRecording
	o.current = opts
	o.bookmarks = nil
	o.assistantReady = false
	o.mu.Unlock()

	if o.deps.Sleep != nil {
		if err := o.deps.Sleep.Acquire(); err != nil {
			o.logger.Warnf("Sleep inhibitor unavailable: %v", err)
		}
	}

	o.deps.Assembler.Start()

	if err := o.deps.Source.StartRecording(ctx); err != nil {
		o.rollbackStart()
		return err
	}

	if err := o.deps.Controller.Start(ctx, internal_transcribe_controller.StartConfig{
		Mode:       opts.Mode,
		Credential: opts.Credential,
		Options:    opts.Options,
	}); err != nil {
		if _, stopErr := o.deps.Source.StopRecording(); stopErr != nil {
			o.logger.Warnf("Audio source stop during rollback: %v", stopErr)
		}
		o.rollbackStart()
		return err
	}

	o.startInterval("elapsed", o.elapsedInterval, func() {
		o.mu.Lock()
		cb := o.elapsedCb
		o.mu.Unlock()
		if cb != nil {
			cb(o.deps.Assembler.Clock().ActiveElapsed())
		}
	})
	o.startInterval("audio-level", o.audioLevelInterval, func() {
		o.mu.Lock()
		cb := o.levelCb
		o.mu.Unlock()
		if cb != nil {
			cb(o.deps.Source.AudioLevel())
		}
	})
	if o.deps.Notes != nil {
		o.startInterval("assistant-notes", o.assistantNotesInterval, func() {
			if err := o.deps.Notes.RefreshAssistantNotes(context.Background()); err != nil {
				o.logger.Warnf("Assistant notes refresh failed: %v", err)
			}
		})
	}

	if o.deps.Assistant != nil {
		o.background.Go(func() error {
			o.connectAssistant(context.Background())
			return nil
		})
	}

	o.notify(internal_type.StatusInfo, "Recording started")
	return nil
}

func (o *Orchestrator) rollbackStart() {
	o.stopAllIntervals()
	if o.deps.Sleep != nil {
		o.deps.Sleep.Release()
	}
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
}

// Pause suspends capture and the transcription feed. A no-op unless
// currently recording.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	if o.state != StateRecording {
		o.mu.Unlock()
		return
	}
	o.state = StatePaused
	o.mu.Unlock()

	o.deps.Controller.Pause()
	if err := o.deps.Source.PauseRecording(); err != nil {
		o.logger.Warnf("Audio source pause failed: %v", err)
	}
	o.deps.Assembler.PauseRecording()
	o.notify(internal_type.StatusInfo, "Recording paused")
}

// Resume restarts capture and the transcription feed. A no-op unless paused.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	if o.state != StatePaused {
		o.mu.Unlock()
		return
	}
	o.state = StateRecording
	o.mu.Unlock()

	o.deps.Assembler.ResumeRecording()
	if err := o.deps.Source.ResumeRecording(); err != nil {
		o.logger.Warnf("Audio source resume failed: %v", err)
	}
	o.deps.Controller.Resume()
	o.notify(internal_type.StatusInfo, "Recording resumed")
}

// AddBookmark marks the current active-time position. Ignored when no
// recording is in progress.
func (o *Orchestrator) AddBookmark(label string) *internal_type.Bookmark {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateRecording && o.state != StatePaused {
		return nil
	}
	mark := internal_type.Bookmark{
		ID:        utils.NewSessionID(),
		Timestamp: o.deps.Assembler.Clock().ActiveElapsed().Seconds(),
		Label:     label,
		CreatedAt: time.Now(),
	}
	o.bookmarks = append(o.bookmarks, mark)
	return &mark
}

// Bookmarks returns the marks captured so far in this recording.
func (o *Orchestrator) Bookmarks() []internal_type.Bookmark {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]internal_type.Bookmark, len(o.bookmarks))
	copy(out, o.bookmarks)
	return out
}

// =============================================================================
// Assistant connection
// =============================================================================

// connectAssistant establishes the AI companion link with bounded retry. A
// terminal failure degrades the feature; it never aborts recording.
func (o *Orchestrator) connectAssistant(ctx context.Context) {
	attempts := o.assistantRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		err := o.deps.Assistant.Connect(ctx)
		if err == nil {
			o.mu.Lock()
			o.assistantReady = true
			o.mu.Unlock()
			o.logger.Infof("Assistant connected on attempt %d", attempt+1)
			return
		}
		o.logger.Warnf("Assistant connection attempt %d/%d failed: %v", attempt+1, attempts, err)
		if attempt < attempts-1 {
			o.sleep(ctx, o.retryDelay(attempt))
		}
	}
	o.notify(internal_type.StatusWarning, "Assistant unavailable for this recording")
}

func (o *Orchestrator) retryDelay(attempt int) time.Duration {
	if attempt < len(o.retryDelays) {
		return o.retryDelays[attempt]
	}
	return o.retryDelays[len(o.retryDelays)-1]
}

// =============================================================================
// Save pipeline
// =============================================================================

// Stop ends the session and runs the save pipeline. Every step runs with its
// error captured so recovery always completes; the first captured error is
// returned afterward. The returned outcome always carries a session
// identifier, locally generated when persistence supplied none.
func (o *Orchestrator) Stop(ctx context.Context) (*internal_type.SaveOutcome, error) {
	o.mu.Lock()
	if o.state != StateRecording && o.state != StatePaused {
		o.mu.Unlock()
		return nil, nil
	}
	o.state = StateStopping
	opts := o.current
	o.mu.Unlock()

	var firstErr error
	capture := func(err error) {
		if err != nil {
			o.logger.Errorf("Save pipeline: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	sessionID := ""
	persisted := false

	defer func() {
		o.stopAllIntervals()
		if o.deps.Sleep != nil {
			o.deps.Sleep.Release()
		}
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		if persisted {
			o.notify(internal_type.StatusInfo, "Recording saved")
		} else {
			o.notify(internal_type.StatusWarning, "Recording stopped, save may have failed")
		}
	}()

	if err := o.deps.Controller.Stop(ctx); err != nil {
		capture(&internal_type.RecoveryStepError{Step: "transcription-stop", Err: err})
	}

	var captureResult *internal_type.CaptureResult
	result, err := o.deps.Source.StopRecording()
	if err != nil {
		capture(&internal_type.RecoveryStepError{Step: "capture-stop", Err: err})
	} else {
		captureResult = result
	}

	transcription, err := o.buildTranscription()
	if err != nil {
		capture(&internal_type.RecoveryStepError{Step: "transcription-build", Err: err})
	}

	artifact := &internal_type.RecordingArtifact{
		CourseID:      opts.CourseID,
		UserID:        opts.UserID,
		Title:         opts.Title,
		Transcription: transcription,
		Bookmarks:     o.Bookmarks(),
	}
	if captureResult != nil {
		artifact.AudioWAV = captureResult.AudioWAV
		artifact.Duration = captureResult.Duration
	}

	saveResult, err := o.deps.Persistence.SaveRecording(ctx, artifact)
	switch {
	case err != nil:
		capture(&internal_type.PersistenceError{Err: err})
	case saveResult == nil || !saveResult.Success || saveResult.SessionID == "":
		capture(&internal_type.PersistenceError{Err: fmt.Errorf("save returned no session identifier")})
	default:
		sessionID = saveResult.SessionID
		persisted = true
	}

	// A persistence failure must not orphan the in-memory notes; dependent
	// writes anchor to a locally generated identifier instead.
	if sessionID == "" {
		sessionID = utils.NewFallbackSessionID()
		o.logger.Warnf("Using fallback session identity %s", sessionID)
	}

	if o.deps.Notes != nil {
		if err := o.deps.Notes.TransitionToRecordingSession(ctx, sessionID); err != nil {
			capture(&internal_type.RecoveryStepError{Step: "notes-transition", Err: err})
		}
		if err := o.deps.Notes.SaveImmediately(ctx); err != nil {
			capture(&internal_type.RecoveryStepError{Step: "notes-flush", Err: err})
		}
	}

	// Fire-and-forget: neither task delays stop completion. They anchor to
	// whatever identity the session ended up with, fallback included; their
	// own failures are log-only.
	id := sessionID
	if o.deps.Cloud != nil {
		o.background.Go(func() error {
			if err := o.deps.Cloud.UploadSession(context.Background(), id); err != nil {
				o.logger.Warnf("Cloud sync failed for %s: %v", id, err)
			}
			return nil
		})
	}
	if o.deps.Summary != nil {
		o.background.Go(func() error {
			if err := o.deps.Summary.GenerateAndSaveShortSummary(context.Background(), id); err != nil {
				o.logger.Warnf("Summary generation failed for %s: %v", id, err)
			}
			return nil
		})
	}

	return &internal_type.SaveOutcome{
		SessionID: sessionID,
		Persisted: persisted,
		Err:       firstErr,
	}, firstErr
}

// buildTranscription assembles the final transcript artifact. A defect in
// segment construction falls back to the plain-text transcript so the save
// is never blocked; the fallback is marked by SegmentsAvailable=false.
func (o *Orchestrator) buildTranscription() (t *internal_type.Transcription, err error) {
	text := o.deps.Assembler.Text()
	defer func() {
		if r := recover(); r != nil {
			t = &internal_type.Transcription{Text: text, SegmentsAvailable: false}
			err = fmt.Errorf("segment construction failed: %v", r)
		}
	}()

	if !o.deps.Assembler.HasFinals() {
		return &internal_type.Transcription{Text: text, SegmentsAvailable: false}, nil
	}
	segments := o.deps.Assembler.Normalize()
	return &internal_type.Transcription{
		Text:              text,
		Segments:          segments,
		SegmentsAvailable: true,
	}, nil
}

func (o *Orchestrator) notify(kind internal_type.StatusKind, message string) {
	if o.deps.Status != nil {
		o.deps.Status.Notify(kind, message)
	}
}

// Wait blocks until all background tasks have finished. Intended for tests
// and process shutdown.
func (o *Orchestrator) Wait() {
	_ = o.background.Wait()
}

// Cleanup is the teardown path. Best effort only, never raises.
func (o *Orchestrator) Cleanup() {
	o.stopAllIntervals()
	o.deps.Controller.Cleanup()
	if o.deps.Sleep != nil {
		o.deps.Sleep.Release()
	}
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
}

// =============================================================================
// Interval registry
// =============================================================================

// startInterval registers a named periodic task. Re-registering a name stops
// the prior timer first, so each concern has at most one live interval.
func (o *Orchestrator) startInterval(name string, every time.Duration, fn func()) {
	o.mu.Lock()
	if prior, ok := o.intervals[name]; ok {
		close(prior)
	}
	stop := make(chan struct{})
	o.intervals[name] = stop
	o.mu.Unlock()

	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (o *Orchestrator) stopAllIntervals() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name, stop := range o.intervals {
		close(stop)
		delete(o.intervals, name)
	}
}
