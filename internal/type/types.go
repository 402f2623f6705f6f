// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_type

import (
	"context"
	"time"

	"github.com/rapidaai/scribe/pkg/utils"
)

// =============================================================================
// Transcription data model
// =============================================================================

// TranscriptionMode selects the speech backend for a session.
type TranscriptionMode string

const (
	ModeLive      TranscriptionMode = "live"
	ModeSimulated TranscriptionMode = "simulated"
)

// TranscriptEvent is an incremental speech-to-text result. Partial events are
// provisional and superseded; final events are committed text. HasTiming is
// false when the backend supplied no time range, in which case the assembler
// derives one from the recording clock.
type TranscriptEvent struct {
	Text      string
	IsFinal   bool
	StartTime float64 // seconds from session start
	EndTime   float64
	HasTiming bool
}

// TranscriptSegment is a committed, timestamped span of text. Within one
// finalized session the segment list is sorted by StartTime and
// non-overlapping.
type TranscriptSegment struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// Transcription is the assembled artifact handed to the save pipeline.
// SegmentsAvailable is false for the plain-text fallback built when segment
// construction failed.
type Transcription struct {
	Text              string              `json:"text"`
	Segments          []TranscriptSegment `json:"segments,omitempty"`
	SegmentsAvailable bool                `json:"segmentsAvailable"`
}

// SessionHandle identifies the connection with the active transcription
// backend. At most one handle is active at a time.
type SessionHandle struct {
	Mode      TranscriptionMode
	SessionID string
}

// Bookmark marks a moment of interest, relative to active recording time.
type Bookmark struct {
	ID        string    `json:"id"`
	Timestamp float64   `json:"timestamp"` // seconds of active time
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveOutcome reports the result of the save pipeline. SessionID is always
// populated — a real identifier from the persistence layer or a locally
// generated fallback — so dependent steps can anchor their writes.
type SaveOutcome struct {
	SessionID string
	Persisted bool
	Err       error
}

// =============================================================================
// Audio contracts
// =============================================================================

// AudioResampler converts a frame of normalized samples between rates.
type AudioResampler interface {
	// Resample is pure and deterministic; when sourceRate == targetRate the
	// input slice is returned unchanged.
	Resample(input []float32, sourceRate, targetRate uint32) []float32
}

// CaptureResult is what stopping the audio source yields.
type CaptureResult struct {
	AudioWAV []byte
	Duration time.Duration
}

// AudioSource delivers fixed-size raw audio frames at a known sample rate via
// a push callback. Implementations wrap the platform capture device.
type AudioSource interface {
	StartRecording(ctx context.Context) error
	StopRecording() (*CaptureResult, error)
	PauseRecording() error
	ResumeRecording() error
	// AudioLevel reports the current input level in [0, 1].
	AudioLevel() float32
	// OnAudioData registers the frame callback. A subsequent call replaces
	// the previous registration.
	OnAudioData(cb func(frame []float32, sampleRate uint32))
	RemoveAudioDataCallback()
}

// =============================================================================
// Speech backends
// =============================================================================

// SpeechService is the live streaming speech-to-text backend.
type SpeechService interface {
	Initialize(ctx context.Context, credential string, opts utils.Option) error
	Start(ctx context.Context) (string, error)
	SendAudio(pcm []byte) error
	OnResult(cb func(TranscriptEvent))
	Stop(ctx context.Context) error
}

// SimulatedSpeechService is the offline/demo backend.
type SimulatedSpeechService interface {
	Start(ctx context.Context) (string, error)
	Stop(sessionID string) error
	Pause()
	Resume()
	OnResult(cb func(TranscriptEvent))
}

// =============================================================================
// Save pipeline collaborators
// =============================================================================

// RecordingArtifact bundles everything the primary persistence call receives.
type RecordingArtifact struct {
	AudioWAV      []byte
	Duration      time.Duration
	CourseID      string
	UserID        string
	Transcription *Transcription
	Title         string
	Bookmarks     []Bookmark
}

// SaveResult is the persistence layer's answer to a save request.
type SaveResult struct {
	Success   bool
	SessionID string
	FilePath  string
}

// PersistenceGateway is the primary save boundary.
type PersistenceGateway interface {
	SaveRecording(ctx context.Context, artifact *RecordingArtifact) (*SaveResult, error)
}

// NotesHandoff re-anchors in-progress notes onto a saved session.
type NotesHandoff interface {
	TransitionToRecordingSession(ctx context.Context, sessionID string) error
	SaveImmediately(ctx context.Context) error
	// RefreshAssistantNotes is driven by the periodic assistant-notes timer.
	RefreshAssistantNotes(ctx context.Context) error
}

// CloudSync uploads a saved session in the background, best effort.
type CloudSync interface {
	UploadSession(ctx context.Context, sessionID string) error
}

// SummaryService generates and stores a short summary for a saved session.
type SummaryService interface {
	GenerateAndSaveShortSummary(ctx context.Context, sessionID string) error
}

// AssistantLink is the AI companion connection, co-started with recording but
// independent of it. A failed Connect degrades the feature, never recording.
type AssistantLink interface {
	Connect(ctx context.Context) error
}

// =============================================================================
// Environment collaborators
// =============================================================================

// StatusKind classifies user-visible status notifications.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
)

// StatusSink receives user-visible status updates. Injected instead of a
// process-wide notification singleton.
type StatusSink interface {
	Notify(kind StatusKind, message string)
}

// SleepInhibitor keeps the machine awake while recording.
type SleepInhibitor interface {
	Acquire() error
	Release()
}
