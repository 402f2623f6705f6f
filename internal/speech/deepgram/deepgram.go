// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_speech_deepgram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	internal_audio "github.com/rapidaai/scribe/internal/audio"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

const (
	DefaultModel    = "nova-2"
	DefaultLanguage = "en-US"
)

// speechService implements the live SpeechService on the Deepgram streaming
// websocket API.
type speechService struct {
	mu     sync.Mutex
	logger commons.Logger

	credential string
	opts       utils.Option

	client    *listen.WSCallback
	sessionID string
	cb        func(internal_type.TranscriptEvent)
}

func NewSpeechService(logger commons.Logger) internal_type.SpeechService {
	return &speechService{logger: logger}
}

// Initialize records the credential and per-session options. The websocket is
// not opened until Start.
func (s *speechService) Initialize(ctx context.Context, credential string, opts utils.Option) error {
	if utils.IsEmpty(credential) {
		return &internal_type.ConfigurationError{
			Field:  "credential",
			Reason: "deepgram api key is required",
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.opts = opts
	return nil
}

// transcriptionOptions maps session options onto Deepgram live options.
// Encoding and sample rate are fixed to the internal audio config.
func (s *speechService) transcriptionOptions() *interfaces.LiveTranscriptionOptions {
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          DefaultModel,
		Language:       DefaultLanguage,
		Encoding:       "linear16",
		Channels:       int(internal_audio.SCRIBE_INTERNAL_AUDIO_CONFIG.Channels),
		SampleRate:     int(internal_audio.SCRIBE_INTERNAL_AUDIO_CONFIG.SampleRate),
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
	}

	if model, err := s.opts.GetString("listen.model"); err == nil {
		tOptions.Model = model
	}
	if language, err := s.opts.GetString("listen.language"); err == nil {
		codes := strings.Split(language, commons.SEPARATOR)
		if len(codes) > 0 && !utils.IsEmpty(codes[0]) {
			tOptions.Language = strings.TrimSpace(codes[0])
		}
	}
	return tOptions
}

// Start opens the streaming connection and returns the session identifier.
func (s *speechService) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()

	if utils.IsEmpty(credential) {
		return "", &internal_type.ConfigurationError{
			Field:  "credential",
			Reason: "initialize must be called before start",
		}
	}

	cOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}

	client, err := listen.NewWSUsingCallback(ctx, credential, cOptions, s.transcriptionOptions(), &resultRouter{service: s})
	if err != nil {
		return "", fmt.Errorf("failed to create deepgram client: %w", err)
	}
	if ok := client.Connect(); !ok {
		return "", &internal_type.TransportError{
			Op:  "connect",
			Err: fmt.Errorf("deepgram websocket connect failed"),
		}
	}

	sessionID := utils.NewSessionID()
	s.mu.Lock()
	s.client = client
	s.sessionID = sessionID
	s.mu.Unlock()

	s.logger.Infow("Deepgram streaming session started", "session", sessionID)
	return sessionID, nil
}

// SendAudio forwards one LINEAR16 batch to the open websocket.
func (s *speechService) SendAudio(pcm []byte) error {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return &internal_type.TransportError{
			Op:  "send_audio",
			Err: fmt.Errorf("no active deepgram session"),
		}
	}
	if err := client.WriteBinary(pcm); err != nil {
		return &internal_type.TransportError{Op: "send_audio", Err: err}
	}
	return nil
}

// OnResult registers the transcript event callback. A subsequent call
// replaces the previous registration.
func (s *speechService) OnResult(cb func(internal_type.TranscriptEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// Stop closes the streaming connection and waits for the server to flush its
// final results.
func (s *speechService) Stop(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.sessionID = ""
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	client.Stop()
	return nil
}

func (s *speechService) emit(ev internal_type.TranscriptEvent) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb != nil {
		cb(ev)
	}
}

// ============================================================================
// resultRouter — Deepgram websocket callbacks
// ============================================================================

// resultRouter adapts Deepgram's message callbacks onto TranscriptEvents.
type resultRouter struct {
	service *speechService
}

func (r *resultRouter) Open(or *msginterfaces.OpenResponse) error {
	r.service.logger.Debugw("Deepgram connection open")
	return nil
}

func (r *resultRouter) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	transcript := strings.TrimSpace(mr.Channel.Alternatives[0].Transcript)
	if transcript == "" {
		return nil
	}

	r.service.emit(internal_type.TranscriptEvent{
		Text:      transcript,
		IsFinal:   mr.IsFinal,
		StartTime: mr.Start,
		EndTime:   mr.Start + mr.Duration,
		HasTiming: true,
	})
	return nil
}

func (r *resultRouter) Metadata(md *msginterfaces.MetadataResponse) error {
	r.service.logger.Debugw("Deepgram metadata", "requestId", md.RequestID)
	return nil
}

func (r *resultRouter) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (r *resultRouter) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	return nil
}

func (r *resultRouter) Close(cr *msginterfaces.CloseResponse) error {
	r.service.logger.Debugw("Deepgram connection closed")
	return nil
}

func (r *resultRouter) Error(er *msginterfaces.ErrorResponse) error {
	r.service.logger.Errorw("Deepgram stream error",
		"type", er.ErrCode, "message", er.ErrMsg)
	return nil
}

func (r *resultRouter) UnhandledEvent(byData []byte) error {
	r.service.logger.Debugw("Deepgram unhandled event", "size", len(byData))
	return nil
}
