// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_speech_simulated

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// DefaultEventInterval is how often the simulated backend emits a phrase.
const DefaultEventInterval = 2 * time.Second

// defaultScript is the phrase sequence played back when none is supplied.
var defaultScript = []string{
	"Welcome to today's session.",
	"Let's start with a quick recap of last time.",
	"The key idea here is incremental assembly.",
	"Any questions before we move on?",
}

// speechService is the offline/demo backend: it emits a scripted sequence of
// partial and final transcript events on a fixed interval, no network.
type speechService struct {
	mu     sync.Mutex
	logger commons.Logger

	script    []string
	interval  time.Duration
	sessionID string
	paused    bool
	stopCh    chan struct{}
	cb        func(internal_type.TranscriptEvent)

	elapsed float64 // scripted seconds, advanced per emitted phrase
}

// SimulatedOption customises the simulated backend.
type SimulatedOption func(*speechService)

// WithScript replaces the default phrase sequence.
func WithScript(lines []string) SimulatedOption {
	return func(s *speechService) { s.script = lines }
}

// WithEventInterval overrides the emit interval.
func WithEventInterval(d time.Duration) SimulatedOption {
	return func(s *speechService) { s.interval = d }
}

func NewSpeechService(logger commons.Logger, opts ...SimulatedOption) internal_type.SimulatedSpeechService {
	s := &speechService{
		logger:   logger,
		script:   defaultScript,
		interval: DefaultEventInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *speechService) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return "", fmt.Errorf("simulated session %s already running", s.sessionID)
	}

	s.sessionID = fmt.Sprintf("sim-%s", utils.NewSessionID())
	s.paused = false
	s.elapsed = 0
	s.stopCh = make(chan struct{})

	go s.run(s.stopCh)
	s.logger.Infow("Simulated transcription session started", "session", s.sessionID)
	return s.sessionID, nil
}

func (s *speechService) Stop(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return nil
	}
	if sessionID != "" && sessionID != s.sessionID {
		return fmt.Errorf("unknown simulated session %q", sessionID)
	}
	close(s.stopCh)
	s.stopCh = nil
	s.sessionID = ""
	return nil
}

func (s *speechService) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *speechService) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *speechService) OnResult(cb func(internal_type.TranscriptEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// run plays the script: for each phrase, a partial with the leading words
// followed by a final carrying a scripted time range.
func (s *speechService) run(stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			paused := s.paused
			cb := s.cb
			s.mu.Unlock()

			if paused || cb == nil {
				continue
			}

			line := s.script[idx%len(s.script)]
			idx++

			words := strings.Fields(line)
			if len(words) > 1 {
				cb(internal_type.TranscriptEvent{
					Text:    strings.Join(words[:len(words)/2+1], " "),
					IsFinal: false,
				})
			}

			s.mu.Lock()
			start := s.elapsed
			end := start + s.interval.Seconds()
			s.elapsed = end
			s.mu.Unlock()

			cb(internal_type.TranscriptEvent{
				Text:      line,
				IsFinal:   true,
				StartTime: start,
				EndTime:   end,
				HasTiming: true,
			})
		}
	}
}
