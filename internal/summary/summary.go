// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_summary

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	internal_session "github.com/rapidaai/scribe/internal/session"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

const summarySystemPrompt = "You summarize lecture transcripts. Reply with a 2-3 sentence " +
	"plain-text summary of the key topics. No preamble, no markdown."

// transcripts longer than this are truncated before the completion call
const maxTranscriptChars = 24000

// SummaryStore is the persistence surface the service needs: read the saved
// transcript, write back the summary.
type SummaryStore interface {
	GetRecording(ctx context.Context, sessionID string) (*internal_session.Recording, error)
	UpdateSummary(ctx context.Context, sessionID, summary string) error
}

// completer isolates the model call so tests run without network.
type completer interface {
	complete(ctx context.Context, model, transcript string) (string, error)
}

// Service generates a short summary for a saved session and stores it on the
// session row. The save pipeline runs it fire-and-forget.
type Service struct {
	logger    commons.Logger
	store     SummaryStore
	model     string
	completer completer
}

func NewService(logger commons.Logger, store SummaryStore, apiKey, model string) *Service {
	return &Service{
		logger:    logger,
		store:     store,
		model:     model,
		completer: &openaiCompleter{client: openai.NewClient(option.WithAPIKey(apiKey))},
	}
}

// GenerateAndSaveShortSummary loads the session transcript, asks the model
// for a short summary, and persists it. Sessions with no transcript text are
// skipped without error.
func (s *Service) GenerateAndSaveShortSummary(ctx context.Context, sessionID string) error {
	row, err := s.store.GetRecording(ctx, sessionID)
	if err != nil {
		return &internal_type.BackgroundTaskError{Task: "summary", Err: err}
	}

	transcript := strings.TrimSpace(row.TranscriptText)
	if transcript == "" {
		s.logger.Debugf("Session %s has no transcript, skipping summary", sessionID)
		return nil
	}
	transcript = truncateOnRuneBoundary(transcript, maxTranscriptChars)

	summary, err := s.completer.complete(ctx, s.model, transcript)
	if err != nil {
		return &internal_type.BackgroundTaskError{Task: "summary", Err: err}
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return &internal_type.BackgroundTaskError{
			Task: "summary",
			Err:  fmt.Errorf("model returned empty summary"),
		}
	}

	if err := s.store.UpdateSummary(ctx, sessionID, summary); err != nil {
		return &internal_type.BackgroundTaskError{Task: "summary", Err: err}
	}

	s.logger.Infof("Summary stored for session %s (%d chars)", sessionID, len(summary))
	return nil
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte rune, so the completion API always receives valid UTF-8.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type openaiCompleter struct {
	client openai.Client
}

func (c *openaiCompleter) complete(ctx context.Context, model, transcript string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarySystemPrompt),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}
