// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	internal_session "github.com/rapidaai/scribe/internal/session"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

// SessionLoader provides the saved session row to upload.
type SessionLoader interface {
	GetRecording(ctx context.Context, sessionID string) (*internal_session.Recording, error)
}

// syncPayload is the wire shape of one uploaded session.
type syncPayload struct {
	SessionID         string  `json:"sessionId"`
	CourseID          string  `json:"courseId"`
	UserID            string  `json:"userId"`
	Title             string  `json:"title"`
	DurationMs        int64   `json:"durationMs"`
	TranscriptText    string  `json:"transcriptText"`
	SegmentsJSON      string  `json:"segmentsJson,omitempty"`
	SegmentsAvailable bool    `json:"segmentsAvailable"`
	BookmarksJSON     string  `json:"bookmarksJson,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

// Client uploads saved sessions to the sync backend, best effort. The save
// pipeline fires it in the background and never blocks on it.
type Client struct {
	logger commons.Logger
	http   *resty.Client
	loader SessionLoader
}

func NewClient(logger commons.Logger, host, apiKey string, loader SessionLoader) *Client {
	http := resty.New().
		SetBaseURL(host).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &Client{logger: logger, http: http, loader: loader}
}

// UploadSession pushes one saved session's metadata and transcript to the
// backend. Audio stays local; the backend pulls it separately when needed.
func (c *Client) UploadSession(ctx context.Context, sessionID string) error {
	row, err := c.loader.GetRecording(ctx, sessionID)
	if err != nil {
		return &internal_type.TransportError{Op: "cloud-sync", Err: err}
	}

	payload := syncPayload{
		SessionID:         row.ID,
		CourseID:          row.CourseID,
		UserID:            row.UserID,
		Title:             row.Title,
		DurationMs:        row.DurationMs,
		TranscriptText:    row.TranscriptText,
		SegmentsJSON:      row.SegmentsJSON,
		SegmentsAvailable: row.SegmentsAvailable,
		BookmarksJSON:     row.BookmarksJSON,
		CreatedAt:         row.CreatedAt.UTC().Format(time.RFC3339),
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Put(fmt.Sprintf("/v1/recordings/%s", sessionID))
	if err != nil {
		return &internal_type.TransportError{Op: "cloud-sync", Err: err}
	}
	if resp.IsError() {
		return &internal_type.TransportError{
			Op:  "cloud-sync",
			Err: fmt.Errorf("backend returned %s", resp.Status()),
		}
	}

	c.logger.Infof("Session %s synced to cloud", sessionID)
	return nil
}
