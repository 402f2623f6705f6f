// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_cloudsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_session "github.com/rapidaai/scribe/internal/session"
	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

type fakeLoader struct {
	row *internal_session.Recording
	err error
}

func (f *fakeLoader) GetRecording(ctx context.Context, sessionID string) (*internal_session.Recording, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

func sampleRow() *internal_session.Recording {
	return &internal_session.Recording{
		ID:                "sess-9",
		CourseID:          "course-2",
		UserID:            "user-2",
		Title:             "Seminar",
		DurationMs:        120000,
		TranscriptText:    "hello",
		SegmentsAvailable: true,
		CreatedAt:         time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUploadSession(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody syncPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(commons.NewNopLogger(), server.URL, "secret", &fakeLoader{row: sampleRow()})
	require.NoError(t, client.UploadSession(context.Background(), "sess-9"))

	assert.Equal(t, "/v1/recordings/sess-9", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "sess-9", gotBody.SessionID)
	assert.Equal(t, "Seminar", gotBody.Title)
	assert.Equal(t, int64(120000), gotBody.DurationMs)
	assert.True(t, gotBody.SegmentsAvailable)
}

func TestUploadSessionBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(commons.NewNopLogger(), server.URL, "secret", &fakeLoader{row: sampleRow()})
	err := client.UploadSession(context.Background(), "sess-9")
	require.Error(t, err)
	var tErr *internal_type.TransportError
	assert.ErrorAs(t, err, &tErr)
}

func TestUploadSessionLoaderError(t *testing.T) {
	client := NewClient(commons.NewNopLogger(), "http://localhost:1", "secret",
		&fakeLoader{err: fmt.Errorf("not found")})
	err := client.UploadSession(context.Background(), "missing")
	assert.Error(t, err)
}
