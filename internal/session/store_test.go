// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(commons.NewNopLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleArtifact() *internal_type.RecordingArtifact {
	return &internal_type.RecordingArtifact{
		AudioWAV: []byte("RIFF-fake-wav"),
		Duration: 90 * time.Second,
		CourseID: "course-1",
		UserID:   "user-1",
		Title:    "Lecture 4",
		Transcription: &internal_type.Transcription{
			Text: "hello world",
			Segments: []internal_type.TranscriptSegment{
				{Text: "hello", StartTime: 0, EndTime: 1.2},
				{Text: "world", StartTime: 1.2, EndTime: 2.0},
			},
			SegmentsAvailable: true,
		},
		Bookmarks: []internal_type.Bookmark{
			{ID: "b1", Timestamp: 12.5, Label: "exam hint", CreatedAt: time.Now()},
		},
	}
}

func TestSaveRecordingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.SaveRecording(ctx, sampleArtifact())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotEmpty(t, result.SessionID)
	require.NotEmpty(t, result.FilePath)

	audio, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF-fake-wav"), audio)

	row, err := store.GetRecording(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Lecture 4", row.Title)
	assert.Equal(t, "course-1", row.CourseID)
	assert.Equal(t, int64(90000), row.DurationMs)

	transcript, err := row.TranscriptOf()
	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript.Text)
	assert.True(t, transcript.SegmentsAvailable)
	require.Len(t, transcript.Segments, 2)
	assert.Equal(t, "world", transcript.Segments[1].Text)
}

func TestSaveRecordingWithoutAudio(t *testing.T) {
	store := newTestStore(t)

	artifact := sampleArtifact()
	artifact.AudioWAV = nil

	result, err := store.SaveRecording(context.Background(), artifact)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.FilePath)
}

func TestSaveRecordingNilArtifact(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SaveRecording(context.Background(), nil)
	require.Error(t, err)
	var pErr *internal_type.PersistenceError
	assert.ErrorAs(t, err, &pErr)
}

func TestUpdateSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.SaveRecording(ctx, sampleArtifact())
	require.NoError(t, err)

	require.NoError(t, store.UpdateSummary(ctx, result.SessionID, "short recap"))

	row, err := store.GetRecording(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "short recap", row.Summary)
}

func TestUpdateSummaryUnknownSession(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateSummary(context.Background(), "missing", "recap")
	assert.Error(t, err)
}

func TestFallbackTranscription(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	artifact := sampleArtifact()
	artifact.Transcription = &internal_type.Transcription{
		Text:              "plain text only",
		SegmentsAvailable: false,
	}

	result, err := store.SaveRecording(ctx, artifact)
	require.NoError(t, err)

	row, err := store.GetRecording(ctx, result.SessionID)
	require.NoError(t, err)

	transcript, err := row.TranscriptOf()
	require.NoError(t, err)
	assert.False(t, transcript.SegmentsAvailable)
	assert.Empty(t, transcript.Segments)
	assert.Equal(t, "plain text only", transcript.Text)
}
