// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_notes

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rapidaai/scribe/pkg/commons"
)

func newTestManager(t *testing.T, provider AssistantNotesProvider) *Manager {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notes.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	m, err := NewManager(commons.NewNopLogger(), db, provider)
	require.NoError(t, err)
	return m
}

func TestDraftRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)
	m.SetDraft("important point")
	assert.Equal(t, "important point", m.Draft())
}

func TestSaveImmediatelyFlushesDraft(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	m.SetDraft("lecture notes")
	require.NoError(t, m.TransitionToRecordingSession(ctx, "sess-1"))
	require.NoError(t, m.SaveImmediately(ctx))

	rows, err := m.NotesForSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, SourceUser, rows[0].Source)
	assert.Equal(t, "lecture notes", rows[0].Content)
}

func TestSaveImmediatelyIsIdempotentWhenClean(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	m.SetDraft("v1")
	require.NoError(t, m.TransitionToRecordingSession(ctx, "sess-1"))
	require.NoError(t, m.SaveImmediately(ctx))
	// Second save with nothing changed is a no-op.
	require.NoError(t, m.SaveImmediately(ctx))

	rows, err := m.NotesForSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFlushedDraftRowsAreReanchored(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	// Flush happens before any session identifier exists.
	m.SetDraft("early notes")
	require.NoError(t, m.SaveImmediately(ctx))

	require.NoError(t, m.TransitionToRecordingSession(ctx, "sess-2"))

	rows, err := m.NotesForSession(ctx, "sess-2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "early notes", rows[0].Content)
}

func TestTransitionRejectsEmptySession(t *testing.T) {
	m := newTestManager(t, nil)
	assert.Error(t, m.TransitionToRecordingSession(context.Background(), ""))
}

func TestRefreshAssistantNotesAccumulates(t *testing.T) {
	calls := 0
	m := newTestManager(t, func(ctx context.Context) (string, error) {
		calls++
		return fmt.Sprintf("suggestion %d", calls), nil
	})
	ctx := context.Background()

	require.NoError(t, m.RefreshAssistantNotes(ctx))
	require.NoError(t, m.RefreshAssistantNotes(ctx))
	assert.Equal(t, "suggestion 1\nsuggestion 2", m.AssistantNotes())

	require.NoError(t, m.TransitionToRecordingSession(ctx, "sess-3"))
	require.NoError(t, m.SaveImmediately(ctx))

	rows, err := m.NotesForSession(ctx, "sess-3")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, SourceAssistant, rows[0].Source)
	assert.Equal(t, "suggestion 1\nsuggestion 2", rows[0].Content)
}

func TestRefreshAssistantNotesProviderError(t *testing.T) {
	m := newTestManager(t, func(ctx context.Context) (string, error) {
		return "", fmt.Errorf("assistant offline")
	})
	err := m.RefreshAssistantNotes(context.Background())
	assert.Error(t, err)
}

func TestRefreshAssistantNotesEmptySuggestion(t *testing.T) {
	m := newTestManager(t, func(ctx context.Context) (string, error) {
		return "", nil
	})
	require.NoError(t, m.RefreshAssistantNotes(context.Background()))
	assert.Empty(t, m.AssistantNotes())
}
