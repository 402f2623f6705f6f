// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

const (
	SourceUser      = "user"
	SourceAssistant = "assistant"
)

// Note is one persisted notes document, anchored to a recording session once
// the session exists. SessionID is empty while the note is still a draft.
type Note struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"index"`
	Source    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Note) TableName() string {
	return "notes"
}

// AssistantNotesProvider produces the current assistant note suggestions.
// Returning an empty string means nothing new to record.
type AssistantNotesProvider func(ctx context.Context) (string, error)

// Manager keeps the in-progress notes of a recording and persists them. It
// implements the notes handoff used by the save pipeline: once the session
// has a durable identifier, drafts are re-anchored onto it.
type Manager struct {
	logger   commons.Logger
	db       *gorm.DB
	provider AssistantNotesProvider

	mu        sync.Mutex
	sessionID string
	draft     string
	assistant string
	dirty     bool
}

func NewManager(logger commons.Logger, db *gorm.DB, provider AssistantNotesProvider) (*Manager, error) {
	if err := db.AutoMigrate(&Note{}); err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}
	return &Manager{logger: logger, db: db, provider: provider}, nil
}

// SetDraft replaces the user's in-progress note content.
func (m *Manager) SetDraft(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = content
	m.dirty = true
}

// Draft returns the current user note content.
func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// AssistantNotes returns the accumulated assistant suggestions.
func (m *Manager) AssistantNotes() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assistant
}

// TransitionToRecordingSession anchors all in-progress notes onto the saved
// session. It also claims any previously flushed draft rows so nothing stays
// orphaned if the flush ran before the session identifier existed.
func (m *Manager) TransitionToRecordingSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("empty session id")
	}

	m.mu.Lock()
	m.sessionID = sessionID
	m.dirty = true
	m.mu.Unlock()

	if err := m.db.WithContext(ctx).
		Model(&Note{}).
		Where("session_id = ?", "").
		Update("session_id", sessionID).Error; err != nil {
		return &internal_type.PersistenceError{Err: err}
	}

	m.logger.Debugf("Notes anchored to session %s", sessionID)
	return nil
}

// SaveImmediately flushes the in-memory note content to storage now, instead
// of waiting for the next periodic flush.
func (m *Manager) SaveImmediately(ctx context.Context) error {
	m.mu.Lock()
	sessionID := m.sessionID
	draft := m.draft
	assistant := m.assistant
	dirty := m.dirty
	m.mu.Unlock()

	if !dirty {
		return nil
	}

	if err := m.upsert(ctx, sessionID, SourceUser, draft); err != nil {
		return err
	}
	if assistant != "" {
		if err := m.upsert(ctx, sessionID, SourceAssistant, assistant); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
	return nil
}

// RefreshAssistantNotes asks the assistant for current suggestions and folds
// them into the assistant note. Driven by a periodic timer while recording.
func (m *Manager) RefreshAssistantNotes(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}

	suggestion, err := m.provider(ctx)
	if err != nil {
		return &internal_type.BackgroundTaskError{Task: "assistant-notes", Err: err}
	}
	if suggestion == "" {
		return nil
	}

	m.mu.Lock()
	if m.assistant == "" {
		m.assistant = suggestion
	} else {
		m.assistant = m.assistant + "\n" + suggestion
	}
	m.dirty = true
	m.mu.Unlock()
	return nil
}

// upsert keeps one row per (session, source) pair.
func (m *Manager) upsert(ctx context.Context, sessionID, source, content string) error {
	db := m.db.WithContext(ctx)

	var existing Note
	err := db.Where("session_id = ? AND source = ?", sessionID, source).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Update("content", content).Error; err != nil {
			return &internal_type.PersistenceError{Err: err}
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := Note{
			ID:        utils.NewSessionID(),
			SessionID: sessionID,
			Source:    source,
			Content:   content,
		}
		if err := db.Create(&row).Error; err != nil {
			return &internal_type.PersistenceError{Err: err}
		}
		return nil
	default:
		return &internal_type.PersistenceError{Err: err}
	}
}

// NotesForSession loads every note anchored to a session.
func (m *Manager) NotesForSession(ctx context.Context, sessionID string) ([]Note, error) {
	var rows []Note
	if err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("source").
		Find(&rows).Error; err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}
	return rows, nil
}
