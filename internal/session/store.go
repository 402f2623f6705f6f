// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	internal_type "github.com/rapidaai/scribe/internal/type"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// Store is the sqlite-backed persistence gateway. Audio lands on disk under
// <dataDir>/recordings/, metadata and transcript in the recordings table.
type Store struct {
	logger  commons.Logger
	db      *gorm.DB
	dataDir string
}

// NewStore opens (or creates) the session database under dataDir and runs
// migrations.
func NewStore(logger commons.Logger, dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, "recordings"), 0o755); err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(dataDir, "scribe.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}
	if err := db.AutoMigrate(&Recording{}); err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}

	return &Store{logger: logger, db: db, dataDir: dataDir}, nil
}

// SaveRecording writes the audio artifact to disk and inserts the session
// row. The returned SessionID is the durable identifier for every dependent
// step.
func (s *Store) SaveRecording(ctx context.Context, artifact *internal_type.RecordingArtifact) (*internal_type.SaveResult, error) {
	if artifact == nil {
		return nil, &internal_type.PersistenceError{Err: fmt.Errorf("nil artifact")}
	}

	sessionID := utils.NewSessionID()
	audioPath := filepath.Join(s.dataDir, "recordings", sessionID+".wav")
	if len(artifact.AudioWAV) > 0 {
		if err := os.WriteFile(audioPath, artifact.AudioWAV, 0o644); err != nil {
			return nil, &internal_type.PersistenceError{Err: err}
		}
	} else {
		audioPath = ""
	}

	row := Recording{
		ID:         sessionID,
		CourseID:   artifact.CourseID,
		UserID:     artifact.UserID,
		Title:      artifact.Title,
		DurationMs: artifact.Duration.Milliseconds(),
		AudioPath:  audioPath,
	}
	if artifact.Transcription != nil {
		row.TranscriptText = artifact.Transcription.Text
		row.SegmentsAvailable = artifact.Transcription.SegmentsAvailable
		if len(artifact.Transcription.Segments) > 0 {
			segs, err := json.Marshal(artifact.Transcription.Segments)
			if err != nil {
				return nil, &internal_type.PersistenceError{Err: err}
			}
			row.SegmentsJSON = string(segs)
		}
	}
	if len(artifact.Bookmarks) > 0 {
		marks, err := json.Marshal(artifact.Bookmarks)
		if err != nil {
			return nil, &internal_type.PersistenceError{Err: err}
		}
		row.BookmarksJSON = string(marks)
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// A half-saved session must not leave an orphan audio file behind.
		if audioPath != "" {
			_ = os.Remove(audioPath)
		}
		return nil, &internal_type.PersistenceError{Err: err}
	}

	s.logger.Infof("Saved recording session %s (%dms, %d bytes audio)",
		sessionID, row.DurationMs, len(artifact.AudioWAV))

	return &internal_type.SaveResult{
		Success:   true,
		SessionID: sessionID,
		FilePath:  audioPath,
	}, nil
}

// DB exposes the underlying handle so sibling stores share one database.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// UpdateSummary stores the generated short summary on a saved session.
func (s *Store) UpdateSummary(ctx context.Context, sessionID, summary string) error {
	res := s.db.WithContext(ctx).
		Model(&Recording{}).
		Where("id = ?", sessionID).
		Update("summary", summary)
	if res.Error != nil {
		return &internal_type.PersistenceError{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &internal_type.PersistenceError{Err: fmt.Errorf("session %s not found", sessionID)}
	}
	return nil
}

// GetRecording loads one saved session row.
func (s *Store) GetRecording(ctx context.Context, sessionID string) (*Recording, error) {
	var row Recording
	if err := s.db.WithContext(ctx).First(&row, "id = ?", sessionID).Error; err != nil {
		return nil, &internal_type.PersistenceError{Err: err}
	}
	return &row, nil
}

// TranscriptOf decodes the stored transcription of a session row.
func (r *Recording) TranscriptOf() (*internal_type.Transcription, error) {
	t := &internal_type.Transcription{
		Text:              r.TranscriptText,
		SegmentsAvailable: r.SegmentsAvailable,
	}
	if r.SegmentsJSON != "" {
		if err := json.Unmarshal([]byte(r.SegmentsJSON), &t.Segments); err != nil {
			return nil, err
		}
	}
	return t, nil
}
