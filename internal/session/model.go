// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_session

import (
	"time"
)

// Recording is the persisted row for one saved recording session.
type Recording struct {
	ID                string `gorm:"primaryKey"`
	CourseID          string `gorm:"index"`
	UserID            string `gorm:"index"`
	Title             string
	DurationMs        int64
	AudioPath         string
	TranscriptText    string
	SegmentsJSON      string
	SegmentsAvailable bool
	BookmarksJSON     string
	Summary           string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Recording) TableName() string {
	return "recordings"
}
