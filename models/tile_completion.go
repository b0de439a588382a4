package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TileStatus is the per-tile state shown to the user
type TileStatus string

const (
	TileNotStarted TileStatus = "not started"
	TileStarted    TileStatus = "started"
	TileCompleted  TileStatus = "completed"
)

// TileCompletion records one user working one tile of one grid. The unique
// (user, grid, position) index is the concurrency anchor for completions:
// Completed goes false -> true exactly once and never back.
type TileCompletion struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"not null;uniqueIndex:idx_tile_completions_tile;index:idx_tile_completions_board" json:"user_id"`
	GridID   string `gorm:"type:uuid;not null;uniqueIndex:idx_tile_completions_tile;index:idx_tile_completions_board" json:"grid_id"`
	Position int    `gorm:"not null;uniqueIndex:idx_tile_completions_tile;check:chk_tile_completions_position,position >= 0 AND position < 16" json:"position"`

	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Evidence supplied with the completion
	Description string `gorm:"type:text" json:"description,omitempty"`
	Consent     bool   `gorm:"not null;default:false" json:"consent"`
	ImageURL    string `gorm:"type:text" json:"image_url,omitempty"`

	Timestamps
}

func (t *TileCompletion) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now()
	}
	return nil
}

func (t *TileCompletion) Status() TileStatus {
	if t.Completed {
		return TileCompleted
	}
	return TileStarted
}
