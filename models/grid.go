package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grid is one 4x4 bingo board. At most one grid is active system-wide; the
// partial unique index enforces it across instances, not a process flag.
type Grid struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"grid_id"`
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"index;not null" json:"slug"`
	IsActive bool   `gorm:"not null;default:false;uniqueIndex:idx_grids_single_active,where:is_active = true" json:"is_active"`

	// Scheduled activation; cleared once the grid goes live or is skipped
	ActivateAt    *time.Time `gorm:"index" json:"activate_at,omitempty"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`

	Tiles []GridTile `gorm:"foreignKey:GridID;constraint:OnDelete:CASCADE" json:"tiles,omitempty"`

	Timestamps
}

func (g *Grid) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GridTile binds a challenge to one position. The same challenge may sit on
// several positions of one grid.
type GridTile struct {
	GridID      string    `gorm:"primaryKey;type:uuid" json:"-"`
	Position    int       `gorm:"primaryKey;autoIncrement:false;check:chk_grid_tiles_position,position >= 0 AND position < 16" json:"position"`
	ChallengeID string    `gorm:"type:uuid;index;not null" json:"challenge_id"`
	Challenge   Challenge `gorm:"foreignKey:ChallengeID" json:"challenge"`
}

// TileAt returns the tile bound to pos, or nil when Tiles is not loaded.
func (g *Grid) TileAt(pos int) *GridTile {
	for i := range g.Tiles {
		if g.Tiles[i].Position == pos {
			return &g.Tiles[i]
		}
	}
	return nil
}
