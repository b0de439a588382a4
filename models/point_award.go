package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointAward = points granted for one completed tile. The unique index makes a
// second award for the same (user, grid, position) fail instead of double-paying.
type PointAward struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID  string    `gorm:"not null;uniqueIndex:idx_point_awards_tile" json:"external_user_id"`
	GridID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_point_awards_tile" json:"grid_id"`
	Position        int       `gorm:"not null;uniqueIndex:idx_point_awards_tile" json:"position"`
	ChallengePoints int64     `json:"challenge_points" gorm:"not null;default:0"`
	BonusPoints     int64     `json:"bonus_points" gorm:"not null;default:0"`
	Reason          string    `json:"reason,omitempty"` // e.g., "tile_3_row_0"
	AwardedAt       time.Time `json:"awarded_at" gorm:"autoCreateTime"`
}

func (a *PointAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Total is everything this award adds to the user's running total.
func (a *PointAward) Total() int64 {
	return a.ChallengePoints + a.BonusPoints
}
