package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeType groups challenges on the board (connect / understand / act)
type ChallengeType string

const (
	ChallengeTypeConnect    ChallengeType = "connect"
	ChallengeTypeUnderstand ChallengeType = "understand"
	ChallengeTypeAct        ChallengeType = "act"
)

// Challenge is the task bound to a tile. Authored elsewhere; this service only reads it
// and bumps TotalCompletions.
type Challenge struct {
	ID               string        `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string        `gorm:"uniqueIndex;not null" json:"name"`
	Slug             string        `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string        `gorm:"type:text" json:"description"`
	ChallengeType    ChallengeType `gorm:"type:varchar(16);not null" json:"challenge_type"`
	Points           int64         `json:"points" gorm:"not null;default:0"`
	TotalCompletions int64         `json:"total_completions" gorm:"not null;default:0"`

	Timestamps
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
