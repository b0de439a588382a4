// services/tile_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bingo-service/bingo"
	"bingo-service/models"

	"gorm.io/gorm"
)

// Evidence is what the user hands in with a completion.
type Evidence struct {
	Description string
	Consent     bool
	ImageURL    string
}

// TileStore is the durable record of which tiles a user has started and completed.
type TileStore interface {
	// StartTile creates the record for (user, grid, pos). A second start is ErrTileAlreadyStarted.
	StartTile(ctx context.Context, userID, gridID string, pos int) (*models.TileCompletion, error)
	// TryComplete marks the record completed only if it was not already. Exactly
	// one concurrent caller sees alreadyCompleted == false.
	TryComplete(ctx context.Context, userID, gridID string, pos int, ev Evidence) (alreadyCompleted bool, rec *models.TileCompletion, err error)
	// Board rebuilds the completion bitmap; positions without a record are false.
	Board(ctx context.Context, userID, gridID string) (bingo.Board, error)
	// Tiles lists the user's records for the grid, ordered by position.
	Tiles(ctx context.Context, userID, gridID string) ([]models.TileCompletion, error)
}

type GormTileStore struct {
	DB *gorm.DB
}

var _ TileStore = (*GormTileStore)(nil)

// NewTileStore binds the store to db, which may be a transaction.
func NewTileStore(db *gorm.DB) *GormTileStore {
	return &GormTileStore{DB: db}
}

func (s *GormTileStore) StartTile(ctx context.Context, userID, gridID string, pos int) (*models.TileCompletion, error) {
	if !bingo.ValidPosition(pos) {
		return nil, ErrInvalidPosition
	}
	rec := &models.TileCompletion{
		UserID:    userID,
		GridID:    gridID,
		Position:  pos,
		StartedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrTileAlreadyStarted
		}
		return nil, fmt.Errorf("start tile %d: %w", pos, err)
	}
	return rec, nil
}

func (s *GormTileStore) TryComplete(ctx context.Context, userID, gridID string, pos int, ev Evidence) (bool, *models.TileCompletion, error) {
	if !bingo.ValidPosition(pos) {
		return false, nil, ErrInvalidPosition
	}
	db := s.DB.WithContext(ctx)

	now := time.Now()
	updates := map[string]interface{}{
		"completed":    true,
		"completed_at": now,
		"consent":      ev.Consent,
	}
	if ev.Description != "" {
		updates["description"] = ev.Description
	}
	if ev.ImageURL != "" {
		updates["image_url"] = ev.ImageURL
	}

	// 🔒 Conditional update: the completed = false guard makes this the single winner check
	result := db.Model(&models.TileCompletion{}).
		Where("user_id = ? AND grid_id = ? AND position = ? AND completed = ?", userID, gridID, pos, false).
		Updates(updates)
	if result.Error != nil {
		return false, nil, fmt.Errorf("complete tile %d: %w", pos, result.Error)
	}

	var rec models.TileCompletion
	if err := db.Where("user_id = ? AND grid_id = ? AND position = ?", userID, gridID, pos).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, ErrTileNotStarted
		}
		return false, nil, fmt.Errorf("load tile %d: %w", pos, err)
	}

	return result.RowsAffected == 0, &rec, nil
}

func (s *GormTileStore) Board(ctx context.Context, userID, gridID string) (bingo.Board, error) {
	var rows []struct {
		Position  int
		Completed bool
	}
	err := s.DB.WithContext(ctx).
		Model(&models.TileCompletion{}).
		Select("position", "completed").
		Where("user_id = ? AND grid_id = ?", userID, gridID).
		Scan(&rows).Error
	if err != nil {
		return bingo.Board{}, fmt.Errorf("load board: %w", err)
	}

	var b bingo.Board
	for _, r := range rows {
		if !bingo.ValidPosition(r.Position) {
			continue
		}
		b.Completed[r.Position] = r.Completed
		b.Started++
	}
	return b, nil
}

func (s *GormTileStore) Tiles(ctx context.Context, userID, gridID string) ([]models.TileCompletion, error) {
	var tiles []models.TileCompletion
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND grid_id = ?", userID, gridID).
		Order("position ASC").
		Find(&tiles).Error
	return tiles, err
}
