package services

import (
	"context"
	"errors"
	"fmt"

	"bingo-service/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyAwarded means the ledger already holds an award for the tile.
var ErrAlreadyAwarded = errors.New("points already awarded for this tile")

// PointsLedger owns each user's running total. The completion flow only hands it awards.
type PointsLedger interface {
	Award(ctx context.Context, award *models.PointAward) (*models.UserPoints, error)
	Total(ctx context.Context, externalUserID string) (*models.UserPoints, error)
}

type PointsService struct {
	DB *gorm.DB
}

var _ PointsLedger = (*PointsService)(nil)

// NewPointsService binds the ledger to db, which may be a transaction.
func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{DB: db}
}

// EnsureRecord makes sure a UserPoints row exists (idempotent, safe under concurrent first awards)
func (s *PointsService) EnsureRecord(ctx context.Context, externalUserID string) error {
	prog := models.UserPoints{ExternalUserID: externalUserID}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_user_id"}}, DoNothing: true}).
		Create(&prog).Error
}

// Award records the award and adds it to the running total, returning the updated total.
// Callers wanting the award to commit together with other writes pass a transaction to NewPointsService.
func (s *PointsService) Award(ctx context.Context, award *models.PointAward) (*models.UserPoints, error) {
	db := s.DB.WithContext(ctx)

	if err := db.Create(award).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyAwarded
		}
		return nil, fmt.Errorf("record award: %w", err)
	}

	if err := s.EnsureRecord(ctx, award.ExternalUserID); err != nil {
		return nil, fmt.Errorf("ensure points record: %w", err)
	}

	if err := db.Model(&models.UserPoints{}).
		Where("external_user_id = ?", award.ExternalUserID).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", award.Total())).Error; err != nil {
		return nil, fmt.Errorf("add points: %w", err)
	}

	var prog models.UserPoints
	if err := db.Where("external_user_id = ?", award.ExternalUserID).First(&prog).Error; err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", award.ExternalUserID).
		Int64("awarded", award.Total()).
		Int64("total", prog.TotalPoints).
		Str("reason", award.Reason).
		Msg("🎮 Points awarded")

	return &prog, nil
}

// Total returns the running total; users who never scored get a zero row.
func (s *PointsService) Total(ctx context.Context, externalUserID string) (*models.UserPoints, error) {
	var prog models.UserPoints
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserPoints{ExternalUserID: externalUserID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}
