// services/bingo_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"bingo-service/bingo"
	"bingo-service/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BingoService runs the start and completion flows for tiles of the active grid.
type BingoService struct {
	DB       *gorm.DB
	Grids    *GridService
	Scorer   bingo.Scorer
	Evidence EvidenceStore // nil disables image evidence

	// Bound per transaction so the completion and the award commit together
	tiles  func(db *gorm.DB) TileStore
	ledger func(db *gorm.DB) PointsLedger
}

func NewBingoService(db *gorm.DB, grids *GridService, scorer bingo.Scorer, evidence EvidenceStore) *BingoService {
	return &BingoService{
		DB:       db,
		Grids:    grids,
		Scorer:   scorer,
		Evidence: evidence,
		tiles:    func(db *gorm.DB) TileStore { return NewTileStore(db) },
		ledger:   func(db *gorm.DB) PointsLedger { return NewPointsService(db) },
	}
}

// ErrEvidenceUnsupported is returned when an image arrives but no evidence store is configured.
var ErrEvidenceUnsupported = errors.New("image evidence is not enabled")

// StartTile opens the tile at pos of the active grid for the user.
func (s *BingoService) StartTile(ctx context.Context, userID string, pos int) (*models.TileCompletion, error) {
	if !bingo.ValidPosition(pos) {
		return nil, ErrInvalidPosition
	}
	grid, err := s.Grids.ActiveGrid(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveGrid) {
			log.Error().Str("user_id", userID).Msg("❌ Tile start with no active grid")
		}
		return nil, err
	}

	rec, err := s.tiles(s.DB).StartTile(ctx, userID, grid.ID, pos)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("grid_id", grid.ID).Int("position", pos).Msg("▶️ Tile started")
	return rec, nil
}

type CompleteInput struct {
	Position    int
	Description string
	Consent     bool
	Image       *EvidenceUpload
}

// CompletionResult is the payload returned for a successful completion.
type CompletionResult struct {
	ChallengePoints int64 `json:"challenge_points"`
	bingo.Result
	TotalPoints int64 `json:"total_points"`
}

// CompleteTile marks the tile completed, scores the lines it finished and
// awards the points, all in one transaction. A repeated completion returns
// ErrAlreadyCompleted and never reaches the scorer. A completion racing a grid
// activation returns ErrGridSuperseded.
func (s *BingoService) CompleteTile(ctx context.Context, userID string, in CompleteInput) (*CompletionResult, error) {
	if !bingo.ValidPosition(in.Position) {
		return nil, ErrInvalidPosition
	}
	grid, err := s.Grids.ActiveGrid(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveGrid) {
			log.Error().Str("user_id", userID).Msg("❌ Tile completion with no active grid")
		}
		return nil, err
	}
	if grid.TileAt(in.Position) == nil {
		return nil, fmt.Errorf("grid %s has no tile at %d: %w", grid.ID, in.Position, ErrInvalidGrid)
	}

	ev := Evidence{Description: cleanText(in.Description), Consent: in.Consent}
	if in.Image != nil {
		url, err := s.uploadEvidence(ctx, userID, grid.ID, in)
		if err != nil {
			return nil, err
		}
		ev.ImageURL = url
	}

	result, err := s.commitCompletion(ctx, userID, grid, in.Position, ev)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyCompleted):
			log.Warn().Str("user_id", userID).Str("grid_id", grid.ID).Int("position", in.Position).
				Msg("🔁 Duplicate completion ignored")
		case errors.Is(err, ErrGridSuperseded):
			log.Warn().Str("user_id", userID).Str("grid_id", grid.ID).Int("position", in.Position).
				Msg("⏭️ Completion for a grid that was just superseded")
		}
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("grid_id", grid.ID).
		Int("position", in.Position).
		Int("bingo_row", result.RowIndex).
		Int("bingo_col", result.ColIndex).
		Int("bingo_diag", result.DiagIndex).
		Bool("full_bingo", result.FullGrid).
		Int("bingo_points", result.BonusPoints).
		Msg("🎯 Tile completed")
	return result, nil
}

// commitCompletion runs the completion against grid in one transaction. The
// user's points row is locked first, so completions by the same user score
// one after another and each sees the tiles the previous one completed.
func (s *BingoService) commitCompletion(ctx context.Context, userID string, grid *models.Grid, pos int, ev Evidence) (*CompletionResult, error) {
	tile := grid.TileAt(pos)
	if tile == nil {
		return nil, fmt.Errorf("grid %s has no tile at %d: %w", grid.ID, pos, ErrInvalidGrid)
	}

	var result *CompletionResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		// 🔒 An activation may have landed since the grid was loaded
		var live int64
		if err := tx.Model(&models.Grid{}).
			Where("id = ? AND is_active = ?", grid.ID, true).
			Count(&live).Error; err != nil {
			return err
		}
		if live == 0 {
			return ErrGridSuperseded
		}

		tiles := s.tiles(tx)
		already, _, err := tiles.TryComplete(ctx, userID, grid.ID, pos, ev)
		if err != nil {
			return err
		}
		if already {
			return ErrAlreadyCompleted
		}

		board, err := tiles.Board(ctx, userID, grid.ID)
		if err != nil {
			return err
		}
		score, err := s.Scorer.Score(board, pos)
		if err != nil {
			// The row was just marked completed in this transaction
			return fmt.Errorf("score tile %d: %w", pos, err)
		}

		if err := tx.Model(&models.Challenge{}).
			Where("id = ?", tile.ChallengeID).
			UpdateColumn("total_completions", gorm.Expr("total_completions + ?", 1)).Error; err != nil {
			return err
		}

		award := &models.PointAward{
			ExternalUserID:  userID,
			GridID:          grid.ID,
			Position:        pos,
			ChallengePoints: tile.Challenge.Points,
			BonusPoints:     int64(score.BonusPoints),
			Reason:          awardReason(pos, score),
		}
		totals, err := s.ledger(tx).Award(ctx, award)
		if err != nil {
			if errors.Is(err, ErrAlreadyAwarded) {
				return ErrAlreadyCompleted
			}
			return err
		}

		result = &CompletionResult{
			ChallengePoints: tile.Challenge.Points,
			Result:          score,
			TotalPoints:     totals.TotalPoints,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockUser takes a row lock on the user's points record, creating it if needed.
func lockUser(ctx context.Context, tx *gorm.DB, userID string) error {
	if err := NewPointsService(tx).EnsureRecord(ctx, userID); err != nil {
		return fmt.Errorf("ensure points record: %w", err)
	}
	var prog models.UserPoints
	if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&prog, "external_user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("lock points record: %w", err)
	}
	return nil
}

func (s *BingoService) uploadEvidence(ctx context.Context, userID, gridID string, in CompleteInput) (string, error) {
	if s.Evidence == nil {
		return "", ErrEvidenceUnsupported
	}
	ext := filepath.Ext(in.Image.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("challenge_images/%s/%s/%d-%s%s", gridID, userID, in.Position, uuid.NewString(), ext)
	url, err := s.Evidence.Put(ctx, key, in.Image.ContentType, in.Image.Body)
	if err != nil {
		return "", fmt.Errorf("upload evidence: %w", err)
	}
	return url, nil
}

// cleanText trims and NFC-normalizes free text from the client.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func awardReason(pos int, r bingo.Result) string {
	reason := fmt.Sprintf("tile_%d", pos)
	if r.RowIndex != bingo.NoLine {
		reason += fmt.Sprintf("_row_%d", r.RowIndex)
	}
	if r.ColIndex != bingo.NoLine {
		reason += fmt.Sprintf("_col_%d", r.ColIndex)
	}
	if r.DiagIndex != bingo.NoLine {
		reason += fmt.Sprintf("_diag_%d", r.DiagIndex)
	}
	if r.FullGrid {
		reason += "_full"
	}
	return reason
}
