// services/grid_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bingo-service/bingo"
	"bingo-service/models"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GridService struct {
	DB *gorm.DB
}

func NewGridService(db *gorm.DB) *GridService {
	return &GridService{DB: db}
}

// ActiveGrid loads the active grid with its tiles and challenges.
func (s *GridService) ActiveGrid(ctx context.Context) (*models.Grid, error) {
	return activeGrid(s.DB.WithContext(ctx))
}

func activeGrid(db *gorm.DB) (*models.Grid, error) {
	var grid models.Grid
	err := db.Where("is_active = ?", true).
		Preload("Tiles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tiles.Challenge").
		First(&grid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveGrid
	}
	if err != nil {
		return nil, fmt.Errorf("load active grid: %w", err)
	}
	return &grid, nil
}

type CreateGridInput struct {
	Name         string
	ChallengeIDs []string   // row-major, exactly 16; repeats allowed
	ActivateAt   *time.Time // nil or past = activate now
}

// CreateGrid stores a new grid. It goes live immediately, superseding the
// current grid, unless ActivateAt lies in the future.
func (s *GridService) CreateGrid(ctx context.Context, in CreateGridInput) (*models.Grid, error) {
	if len(in.ChallengeIDs) != bingo.Size {
		return nil, ErrInvalidGrid
	}

	distinct := make(map[string]struct{}, bingo.Size)
	ids := make([]string, 0, bingo.Size)
	for _, id := range in.ChallengeIDs {
		if _, seen := distinct[id]; !seen {
			distinct[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	now := time.Now()
	grid := models.Grid{
		Name: in.Name,
		Slug: slug.Make(in.Name),
	}
	scheduled := in.ActivateAt != nil && in.ActivateAt.After(now)
	if scheduled {
		grid.ActivateAt = in.ActivateAt
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&models.Challenge{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if found != int64(len(ids)) {
			return ErrChallengeNotFound
		}

		if err := tx.Create(&grid).Error; err != nil {
			return err
		}
		tiles := make([]models.GridTile, bingo.Size)
		for pos, id := range in.ChallengeIDs {
			tiles[pos] = models.GridTile{GridID: grid.ID, Position: pos, ChallengeID: id}
		}
		if err := tx.Omit("Challenge").Create(&tiles).Error; err != nil {
			return err
		}

		if scheduled {
			return nil
		}
		return activate(tx, grid.ID, now)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("grid_id", grid.ID).Str("name", grid.Name).Bool("scheduled", scheduled).Msg("✅ Grid created")
	return s.GetGrid(ctx, grid.ID)
}

func (s *GridService) GetGrid(ctx context.Context, id string) (*models.Grid, error) {
	var grid models.Grid
	err := s.DB.WithContext(ctx).
		Preload("Tiles", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Tiles.Challenge").
		First(&grid, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGridNotFound
	}
	if err != nil {
		return nil, err
	}
	return &grid, nil
}

// ActivateGrid makes the grid the active one and retires the previous one.
// Progress on the old grid stays but can no longer be extended.
func (s *GridService) ActivateGrid(ctx context.Context, id string) (*models.Grid, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return activate(tx, id, time.Now())
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("grid_id", id).Msg("✅ Grid activated")
	return s.GetGrid(ctx, id)
}

func activate(tx *gorm.DB, gridID string, now time.Time) error {
	var grid models.Grid
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&grid, "id = ?", gridID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGridNotFound
		}
		return err
	}
	if grid.IsActive {
		return nil
	}

	// Retire first: the partial unique index allows one active row at a time
	if err := tx.Model(&models.Grid{}).
		Where("is_active = ? AND id <> ?", true, gridID).
		Updates(map[string]interface{}{"is_active": false, "deactivated_at": now}).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Grid{}).
		Where("id = ?", gridID).
		Updates(map[string]interface{}{
			"is_active":      true,
			"activated_at":   now,
			"activate_at":    nil,
			"deactivated_at": nil,
		}).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrActivationConflict
		}
		return err
	}
	return nil
}

// ActivateDueGrids promotes the most recently due scheduled grid. Older due
// grids are skipped: only one grid can be live, so they lose their slot.
func (s *GridService) ActivateDueGrids(ctx context.Context, now time.Time) (*models.Grid, error) {
	var due []models.Grid
	if err := s.DB.WithContext(ctx).
		Where("is_active = ? AND activate_at IS NOT NULL AND activate_at <= ?", false, now).
		Order("activate_at DESC").
		Find(&due).Error; err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}

	latest := due[0]
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := activate(tx, latest.ID, now); err != nil {
			return err
		}
		for _, g := range due[1:] {
			if err := tx.Model(&models.Grid{}).Where("id = ?", g.ID).
				Update("activate_at", nil).Error; err != nil {
				return err
			}
			log.Warn().Str("grid_id", g.ID).Msg("⏭️ Scheduled grid skipped, a later one is due")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("grid_id", latest.ID).Str("name", latest.Name).Msg("✅ Scheduled grid activated")
	return s.GetGrid(ctx, latest.ID)
}

// TileView is one challenge on the board. Status is only set for signed-in users.
type TileView struct {
	Position      int                  `json:"position"`
	ChallengeID   string               `json:"challenge_id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	ChallengeType models.ChallengeType `json:"challenge_type"`
	Points        int64                `json:"points"`
	Status        models.TileStatus    `json:"status,omitempty"`
}

type BoardView struct {
	GridID     string       `json:"grid_id"`
	Name       string       `json:"name"`
	Challenges []TileView   `json:"challenges"`
	Lines      []bingo.Line `json:"completed_lines,omitempty"`
}

// BoardView renders the active grid, with the user's progress when userID is set.
func (s *GridService) BoardView(ctx context.Context, userID string) (*BoardView, error) {
	grid, err := s.ActiveGrid(ctx)
	if err != nil {
		return nil, err
	}

	view := &BoardView{
		GridID:     grid.ID,
		Name:       grid.Name,
		Challenges: make([]TileView, 0, len(grid.Tiles)),
	}
	for _, t := range grid.Tiles {
		view.Challenges = append(view.Challenges, TileView{
			Position:      t.Position,
			ChallengeID:   t.ChallengeID,
			Name:          t.Challenge.Name,
			Description:   t.Challenge.Description,
			ChallengeType: t.Challenge.ChallengeType,
			Points:        t.Challenge.Points,
		})
	}
	if userID == "" {
		return view, nil
	}

	for i := range view.Challenges {
		view.Challenges[i].Status = models.TileNotStarted
	}
	store := NewTileStore(s.DB)
	records, err := store.Tiles(ctx, userID, grid.ID)
	if err != nil {
		return nil, err
	}
	var board bingo.Board
	for _, rec := range records {
		if rec.Position < len(view.Challenges) {
			view.Challenges[rec.Position].Status = rec.Status()
		}
		if bingo.ValidPosition(rec.Position) {
			board.Completed[rec.Position] = rec.Completed
			board.Started++
		}
	}
	view.Lines = bingo.CompletedLines(board)
	return view, nil
}

const placeholderDescription = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor " +
	"incididunt ut labore et dolore magna aliqua."

var placeholderTypes = []models.ChallengeType{
	models.ChallengeTypeConnect,
	models.ChallengeTypeUnderstand,
	models.ChallengeTypeAct,
}

// SeedPlaceholderGrid creates and activates a placeholder grid, but only when
// no grid is active. Reports whether a grid was created.
func (s *GridService) SeedPlaceholderGrid(ctx context.Context) (bool, error) {
	if _, err := s.ActiveGrid(ctx); err == nil {
		log.Warn().Msg("⚠️  Active grid found, placeholder grid not created")
		return false, nil
	} else if !errors.Is(err, ErrNoActiveGrid) {
		return false, err
	}

	ids := make([]string, bingo.Size)
	for i := range bingo.Size {
		name := fmt.Sprintf("Placeholder Challenge #%d", i)
		ch := models.Challenge{
			Name:          name,
			Slug:          slug.Make(name),
			Description:   placeholderDescription,
			ChallengeType: placeholderTypes[i%len(placeholderTypes)],
			Points:        int64(i * 20),
		}
		if err := s.DB.WithContext(ctx).Where("slug = ?", ch.Slug).FirstOrCreate(&ch).Error; err != nil {
			return false, err
		}
		ids[i] = ch.ID
	}

	if _, err := s.CreateGrid(ctx, CreateGridInput{Name: "Placeholder Grid", ChallengeIDs: ids}); err != nil {
		return false, err
	}
	return true, nil
}
