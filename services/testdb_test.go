package services

import (
	"context"
	"fmt"
	"testing"

	"bingo-service/bingo"
	"bingo-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. A single connection keeps the
// data alive and serializes transactions the way row locks would on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedChallenges creates 16 challenges; challenge i is worth 10*(i+1) points.
func seedChallenges(t *testing.T, db *gorm.DB, prefix string) []models.Challenge {
	t.Helper()
	chs := make([]models.Challenge, bingo.Size)
	for i := range chs {
		name := fmt.Sprintf("%s %d", prefix, i)
		chs[i] = models.Challenge{
			Name:          name,
			Slug:          slug.Make(name),
			ChallengeType: models.ChallengeTypeAct,
			Points:        int64(10 * (i + 1)),
		}
	}
	if err := db.Create(&chs).Error; err != nil {
		t.Fatalf("seed challenges: %v", err)
	}
	return chs
}

func challengeIDs(chs []models.Challenge) []string {
	ids := make([]string, len(chs))
	for i, ch := range chs {
		ids[i] = ch.ID
	}
	return ids
}

type fixture struct {
	db         *gorm.DB
	grids      *GridService
	points     *PointsService
	bingo      *BingoService
	challenges []models.Challenge
	grid       *models.Grid
}

// newFixture wires the services over a fresh database with one active grid.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:     db,
		grids:  NewGridService(db),
		points: NewPointsService(db),
	}
	f.bingo = NewBingoService(db, f.grids, bingo.DefaultScorer, nil)
	f.challenges = seedChallenges(t, db, "Challenge")

	grid, err := f.grids.CreateGrid(context.Background(), CreateGridInput{
		Name:         "Test Grid",
		ChallengeIDs: challengeIDs(f.challenges),
	})
	if err != nil {
		t.Fatalf("create grid: %v", err)
	}
	f.grid = grid
	return f
}

func (f *fixture) start(t *testing.T, userID string, positions ...int) {
	t.Helper()
	for _, pos := range positions {
		if _, err := f.bingo.StartTile(context.Background(), userID, pos); err != nil {
			t.Fatalf("start %d: %v", pos, err)
		}
	}
}

func (f *fixture) complete(t *testing.T, userID string, pos int) *CompletionResult {
	t.Helper()
	res, err := f.bingo.CompleteTile(context.Background(), userID, CompleteInput{Position: pos})
	if err != nil {
		t.Fatalf("complete %d: %v", pos, err)
	}
	return res
}
