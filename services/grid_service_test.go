package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bingo-service/bingo"
	"bingo-service/models"

	"github.com/google/uuid"
)

func TestCreateGridValidation(t *testing.T) {
	db := newTestDB(t)
	grids := NewGridService(db)
	ids := challengeIDs(seedChallenges(t, db, "Challenge"))
	ctx := context.Background()

	if _, err := grids.CreateGrid(ctx, CreateGridInput{Name: "Short", ChallengeIDs: ids[:15]}); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("15 tiles: expected ErrInvalidGrid, got %v", err)
	}

	unknown := append([]string{}, ids...)
	unknown[7] = uuid.NewString()
	if _, err := grids.CreateGrid(ctx, CreateGridInput{Name: "Unknown", ChallengeIDs: unknown}); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("unknown challenge: expected ErrChallengeNotFound, got %v", err)
	}

	var count int64
	db.Model(&models.Grid{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected grids were stored: %d", count)
	}
}

func TestCreateGridRepeatsChallenge(t *testing.T) {
	db := newTestDB(t)
	grids := NewGridService(db)
	chs := seedChallenges(t, db, "Challenge")

	ids := make([]string, bingo.Size)
	for i := range ids {
		ids[i] = chs[i%2].ID
	}
	grid, err := grids.CreateGrid(context.Background(), CreateGridInput{Name: "Two Tone", ChallengeIDs: ids})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !grid.IsActive || len(grid.Tiles) != bingo.Size {
		t.Fatalf("unexpected grid: active=%v tiles=%d", grid.IsActive, len(grid.Tiles))
	}
	if grid.Slug != "two-tone" {
		t.Fatalf("slug = %q", grid.Slug)
	}
	for _, tile := range grid.Tiles {
		if tile.ChallengeID != chs[tile.Position%2].ID || tile.Challenge.ID != tile.ChallengeID {
			t.Fatalf("tile %d bound to %s", tile.Position, tile.ChallengeID)
		}
	}
}

func TestActivateGridSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	later := time.Now().Add(time.Hour)
	next, err := f.grids.CreateGrid(ctx, CreateGridInput{
		Name:         "Next",
		ChallengeIDs: challengeIDs(f.challenges),
		ActivateAt:   &later,
	})
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}
	if next.IsActive || next.ActivateAt == nil {
		t.Fatalf("scheduled grid went live: %+v", next)
	}
	if active, _ := f.grids.ActiveGrid(ctx); active.ID != f.grid.ID {
		t.Fatalf("active grid changed to %s", active.ID)
	}

	if _, err := f.grids.ActivateGrid(ctx, next.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	active, err := f.grids.ActiveGrid(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.ID != next.ID || active.ActivatedAt == nil || active.ActivateAt != nil {
		t.Fatalf("unexpected active grid: %+v", active)
	}

	old, err := f.grids.GetGrid(ctx, f.grid.ID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if old.IsActive || old.DeactivatedAt == nil {
		t.Fatalf("old grid still live: %+v", old)
	}

	var live int64
	f.db.Model(&models.Grid{}).Where("is_active = ?", true).Count(&live)
	if live != 1 {
		t.Fatalf("%d active grids", live)
	}

	// Activating the live grid again is a no-op
	if _, err := f.grids.ActivateGrid(ctx, next.ID); err != nil {
		t.Fatalf("re-activate: %v", err)
	}
	if _, err := f.grids.ActivateGrid(ctx, uuid.NewString()); !errors.Is(err, ErrGridNotFound) {
		t.Fatalf("expected ErrGridNotFound, got %v", err)
	}
}

func TestSingleActiveGridIndex(t *testing.T) {
	f := newFixture(t)
	later := time.Now().Add(time.Hour)
	next, err := f.grids.CreateGrid(context.Background(), CreateGridInput{
		Name:         "Next",
		ChallengeIDs: challengeIDs(f.challenges),
		ActivateAt:   &later,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Bypassing the service must still not yield two live grids
	err = f.db.Model(&models.Grid{}).Where("id = ?", next.ID).Update("is_active", true).Error
	if err == nil || !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestActivateDueGrids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	schedule := func(name string, at time.Time) *models.Grid {
		g, err := f.grids.CreateGrid(ctx, CreateGridInput{Name: name, ChallengeIDs: challengeIDs(f.challenges), ActivateAt: &at})
		if err != nil {
			t.Fatalf("schedule %s: %v", name, err)
		}
		return g
	}
	early := schedule("Early", now.Add(time.Hour))
	late := schedule("Late", now.Add(2*time.Hour))
	future := schedule("Future", now.Add(48*time.Hour))

	got, err := f.grids.ActivateDueGrids(ctx, now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("activate due: %v", err)
	}
	if got == nil || got.ID != late.ID || !got.IsActive {
		t.Fatalf("expected %s active, got %+v", late.ID, got)
	}

	skipped, _ := f.grids.GetGrid(ctx, early.ID)
	if skipped.IsActive || skipped.ActivateAt != nil {
		t.Fatalf("early grid not skipped: %+v", skipped)
	}
	pending, _ := f.grids.GetGrid(ctx, future.ID)
	if pending.IsActive || pending.ActivateAt == nil {
		t.Fatalf("future grid touched: %+v", pending)
	}

	// Nothing else is due
	again, err := f.grids.ActivateDueGrids(ctx, now.Add(3*time.Hour))
	if err != nil || again != nil {
		t.Fatalf("second run: %v %v", again, err)
	}
}

func TestActivationScheduler(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	at := time.Now().Add(200 * time.Millisecond)
	next, err := f.grids.CreateGrid(ctx, CreateGridInput{Name: "Soon", ChallengeIDs: challengeIDs(f.challenges), ActivateAt: &at})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sched, err := f.grids.StartActivationScheduler(ctx, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	defer func() { _ = sched.Shutdown() }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if active, err := f.grids.ActiveGrid(ctx); err == nil && active.ID == next.ID {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("scheduled grid never went live")
}

func TestBoardView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	anon, err := f.grids.BoardView(ctx, "")
	if err != nil {
		t.Fatalf("anonymous view: %v", err)
	}
	if anon.GridID != f.grid.ID || len(anon.Challenges) != bingo.Size {
		t.Fatalf("unexpected view: %+v", anon)
	}
	if anon.Challenges[4].Status != "" || anon.Challenges[4].Points != 50 {
		t.Fatalf("unexpected anonymous tile: %+v", anon.Challenges[4])
	}

	f.start(t, "u1", 0, 1, 2, 3, 8)
	for _, pos := range []int{0, 1, 2, 3} {
		f.complete(t, "u1", pos)
	}

	view, err := f.grids.BoardView(ctx, "u1")
	if err != nil {
		t.Fatalf("user view: %v", err)
	}
	if view.Challenges[0].Status != models.TileCompleted ||
		view.Challenges[8].Status != models.TileStarted ||
		view.Challenges[15].Status != models.TileNotStarted {
		t.Fatalf("unexpected statuses: %v %v %v",
			view.Challenges[0].Status, view.Challenges[8].Status, view.Challenges[15].Status)
	}
	if len(view.Lines) != 1 || view.Lines[0].Kind != bingo.LineRow || view.Lines[0].Index != 0 {
		t.Fatalf("unexpected lines: %+v", view.Lines)
	}
}

func TestBoardViewNoActiveGrid(t *testing.T) {
	grids := NewGridService(newTestDB(t))
	if _, err := grids.BoardView(context.Background(), "u1"); !errors.Is(err, ErrNoActiveGrid) {
		t.Fatalf("expected ErrNoActiveGrid, got %v", err)
	}
}

func TestSeedPlaceholderGrid(t *testing.T) {
	db := newTestDB(t)
	grids := NewGridService(db)
	ctx := context.Background()

	created, err := grids.SeedPlaceholderGrid(ctx)
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}
	grid, err := grids.ActiveGrid(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if grid.Name != "Placeholder Grid" || len(grid.Tiles) != bingo.Size {
		t.Fatalf("unexpected placeholder grid: %+v", grid)
	}
	if tile := grid.TileAt(3); tile.Challenge.Points != 60 || tile.Challenge.ChallengeType != models.ChallengeTypeConnect {
		t.Fatalf("unexpected tile 3: %+v", tile.Challenge)
	}

	created, err = grids.SeedPlaceholderGrid(ctx)
	if err != nil || created {
		t.Fatalf("second seed: created=%v err=%v", created, err)
	}
	var count int64
	db.Model(&models.Challenge{}).Count(&count)
	if count != bingo.Size {
		t.Fatalf("challenges = %d, want %d", count, bingo.Size)
	}
}
