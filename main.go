package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bingo-service/config"
	"bingo-service/handlers"
	"bingo-service/middleware"
	"bingo-service/models"
	"bingo-service/services"
	"bingo-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Image evidence is optional; without R2 credentials completions accept text evidence only
	var (
		evidence services.EvidenceStore
		disk     *utils.DiskStore
	)
	switch {
	case cfg.R2.Enabled():
		r2, err := utils.NewR2Store(ctx, cfg.R2)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize R2 client")
		}
		evidence = r2
	case cfg.UploadDir != "":
		disk, err = utils.NewDiskStore(cfg.UploadDir, utils.UploadRoute)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare upload directory")
		}
		evidence = disk
		log.Warn().Str("dir", cfg.UploadDir).Msg("⚠️  R2 not configured, storing evidence images on disk")
	default:
		log.Warn().Msg("⚠️  R2 not configured, image evidence disabled")
	}

	gridService := services.NewGridService(db)
	pointsService := services.NewPointsService(db)
	bingoService := services.NewBingoService(db, gridService, cfg.Scorer(), evidence)

	if cfg.SeedPlaceholderGrid {
		created, err := gridService.SeedPlaceholderGrid(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed placeholder grid")
		}
		if created {
			log.Info().Msg("✅ Placeholder grid successfully added")
		}
	}

	sched, err := gridService.StartActivationScheduler(ctx, cfg.ActivationInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start grid activation scheduler")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // evidence images
	})
	app.Use(recover.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if disk != nil {
		app.Static(utils.UploadRoute, disk.Dir)
	}

	handlers.SetupBingoRoutes(app, bingoService, gridService)
	handlers.SetupPointsRoutes(app, pointsService)
	handlers.SetupAdminRoutes(app, gridService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Int("line_bonus", cfg.LineBonus).
		Int("grid_bonus", cfg.GridBonus).
		Strs("origins", cfg.AllowedOrigins).
		Msg("✅ Bingo service running")

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
