package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bingo-service/bingo"
	"bingo-service/utils"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL    string
	Port           string
	ServiceToken   string
	AllowedOrigins []string

	LineBonus int
	GridBonus int

	LogLevel  string
	LogPretty bool

	SeedPlaceholderGrid bool
	ActivationInterval  time.Duration

	R2 utils.R2Config
	// Local fallback for evidence images when R2 is not configured; empty disables it
	UploadDir string
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                getEnv("PORT", "5200"),
		ServiceToken:        os.Getenv("BINGO_SERVICE_TOKEN"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getBool("LOG_PRETTY", false),
		SeedPlaceholderGrid: getBool("SEED_PLACEHOLDER_GRID", false),
		R2: utils.R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		UploadDir: os.Getenv("EVIDENCE_UPLOAD_DIR"),
	}

	var errs []error
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable not set"))
	}
	if cfg.ServiceToken == "" {
		errs = append(errs, errors.New("BINGO_SERVICE_TOKEN environment variable not set"))
	}

	var err error
	if cfg.LineBonus, err = getInt("BINGO_LINE_BONUS", bingo.DefaultLineBonus); err != nil {
		errs = append(errs, err)
	}
	if cfg.GridBonus, err = getInt("BINGO_GRID_BONUS", bingo.DefaultGridBonus); err != nil {
		errs = append(errs, err)
	}
	if cfg.ActivationInterval, err = time.ParseDuration(getEnv("GRID_ACTIVATION_INTERVAL", "1m")); err != nil {
		errs = append(errs, fmt.Errorf("GRID_ACTIVATION_INTERVAL: %w", err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Scorer returns the bonus values configured for line and grid completions.
func (c *Config) Scorer() bingo.Scorer {
	return bingo.Scorer{LineBonus: c.LineBonus, GridBonus: c.GridBonus}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
