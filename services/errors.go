package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Completion errors, grouped by how the HTTP layer surfaces them.
var (
	// Validation
	ErrInvalidPosition = errors.New("position must be between 0 and 15")
	ErrInvalidGrid     = errors.New("a grid needs exactly 16 challenges")

	// Conflict
	ErrAlreadyCompleted   = errors.New("challenge has already been completed for this user")
	ErrTileAlreadyStarted = errors.New("challenge has already been started for this user")
	ErrActivationConflict = errors.New("another grid was activated concurrently")
	ErrGridSuperseded     = errors.New("grid is no longer active")

	// Unavailable
	ErrNoActiveGrid = errors.New("no bingo grid found")

	// NotFound
	ErrTileNotStarted    = errors.New("challenge has not been started")
	ErrGridNotFound      = errors.New("grid not found")
	ErrChallengeNotFound = errors.New("challenge not found")
)

const pgUniqueViolation = "23505"

// isUniqueViolation covers both the translated GORM error and a raw
// Postgres error that reached us without translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
