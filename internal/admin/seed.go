// Package admin seeds the default administrator account at startup.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"sarc/internal/database"
	"sarc/internal/models"
)

// Seed describes the account to ensure at startup.
type Seed struct {
	Name     string
	Email    string
	Password string
}

// EnsureDefaultAdmin creates the master account if it does not exist yet.
// Idempotent: an existing account is left untouched, password included.
func EnsureDefaultAdmin(ctx context.Context, db *database.DB, seed Seed, logger *zerolog.Logger) error {
	if seed.Email == "" || seed.Password == "" {
		return errors.New("admin seed needs email and password")
	}

	_, err := db.GetUserByEmail(ctx, seed.Email)
	if err == nil {
		logger.Debug().Str("email", seed.Email).Msg("admin account already present")
		return nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         seed.Name,
		Email:        seed.Email,
		PasswordHash: string(hash),
		Role:         "admin",
	}
	if err := db.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info().Str("email", seed.Email).Msg("seeded default admin account")
	return nil
}
