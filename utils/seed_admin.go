package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// SeedAdminUser creates the admin account when it does not exist yet. An
// existing account with the same email is left untouched.
func SeedAdminUser(ctx context.Context, users repositories.UserRepository, email, password, name string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD env vars")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	created, err := users.EnsureUser(ctx, &models.User{
		ID:           bson.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("seed admin upsert failed: %w", err)
	}

	if created {
		slog.InfoContext(ctx, "admin user seeded", "email", email)
	} else {
		slog.InfoContext(ctx, "admin user already exists", "email", email)
	}
	return nil
}
