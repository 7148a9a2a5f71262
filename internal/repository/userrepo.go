// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/studydeck/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user; a taken email yields errs.ErrEmailInUse.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetPassword replaces the stored password hash and salt.
	SetPassword(ctx context.Context, id uuid.UUID, hash, salt []byte) error
}

// ProfileRepository provides access to per-user profile documents.
type ProfileRepository interface {
	// Upsert creates the profile or overwrites name/email of an existing one.
	Upsert(ctx context.Context, p *model.Profile) error
	// Get loads the profile of a user.
	Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	// SetName updates the display name and returns the updated profile.
	SetName(ctx context.Context, userID uuid.UUID, name string) (*model.Profile, error)
}
