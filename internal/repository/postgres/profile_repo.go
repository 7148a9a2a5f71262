package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Upsert inserts a profile or refreshes name/email of an existing one.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	id, err := uuid.FromString(p.UserID)
	if err != nil {
		return errs.ErrNotFound
	}
	const q = `
INSERT INTO profiles (user_id, name, email, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id)
DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, updated_at=now()`
	_, err = r.db.Pool.Exec(ctx, q, id, p.Name, p.Email, p.Role)
	return err
}

// Get selects the profile of a user.
func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	const q = `
SELECT user_id, name, email, role, created_at, updated_at
FROM profiles WHERE user_id=$1`
	return scanProfile(r.db.Pool.QueryRow(ctx, q, userID))
}

// SetName updates the display name and returns the stored profile.
func (r *ProfileRepo) SetName(ctx context.Context, userID uuid.UUID, name string) (*model.Profile, error) {
	const q = `
UPDATE profiles SET name=$2, updated_at=now()
WHERE user_id=$1
RETURNING user_id, name, email, role, created_at, updated_at`
	return scanProfile(r.db.Pool.QueryRow(ctx, q, userID, name))
}

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		id      uuid.UUID
		p       model.Profile
		updated *time.Time
	)
	if err := row.Scan(&id, &p.Name, &p.Email, &p.Role, &p.CreatedAt, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.UserID = id.String()
	p.UpdatedAt = updated
	return &p, nil
}
