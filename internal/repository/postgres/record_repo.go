package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// RecordRepo implements RecordRepository using PostgreSQL with a jsonb fields column.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

const recordCols = `id, collection, owner_id, fields, created_at, updated_at`

// Insert stores a new document.
func (r *RecordRepo) Insert(ctx context.Context, d *model.Document) error {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return fmt.Errorf("record id: %w", errs.ErrValidation)
	}
	owner, err := uuid.FromString(d.OwnerID)
	if err != nil {
		return fmt.Errorf("owner id: %w", errs.ErrValidation)
	}
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO records (id, collection, owner_id, fields, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.Pool.Exec(ctx, q, id, d.Collection, owner, raw, d.CreatedAt)
	return err
}

// ListByOwner returns documents of one owner in a collection, newest first.
func (r *RecordRepo) ListByOwner(ctx context.Context, collection string, ownerID uuid.UUID) ([]model.Document, error) {
	const q = `
SELECT ` + recordCols + `
FROM records
WHERE collection=$1 AND owner_id=$2
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, collection, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Get returns a single document.
func (r *RecordRepo) Get(ctx context.Context, collection string, id uuid.UUID) (*model.Document, error) {
	const q = `
SELECT ` + recordCols + `
FROM records WHERE collection=$1 AND id=$2`
	return scanDocument(r.db.Pool.QueryRow(ctx, q, collection, id))
}

// Update replaces the fields of a document and stamps updated_at.
func (r *RecordRepo) Update(ctx context.Context, collection string, id uuid.UUID, fields model.Fields) (*model.Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE records SET fields=$3, updated_at=now()
WHERE collection=$1 AND id=$2
RETURNING ` + recordCols
	return scanDocument(r.db.Pool.QueryRow(ctx, q, collection, id, raw))
}

// Delete removes a document.
func (r *RecordRepo) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	const q = `DELETE FROM records WHERE collection=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		id, owner uuid.UUID
		raw       []byte
		updated   *time.Time
		d         model.Document
	)
	if err := row.Scan(&id, &d.Collection, &owner, &raw, &d.CreatedAt, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	d.Fields = model.Fields{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
	}
	d.ID = id.String()
	d.OwnerID = owner.String()
	d.UpdatedAt = updated
	return &d, nil
}
