package repository

import (
	"context"

	"github.com/and161185/studydeck/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RecordRepository stores owner-scoped documents grouped by collection.
// Ownership is checked by the service layer; the repository only reports what exists.
type RecordRepository interface {
	// Insert stores a new document. ID and CreatedAt must be set by the caller.
	Insert(ctx context.Context, d *model.Document) error
	// ListByOwner returns all documents of a collection owned by ownerID, newest first.
	ListByOwner(ctx context.Context, collection string, ownerID uuid.UUID) ([]model.Document, error)
	// Get returns a document by collection and ID or errs.ErrNotFound.
	Get(ctx context.Context, collection string, id uuid.UUID) (*model.Document, error)
	// Update replaces the fields of a document and returns the stored result.
	Update(ctx context.Context, collection string, id uuid.UUID, fields model.Fields) (*model.Document, error)
	// Delete removes a document or returns errs.ErrNotFound.
	Delete(ctx context.Context, collection string, id uuid.UUID) error
}
