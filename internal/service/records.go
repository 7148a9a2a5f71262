package service

import (
	"context"
	"strings"
	"time"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// RecordService defines owner-scoped CRUD over document collections.
type RecordService interface {
	// Create stores fields as a new document owned by owner.
	Create(ctx context.Context, owner uuid.UUID, collection string, fields model.Fields) (*model.Document, error)
	// List returns the owner's documents, newest first.
	List(ctx context.Context, owner uuid.UUID, collection string) ([]model.Document, error)
	// Get returns one document; documents of other owners yield errs.ErrForbidden.
	Get(ctx context.Context, owner uuid.UUID, collection, id string) (*model.Document, error)
	// Update replaces the fields of an owned document.
	Update(ctx context.Context, owner uuid.UUID, collection, id string, fields model.Fields) (*model.Document, error)
	// Delete removes an owned document.
	Delete(ctx context.Context, owner uuid.UUID, collection, id string) error
}

// DefaultRequiredFields lists the fields each collection refuses to store empty.
var DefaultRequiredFields = map[string][]string{
	model.CollectionNotes:      {model.FieldTitle, model.FieldContent},
	model.CollectionFlashcards: {model.FieldQuestion, model.FieldAnswer},
}

type RecordServiceImpl struct {
	repo     repository.RecordRepository
	required map[string][]string
	now      func() time.Time
}

// NewRecordService constructs RecordService. Only collections present in required are accepted;
// a nil map means DefaultRequiredFields.
func NewRecordService(repo repository.RecordRepository, required map[string][]string) *RecordServiceImpl {
	if required == nil {
		required = DefaultRequiredFields
	}
	return &RecordServiceImpl{repo: repo, required: required, now: time.Now}
}

func (s *RecordServiceImpl) checkCollection(collection string) error {
	if _, ok := s.required[collection]; !ok {
		return errs.Validation("Unknown collection " + collection)
	}
	return nil
}

func (s *RecordServiceImpl) checkFields(collection string, fields model.Fields) error {
	if len(fields) == 0 {
		return errs.Validation("All fields are required")
	}
	for _, k := range s.required[collection] {
		if strings.TrimSpace(fields[k]) == "" {
			return errs.Validation("All fields are required")
		}
	}
	return nil
}

// Create assigns a UUIDv4 and the creation timestamp.
func (s *RecordServiceImpl) Create(ctx context.Context, owner uuid.UUID, collection string, fields model.Fields) (*model.Document, error) {
	if owner == uuid.Nil {
		return nil, errs.ErrNotSignedIn
	}
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := s.checkFields(collection, fields); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	d := &model.Document{
		ID:         id.String(),
		Collection: collection,
		OwnerID:    owner.String(),
		Fields:     fields,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns all documents of the owner.
func (s *RecordServiceImpl) List(ctx context.Context, owner uuid.UUID, collection string) ([]model.Document, error) {
	if owner == uuid.Nil {
		return nil, errs.ErrNotSignedIn
	}
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, collection, owner)
}

// Get loads a document and checks ownership.
func (s *RecordServiceImpl) Get(ctx context.Context, owner uuid.UUID, collection, id string) (*model.Document, error) {
	if owner == uuid.Nil {
		return nil, errs.ErrNotSignedIn
	}
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	did, err := uuid.FromString(id)
	if err != nil {
		// malformed IDs cannot exist
		return nil, errs.ErrNotFound
	}
	d, err := s.repo.Get(ctx, collection, did)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != owner.String() {
		return nil, errs.ErrForbidden
	}
	return d, nil
}

// Update checks ownership, then replaces fields.
func (s *RecordServiceImpl) Update(ctx context.Context, owner uuid.UUID, collection, id string, fields model.Fields) (*model.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := s.checkFields(collection, fields); err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, owner, collection, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, collection, uuid.FromStringOrNil(d.ID), fields)
}

// Delete checks ownership, then removes the document.
func (s *RecordServiceImpl) Delete(ctx context.Context, owner uuid.UUID, collection, id string) error {
	d, err := s.Get(ctx, owner, collection, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, collection, uuid.FromStringOrNil(d.ID))
}
