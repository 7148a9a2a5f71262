// Package memory contains in-process implementations of repository interfaces.
// They back the embedded gateway and tests; nothing is persisted.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/repository"
	"github.com/gofrs/uuid/v5"
)

var (
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.ProfileRepository = (*ProfileRepo)(nil)
	_ repository.RecordRepository  = (*RecordRepo)(nil)
)

// UserRepo keeps accounts in maps keyed by ID and email.
type UserRepo struct {
	lock    sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
}

// NewUserRepo returns an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create inserts a new user.
func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return errs.ErrEmailInUse
	}
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.users[cp.ID] = cp
	r.byEmail[cp.Email] = cp.ID
	return nil
}

// GetByID loads a user by ID.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// GetByEmail loads a user by email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

// SetPassword replaces hash and salt of a user.
func (r *UserRepo) SetPassword(_ context.Context, id uuid.UUID, hash, salt []byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	u, ok := r.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PwdHash = append([]byte(nil), hash...)
	u.PwdSalt = append([]byte(nil), salt...)
	r.users[id] = u
	return nil
}

// ProfileRepo keeps profiles keyed by user ID.
type ProfileRepo struct {
	lock     sync.RWMutex
	profiles map[string]model.Profile
}

// NewProfileRepo returns an empty profile repository.
func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: make(map[string]model.Profile)}
}

// Upsert creates the profile or refreshes name and email.
func (r *ProfileRepo) Upsert(_ context.Context, p *model.Profile) error {
	if _, err := uuid.FromString(p.UserID); err != nil {
		return errs.ErrNotFound
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	now := time.Now().UTC()
	if cur, ok := r.profiles[p.UserID]; ok {
		cur.Name, cur.Email = p.Name, p.Email
		cur.UpdatedAt = &now
		r.profiles[p.UserID] = cur
		return nil
	}
	cp := *p
	cp.CreatedAt = now
	cp.UpdatedAt = nil
	r.profiles[p.UserID] = cp
	return nil
}

// Get loads the profile of a user.
func (r *ProfileRepo) Get(_ context.Context, userID uuid.UUID) (*model.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok := r.profiles[userID.String()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

// SetName updates the display name.
func (r *ProfileRepo) SetName(_ context.Context, userID uuid.UUID, name string) (*model.Profile, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	p, ok := r.profiles[userID.String()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	now := time.Now().UTC()
	p.Name = name
	p.UpdatedAt = &now
	r.profiles[userID.String()] = p
	return &p, nil
}

// RecordRepo keeps documents per collection, remembering insertion order.
type RecordRepo struct {
	lock  sync.RWMutex
	docs  map[string]map[string]model.Document
	order map[string][]string
}

// NewRecordRepo returns an empty record repository.
func NewRecordRepo() *RecordRepo {
	return &RecordRepo{
		docs:  make(map[string]map[string]model.Document),
		order: make(map[string][]string),
	}
}

// Insert stores a new document.
func (r *RecordRepo) Insert(_ context.Context, d *model.Document) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	col, ok := r.docs[d.Collection]
	if !ok {
		col = make(map[string]model.Document)
		r.docs[d.Collection] = col
	}
	if _, dup := col[d.ID]; dup {
		return errs.ErrValidation
	}
	col[d.ID] = cloneDoc(*d)
	r.order[d.Collection] = append(r.order[d.Collection], d.ID)
	return nil
}

// ListByOwner returns owned documents newest first. Equal timestamps keep
// the most recently inserted document first.
func (r *RecordRepo) ListByOwner(_ context.Context, collection string, ownerID uuid.UUID) ([]model.Document, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	owner := ownerID.String()
	ids := r.order[collection]
	out := make([]model.Document, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		d, ok := r.docs[collection][ids[i]]
		if !ok || d.OwnerID != owner {
			continue
		}
		out = append(out, cloneDoc(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Get returns a document by ID.
func (r *RecordRepo) Get(_ context.Context, collection string, id uuid.UUID) (*model.Document, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	d, ok := r.docs[collection][id.String()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := cloneDoc(d)
	return &cp, nil
}

// Update replaces document fields.
func (r *RecordRepo) Update(_ context.Context, collection string, id uuid.UUID, fields model.Fields) (*model.Document, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	d, ok := r.docs[collection][id.String()]
	if !ok {
		return nil, errs.ErrNotFound
	}
	now := time.Now().UTC()
	d.Fields = cloneFields(fields)
	d.UpdatedAt = &now
	r.docs[collection][d.ID] = d
	cp := cloneDoc(d)
	return &cp, nil
}

// Delete removes a document.
func (r *RecordRepo) Delete(_ context.Context, collection string, id uuid.UUID) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := id.String()
	if _, ok := r.docs[collection][key]; !ok {
		return errs.ErrNotFound
	}
	delete(r.docs[collection], key)
	ids := r.order[collection]
	for i, v := range ids {
		if v == key {
			r.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func cloneDoc(d model.Document) model.Document {
	d.Fields = cloneFields(d.Fields)
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		d.UpdatedAt = &t
	}
	return d
}

func cloneFields(f model.Fields) model.Fields {
	out := make(model.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
