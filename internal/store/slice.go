package store

import (
	"context"
	"sync"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"
)

// msgRequired is shown when a required field is left empty.
const msgRequired = "All fields are required"

var validate = newValidator()

// newValidator also treats whitespace-only strings as empty when tagged notblank.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// checkFields runs the struct tags of f.
func checkFields(f any) error {
	if err := validate.Struct(f); err != nil {
		return errs.Validation(msgRequired)
	}
	return nil
}

// op names the operation that produced a slice or profile error.
type op int

const (
	opNone op = iota
	opList
	opFetch
	opCreate
	opUpdate
	opDelete
	opPassword
)

// Kind describes how a record type is stored in a gateway collection.
// F is the writable part and must be a struct carrying validate tags.
type Kind[T, F any] struct {
	Collection string
	Encode     func(F) model.Fields
	Decode     func(model.Document) T
	IDOf       func(T) string
}

// SliceState is a snapshot of a record slice. Items are newest first.
type SliceState[T any] struct {
	Items   []T
	Loading bool
	Err     string
}

// Slice mirrors one gateway collection of the signed-in user. Local state
// changes only after the gateway confirms an operation.
type Slice[T, F any] struct {
	kind    Kind[T, F]
	gw      gateway.Gateway
	session func() *model.Session
	log     *zap.Logger
	notify  func()

	mu       sync.Mutex
	items    []T
	inflight int
	err      string
	errOp    op
	// epoch changes on ClearAll; replies started before it are dropped.
	epoch uint64
}

// NewSlice builds a slice for kind. session reports the signed-in user.
func NewSlice[T, F any](kind Kind[T, F], gw gateway.Gateway, session func() *model.Session, log *zap.Logger) *Slice[T, F] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Slice[T, F]{
		kind:    kind,
		gw:      gw,
		session: session,
		log:     log.With(zap.String("collection", kind.Collection)),
		notify:  func() {},
	}
}

// NotesKind stores model.Note in the notes collection.
var NotesKind = Kind[model.Note, model.NoteFields]{
	Collection: model.CollectionNotes,
	Encode:     model.NoteFields.Fields,
	Decode:     model.NoteFromDocument,
	IDOf:       func(n model.Note) string { return n.ID },
}

// FlashcardsKind stores model.Flashcard in the flashcards collection.
var FlashcardsKind = Kind[model.Flashcard, model.FlashcardFields]{
	Collection: model.CollectionFlashcards,
	Encode:     model.FlashcardFields.Fields,
	Decode:     model.FlashcardFromDocument,
	IDOf:       func(c model.Flashcard) string { return c.ID },
}

// NewNotesSlice builds the notes slice.
func NewNotesSlice(gw gateway.Gateway, session func() *model.Session, log *zap.Logger) *Slice[model.Note, model.NoteFields] {
	return NewSlice(NotesKind, gw, session, log)
}

// NewFlashcardsSlice builds the flashcards slice.
func NewFlashcardsSlice(gw gateway.Gateway, session func() *model.Session, log *zap.Logger) *Slice[model.Flashcard, model.FlashcardFields] {
	return NewSlice(FlashcardsKind, gw, session, log)
}

// State returns a snapshot with a copied item list.
func (s *Slice[T, F]) State() SliceState[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SliceState[T]{
		Items:   append([]T(nil), s.items...),
		Loading: s.inflight > 0,
		Err:     s.err,
	}
}

// fail records a local failure that never reached the gateway.
func (s *Slice[T, F]) fail(o op, err error) error {
	s.mu.Lock()
	s.err = errs.Message(err)
	s.errOp = o
	s.mu.Unlock()
	s.notify()
	return err
}

// owner returns the signed-in user ID or fails locally.
func (s *Slice[T, F]) owner(o op) (string, error) {
	sess := s.session()
	if sess == nil {
		return "", s.fail(o, errs.ErrNotSignedIn)
	}
	return sess.UserID, nil
}

func (s *Slice[T, F]) begin() uint64 {
	s.mu.Lock()
	s.inflight++
	epoch := s.epoch
	s.mu.Unlock()
	s.notify()
	return epoch
}

// end settles a gateway call. apply runs under the lock on success only.
func (s *Slice[T, F]) end(o op, epoch uint64, err error, apply func()) error {
	s.mu.Lock()
	s.inflight--
	switch {
	case epoch != s.epoch:
		// the owner changed while the call was in flight
	case err != nil:
		s.err = errs.Message(err)
		s.errOp = o
	default:
		apply()
		if s.errOp == o {
			s.err = ""
			s.errOp = opNone
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("gateway call failed", zap.Error(err))
	}
	s.notify()
	return err
}

func (s *Slice[T, F]) indexOf(id string) int {
	for i, it := range s.items {
		if s.kind.IDOf(it) == id {
			return i
		}
	}
	return -1
}

func (s *Slice[T, F]) without(id string) []T {
	out := s.items[:0:0]
	for _, it := range s.items {
		if s.kind.IDOf(it) != id {
			out = append(out, it)
		}
	}
	return out
}

// ListAll replaces the items with the gateway's full list.
func (s *Slice[T, F]) ListAll(ctx context.Context) error {
	owner, err := s.owner(opList)
	if err != nil {
		return err
	}
	epoch := s.begin()
	docs, err := s.gw.ListRecords(ctx, s.kind.Collection, owner)
	return s.end(opList, epoch, err, func() {
		items := make([]T, 0, len(docs))
		seen := make(map[string]bool, len(docs))
		for _, d := range docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			items = append(items, s.kind.Decode(d))
		}
		s.items = items
	})
}

// FetchByID loads one record and merges it: replaced in place when known, appended otherwise.
func (s *Slice[T, F]) FetchByID(ctx context.Context, id string) (T, error) {
	var zero T
	if _, err := s.owner(opFetch); err != nil {
		return zero, err
	}
	epoch := s.begin()
	doc, err := s.gw.GetRecord(ctx, s.kind.Collection, id)
	if err != nil {
		return zero, s.end(opFetch, epoch, err, nil)
	}
	rec := s.kind.Decode(doc)
	return rec, s.end(opFetch, epoch, nil, func() {
		if i := s.indexOf(doc.ID); i >= 0 {
			s.items[i] = rec
			return
		}
		s.items = append(s.items, rec)
	})
}

// Create validates f locally, stores it and prepends the confirmed record.
func (s *Slice[T, F]) Create(ctx context.Context, f F) (T, error) {
	var zero T
	if err := checkFields(f); err != nil {
		return zero, s.fail(opCreate, err)
	}
	owner, err := s.owner(opCreate)
	if err != nil {
		return zero, err
	}
	epoch := s.begin()
	doc, err := s.gw.CreateRecord(ctx, s.kind.Collection, owner, s.kind.Encode(f))
	if err != nil {
		return zero, s.end(opCreate, epoch, err, nil)
	}
	rec := s.kind.Decode(doc)
	return rec, s.end(opCreate, epoch, nil, func() {
		s.items = append([]T{rec}, s.without(doc.ID)...)
	})
}

// Update validates f locally and replaces the confirmed record in place.
// A record that is not held locally stays absent.
func (s *Slice[T, F]) Update(ctx context.Context, id string, f F) (T, error) {
	var zero T
	if err := checkFields(f); err != nil {
		return zero, s.fail(opUpdate, err)
	}
	if _, err := s.owner(opUpdate); err != nil {
		return zero, err
	}
	epoch := s.begin()
	doc, err := s.gw.UpdateRecord(ctx, s.kind.Collection, id, s.kind.Encode(f))
	if err != nil {
		return zero, s.end(opUpdate, epoch, err, nil)
	}
	rec := s.kind.Decode(doc)
	return rec, s.end(opUpdate, epoch, nil, func() {
		if i := s.indexOf(doc.ID); i >= 0 {
			s.items[i] = rec
		}
	})
}

// Delete removes the record once the gateway confirms.
func (s *Slice[T, F]) Delete(ctx context.Context, id string) error {
	if _, err := s.owner(opDelete); err != nil {
		return err
	}
	epoch := s.begin()
	err := s.gw.DeleteRecord(ctx, s.kind.Collection, id)
	return s.end(opDelete, epoch, err, func() {
		s.items = s.without(id)
	})
}

// ClearAll empties the slice locally and drops replies still in flight.
func (s *Slice[T, F]) ClearAll() {
	s.mu.Lock()
	s.items = nil
	s.err = ""
	s.errOp = opNone
	s.epoch++
	s.mu.Unlock()
	s.notify()
}

// ClearError forgets the last error.
func (s *Slice[T, F]) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.errOp = opNone
	s.mu.Unlock()
	s.notify()
}
