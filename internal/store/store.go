// Package store is the client core: the session store, the record slices
// and the dispatch/select surface that presentation code talks to.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"go.uber.org/zap"
)

// ErrUnknownPath is returned by Select for paths it does not serve.
var ErrUnknownPath = errors.New("unknown state path")

// Action names accepted by Dispatch.
const (
	ActionLogin          = "auth/login"
	ActionRegister       = "auth/register"
	ActionLogout         = "auth/logout"
	ActionClearAuthError = "auth/clearError"

	ActionFetchProfile   = "profile/fetch"
	ActionUpdateName     = "profile/updateName"
	ActionChangePassword = "profile/changePassword"

	ActionFetchNotes = "notes/fetchAll"
	ActionFetchNote  = "notes/fetchById"
	ActionAddNote    = "notes/add"
	ActionUpdateNote = "notes/update"
	ActionDeleteNote = "notes/delete"
	ActionClearNotes = "notes/clear"
	ActionFetchCards = "flashcards/fetchAll"
	ActionFetchCard  = "flashcards/fetchById"
	ActionAddCard    = "flashcards/add"
	ActionUpdateCard = "flashcards/update"
	ActionDeleteCard = "flashcards/delete"
	ActionClearCards = "flashcards/clear"
)

// LoginPayload is the payload of auth/login.
type LoginPayload struct {
	Email    string
	Password string
}

// RegisterPayload is the payload of auth/register.
type RegisterPayload struct {
	Name     string
	Email    string
	Password string
}

// PasswordPayload is the payload of profile/changePassword.
type PasswordPayload struct {
	Current string
	Next    string
}

// UpdatePayload is the payload of notes/update and flashcards/update.
type UpdatePayload[F any] struct {
	ID     string
	Fields F
}

type handler func(ctx context.Context, payload any) error

// Store is the single state container handed to presentation code.
// Renderers read through Select and mutate through Dispatch only.
type Store struct {
	Auth       *SessionStore
	Profile    *ProfileSlice
	Notes      *Slice[model.Note, model.NoteFields]
	Flashcards *Slice[model.Flashcard, model.FlashcardFields]

	changes  notifier
	handlers map[string]handler
	log      *zap.Logger
}

// New wires the slices over gw. Call Bootstrap once at start-up.
func New(gw gateway.Gateway, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{log: log}

	s.Auth = NewSessionStore(gw, log.Named("auth"))
	s.Profile = NewProfileSlice(gw, s.Auth.Current, log.Named("profile"))
	s.Notes = NewNotesSlice(gw, s.Auth.Current, log.Named("notes"))
	s.Flashcards = NewFlashcardsSlice(gw, s.Auth.Current, log.Named("flashcards"))

	s.Auth.notify = s.changes.notify
	s.Profile.notify = s.changes.notify
	s.Notes.notify = s.changes.notify
	s.Flashcards.notify = s.changes.notify

	s.Auth.onEnd = func() {
		s.Notes.ClearAll()
		s.Flashcards.ClearAll()
		s.Profile.Clear()
	}
	s.Profile.renamed = s.Auth.rename

	s.handlers = map[string]handler{
		ActionLogin: withPayload(ActionLogin, func(ctx context.Context, p LoginPayload) error {
			return s.Auth.Login(ctx, p.Email, p.Password)
		}),
		ActionRegister: withPayload(ActionRegister, func(ctx context.Context, p RegisterPayload) error {
			return s.Auth.Register(ctx, p.Name, p.Email, p.Password)
		}),
		ActionLogout: noPayload(ActionLogout, s.Auth.Logout),
		ActionClearAuthError: noPayload(ActionClearAuthError, func(context.Context) error {
			s.Auth.ClearError()
			return nil
		}),

		ActionFetchProfile: noPayload(ActionFetchProfile, s.Profile.Fetch),
		ActionUpdateName:   withPayload(ActionUpdateName, s.Profile.UpdateName),
		ActionChangePassword: withPayload(ActionChangePassword, func(ctx context.Context, p PasswordPayload) error {
			return s.Profile.ChangePassword(ctx, p.Current, p.Next)
		}),
	}
	sliceActions(s.handlers, "notes", s.Notes)
	sliceActions(s.handlers, "flashcards", s.Flashcards)
	return s
}

func withPayload[P any](action string, fn func(context.Context, P) error) handler {
	return func(ctx context.Context, payload any) error {
		p, ok := payload.(P)
		if !ok {
			var want P
			return fmt.Errorf("%w: %s wants %T, got %T", errs.ErrBadPayload, action, want, payload)
		}
		return fn(ctx, p)
	}
}

func noPayload(action string, fn func(context.Context) error) handler {
	return func(ctx context.Context, payload any) error {
		if payload != nil {
			return fmt.Errorf("%w: %s takes no payload, got %T", errs.ErrBadPayload, action, payload)
		}
		return fn(ctx)
	}
}

func sliceActions[T, F any](h map[string]handler, prefix string, sl *Slice[T, F]) {
	name := func(op string) string { return prefix + "/" + op }

	h[name("fetchAll")] = noPayload(name("fetchAll"), sl.ListAll)
	h[name("fetchById")] = withPayload(name("fetchById"), func(ctx context.Context, id string) error {
		_, err := sl.FetchByID(ctx, id)
		return err
	})
	h[name("add")] = withPayload(name("add"), func(ctx context.Context, f F) error {
		_, err := sl.Create(ctx, f)
		return err
	})
	h[name("update")] = withPayload(name("update"), func(ctx context.Context, p UpdatePayload[F]) error {
		_, err := sl.Update(ctx, p.ID, p.Fields)
		return err
	})
	h[name("delete")] = withPayload(name("delete"), sl.Delete)
	h[name("clear")] = noPayload(name("clear"), func(context.Context) error {
		sl.ClearAll()
		return nil
	})
}

// Bootstrap starts following the gateway's session feed. Only the first call has an effect.
func (s *Store) Bootstrap() { s.Auth.Bootstrap() }

// Close detaches from the session feed.
func (s *Store) Close() { s.Auth.Close() }

// Dispatch runs the named action. The returned error is also kept in the
// Err field of the slice that owns the action.
func (s *Store) Dispatch(ctx context.Context, action string, payload any) error {
	h, ok := s.handlers[action]
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnknownAction, action)
	}
	s.log.Debug("dispatch", zap.String("action", action))
	return h(ctx, payload)
}

// Select reads state by path, e.g. "auth.session" or "flashcards.sets".
func (s *Store) Select(path string) (any, error) {
	switch path {
	case "auth":
		return s.Auth.State(), nil
	case "auth.session":
		return s.Auth.State().Session, nil
	case "auth.initialized":
		return s.Auth.State().Initialized, nil
	case "auth.loading":
		return s.Auth.State().Loading, nil
	case "auth.error":
		return s.Auth.State().Err, nil
	case "profile":
		return s.Profile.State(), nil
	case "notes":
		return s.Notes.State(), nil
	case "notes.items":
		return s.Notes.State().Items, nil
	case "flashcards":
		return s.Flashcards.State(), nil
	case "flashcards.items":
		return s.Flashcards.State().Items, nil
	case "flashcards.sets":
		return StudySets(s.Flashcards.State().Items), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
}

// Subscribe calls fn after every state change until unsubscribed.
// fn should re-read what it renders through Select.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.changes.subscribe(fn)
}
