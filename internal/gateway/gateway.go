// Package gateway defines the contract between the client core and the
// identity and document backend.
package gateway

import (
	"context"

	"github.com/and161185/studydeck/internal/model"
)

// Gateway performs identity verification and document persistence.
// Failures are the sentinels of internal/errs.
type Gateway interface {
	// SignIn fails with errs.ErrInvalidCredentials or errs.ErrUnavailable.
	SignIn(ctx context.Context, email, password string) (model.Identity, error)
	// SignUp creates the identity and its profile; fails with errs.ErrEmailInUse,
	// errs.ErrWeakPassword or errs.ErrUnavailable.
	SignUp(ctx context.Context, name, email, password string) (model.Identity, error)
	// SignOut ends the current session.
	SignOut(ctx context.Context) error
	// SubscribeToSessionChanges calls fn with the current identity (nil when
	// signed out) right away and after every change. The returned function
	// unsubscribes and is safe to call more than once.
	SubscribeToSessionChanges(fn func(*model.Identity)) (unsubscribe func())

	CreateRecord(ctx context.Context, collection, ownerID string, fields model.Fields) (model.Document, error)
	// ListRecords returns the owner's records, newest first.
	ListRecords(ctx context.Context, collection, ownerID string) ([]model.Document, error)
	// GetRecord fails with errs.ErrNotFound or errs.ErrForbidden.
	GetRecord(ctx context.Context, collection, id string) (model.Document, error)
	UpdateRecord(ctx context.Context, collection, id string, fields model.Fields) (model.Document, error)
	DeleteRecord(ctx context.Context, collection, id string) error

	GetProfile(ctx context.Context) (model.Profile, error)
	UpdateProfile(ctx context.Context, name string) (model.Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
}
