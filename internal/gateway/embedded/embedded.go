// Package embedded provides an in-process Gateway over the backend services.
package embedded

import (
	"context"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/service"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// clientAddr is reported to the login rate limiter.
const clientAddr = "embedded"

var _ gateway.Gateway = (*Gateway)(nil)

// Gateway calls the services directly; the signed-in identity lives in memory.
type Gateway struct {
	auth    service.AuthService
	records service.RecordService
	feed    gateway.Feed
	log     *zap.Logger
}

// New constructs an embedded gateway that starts signed out.
func New(auth service.AuthService, records service.RecordService, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{auth: auth, records: records, log: log}
}

func (g *Gateway) caller() (uuid.UUID, error) {
	cur := g.feed.Current()
	if cur == nil {
		return uuid.Nil, errs.ErrNotSignedIn
	}
	return uuid.FromStringOrNil(cur.UserID), nil
}

// SignIn authenticates and publishes the identity.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	_, id, err := g.auth.Login(ctx, email, password, clientAddr)
	if err != nil {
		return model.Identity{}, err
	}
	g.log.Debug("signed in", zap.String("user", id.UserID))
	g.feed.Publish(&id)
	return id, nil
}

// SignUp registers and publishes the identity.
func (g *Gateway) SignUp(ctx context.Context, name, email, password string) (model.Identity, error) {
	_, id, err := g.auth.Register(ctx, name, email, password)
	if err != nil {
		return model.Identity{}, err
	}
	g.log.Debug("signed up", zap.String("user", id.UserID))
	g.feed.Publish(&id)
	return id, nil
}

// SignOut forgets the identity.
func (g *Gateway) SignOut(context.Context) error {
	g.feed.Publish(nil)
	return nil
}

// SubscribeToSessionChanges registers fn with the session feed.
func (g *Gateway) SubscribeToSessionChanges(fn func(*model.Identity)) func() {
	return g.feed.Subscribe(fn)
}

// CreateRecord stores a record for ownerID, which must be the signed-in user.
func (g *Gateway) CreateRecord(ctx context.Context, collection, ownerID string, fields model.Fields) (model.Document, error) {
	uid, err := g.caller()
	if err != nil {
		return model.Document{}, err
	}
	if ownerID != uid.String() {
		return model.Document{}, errs.ErrForbidden
	}
	d, err := g.records.Create(ctx, uid, collection, fields)
	if err != nil {
		return model.Document{}, err
	}
	return *d, nil
}

// ListRecords lists records of ownerID, which must be the signed-in user.
func (g *Gateway) ListRecords(ctx context.Context, collection, ownerID string) ([]model.Document, error) {
	uid, err := g.caller()
	if err != nil {
		return nil, err
	}
	if ownerID != uid.String() {
		return nil, errs.ErrForbidden
	}
	return g.records.List(ctx, uid, collection)
}

// GetRecord loads one record.
func (g *Gateway) GetRecord(ctx context.Context, collection, id string) (model.Document, error) {
	uid, err := g.caller()
	if err != nil {
		return model.Document{}, err
	}
	d, err := g.records.Get(ctx, uid, collection, id)
	if err != nil {
		return model.Document{}, err
	}
	return *d, nil
}

// UpdateRecord replaces record fields.
func (g *Gateway) UpdateRecord(ctx context.Context, collection, id string, fields model.Fields) (model.Document, error) {
	uid, err := g.caller()
	if err != nil {
		return model.Document{}, err
	}
	d, err := g.records.Update(ctx, uid, collection, id, fields)
	if err != nil {
		return model.Document{}, err
	}
	return *d, nil
}

// DeleteRecord removes a record.
func (g *Gateway) DeleteRecord(ctx context.Context, collection, id string) error {
	uid, err := g.caller()
	if err != nil {
		return err
	}
	return g.records.Delete(ctx, uid, collection, id)
}

// GetProfile returns the signed-in user's profile.
func (g *Gateway) GetProfile(ctx context.Context) (model.Profile, error) {
	uid, err := g.caller()
	if err != nil {
		return model.Profile{}, err
	}
	p, err := g.auth.Profile(ctx, uid)
	if err != nil {
		return model.Profile{}, err
	}
	return *p, nil
}

// UpdateProfile renames the signed-in user and republishes the identity.
func (g *Gateway) UpdateProfile(ctx context.Context, name string) (model.Profile, error) {
	uid, err := g.caller()
	if err != nil {
		return model.Profile{}, err
	}
	p, err := g.auth.UpdateProfileName(ctx, uid, name)
	if err != nil {
		return model.Profile{}, err
	}
	if cur := g.feed.Current(); cur != nil && cur.UserID == p.UserID {
		cur.DisplayName = p.Name
		g.feed.Publish(cur)
	}
	return *p, nil
}

// ChangePassword changes the signed-in user's password.
func (g *Gateway) ChangePassword(ctx context.Context, current, next string) error {
	uid, err := g.caller()
	if err != nil {
		return err
	}
	return g.auth.ChangePassword(ctx, uid, current, next)
}
