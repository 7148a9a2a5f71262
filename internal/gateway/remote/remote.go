// Package remote implements the Gateway over the studydeck.v1 gRPC service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	api "github.com/and161185/studydeck/internal/api/studydeckv1"
	"github.com/and161185/studydeck/internal/convert"
	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// fallbackTTL is assumed when neither the reply nor the token carry an expiry.
const fallbackTTL = 15 * time.Minute

var _ gateway.Gateway = (*Gateway)(nil)

type rpc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

// Gateway talks to the backend over gRPC and keeps the access token.
// The session ends when the token expires or the server rejects it.
type Gateway struct {
	cli    api.StudyDeckClient
	conn   io.Closer
	secure bool
	tokens *TokenStore
	log    *zap.Logger
	feed   gateway.Feed

	mu     sync.Mutex
	token  string
	expiry *time.Timer
}

// New wraps an established connection. tokens may be nil to keep the session in memory only.
// secure tells whether the connection uses TLS; bearer tokens are refused otherwise.
func New(cc grpc.ClientConnInterface, tokens *TokenStore, secure bool, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{cli: api.NewStudyDeckClient(cc), secure: secure, tokens: tokens, log: log}
}

// Dial connects to cfg.Addr; Close releases the connection.
func Dial(cfg DialConfig, tokens *TokenStore, log *zap.Logger) (*Gateway, error) {
	cc, err := NewConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	g := New(cc, tokens, !cfg.Plaintext, log)
	g.conn = cc
	return g, nil
}

// Close stops the expiry timer and closes the connection if Dial opened it.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.expiry != nil {
		g.expiry.Stop()
	}
	g.mu.Unlock()
	if g.conn != nil {
		return g.conn.Close()
	}
	return nil
}

// Restore resumes a session saved by an earlier run. A missing, expired or
// rejected token leaves the gateway signed out without an error.
func (g *Gateway) Restore(ctx context.Context) error {
	if g.tokens == nil {
		return nil
	}
	tok, exp, err := g.tokens.Load()
	if errors.Is(err, ErrNoToken) {
		return nil
	}
	if err != nil {
		return err
	}
	out, err := g.cli.GetIdentity(ctx, &structpb.Struct{}, g.creds(tok))
	if err != nil {
		err = errs.FromStatus(err)
		if errors.Is(err, errs.ErrNotSignedIn) {
			g.log.Info("saved session rejected")
			return g.tokens.Clear()
		}
		return err
	}
	id, err := convert.IdentityFromStruct(out)
	if err != nil {
		return fmt.Errorf("decode identity: %w", err)
	}
	g.begin(model.Tokens{AccessToken: tok, ExpiresAt: exp}, id)
	return nil
}

func (g *Gateway) creds(tok string) grpc.CallOption {
	return grpc.PerRPCCredentials(bearerCreds{token: tok, secure: g.secure})
}

// tokenExpiry reads exp from the token without verifying it.
func tokenExpiry(raw string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (g *Gateway) begin(tok model.Tokens, id model.Identity) {
	exp := tok.ExpiresAt
	if exp.IsZero() {
		var ok bool
		if exp, ok = tokenExpiry(tok.AccessToken); !ok {
			exp = time.Now().Add(fallbackTTL)
		}
	}

	g.mu.Lock()
	if g.expiry != nil {
		g.expiry.Stop()
	}
	g.token = tok.AccessToken
	raw := tok.AccessToken
	g.expiry = time.AfterFunc(time.Until(exp), func() {
		g.log.Info("session expired")
		g.end(raw)
	})
	g.mu.Unlock()

	if g.tokens != nil {
		if err := g.tokens.Save(tok.AccessToken, exp); err != nil {
			g.log.Warn("save token", zap.Error(err))
		}
	}
	g.feed.Publish(&id)
}

// end drops the session if it still uses tok; an empty tok drops any session.
func (g *Gateway) end(tok string) {
	g.mu.Lock()
	if g.token == "" || (tok != "" && g.token != tok) {
		g.mu.Unlock()
		return
	}
	g.token = ""
	if g.expiry != nil {
		g.expiry.Stop()
		g.expiry = nil
	}
	g.mu.Unlock()

	if g.tokens != nil {
		if err := g.tokens.Clear(); err != nil {
			g.log.Warn("clear token", zap.Error(err))
		}
	}
	g.feed.Publish(nil)
}

func (g *Gateway) currentToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// call invokes an authenticated method; a rejected token ends the session.
func (g *Gateway) call(ctx context.Context, fn rpc, in *structpb.Struct) (*structpb.Struct, error) {
	tok := g.currentToken()
	if tok == "" {
		return nil, errs.ErrNotSignedIn
	}
	out, err := fn(ctx, in, g.creds(tok))
	if err != nil {
		err = errs.FromStatus(err)
		if errors.Is(err, errs.ErrNotSignedIn) {
			g.end(tok)
		}
		return nil, err
	}
	return out, nil
}

func (g *Gateway) checkOwner(ownerID string) error {
	cur := g.feed.Current()
	if cur == nil {
		return errs.ErrNotSignedIn
	}
	if cur.UserID != ownerID {
		return errs.ErrForbidden
	}
	return nil
}

func (g *Gateway) authenticate(ctx context.Context, fn rpc, in *structpb.Struct) (model.Identity, error) {
	out, err := fn(ctx, in)
	if err != nil {
		return model.Identity{}, errs.FromStatus(err)
	}
	tok, id, err := convert.FromAuthReply(out)
	if err != nil {
		return model.Identity{}, fmt.Errorf("decode auth reply: %w", err)
	}
	g.begin(tok, id)
	return id, nil
}

// SignIn exchanges credentials for an access token.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (model.Identity, error) {
	return g.authenticate(ctx, g.cli.SignIn, convert.Object(map[string]string{
		convert.KeyEmail:    email,
		convert.KeyPassword: password,
	}))
}

// SignUp registers an account and signs it in.
func (g *Gateway) SignUp(ctx context.Context, name, email, password string) (model.Identity, error) {
	return g.authenticate(ctx, g.cli.SignUp, convert.Object(map[string]string{
		convert.KeyName:     name,
		convert.KeyEmail:    email,
		convert.KeyPassword: password,
	}))
}

// SignOut forgets the token locally; access tokens are stateless on the server.
func (g *Gateway) SignOut(context.Context) error {
	g.end("")
	return nil
}

// SubscribeToSessionChanges registers fn with the session feed.
func (g *Gateway) SubscribeToSessionChanges(fn func(*model.Identity)) func() {
	return g.feed.Subscribe(fn)
}

func (g *Gateway) document(ctx context.Context, fn rpc, in *structpb.Struct) (model.Document, error) {
	out, err := g.call(ctx, fn, in)
	if err != nil {
		return model.Document{}, err
	}
	d, err := convert.DocumentFromStruct(out)
	if err != nil {
		return model.Document{}, fmt.Errorf("decode record: %w", err)
	}
	return d, nil
}

// CreateRecord stores a record for ownerID, which must be the signed-in user.
func (g *Gateway) CreateRecord(ctx context.Context, collection, ownerID string, fields model.Fields) (model.Document, error) {
	if err := g.checkOwner(ownerID); err != nil {
		return model.Document{}, err
	}
	return g.document(ctx, g.cli.CreateRecord, convert.RecordRequest(collection, "", fields))
}

// ListRecords lists records of ownerID, which must be the signed-in user.
func (g *Gateway) ListRecords(ctx context.Context, collection, ownerID string) ([]model.Document, error) {
	if err := g.checkOwner(ownerID); err != nil {
		return nil, err
	}
	out, err := g.call(ctx, g.cli.ListRecords, convert.RecordRequest(collection, "", nil))
	if err != nil {
		return nil, err
	}
	ds, err := convert.DocumentsFromStruct(out)
	if err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return ds, nil
}

// GetRecord loads one record.
func (g *Gateway) GetRecord(ctx context.Context, collection, id string) (model.Document, error) {
	return g.document(ctx, g.cli.GetRecord, convert.RecordRequest(collection, id, nil))
}

// UpdateRecord replaces record fields.
func (g *Gateway) UpdateRecord(ctx context.Context, collection, id string, fields model.Fields) (model.Document, error) {
	return g.document(ctx, g.cli.UpdateRecord, convert.RecordRequest(collection, id, fields))
}

// DeleteRecord removes a record.
func (g *Gateway) DeleteRecord(ctx context.Context, collection, id string) error {
	_, err := g.call(ctx, g.cli.DeleteRecord, convert.RecordRequest(collection, id, nil))
	return err
}

func (g *Gateway) profile(ctx context.Context, fn rpc, in *structpb.Struct) (model.Profile, error) {
	out, err := g.call(ctx, fn, in)
	if err != nil {
		return model.Profile{}, err
	}
	p, err := convert.ProfileFromStruct(out)
	if err != nil {
		return model.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// GetProfile returns the signed-in user's profile.
func (g *Gateway) GetProfile(ctx context.Context) (model.Profile, error) {
	return g.profile(ctx, g.cli.GetProfile, &structpb.Struct{})
}

// UpdateProfile renames the signed-in user and republishes the identity.
func (g *Gateway) UpdateProfile(ctx context.Context, name string) (model.Profile, error) {
	p, err := g.profile(ctx, g.cli.UpdateProfile, convert.Object(map[string]string{convert.KeyName: name}))
	if err != nil {
		return model.Profile{}, err
	}
	if cur := g.feed.Current(); cur != nil && cur.UserID == p.UserID {
		cur.DisplayName = p.Name
		g.feed.Publish(cur)
	}
	return p, nil
}

// ChangePassword changes the signed-in user's password.
func (g *Gateway) ChangePassword(ctx context.Context, current, next string) error {
	_, err := g.call(ctx, g.cli.ChangePassword, convert.Object(map[string]string{
		convert.KeyCurrentPassword: current,
		convert.KeyNewPassword:     next,
	}))
	return err
}
