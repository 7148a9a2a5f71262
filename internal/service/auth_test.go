package service

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/studydeck/internal/crypto"
	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/limiter"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	setPwErr  error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrEmailInUse
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}
func (f *fakeUsers) SetPassword(_ context.Context, id uuid.UUID, hash, salt []byte) error {
	if f.setPwErr != nil {
		return f.setPwErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PwdHash, u.PwdSalt = hash, salt
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeProfiles struct {
	byID      map[uuid.UUID]*model.Profile
	upsertErr error
	getErr    error
}

var _ repository.ProfileRepository = (*fakeProfiles)(nil)

func (f *fakeProfiles) Upsert(_ context.Context, p *model.Profile) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Profile{}
	}
	c := *p
	f.byID[uuid.FromStringOrNil(p.UserID)] = &c
	return nil
}
func (f *fakeProfiles) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	return &c, nil
}
func (f *fakeProfiles) SetName(_ context.Context, id uuid.UUID, name string) (*model.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	p.Name = name
	c := *p
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

var cheapHasher = pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, MemoryKiB: 1024, Threads: 1})

func newAuth(users *fakeUsers, profiles *fakeProfiles, lim limiter.Limiter) *AuthServiceImpl {
	return NewAuthService(users, profiles, cheapHasher, []byte("secret"), time.Minute, lim)
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	profiles := &fakeProfiles{}
	s := newAuth(users, profiles, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "", "a@b.c", "secret1"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation on empty name, got %v", err)
	}
	if _, _, err := s.Register(ctx, "Ann", "not-an-email", "secret1"); errs.Message(err) != "Invalid email address" {
		t.Fatalf("want invalid email, got %v", err)
	}
	if _, _, err := s.Register(ctx, "Ann", "a@b.c", "12345"); !errors.Is(err, errs.ErrWeakPassword) {
		t.Fatalf("want ErrWeakPassword, got %v", err)
	}

	tok, id, err := s.Register(ctx, " Ann ", " A@B.c ", "123456")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id.UserID == "" || id.Email != "a@b.c" || id.DisplayName != "Ann" {
		t.Fatalf("bad identity: %+v", id)
	}
	if tok.AccessToken == "" {
		t.Fatalf("empty token")
	}
	p := profiles.byID[uuid.FromStringOrNil(id.UserID)]
	if p == nil || p.Role != model.RoleUser || p.Name != "Ann" {
		t.Fatalf("profile not created: %+v", p)
	}

	if _, _, err := s.Register(ctx, "Ann", "a@b.c", "123456"); !errors.Is(err, errs.ErrEmailInUse) {
		t.Fatalf("want ErrEmailInUse, got %v", err)
	}

	profiles.upsertErr = errors.New("boom")
	if _, _, err := s.Register(ctx, "Bob", "bob@b.c", "123456"); err == nil {
		t.Fatalf("want propagated profile error")
	}
}

func TestAuth_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := &fakeUsers{}
	profiles := &fakeProfiles{}
	lim := &fakeLimiter{allowOK: true}
	s := newAuth(users, profiles, lim)

	_, reg, err := s.Register(ctx, "Alice", "alice@x.io", "correct")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.Login(ctx, "alice@x.io", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.Login(ctx, "alice@x.io", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, _, err := s.Login(ctx, "nope@x.io", "x", ""); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on missing user, got %v", err)
	}

	lim.failBlocked = true
	if _, _, err := s.Login(ctx, "alice@x.io", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited after failure, got %v", err)
	}
	lim.failBlocked = false

	if _, _, err := s.Login(ctx, "alice@x.io", "wrong", ""); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials on wrong password, got %v", err)
	}

	users.getErr = errors.New("db down")
	if _, _, err := s.Login(ctx, "alice@x.io", "correct", ""); err == nil || errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want infrastructure error, got %v", err)
	}
	users.getErr = nil

	tok, id, err := s.Login(ctx, "ALICE@x.io", "correct", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id != reg {
		t.Fatalf("identity mismatch: %+v vs %+v", id, reg)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}

	claims, err := ParseAccessToken([]byte("secret"), tok.AccessToken, 0)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != id.UserID || claims.Email != "alice@x.io" || claims.Name != "Alice" {
		t.Fatalf("bad claims: %+v", claims)
	}
	if _, err := ParseAccessToken([]byte("other"), tok.AccessToken, 0); err == nil {
		t.Fatalf("want signature error")
	}
}

func TestAuth_Identity_ProfileMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := &fakeUsers{}
	profiles := &fakeProfiles{}
	s := newAuth(users, profiles, &fakeLimiter{allowOK: true})

	uid := uuid.Must(uuid.NewV4())
	_ = users.Create(ctx, &model.User{ID: uid, Email: "p@x.io"})

	id, err := s.Identity(ctx, uid)
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.DisplayName != "" || id.Email != "p@x.io" {
		t.Fatalf("bad identity: %+v", id)
	}

	profiles.getErr = errors.New("boom")
	if _, err := s.Identity(ctx, uid); err == nil {
		t.Fatalf("want profile error")
	}

	if _, err := s.Identity(ctx, uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestAuth_ProfileAndName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newAuth(&fakeUsers{}, &fakeProfiles{}, &fakeLimiter{allowOK: true})

	_, id, err := s.Register(ctx, "Ann", "ann@x.io", "123456")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	uid := uuid.FromStringOrNil(id.UserID)

	if _, err := s.Profile(ctx, uuid.Nil); !errors.Is(err, errs.ErrNotSignedIn) {
		t.Fatalf("want ErrNotSignedIn, got %v", err)
	}
	p, err := s.Profile(ctx, uid)
	if err != nil || p.Name != "Ann" {
		t.Fatalf("Profile: %+v %v", p, err)
	}

	if _, err := s.UpdateProfileName(ctx, uid, "   "); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation, got %v", err)
	}
	p, err = s.UpdateProfileName(ctx, uid, " Annie ")
	if err != nil || p.Name != "Annie" {
		t.Fatalf("UpdateProfileName: %+v %v", p, err)
	}
}

func TestAuth_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := &fakeUsers{}
	s := newAuth(users, &fakeProfiles{}, &fakeLimiter{allowOK: true})

	_, id, err := s.Register(ctx, "Ann", "ann@x.io", "old-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	uid := uuid.FromStringOrNil(id.UserID)

	if err := s.ChangePassword(ctx, uid, "old-pass", "123"); !errors.Is(err, errs.ErrWeakPassword) {
		t.Fatalf("want ErrWeakPassword, got %v", err)
	}
	if err := s.ChangePassword(ctx, uid, "wrong", "new-pass"); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials, got %v", err)
	}
	if err := s.ChangePassword(ctx, uuid.Nil, "old-pass", "new-pass"); !errors.Is(err, errs.ErrNotSignedIn) {
		t.Fatalf("want ErrNotSignedIn, got %v", err)
	}
	if err := s.ChangePassword(ctx, uid, "old-pass", "new-pass"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@x.io", "old-pass", ""); !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, _, err := s.Login(ctx, "ann@x.io", "new-pass", ""); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	users.setPwErr = errors.New("boom")
	if err := s.ChangePassword(ctx, uid, "new-pass", "newer-pass"); err == nil {
		t.Fatalf("want propagated repo error")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUsers{}, &fakeProfiles{}, cheapHasher, []byte("k"), -time.Minute, &fakeLimiter{allowOK: true})
	tok, err := s.issueAccessToken(model.Identity{UserID: uuid.Must(uuid.NewV4()).String(), Email: "e@x.io"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAccessToken([]byte("k"), tok.AccessToken, 0); err == nil {
		t.Fatalf("want expiry error")
	}
	if _, err := ParseAccessToken([]byte("k"), tok.AccessToken, 2*time.Minute); err != nil {
		t.Fatalf("leeway should accept: %v", err)
	}
}
