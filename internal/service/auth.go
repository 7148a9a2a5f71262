// Package service contains application services for accounts, profiles and records.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/studydeck/internal/crypto"
	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/limiter"
	"github.com/and161185/studydeck/internal/model"
	"github.com/and161185/studydeck/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// MinPasswordLen is the shortest password accepted on register and password change.
const MinPasswordLen = model.MinPasswordLen

// AuthService defines account, session and profile operations.
type AuthService interface {
	// Register creates the account and its profile and signs the user in.
	Register(ctx context.Context, name, email, password string) (model.Tokens, model.Identity, error)
	// Login applies rate limiting and authenticates the user.
	Login(ctx context.Context, email, password, ip string) (model.Tokens, model.Identity, error)
	// Identity resolves the identity of an existing account.
	Identity(ctx context.Context, userID uuid.UUID) (model.Identity, error)
	// Profile returns the profile document of a user.
	Profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	// UpdateProfileName changes the display name.
	UpdateProfileName(ctx context.Context, userID uuid.UUID, name string) (*model.Profile, error)
	// ChangePassword re-authenticates with current and stores next.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// Claims is the payload of an access token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	hasher    *pkgcrypto.Hasher
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	validate  *validator.Validate
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	hasher *pkgcrypto.Hasher,
	signKey []byte,
	accessTTL time.Duration,
	lim limiter.Limiter,
) *AuthServiceImpl {
	if hasher == nil {
		hasher = pkgcrypto.NewHasher(pkgcrypto.DefaultParams)
	}
	return &AuthServiceImpl{
		users:     users,
		profiles:  profiles,
		hasher:    hasher,
		signKey:   signKey,
		accessTTL: accessTTL,
		lim:       lim,
		validate:  validator.New(),
	}
}

type registerInput struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register creates a user with a hashed password and a profile with the default role.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (model.Tokens, model.Identity, error) {
	in := registerInput{Name: strings.TrimSpace(name), Email: normalizeEmail(email)}
	if err := s.validate.Struct(in); err != nil {
		return model.Tokens{}, model.Identity{}, validationError(err)
	}
	if len(password) < MinPasswordLen {
		return model.Tokens{}, model.Identity{}, errs.ErrWeakPassword
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	u := &model.User{ID: uid, Email: in.Email, PwdHash: hash, PwdSalt: salt}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	p := &model.Profile{UserID: uid.String(), Name: in.Name, Email: in.Email, Role: model.RoleUser}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return model.Tokens{}, model.Identity{}, fmt.Errorf("create profile: %w", err)
	}

	id := model.Identity{UserID: uid.String(), Email: in.Email, DisplayName: in.Name}
	tok, err := s.issueAccessToken(id)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	return tok, id, nil
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, model.Identity, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	if !allowed {
		return model.Tokens{}, model.Identity{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.Identity{}, err
	}
	if err != nil || !s.hasher.Verify(password, u.PwdSalt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.Identity{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Tokens{}, model.Identity{}, errs.ErrInvalidCredentials
	}

	_ = s.lim.Success(ctx, email, ipHash)

	id, err := s.identityOf(ctx, u)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	tok, err := s.issueAccessToken(id)
	if err != nil {
		return model.Tokens{}, model.Identity{}, err
	}
	return tok, id, nil
}

// Identity loads the account and its display name.
func (s *AuthServiceImpl) Identity(ctx context.Context, userID uuid.UUID) (model.Identity, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Identity{}, err
	}
	return s.identityOf(ctx, u)
}

func (s *AuthServiceImpl) identityOf(ctx context.Context, u *model.User) (model.Identity, error) {
	id := model.Identity{UserID: u.ID.String(), Email: u.Email}
	p, err := s.profiles.Get(ctx, u.ID)
	switch {
	case err == nil:
		id.DisplayName = p.Name
	case !errors.Is(err, errs.ErrNotFound):
		return model.Identity{}, err
	}
	return id, nil
}

// Profile returns the profile document.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrNotSignedIn
	}
	return s.profiles.Get(ctx, userID)
}

// UpdateProfileName sets a new non-empty display name.
func (s *AuthServiceImpl) UpdateProfileName(ctx context.Context, userID uuid.UUID, name string) (*model.Profile, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrNotSignedIn
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validation("Name is required")
	}
	return s.profiles.SetName(ctx, userID, name)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if userID == uuid.Nil {
		return errs.ErrNotSignedIn
	}
	if len(next) < MinPasswordLen {
		return errs.ErrWeakPassword
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, u.PwdSalt, u.PwdHash) {
		return errs.ErrInvalidCredentials
	}
	hash, salt, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, hash, salt)
}

// issueAccessToken creates a signed HS256 JWT for the given identity.
func (s *AuthServiceImpl) issueAccessToken(id model.Identity) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := Claims{
		Email: id.Email,
		Name:  id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

// ParseAccessToken verifies an HS256 token and returns its claims.
func ParseAccessToken(signKey []byte, raw string, leeway time.Duration) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(leeway), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if _, err := uuid.FromString(c.Subject); err != nil {
		return nil, fmt.Errorf("bad subject: %w", err)
	}
	return &c, nil
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		switch ves[0].Tag() {
		case "email":
			return errs.Validation("Invalid email address")
		default:
			return errs.Validation("All fields are required")
		}
	}
	return errs.Validation(err.Error())
}
