// Package model defines domain entities shared by the client core, gateways, services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Collections known to the document store.
const (
	CollectionNotes      = "notes"
	CollectionFlashcards = "flashcards"
)

// RoleUser is the role assigned to every self-registered account.
const RoleUser = "user"

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// Identity is what the gateway reports for a signed-in user.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// Session is the locally held representation of the signed-in user.
// A nil *Session means nobody is signed in.
type Session struct {
	UserID      string // opaque identity token
	Email       string
	DisplayName string
}

// NewSession builds a session from a gateway identity.
func NewSession(id Identity) *Session {
	return &Session{UserID: id.UserID, Email: id.Email, DisplayName: id.DisplayName}
}

// Fields is the flat field set of a stored document.
type Fields map[string]string

// Document is a collection-agnostic record as persisted by the gateway.
type Document struct {
	ID         string
	Collection string
	OwnerID    string
	Fields     Fields
	CreatedAt  time.Time
	UpdatedAt  *time.Time // nil until the first update
}

// Tokens collects the issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server. The password is never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique
	PwdHash   []byte    // Argon2id(password, PwdSalt)
	PwdSalt   []byte
	CreatedAt time.Time
}

// Profile is the per-user profile document created on registration.
type Profile struct {
	UserID    string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
