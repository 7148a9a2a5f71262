package remote

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrNoToken is returned by TokenStore.Load when no usable token is saved.
var ErrNoToken = errors.New("no valid token (sign in required)")

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore persists the access token between runs.
type TokenStore struct {
	path string
	now  func() time.Time
}

// NewTokenStore keeps the token in dir/token.json.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{path: filepath.Join(dir, "token.json"), now: time.Now}
}

// DefaultDir returns $XDG_CONFIG_HOME/studydeck or ~/.config/studydeck.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "studydeck")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "studydeck")
}

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok string, exp time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// Load returns the saved token and its expiry, or ErrNoToken when it is missing or expired.
func (s *TokenStore) Load() (string, time.Time, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", time.Time{}, ErrNoToken
	}
	if err != nil {
		return "", time.Time{}, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", time.Time{}, err
	}
	if tf.AccessToken == "" || !s.now().Before(tf.ExpiresAt) {
		return "", time.Time{}, ErrNoToken
	}
	return tf.AccessToken, tf.ExpiresAt, nil
}

// Clear removes the saved token.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
