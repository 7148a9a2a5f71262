package store

import (
	"context"
	"sync"

	"github.com/and161185/studydeck/internal/errs"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/model"
	"go.uber.org/zap"
)

// SessionState is a snapshot of the session store.
type SessionState struct {
	Session     *model.Session // nil when nobody is signed in
	Initialized bool           // the session feed has reported at least once
	Loading     bool           // an auth call is in flight
	Err         string
}

// SessionStore tracks who is signed in. It has two writers: explicit auth
// calls and the gateway's session feed. Whichever finishes last wins.
type SessionStore struct {
	gw     gateway.Gateway
	log    *zap.Logger
	notify func()

	// onEnd runs outside the lock whenever a session ends or changes hands.
	onEnd func()

	once        sync.Once
	unsubscribe func()

	mu          sync.Mutex
	session     *model.Session
	initialized bool
	inflight    int
	err         string
}

// NewSessionStore constructs a store that starts signed out and uninitialized.
func NewSessionStore(gw gateway.Gateway, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{gw: gw, log: log, notify: func() {}, onEnd: func() {}}
}

// State returns a snapshot; the session is a copy.
func (s *SessionStore) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Session:     cloneSession(s.session),
		Initialized: s.initialized,
		Loading:     s.inflight > 0,
		Err:         s.err,
	}
}

// Current returns a copy of the signed-in session or nil.
func (s *SessionStore) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.session)
}

func cloneSession(in *model.Session) *model.Session {
	if in == nil {
		return nil
	}
	cp := *in
	return &cp
}

// Bootstrap subscribes to the gateway's session feed. Only the first call
// has an effect. Every report overwrites the session and marks the store initialized.
func (s *SessionStore) Bootstrap() {
	s.once.Do(func() {
		unsub := s.gw.SubscribeToSessionChanges(s.observe)
		s.mu.Lock()
		s.unsubscribe = unsub
		s.mu.Unlock()
	})
}

// Close detaches from the session feed.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *SessionStore) observe(id *model.Identity) {
	var next *model.Session
	if id != nil {
		next = model.NewSession(*id)
	}
	s.mu.Lock()
	ended := s.replace(next)
	s.initialized = true
	s.mu.Unlock()

	s.log.Debug("session changed", zap.Bool("signed_in", next != nil))
	s.finish(ended)
}

// replace swaps the session and reports whether a previous one ended.
// Callers hold s.mu.
func (s *SessionStore) replace(next *model.Session) bool {
	prev := s.session
	s.session = next
	return prev != nil && (next == nil || next.UserID != prev.UserID)
}

func (s *SessionStore) finish(ended bool) {
	if ended {
		s.onEnd()
	}
	s.notify()
}

func (s *SessionStore) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	s.notify()
}

// authenticated stores the outcome of a sign-in style call.
func (s *SessionStore) authenticated(op string, id model.Identity, err error) error {
	s.mu.Lock()
	s.inflight--
	ended := false
	if err != nil {
		s.err = errs.Message(err)
	} else {
		ended = s.replace(model.NewSession(id))
		s.err = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Debug(op+" failed", zap.Error(err))
	}
	s.finish(ended)
	return err
}

// Login signs in with email and password.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.begin()
	id, err := s.gw.SignIn(ctx, email, password)
	return s.authenticated("login", id, err)
}

// Register creates the account and its profile, then signs in.
func (s *SessionStore) Register(ctx context.Context, name, email, password string) error {
	s.begin()
	id, err := s.gw.SignUp(ctx, name, email, password)
	return s.authenticated("register", id, err)
}

// Logout signs out remotely and always clears the local session and the
// cached records, even when the gateway call fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.begin()
	err := s.gw.SignOut(ctx)

	s.mu.Lock()
	s.inflight--
	s.session = nil
	if err != nil {
		s.err = errs.Message(err)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("sign out failed", zap.Error(err))
	}
	s.finish(true)
	return err
}

// ClearError forgets the last error.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// rename mirrors a confirmed display name change into the session.
func (s *SessionStore) rename(userID, name string) {
	s.mu.Lock()
	changed := s.session != nil && s.session.UserID == userID && s.session.DisplayName != name
	if changed {
		cp := *s.session
		cp.DisplayName = name
		s.session = &cp
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}
