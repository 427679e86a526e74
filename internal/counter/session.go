package counter

import (
	"errors"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"

	"github.com/bobaclub/counter/internal/apiclient"
	"github.com/bobaclub/counter/internal/vault"
)

const sessionVaultKey = "session"

// User is the signed-in staff member as reported by the auth service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Session holds the authenticated state of this counter terminal. It
// is created on sign-in, persisted sealed at rest, rehydrated at
// process start, mutated in place on token refresh, and destroyed on
// sign-out or unrecoverable auth failure.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	Permissions  []string  `json:"permissions"`
}

// SessionStore is the single process-wide owner of the session. It is
// the API client's token source, and it notifies subscribers when the
// session is replaced or destroyed.
type SessionStore struct {
	mu      sync.RWMutex
	current *Session
	vault   *vault.Vault
	logger  aqm.Logger
	subs    []func(*Session)
}

var _ apiclient.SessionSource = (*SessionStore)(nil)

func NewSessionStore(v *vault.Vault, logger aqm.Logger) *SessionStore {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &SessionStore{vault: v, logger: logger}
}

// Rehydrate loads a previously persisted session, if any.
func (s *SessionStore) Rehydrate() {
	if s.vault == nil {
		return
	}

	var sess Session
	if err := s.vault.GetSealed(sessionVaultKey, &sess); err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			s.logger.Info("cannot rehydrate session", "error", err)
		}
		return
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.logger.Info("session rehydrated", "username", sess.User.Username)
	s.notify(&sess)
}

// SignIn replaces the current session and persists it.
func (s *SessionStore) SignIn(sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	s.persist(sess)
	s.notify(sess)
	return nil
}

// Current returns a copy of the session, or nil when signed out.
func (s *SessionStore) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	dup := *s.current
	return &dup
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.AccessToken != ""
}

// HasPermission reports whether the session carries perm.
func (s *SessionStore) HasPermission(perm string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return false
	}
	for _, p := range s.current.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AccessToken implements apiclient.SessionSource.
func (s *SessionStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// RefreshToken implements apiclient.SessionSource.
func (s *SessionStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.RefreshToken
}

// ApplyRefresh updates the access token and its expiry in place,
// leaving the refresh token and user untouched.
func (s *SessionStore) ApplyRefresh(accessToken string, expiresAt time.Time) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current.AccessToken = accessToken
	s.current.ExpiresAt = expiresAt
	dup := *s.current
	s.mu.Unlock()

	s.persist(&dup)
}

// Invalidate destroys the session, in memory and at rest.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	wasSignedIn := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if s.vault != nil {
		if err := s.vault.Delete(sessionVaultKey); err != nil {
			s.logger.Error("cannot delete persisted session", "error", err)
		}
	}
	if wasSignedIn {
		s.logger.Info("session invalidated")
	}
	s.notify(nil)
}

// Subscribe registers fn to run after every session change. A nil
// session means signed out.
func (s *SessionStore) Subscribe(fn func(*Session)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *SessionStore) persist(sess *Session) {
	if s.vault == nil {
		return
	}
	if err := s.vault.PutSealed(sessionVaultKey, sess); err != nil {
		s.logger.Error("cannot persist session", "error", err)
	}
}

func (s *SessionStore) notify(sess *Session) {
	s.mu.RLock()
	subs := make([]func(*Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(sess)
	}
}
