/*
Package session is the portal's explicit session store.

PURPOSE:
  A session binds a browser cookie to the backend token and teacher profile
  returned at login. It replaces ad-hoc token reads and writes scattered
  through the UI with one store that has a defined lifecycle.

LIFECYCLE:
  Init      loads persisted sessions, dropping expired ones
  Login     creates a session (the only way one comes into existence)
  Logout    removes one session
  Teardown  removes every session, in memory and on disk

  Get is read-only apart from evicting a session it finds expired.

EXPIRY:
  A session expires when the backend token does: the token's "exp" claim
  is read without verification (the backend verifies). Tokens without
  "exp" get the manager's default TTL.

PERSISTENCE:
  Sessions are written through to a Persistence so that restarts keep users
  logged in. store/sqlite.Store is the production implementation; Memory
  serves tests and ":memory:" setups.

SEE ALSO:
  - sweeper.go: Periodic purge of expired sessions
  - store/sqlite/sqlite.go: SQLite persistence
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-portal/leave"
	"go.uber.org/zap"
)

var (
	ErrNoSession      = errors.New("no session")
	ErrSessionExpired = errors.New("session expired")
	ErrEmptyToken     = errors.New("empty token")
	ErrTokenExpired   = errors.New("token already expired")
)

// Session is one logged-in browser.
type Session struct {
	ID        string           `json:"id"`
	Token     string           `json:"-"`
	Teacher   leave.TeacherRef `json:"teacher"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Persistence stores sessions across restarts.
type Persistence interface {
	SaveSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]Session, error)
	ClearSessions(ctx context.Context) error
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the live session set. It is safe for concurrent use.
type Manager struct {
	persistence Persistence
	defaultTTL  time.Duration
	logger      *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager creates an empty manager. Call Init before serving requests.
func NewManager(p Persistence, defaultTTL time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		persistence: p,
		defaultTTL:  defaultTTL,
		logger:      logger.Named("session"),
		Now:         time.Now,
		sessions:    make(map[string]Session),
	}
}

// Init loads persisted sessions. Expired ones are deleted from persistence
// instead of being loaded.
func (m *Manager) Init(ctx context.Context) error {
	stored, err := m.persistence.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	now := m.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for _, s := range stored {
		if s.Expired(now) {
			if err := m.persistence.DeleteSession(ctx, s.ID); err != nil {
				return fmt.Errorf("failed to drop expired session: %w", err)
			}
			dropped++
			continue
		}
		m.sessions[s.ID] = s
	}

	m.logger.Info("sessions restored",
		zap.Int("active", len(m.sessions)),
		zap.Int("dropped", dropped))
	return nil
}

// Login starts a session for a token the backend just issued.
func (m *Manager) Login(ctx context.Context, token string, teacher leave.TeacherRef) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrEmptyToken
	}

	now := m.Now()
	expires, ok := TokenExpiry(token)
	if !ok {
		expires = now.Add(m.defaultTTL)
	}
	if !now.Before(expires) {
		return Session{}, ErrTokenExpired
	}

	s := Session{
		ID:        uuid.NewString(),
		Token:     token,
		Teacher:   teacher,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.persistence.SaveSession(ctx, s); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("login",
		zap.String("session_id", s.ID),
		zap.String("teacher", teacher.Key()),
		zap.Time("expires_at", expires))
	return s, nil
}

// Logout ends a session. Unknown ids are not an error.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	_, known := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if err := m.persistence.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if known {
		m.logger.Info("logout", zap.String("session_id", id))
	}
	return nil
}

// Get returns a live session. An expired session is evicted and reported
// as ErrSessionExpired.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return Session{}, ErrNoSession
	}
	if s.Expired(m.Now()) {
		if err := m.Logout(ctx, id); err != nil {
			m.logger.Warn("failed to evict expired session", zap.String("session_id", id), zap.Error(err))
		}
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

// Sweep removes every expired session and returns how many were removed.
// On a persistence failure the count covers the deletions made so far.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	now := m.Now()

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.Expired(now) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for i, id := range expired {
		if err := m.persistence.DeleteSession(ctx, id); err != nil {
			return i, fmt.Errorf("failed to delete session: %w", err)
		}
	}
	return len(expired), nil
}

// Teardown clears every session.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	m.sessions = make(map[string]Session)
	m.mu.Unlock()

	if err := m.persistence.ClearSessions(ctx); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	m.logger.Info("sessions cleared")
	return nil
}

// Count returns the number of live sessions, expired or not.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
