package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/session"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	t0   = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	ann  = leave.TeacherRef{ID: "t1", Name: "Ann", Department: "Math"}
	ctxb = context.Background()
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, p session.Persistence) (*session.Manager, *clock) {
	t.Helper()
	c := &clock{now: t0}
	m := session.NewManager(p, 24*time.Hour, nil)
	m.Now = c.Now
	require.NoError(t, m.Init(ctxb))
	return m, c
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// =============================================================================
// TOKEN EXPIRY
// =============================================================================

func TestTokenExpiry(t *testing.T) {
	exp := t0.Add(2 * time.Hour)

	got, ok := session.TokenExpiry(signedToken(t, jwt.MapClaims{"sub": "t1", "exp": exp.Unix()}))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = session.TokenExpiry(signedToken(t, jwt.MapClaims{"sub": "t1"}))
	assert.False(t, ok, "no exp claim")

	_, ok = session.TokenExpiry("opaque-token")
	assert.False(t, ok)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestManager_Login_UsesTokenExpiry(t *testing.T) {
	// GIVEN: A backend token expiring in 2 hours
	// WHEN: Logging in
	// THEN: The session expires with the token, not after the default TTL

	m, _ := newTestManager(t, session.NewMemory())
	tok := signedToken(t, jwt.MapClaims{"exp": t0.Add(2 * time.Hour).Unix()})

	s, err := m.Login(ctxb, tok, ann)

	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, t0.Add(2*time.Hour).Unix(), s.ExpiresAt.Unix())
}

func TestManager_Login_DefaultTTL(t *testing.T) {
	m, _ := newTestManager(t, session.NewMemory())

	s, err := m.Login(ctxb, "opaque", ann)

	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), s.ExpiresAt)
}

func TestManager_Login_Rejections(t *testing.T) {
	m, _ := newTestManager(t, session.NewMemory())

	_, err := m.Login(ctxb, "  ", ann)
	assert.ErrorIs(t, err, session.ErrEmptyToken)

	stale := signedToken(t, jwt.MapClaims{"exp": t0.Add(-time.Minute).Unix()})
	_, err = m.Login(ctxb, stale, ann)
	assert.ErrorIs(t, err, session.ErrTokenExpired)

	assert.Zero(t, m.Count())
}

func TestManager_GetLogout(t *testing.T) {
	m, _ := newTestManager(t, session.NewMemory())
	s, err := m.Login(ctxb, "opaque", ann)
	require.NoError(t, err)

	got, err := m.Get(ctxb, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ann, got.Teacher)

	require.NoError(t, m.Logout(ctxb, s.ID))
	_, err = m.Get(ctxb, s.ID)
	assert.ErrorIs(t, err, session.ErrNoSession)

	assert.NoError(t, m.Logout(ctxb, "unknown"), "unknown ids are ignored")
}

func TestManager_Get_EvictsExpired(t *testing.T) {
	p := session.NewMemory()
	m, c := newTestManager(t, p)
	s, err := m.Login(ctxb, "opaque", ann)
	require.NoError(t, err)

	c.Advance(25 * time.Hour)
	_, err = m.Get(ctxb, s.ID)

	assert.ErrorIs(t, err, session.ErrSessionExpired)
	stored, _ := p.ListSessions(ctxb)
	assert.Empty(t, stored)
}

func TestManager_Init_RestoresAndDropsExpired(t *testing.T) {
	// GIVEN: Persisted sessions from a previous run, one expired
	// WHEN: A new manager initializes
	// THEN: The live one is restored and the expired one deleted

	p := session.NewMemory()
	require.NoError(t, p.SaveSession(ctxb, session.Session{ID: "live", Token: "a", Teacher: ann, CreatedAt: t0, ExpiresAt: t0.Add(time.Hour)}))
	require.NoError(t, p.SaveSession(ctxb, session.Session{ID: "old", Token: "b", Teacher: ann, CreatedAt: t0.Add(-48 * time.Hour), ExpiresAt: t0.Add(-time.Hour)}))

	m, _ := newTestManager(t, p)

	assert.Equal(t, 1, m.Count())
	_, err := m.Get(ctxb, "live")
	assert.NoError(t, err)
	stored, _ := p.ListSessions(ctxb)
	require.Len(t, stored, 1)
	assert.Equal(t, "live", stored[0].ID)
}

func TestManager_SweepAndTeardown(t *testing.T) {
	p := session.NewMemory()
	m, c := newTestManager(t, p)

	_, err := m.Login(ctxb, signedToken(t, jwt.MapClaims{"exp": t0.Add(time.Hour).Unix()}), ann)
	require.NoError(t, err)
	_, err = m.Login(ctxb, "opaque", ann)
	require.NoError(t, err)

	c.Advance(2 * time.Hour)
	removed, err := m.Sweep(ctxb)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Teardown(ctxb))
	assert.Zero(t, m.Count())
	stored, _ := p.ListSessions(ctxb)
	assert.Empty(t, stored)
}

// flakyStore fails every DeleteSession after the first allowed ones.
type flakyStore struct {
	*session.Memory
	allowed int
}

func (f *flakyStore) DeleteSession(ctx context.Context, id string) error {
	if f.allowed == 0 {
		return errors.New("disk full")
	}
	f.allowed--
	return f.Memory.DeleteSession(ctx, id)
}

func TestManager_Sweep_PartialFailureReportsProgress(t *testing.T) {
	// GIVEN: Three expired sessions and a store that fails on the second delete
	// WHEN: Sweeping
	// THEN: The error is returned with the one deletion that succeeded

	p := &flakyStore{Memory: session.NewMemory(), allowed: 1}
	m, c := newTestManager(t, p)
	for i := 0; i < 3; i++ {
		_, err := m.Login(ctxb, "opaque", ann)
		require.NoError(t, err)
	}

	c.Advance(48 * time.Hour)
	removed, err := m.Sweep(ctxb)

	require.Error(t, err)
	assert.Equal(t, 1, removed)
}

func TestSweeper_StartStop(t *testing.T) {
	m, _ := newTestManager(t, session.NewMemory())
	sw := session.NewSweeper(m, time.Hour, nil)

	sw.Start()
	sw.Start()
	sw.Stop()
	sw.Stop()

	sw.Start()
	sw.Stop()

	disabled := session.NewSweeper(m, 0, nil)
	disabled.Start()
	disabled.Stop()
}
