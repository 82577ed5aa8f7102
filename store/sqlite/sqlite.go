/*
Package sqlite provides SQLite-backed session persistence.

PURPOSE:
  Implements session.Persistence so that portal sessions survive a
  restart. Leave records are never stored here; the backend owns them.

KEY TABLES:
  sessions: One row per logged-in browser (token, teacher profile, expiry)

INDEXES:
  - idx_sessions_expires_at: Expiry sweeps and restore-time cleanup

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave-portal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  manager := session.NewManager(store, 24*time.Hour, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - session/session.go: Persistence interface and Manager
  - session/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-portal/leave"
	"github.com/warp/leave-portal/session"
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements session.Persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ session.Persistence = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL,
		teacher_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at
		ON sessions(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SESSION STORE
// =============================================================================

// SaveSession inserts or replaces a session.
func (s *Store) SaveSession(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	teacherJSON, err := json.Marshal(sess.Teacher)
	if err != nil {
		return fmt.Errorf("failed to encode teacher: %w", err)
	}

	query := `
		INSERT INTO sessions (id, token, teacher_json, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			teacher_json = excluded.teacher_json,
			expires_at = excluded.expires_at
	`
	_, err = s.db.ExecContext(ctx, query,
		sess.ID,
		sess.Token,
		string(teacherJSON),
		sess.CreatedAt.UTC().Format(timeLayout),
		sess.ExpiresAt.UTC().Format(timeLayout),
	)
	return err
}

// DeleteSession removes a session. Missing ids are not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// ListSessions returns all sessions, oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, token, teacher_json, created_at, expires_at FROM sessions ORDER BY created_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var sess session.Session
		var teacherJSON, createdAt, expiresAt string
		if err := rows.Scan(&sess.ID, &sess.Token, &teacherJSON, &createdAt, &expiresAt); err != nil {
			return nil, err
		}
		var teacher leave.TeacherRef
		if err := json.Unmarshal([]byte(teacherJSON), &teacher); err != nil {
			return nil, fmt.Errorf("session %s: corrupt teacher: %w", sess.ID, err)
		}
		sess.Teacher = teacher
		if sess.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("session %s: corrupt created_at: %w", sess.ID, err)
		}
		if sess.ExpiresAt, err = time.Parse(timeLayout, expiresAt); err != nil {
			return nil, fmt.Errorf("session %s: corrupt expires_at: %w", sess.ID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ClearSessions deletes every session.
func (s *Store) ClearSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions")
	return err
}
