package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultSessionKey is the auth_sessions row used for the configured account.
const DefaultSessionKey = "default"

// FileAuthStore keeps the session as a JSON file.
type FileAuthStore struct {
	path string
}

// NewFileAuthStore returns a store backed by the file at path.
func NewFileAuthStore(path string) *FileAuthStore {
	return &FileAuthStore{path: path}
}

// Load reads the session file. A missing file yields nil, nil.
func (s *FileAuthStore) Load(context.Context) (*AuthData, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth file: %w", err)
	}

	var auth AuthData
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("parsing auth file: %w", err)
	}
	return &auth, nil
}

// Save writes the session file, owner-readable only.
func (s *FileAuthStore) Save(_ context.Context, auth AuthData) error {
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("encoding auth data: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating auth directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (s *FileAuthStore) Clear(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// SQLiteAuthStore keeps the session in the auth_sessions table.
type SQLiteAuthStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteAuthStore returns a store for the auth_sessions row named key.
// An empty key means DefaultSessionKey.
func NewSQLiteAuthStore(db *sql.DB, key string) *SQLiteAuthStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SQLiteAuthStore{db: db, key: key}
}

// Load returns the stored session or nil, nil when the row is absent.
func (s *SQLiteAuthStore) Load(ctx context.Context) (*AuthData, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM auth_sessions WHERE id = ?", s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying auth session: %w", err)
	}

	var auth AuthData
	if err := json.Unmarshal([]byte(data), &auth); err != nil {
		return nil, fmt.Errorf("parsing auth session: %w", err)
	}
	return &auth, nil
}

// Save inserts or replaces the session row.
func (s *SQLiteAuthStore) Save(ctx context.Context, auth AuthData) error {
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("encoding auth data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving auth session: %w", err)
	}
	return nil
}

// Clear deletes the session row.
func (s *SQLiteAuthStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE id = ?", s.key); err != nil {
		return fmt.Errorf("clearing auth session: %w", err)
	}
	return nil
}
