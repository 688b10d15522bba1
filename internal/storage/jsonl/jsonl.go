// Package jsonl persists the user directory as a line-oriented file: one
// self-describing JSON record per user, one record per line. The file is
// overwritten wholesale on every save.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilievs/splitwise/internal/models"
	"github.com/ilievs/splitwise/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store reads and writes the user directory at a fixed file path.
type Store struct {
	path string
}

// New creates a JSONL store at path, creating parent directories as
// needed. The file itself appears on the first save.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load reads every persisted user. A store that was never saved yields an
// empty directory.
func (s *Store) Load(_ context.Context) ([]*models.User, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %q: %w", s.path, err)
	}
	defer f.Close()

	var users []*models.User
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("format error in %q on line %d: %w", s.path, line, err)
		}
		users = append(users, &u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", s.path, err)
	}

	return users, nil
}

// SaveAll replaces the file with exactly the given users. The new content
// is written to a temporary file first and moved into place, so a failed
// save never leaves a half-written directory behind.
func (s *Store) SaveAll(_ context.Context, users []*models.User) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, u := range users {
		record, err := json.Marshal(u)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode user %q: %w", u.Username, err)
		}
		if _, err := w.Write(append(record, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write user %q: %w", u.Username, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error {
	return nil
}
