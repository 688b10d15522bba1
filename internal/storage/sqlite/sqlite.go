// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface. It keeps the same wholesale-flush semantics as
// the JSONL store: SaveAll replaces the whole directory inside one
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/ilievs/splitwise/internal/models"
	"github.com/ilievs/splitwise/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reconstructs the full user directory from the database.
func (s *SQLiteStore) Load(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username, password FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*models.User)
	var users []*models.User
	for rows.Next() {
		var username, password string
		if err := rows.Scan(&username, &password); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u := models.NewUser(username, password)
		byName[username] = u
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	if err := s.loadFriends(ctx, byName); err != nil {
		return nil, err
	}
	if err := s.loadGroups(ctx, byName); err != nil {
		return nil, err
	}

	return users, nil
}

func (s *SQLiteStore) loadFriends(ctx context.Context, byName map[string]*models.User) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT username, counterparty, balance, reasons FROM friends")
	if err != nil {
		return fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username, counterparty, reasons string
		var balance float64
		if err := rows.Scan(&username, &counterparty, &balance, &reasons); err != nil {
			return fmt.Errorf("failed to scan friend entry: %w", err)
		}

		u, ok := byName[username]
		if !ok {
			continue
		}
		entry := u.EntryOrCreate(counterparty)
		entry.Balance = balance
		if err := json.Unmarshal([]byte(reasons), &entry.Reasons); err != nil {
			return fmt.Errorf("corrupt reason log for %s/%s: %w", username, counterparty, err)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadGroups(ctx context.Context, byName map[string]*models.User) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, creator, name, reasons FROM groups")
	if err != nil {
		return fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := make(map[string]*models.Group)
	for rows.Next() {
		var id, creator, name, reasons string
		if err := rows.Scan(&id, &creator, &name, &reasons); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}

		g := models.NewGroup(name)
		if err := json.Unmarshal([]byte(reasons), &g.Reasons); err != nil {
			return fmt.Errorf("corrupt reason log for group %s: %w", name, err)
		}
		groups[id] = g
		if u, ok := byName[creator]; ok {
			u.AddGroup(g)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	memberRows, err := s.db.QueryContext(ctx,
		"SELECT group_id, member, balance FROM group_members")
	if err != nil {
		return fmt.Errorf("failed to query group members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var groupID, member string
		var balance float64
		if err := memberRows.Scan(&groupID, &member, &balance); err != nil {
			return fmt.Errorf("failed to scan group member: %w", err)
		}
		if g, ok := groups[groupID]; ok {
			g.Members[member] = balance
		}
	}
	return memberRows.Err()
}

// SaveAll replaces the whole directory: existing rows are deleted and the
// given users inserted inside a single transaction.
func (s *SQLiteStore) SaveAll(ctx context.Context, users []*models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascades wipe friends, groups and group_members.
	if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	for _, u := range users {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, tx *sql.Tx, u *models.User) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password) VALUES (?, ?)",
		u.Username, u.Password,
	); err != nil {
		return fmt.Errorf("failed to insert user %q: %w", u.Username, err)
	}

	for counterparty, entry := range u.Friends {
		reasons, err := json.Marshal(entry.Reasons)
		if err != nil {
			return fmt.Errorf("failed to encode reasons for %s/%s: %w", u.Username, counterparty, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO friends (username, counterparty, balance, reasons) VALUES (?, ?, ?, ?)",
			u.Username, counterparty, entry.Balance, string(reasons),
		); err != nil {
			return fmt.Errorf("failed to insert friend entry %s/%s: %w", u.Username, counterparty, err)
		}
	}

	for _, g := range u.Groups {
		reasons, err := json.Marshal(g.Reasons)
		if err != nil {
			return fmt.Errorf("failed to encode reasons for group %q: %w", g.Name, err)
		}

		id := uuid.New().String()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO groups (id, creator, name, reasons) VALUES (?, ?, ?, ?)",
			id, u.Username, g.Name, string(reasons),
		); err != nil {
			return fmt.Errorf("failed to insert group %q: %w", g.Name, err)
		}
		for member, balance := range g.Members {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO group_members (group_id, member, balance) VALUES (?, ?, ?)",
				id, member, balance,
			); err != nil {
				return fmt.Errorf("failed to insert member %q of group %q: %w", member, g.Name, err)
			}
		}
	}

	return nil
}
