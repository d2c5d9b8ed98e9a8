package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers, which SQLite does anyway.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// User methods

// GetUserByUID returns nil, nil when the user does not exist.
func (s *SQLiteStore) GetUserByUID(ctx context.Context, uid string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT id, uid, password_hash, is_admin, created_at FROM users WHERE uid = ?", uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, uid, passwordHash string, isAdmin bool) (*User, error) {
	_, err := s.db.ExecContext(ctx, "INSERT INTO users (uid, password_hash, is_admin) VALUES (?, ?, ?)", uid, passwordHash, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.GetUserByUID(ctx, uid)
}

// DeleteUser removes the account together with everything scoped to it.
// It reports false when no such user existed.
func (s *SQLiteStore) DeleteUser(ctx context.Context, uid string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE uid = ?", uid)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM preferences WHERE uid = ?", uid); err != nil {
		return false, fmt.Errorf("failed to delete user preferences: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM filecache WHERE uid = ?", uid); err != nil {
		return false, fmt.Errorf("failed to delete user files: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing user deletion: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// App config methods

func (s *SQLiteStore) GetAppValue(ctx context.Context, appID, key, defaultValue string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT configvalue FROM appconfig WHERE appid = ? AND configkey = ?", appID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultValue, nil
		}
		return "", fmt.Errorf("failed to read app value %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetAppValue(ctx context.Context, appID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appconfig (appid, configkey, configvalue) VALUES (?, ?, ?)
		ON CONFLICT (appid, configkey) DO UPDATE SET configvalue = excluded.configvalue`,
		appID, key, value)
	if err != nil {
		return fmt.Errorf("failed to write app value %s: %w", key, err)
	}
	return nil
}

// User config methods

func (s *SQLiteStore) GetUserValue(ctx context.Context, uid, appID, key, defaultValue string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT configvalue FROM preferences WHERE uid = ? AND appid = ? AND configkey = ?", uid, appID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return defaultValue, nil
		}
		return "", fmt.Errorf("failed to read user value %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) SetUserValue(ctx context.Context, uid, appID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (uid, appid, configkey, configvalue) VALUES (?, ?, ?, ?)
		ON CONFLICT (uid, appid, configkey) DO UPDATE SET configvalue = excluded.configvalue`,
		uid, appID, key, value)
	if err != nil {
		return fmt.Errorf("failed to write user value %s: %w", key, err)
	}
	return nil
}

// File index methods

// EnsureFileEntry returns the id for path, allocating one on first sight.
func (s *SQLiteStore) EnsureFileEntry(ctx context.Context, uid, path string) (int64, error) {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO filecache (uid, path) VALUES (?, ?)", uid, path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert file entry: %w", err)
	}
	var id int64
	if err := s.db.GetContext(ctx, &id, "SELECT fileid FROM filecache WHERE uid = ? AND path = ?", uid, path); err != nil {
		return 0, fmt.Errorf("failed to read file entry: %w", err)
	}
	return id, nil
}

// GetFileEntry returns nil, nil when the id is unknown for this user.
func (s *SQLiteStore) GetFileEntry(ctx context.Context, uid string, fileID int64) (*FileEntry, error) {
	var entry FileEntry
	err := s.db.GetContext(ctx, &entry, "SELECT fileid, uid, path FROM filecache WHERE uid = ? AND fileid = ?", uid, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query file entry: %w", err)
	}
	return &entry, nil
}

func (s *SQLiteStore) ListFileEntries(ctx context.Context, uid string) ([]FileEntry, error) {
	var entries []FileEntry
	err := s.db.SelectContext(ctx, &entries, "SELECT fileid, uid, path FROM filecache WHERE uid = ? ORDER BY fileid", uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list file entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) DeleteFileEntry(ctx context.Context, uid string, fileID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM filecache WHERE uid = ? AND fileid = ?", uid, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file entry: %w", err)
	}
	return nil
}
