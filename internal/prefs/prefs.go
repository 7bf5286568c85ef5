/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package prefs implements the user preference store: a flat string
// key/value surface with read-with-default and best-effort writes.
// Reads never fail from the caller's point of view; a missing key or a
// broken store yields the caller's default. Writes are fire-and-forget;
// failures are logged and swallowed so a broken disk degrades persistence,
// never the UI.
//
// Booleans are stored as the strings "true" and "false".
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	applog "soulsight/internal/log"
	"soulsight/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Store is the read/write surface the controllers depend on.
type Store interface {
	// Get returns the stored value for key, or def when the key is absent
	// or the store cannot be read.
	Get(key, def string) string
	// Set stores value under key. Failures are swallowed; persistence is
	// best effort.
	Set(key, value string)
}

// GetBool reads a boolean preference. Anything other than the literal
// strings "true" and "false" yields the default.
func GetBool(s Store, key string, def bool) bool {
	switch s.Get(key, "") {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// SetBool stores a boolean preference as "true"/"false".
func SetBool(s Store, key string, v bool) {
	if v {
		s.Set(key, "true")
		return
	}
	s.Set(key, "false")
}

// schemaVersion tracks the local SQLite schema for the preference database.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// DB is the durable Store backed by a single-file SQLite database.
type DB struct {
	db *sql.DB
	l  *slog.Logger
}

// Open ensures the preference database exists at path, opens it, enables WAL
// mode and brings the schema up to date. The returned *DB is ready for use.
func Open(path string) (*DB, error) {
	l := applog.WithOperation(applog.WithComponent("prefs"), "open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preference database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create prefs dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection is plenty for a preference store and avoids write races.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("preference store ready")
	return &DB{db: db, l: applog.WithComponent("prefs")}, nil
}

// Close releases the underlying database.
func (p *DB) Close() error { return p.db.Close() }

// Get implements Store. Any read failure, including a missing key, yields def.
func (p *DB) Get(key, def string) string {
	var v string
	err := p.db.QueryRow(`SELECT value FROM prefs WHERE key=?`, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return def
	case err != nil:
		p.l.Warn("preference read failed, using default",
			slog.String("key", key), slog.Any("err", err))
		return def
	}
	return v
}

// Set implements Store. Failures are logged and swallowed.
func (p *DB) Set(key, value string) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := p.db.Exec(
		`INSERT INTO prefs (key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, now)
	if err != nil {
		p.l.Warn("preference write failed",
			slog.String("key", key), slog.Any("err", err))
	}
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	// Current shape; the v1->v2 migration below upgrades files written by
	// older builds that lack updated_at.
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prefs (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT ''
	);`)
	if err != nil {
		return fmt.Errorf("create prefs table: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Track write times for support diagnostics.
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, `ALTER TABLE prefs ADD COLUMN updated_at TEXT NOT NULL DEFAULT '';`); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// Unknown future step; nothing to do
		}
		cur = next
	}
	return nil
}

// Mem is an in-memory Store for tests and headless runs.
type Mem struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMem returns an empty in-memory store.
func NewMem() *Mem { return &Mem{m: make(map[string]string)} }

func (m *Mem) Get(key, def string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.m[key]; ok {
		return v
	}
	return def
}

func (m *Mem) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
}

// Snapshot returns a copy of all stored pairs, for crash reports and the
// settings view.
func (m *Mem) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
