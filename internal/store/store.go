// Package store implements the SQLite datastore for campaigns, posts,
// comments, social accounts, and subreddit approvals.
//
// Reads that feed quota and interval checks are deliberately NOT wrapped in
// transactions with their subsequent writes; two concurrent ticks can both
// pass a check before either writes, causing a small overshoot. Deletions,
// by contrast, are all-or-nothing transactions.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cloutfarm/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// New opens (or creates) the SQLite database at the given path.
// Use ":memory:" for an ephemeral store in tests.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.New")
	defer timer.Stop()

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("failed to enable sqlite foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("store ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		platforms TEXT NOT NULL,
		post_quotas TEXT,
		posts_per_subreddit INTEGER NOT NULL DEFAULT 0,
		min_post_interval_hours REAL NOT NULL DEFAULT 0,
		max_post_interval_hours REAL NOT NULL DEFAULT 0,
		min_reply_interval_hours REAL NOT NULL DEFAULT 0,
		max_reply_interval_hours REAL NOT NULL DEFAULT 0,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		topic TEXT,
		target_url TEXT,
		style_notes TEXT,
		is_running BOOLEAN NOT NULL DEFAULT 0,
		simulation_mode BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		subreddit TEXT,
		account_id TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_campaign ON posts(campaign_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_platform ON posts(campaign_id, platform);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		parent_comment_id TEXT,
		content TEXT NOT NULL,
		status TEXT NOT NULL,
		sentiment REAL,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
	CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_comment_id);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		username TEXT NOT NULL,
		credential TEXT NOT NULL,
		status TEXT NOT NULL,
		persona TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_platform ON accounts(platform, status);

	CREATE TABLE IF NOT EXISTS subreddit_approvals (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		subreddit TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(campaign_id, subreddit)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
