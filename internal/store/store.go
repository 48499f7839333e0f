// Package store implements the Store (C2): the single embedded relational
// database backing bots, commands, knowledge databases, chat history,
// settings, and admin sessions. Grounded on the teacher's
// opencart/database/sql-client.go — a database/sql wrapper with an
// idempotent migration routine and a writer-serializing mutex — but backed
// by modernc.org/sqlite (a pure-Go, single-file driver) instead of MySQL,
// since spec.md requires "one embedded SQL database file at a configurable
// path", which a client/server database cannot provide.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Store wraps one *sql.DB. mu serializes writers, matching SQLite's
// single-writer model and the teacher's MySql.mu.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (if needed) the database file at path, applies migrations,
// and seeds first-start data (admin user, example databases, support_ai_*
// settings — spec.md §6).
func Open(path string, seedEmail, seedPasswordHash string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: one connection avoids SQLITE_BUSY under our own mutex anyway

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	if err := s.seed(seedEmail, seedPasswordHash); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: seed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS admin_users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS databases (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			token TEXT NOT NULL,
			telegram_username TEXT NOT NULL DEFAULT '',
			telegram_first_name TEXT NOT NULL DEFAULT '',
			telegram_bot_id INTEGER NOT NULL DEFAULT 0,
			api_url TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL DEFAULT '',
			ai_model TEXT NOT NULL DEFAULT '',
			system_prompt TEXT NOT NULL DEFAULT '',
			database_id TEXT NOT NULL DEFAULT '',
			memory_enabled INTEGER NOT NULL DEFAULT 0,
			memory_messages_count INTEGER NOT NULL DEFAULT 10,
			is_active INTEGER NOT NULL DEFAULT 0,
			is_running INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (database_id) REFERENCES databases(id) ON DELETE SET NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bots_active_running ON bots (is_active, is_running)`,
		`CREATE TABLE IF NOT EXISTS bot_commands (
			id TEXT PRIMARY KEY,
			bot_id TEXT NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			json_code TEXT NOT NULL DEFAULT '{}',
			is_active INTEGER NOT NULL DEFAULT 1,
			is_multi_command INTEGER NOT NULL DEFAULT 0,
			parent_multi_command_id TEXT NOT NULL DEFAULT '',
			allow_external_commands INTEGER NOT NULL DEFAULT 0,
			UNIQUE (bot_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_commands_bot_name_active ON bot_commands (bot_id, name, is_active)`,
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_id TEXT NOT NULL REFERENCES bots(id) ON DELETE CASCADE,
			chat_id INTEGER NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_bot_chat_ts ON chat_history (bot_id, chat_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
