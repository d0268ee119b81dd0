package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDatabase(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	var err error
	DB, err = sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := DB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err = createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func createTables() error {
	// Uniqueness invariants live in the schema, not in application reads:
	// one book per (owner, title, author), one plan per owner, one statistic
	// per (owner, plan, date). Concurrent writers hit the UNIQUE index and
	// get a conflict instead of silently duplicating.
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        access_token TEXT DEFAULT '',
        refresh_token TEXT DEFAULT '',
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS books (
        id TEXT PRIMARY KEY,
        owner TEXT NOT NULL,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        publish_year INTEGER NOT NULL,
        pages_total INTEGER NOT NULL CHECK (pages_total BETWEEN 1 AND 5000),
        pages_finished INTEGER NOT NULL DEFAULT 0 CHECK (pages_finished >= 0 AND pages_finished <= pages_total),
        rating INTEGER CHECK (rating BETWEEN 1 AND 5),
        feedback TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE,
        UNIQUE (owner, title, author)
    );

    CREATE TABLE IF NOT EXISTS plans (
        id TEXT PRIMARY KEY,
        owner TEXT UNIQUE NOT NULL,
        start_date TEXT NOT NULL,
        end_date TEXT NOT NULL,
        status TEXT NOT NULL DEFAULT 'idle',
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS plan_books (
        plan_id TEXT NOT NULL,
        book_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        PRIMARY KEY (plan_id, book_id),
        FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE,
        FOREIGN KEY (book_id) REFERENCES books(id)
    );

    CREATE TABLE IF NOT EXISTS statistics (
        id TEXT PRIMARY KEY,
        owner TEXT NOT NULL,
        plan_id TEXT NOT NULL,
        date TEXT NOT NULL,
        pages_per_day INTEGER NOT NULL,
        events TEXT NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE,
        FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE,
        UNIQUE (owner, plan_id, date)
    );

    CREATE TABLE IF NOT EXISTS history (
        id TEXT PRIMARY KEY,
        owner TEXT NOT NULL,
        start_date TEXT NOT NULL,
        end_date TEXT NOT NULL,
        completion_date TEXT NOT NULL,
        status TEXT NOT NULL,
        statistics TEXT NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_books_owner ON books(owner);
    CREATE INDEX IF NOT EXISTS idx_statistics_plan ON statistics(plan_id);
    CREATE INDEX IF NOT EXISTS idx_history_owner ON history(owner);
    `

	_, err := DB.Exec(schema)
	return err
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure on the
// given index columns, e.g. IsUniqueViolation(err, "plans.owner").
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+constraint)
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
