// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It's a pure Go translation of SQLite — no CGo, no C compiler, painless
// cross-compilation. The blank import below registers it with database/sql
// as the "sqlite" driver.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns its lifecycle: New opens it, Close releases
// the file lock on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force a real connection now so a bad path fails at startup, not on
	// the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed concurrently with a write — important for a
	// web server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The portfolio→asset
	// cascade delete depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Per-entity repositories share the one connection pool. Keeping them as
// separate types (instead of piling every method onto DB) keeps each
// repository interface implemented in its own file.

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

type PortfolioRepo struct{ db *DB }

func NewPortfolioRepo(db *DB) *PortfolioRepo { return &PortfolioRepo{db: db} }

type AssetRepo struct{ db *DB }

func NewAssetRepo(db *DB) *AssetRepo { return &AssetRepo{db: db} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	// users: email is the uniqueness key for every account kind; wallet
	// users additionally get a UNIQUE wallet_address so a concurrent pair
	// of first logins for one wallet can't double-create (the loser of the
	// race retries as a lookup).
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			email          TEXT NOT NULL UNIQUE,
			nickname       TEXT NOT NULL,
			password_hash  TEXT,
			wallet_address TEXT UNIQUE,
			provider       TEXT NOT NULL DEFAULT 'local',
			provider_id    TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_provider ON users(provider, provider_id);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS portfolios (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			name    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_portfolios_user_id ON portfolios(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating portfolios table: %w", err)
	}

	// ON DELETE CASCADE: a portfolio exclusively owns its assets.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS assets (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id  INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			asset_type    TEXT NOT NULL,
			ticker        TEXT NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			quantity      REAL NOT NULL,
			avg_buy_price REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_assets_portfolio_id ON assets(portfolio_id);
	`)
	if err != nil {
		return fmt.Errorf("creating assets table: %w", err)
	}

	return nil
}
