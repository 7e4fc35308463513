package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/fitbit-mcp/auth"

	_ "modernc.org/sqlite"
)

const tokensDDL = `CREATE TABLE IF NOT EXISTS tokens (
	account_key TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	scope TEXT NOT NULL,
	token_type TEXT NOT NULL
)`

// TableStore persists token records in one logical table with upsert-by-key
// semantics, one record per row.
type TableStore struct {
	db     *sql.DB
	prefix string
}

// NewTableStore opens the database and ensures the tokens table exists.
func NewTableStore(ctx context.Context, driver, dsn, prefix string) (*TableStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store %q: %w", driver, err)
	}
	if _, err = db.ExecContext(ctx, tokensDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize token store: %w", err)
	}
	return &TableStore{db: db, prefix: prefix}, nil
}

func (t *TableStore) rowKey(key string) string {
	return t.prefix + key
}

func (t *TableStore) Get(ctx context.Context, key string) (*auth.Token, bool, error) {
	row := t.db.QueryRowContext(ctx,
		"SELECT access_token, refresh_token, expires_at, scope, token_type FROM tokens WHERE account_key = ?",
		t.rowKey(key))
	token := &auth.Token{}
	err := row.Scan(&token.AccessToken, &token.RefreshToken, &token.ExpiresAt, &token.Scope, &token.TokenType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return token, true, nil
}

func (t *TableStore) Set(ctx context.Context, key string, token *auth.Token) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO tokens (account_key, access_token, refresh_token, expires_at, scope, token_type)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_key) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires_at = excluded.expires_at,
		   scope = excluded.scope,
		   token_type = excluded.token_type`,
		t.rowKey(key), token.AccessToken, token.RefreshToken, token.ExpiresAt, token.Scope, token.TokenType)
	return err
}

func (t *TableStore) Clear(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx, "DELETE FROM tokens WHERE account_key = ?", t.rowKey(key))
	return err
}

// Close releases the underlying database handle.
func (t *TableStore) Close() error {
	return t.db.Close()
}
