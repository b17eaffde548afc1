package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scores (
	sig   TEXT PRIMARY KEY,
	score INTEGER NOT NULL
) WITHOUT ROWID`

// SQLiteStore keeps scores in a sqlite file so they survive restarts.
type SQLiteStore struct {
	db  *sql.DB
	get *sql.Stmt
	set *sql.Stmt
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := initSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store %s: %w", path, err)
	}
	st := &SQLiteStore{db: db}
	if st.get, err = db.Prepare(`SELECT score FROM scores WHERE sig = ?`); err != nil {
		db.Close()
		return nil, err
	}
	if st.set, err = db.Prepare(`INSERT INTO scores (sig, score) VALUES (?, ?)
		ON CONFLICT(sig) DO UPDATE SET score = excluded.score`); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func initSQLite(db *sql.DB) error {
	for _, q := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = NORMAL`,
		sqliteSchema,
	} {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (int32, bool, error) {
	var v int32
	err := s.get.QueryRowContext(ctx, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, score int32) error {
	_, err := s.set.ExecContext(ctx, key, score)
	return err
}

func (s *SQLiteStore) Close() error {
	s.get.Close()
	s.set.Close()
	return s.db.Close()
}
