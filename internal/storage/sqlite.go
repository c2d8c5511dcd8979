package storage

import (
	"context"
	"database/sql"
	"errors"

	replayr "github.com/HRemonen/Replayr"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS request (
	id      INTEGER PRIMARY KEY,
	method  TEXT NOT NULL,
	url     TEXT NOT NULL,
	headers TEXT NOT NULL,
	body    TEXT NOT NULL
)`

// SQLite is a Store kept in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens the database at path, creating the file and schema if needed.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection avoids SQLITE_BUSY between our own writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(ctx context.Context, req replayr.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	// Both column types are text; invalid bytes would not read back the same.
	if err := req.ValidateUTF8(); err != nil {
		return err
	}

	headers, err := encodeHeaders(req.Headers())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM request WHERE id = ?`, req.ID()).Scan(&exists)
	switch {
	case err == nil:
		return replayr.DuplicateID(req.ID())
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO request (id, method, url, headers, body) VALUES (?, ?, ?, ?, ?)`,
		req.ID(), req.Method().String(), req.URL(), headers, req.Body())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLite) Get(ctx context.Context, id int64) (replayr.Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, method, url, headers, body FROM request WHERE id = ?`, id)

	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return replayr.Request{}, replayr.NotFound(id)
	}

	return req, err
}

func (s *SQLite) List(ctx context.Context) ([]replayr.Request, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, method, url, headers, body FROM request ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]replayr.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}

		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM request WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return replayr.NotFound(id)
	}

	return nil
}

func (s *SQLite) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM request`).Scan(&id)

	return id, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
