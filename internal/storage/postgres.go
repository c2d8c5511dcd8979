package storage

import (
	"context"
	"errors"

	replayr "github.com/HRemonen/Replayr"
	"github.com/jackc/pgx"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS request (
	id      BIGINT PRIMARY KEY,
	method  TEXT NOT NULL,
	url     TEXT NOT NULL,
	headers TEXT NOT NULL,
	body    TEXT NOT NULL
)`

// uniqueViolation is the SQLSTATE for a primary key conflict.
const uniqueViolation = "23505"

// Postgres is a Store backed by a PostgreSQL connection pool.
type Postgres struct {
	pool *pgx.ConnPool
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to the database described by connStr, either a URL or
// a "key=value" string, and creates the schema if needed.
func OpenPostgres(connStr string) (*Postgres, error) {
	connConfig, err := pgx.ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig:     connConfig,
		MaxConnections: 10,
	})
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Put(ctx context.Context, req replayr.Request) error {
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

	_, err = s.pool.ExecEx(ctx,
		`INSERT INTO request (id, method, url, headers, body) VALUES ($1, $2, $3, $4, $5)`, nil,
		req.ID(), req.Method().String(), req.URL(), headers, req.Body())

	var pgErr pgx.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return replayr.DuplicateID(req.ID())
	}

	return err
}

func (s *Postgres) Get(ctx context.Context, id int64) (replayr.Request, error) {
	row := s.pool.QueryRowEx(ctx, `SELECT id, method, url, headers, body FROM request WHERE id = $1`, nil, id)

	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return replayr.Request{}, replayr.NotFound(id)
	}

	return req, err
}

func (s *Postgres) List(ctx context.Context) ([]replayr.Request, error) {
	rows, err := s.pool.QueryEx(ctx, `SELECT id, method, url, headers, body FROM request ORDER BY id`, nil)
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

func (s *Postgres) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.ExecEx(ctx, `DELETE FROM request WHERE id = $1`, nil, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return replayr.NotFound(id)
	}

	return nil
}

func (s *Postgres) NextID(ctx context.Context) (int64, error) {
	var id int64
	err := s.pool.QueryRowEx(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM request`, nil).Scan(&id)

	return id, err
}

func (s *Postgres) Close() error {
	s.pool.Close()

	return nil
}
