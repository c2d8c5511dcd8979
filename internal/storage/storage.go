/*
Package storage provides database backed implementations of replayr.Storer.

Each Request is one row of the request table. Headers are kept in a single
column as a JSON array of {"key", "value"} objects, which keeps their order
and any duplicate keys.
*/
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	replayr "github.com/HRemonen/Replayr"
)

// Store is a replayr.Storer that holds resources until closed.
type Store interface {
	replayr.Storer
	io.Closer
}

// Open returns the Store for driver, which is one of "memory", "sqlite" or
// "postgres". dsn is ignored for "memory".
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "memory", "":
		return nopCloser{replayr.NewInMemoryStore()}, nil
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

type nopCloser struct {
	*replayr.InMemoryStore
}

func (nopCloser) Close() error { return nil }

// scanner is implemented by both database/sql and pgx rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row scanner) (replayr.Request, error) {
	var (
		id      int64
		method  string
		url     string
		headers string
		body    string
	)

	if err := row.Scan(&id, &method, &url, &headers, &body); err != nil {
		return replayr.Request{}, err
	}

	hs, err := decodeHeaders(headers)
	if err != nil {
		return replayr.Request{}, fmt.Errorf("request %d: %w", id, err)
	}

	return replayr.NewRequest(id, replayr.Method(method), url, hs, body)
}

func encodeHeaders(headers []replayr.Header) (string, error) {
	for _, h := range headers {
		if !utf8.ValidString(h.Key) || !utf8.ValidString(h.Value) {
			return "", fmt.Errorf("%w: header %q", replayr.ErrInvalidUTF8, h.Key)
		}
	}

	b, err := json.Marshal(replayr.CloneHeaders(headers))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func decodeHeaders(s string) ([]replayr.Header, error) {
	headers := []replayr.Header{}
	if err := json.Unmarshal([]byte(s), &headers); err != nil {
		return nil, err
	}

	return headers, nil
}
