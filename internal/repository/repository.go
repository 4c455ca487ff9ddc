// Package repository holds every SQL statement of the application.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"perseo/internal/db"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store runs queries on a pool or inside a transaction.
type Store struct {
	c   *db.Conn
	now func() time.Time
}

func New(c *db.Conn) *Store {
	return &Store{c: c, now: time.Now}
}

func (s *Store) Dialect() db.Dialect { return s.c.Dialect }

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// scanMaps reads rows into maps keyed by column name.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c] = normalize(vals[i])
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return x
	}
}
