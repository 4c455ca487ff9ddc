package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Dialect string

const (
	SQLServer Dialect = "sqlserver"
	Postgres  Dialect = "postgres"
	SQLite    Dialect = "sqlite"
)

// Rebind rewrites @name placeholders for drivers without named parameter
// support. sql.Named args are reordered to match; other args pass through.
func (d Dialect) Rebind(query string, args []any) (string, []any) {
	if d == SQLServer {
		return query, args
	}

	named := make(map[string]any, len(args))
	var positional []any
	for _, a := range args {
		if n, ok := a.(sql.NamedArg); ok {
			named[n.Name] = n.Value
			continue
		}
		positional = append(positional, a)
	}
	if len(named) == 0 {
		return query, args
	}

	var (
		b      strings.Builder
		out    = positional
		pgSlot = map[string]int{}
		quoted bool
	)
	b.Grow(len(query))

	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '\'' {
			quoted = !quoted
			b.WriteByte(ch)
			continue
		}
		if quoted || ch != '@' || i+1 >= len(query) || !isIdentStart(query[i+1]) {
			b.WriteByte(ch)
			continue
		}

		j := i + 1
		for j < len(query) && isIdent(query[j]) {
			j++
		}
		name := query[i+1 : j]
		val, ok := named[name]
		if !ok {
			b.WriteString(query[i:j])
			i = j - 1
			continue
		}

		if d == Postgres {
			slot, seen := pgSlot[name]
			if !seen {
				out = append(out, val)
				slot = len(out)
				pgSlot[name] = slot
			}
			b.WriteString("$" + strconv.Itoa(slot))
		} else {
			out = append(out, val)
			b.WriteByte('?')
		}
		i = j - 1
	}
	return b.String(), out
}

// Paginate appends the row window. The query must already carry ORDER BY.
func (d Dialect) Paginate(query string, offset, limit int) string {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return query
	}
	if d == SQLite {
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
	}
	return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
}

// Top limits a query to the first n rows.
func (d Dialect) Top(query string, n int) string {
	if d == SQLServer {
		return strings.Replace(query, "SELECT ", fmt.Sprintf("SELECT TOP %d ", n), 1)
	}
	return fmt.Sprintf("%s LIMIT %d", query, n)
}

func (d Dialect) InsertReturningID(table string, cols []string) string {
	params := make([]string, len(cols))
	for i, c := range cols {
		params[i] = "@" + c
	}
	colList := strings.Join(cols, ", ")
	valList := strings.Join(params, ", ")

	if d == SQLServer {
		return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.id VALUES (%s)", table, colList, valList)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", table, colList, valList)
}

// Like builds a contains pattern for LIKE filters.
func Like(s string) string {
	return "%" + strings.ReplaceAll(s, "%", "") + "%"
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
