package db

import (
	"context"
	"database/sql"
	"fmt"

	"perseo/internal/config"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn runs queries written with @name placeholders against any dialect.
type Conn struct {
	q       execer
	Dialect Dialect
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query, args = c.Dialect.Rebind(query, args)
	return c.q.ExecContext(ctx, query, args...)
}

func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query, args = c.Dialect.Rebind(query, args)
	return c.q.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	query, args = c.Dialect.Rebind(query, args)
	return c.q.QueryRowContext(ctx, query, args...)
}

// InsertID inserts one row and returns the generated id. Args must be sql.Named
// with the same names as cols.
func (c *Conn) InsertID(ctx context.Context, table string, cols []string, args ...any) (int64, error) {
	var id int64
	if err := c.QueryRow(ctx, c.Dialect.InsertReturningID(table, cols), args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

type DB struct {
	Conn
	SQL *sql.DB
}

type Tx struct {
	Conn
	SQL *sql.Tx
}

func wrap(conn *sql.DB, d Dialect) *DB {
	return &DB{Conn: Conn{q: conn, Dialect: d}, SQL: conn}
}

// Open picks the driver from DB_DRIVER.
func Open(ctx context.Context, cfg *config.Config) (*DB, error) {
	switch Dialect(cfg.DBDriver) {
	case SQLServer:
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = SQLServerDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)
		}
		return NewSQLServer(ctx, dsn, cfg.Worker, cfg.TimeoutSeconds)
	case Postgres:
		return NewPostgres(ctx, cfg.DBDSN, cfg.Worker, cfg.TimeoutSeconds)
	case SQLite:
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = "perseo.sqlite"
		}
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// WithTx commits when fn returns nil and rolls back otherwise.
func (d *DB) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *Tx) error) error {
	if d.Dialect == SQLite {
		// sqlite transactions are already serializable and reject other levels
		opts = nil
	}
	sqlTx, err := d.SQL.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	tx := &Tx{Conn: Conn{q: sqlTx, Dialect: d.Dialect}, SQL: sqlTx}
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
