package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// SQLServerDSN builds the go-mssqldb URL form.
func SQLServerDSN(host, port, user, pass, dbname string) string {
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(user, pass),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: url.Values{"database": {dbname}}.Encode(),
	}
	return u.String()
}

func NewSQLServer(ctx context.Context, dsn string, workers, timeoutSeconds int) (*DB, error) {
	conn, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}

	conn.SetMaxOpenConns(workers + 2)
	conn.SetMaxIdleConns(workers)
	conn.SetConnMaxLifetime(time.Duration(timeoutSeconds) * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}
	return wrap(conn, SQLServer), nil
}
