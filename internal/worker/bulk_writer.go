package worker

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"perseo/internal/db"
	"perseo/internal/metrics"
)

const DefaultBatchSize = 500

// BulkWriter inserts rows inside the caller's transaction. SQL Server rows
// go through a CopyIn statement; other dialects get multi-row INSERTs of
// batch rows each. Nothing else may run on the transaction between the
// first Add and Close.
type BulkWriter struct {
	tx      *db.Tx
	table   string
	cols    []string
	batch   int
	job     string
	log     *zap.Logger
	stmt    *sql.Stmt
	pending [][]any
	rows    int64
}

func NewBulkWriter(ctx context.Context, tx *db.Tx, table string, cols []string, batch int, job string, log *zap.Logger) (*BulkWriter, error) {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	w := &BulkWriter{tx: tx, table: table, cols: cols, batch: batch, job: job, log: log}

	if tx.Dialect == db.SQLServer {
		stmt, err := tx.SQL.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, cols...))
		if err != nil {
			return nil, fmt.Errorf("[BULK][%s] prepare failed: %w", table, err)
		}
		w.stmt = stmt
	}
	return w, nil
}

func (w *BulkWriter) Add(ctx context.Context, row []any) error {
	if len(row) != len(w.cols) {
		return fmt.Errorf("[BULK][%s] row has %d values, want %d", w.table, len(row), len(w.cols))
	}
	row, err := plainValues(row)
	if err != nil {
		return err
	}

	if w.stmt != nil {
		if _, err := w.stmt.ExecContext(ctx, row...); err != nil {
			w.log.Error("bulk exec failed",
				zap.String("table", w.table),
				zap.Int64("row", w.rows+1),
				zap.Any("values", row),
				zap.Error(err),
			)
			return fmt.Errorf("[BULK][%s] exec failed at row #%d: %w", w.table, w.rows+1, err)
		}
		w.inserted(1)
		return nil
	}

	w.pending = append(w.pending, row)
	if len(w.pending) >= w.batch {
		return w.flush(ctx)
	}
	return nil
}

func (w *BulkWriter) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	tuples := make([]string, len(w.pending))
	args := make([]any, 0, len(w.pending)*len(w.cols))
	for i, row := range w.pending {
		params := make([]string, len(row))
		for j, v := range row {
			name := fmt.Sprintf("r%dc%d", i, j)
			params[j] = "@" + name
			args = append(args, sql.Named(name, v))
		}
		tuples[i] = "(" + strings.Join(params, ", ") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		w.table, strings.Join(w.cols, ", "), strings.Join(tuples, ", "))
	if _, err := w.tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("[BULK][%s] insert batch failed: %w", w.table, err)
	}

	w.inserted(int64(len(w.pending)))
	w.pending = w.pending[:0]
	return nil
}

func (w *BulkWriter) inserted(n int64) {
	w.rows += n
	metrics.IncInserted(n)
	metrics.RowsInserted.WithLabelValues(w.job).Add(float64(n))
}

// Close flushes what is left and returns the number of rows written. The
// transaction is still the caller's to commit.
func (w *BulkWriter) Close(ctx context.Context) (int64, error) {
	if w.stmt != nil {
		defer w.stmt.Close()
		if _, err := w.stmt.ExecContext(ctx); err != nil {
			return w.rows, fmt.Errorf("[BULK][%s] final exec failed: %w", w.table, err)
		}
	} else if err := w.flush(ctx); err != nil {
		return w.rows, err
	}

	w.log.Info("bulk insert completed", zap.String("table", w.table), zap.Int64("rows", w.rows))
	return w.rows, nil
}

// plainValues resolves driver.Valuer values such as decimal.Decimal, which
// the bulk copy protocol does not accept.
func plainValues(row []any) ([]any, error) {
	out := make([]any, len(row))
	for i, v := range row {
		if valuer, ok := v.(driver.Valuer); ok {
			pv, err := valuer.Value()
			if err != nil {
				return nil, err
			}
			v = pv
		}
		out[i] = v
	}
	return out, nil
}
