package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"perseo/internal/db"
	"perseo/internal/model"
	"perseo/internal/utils"
)

type FilterKind int

const (
	FilterEqual FilterKind = iota
	FilterLike
	FilterInt
	FilterEmailLike
	FilterRFCLike
)

// Filter maps a DataTable request parameter onto a column.
type Filter struct {
	Param  string
	Column string
	Kind   FilterKind
}

// Cascade is a child table whose estatus follows the parent's.
type Cascade struct {
	Table      string
	ForeignKey string
}

// Resource describes one catalog served by the web module. The main table
// is aliased t in From, Columns and Filters.
type Resource struct {
	Module   string
	Path     string
	Table    string
	From     string
	Columns  []string
	Order    string
	Filters  []Filter
	Fields   []Field
	Unique   []string
	Cascades []Cascade
}

func (r *Resource) Editable() bool { return len(r.Fields) > 0 }

func (r *Resource) from() string {
	if r.From != "" {
		return r.From
	}
	return r.Table + " t"
}

func (r *Resource) selectList() string {
	cols := append([]string{"t.id", "t.creado", "t.modificado", "t.estatus"}, r.Columns...)
	return strings.Join(cols, ", ")
}

type DatatableQuery struct {
	Offset  int
	Limit   int
	Estatus string
	Filters map[string]string
}

func (q DatatableQuery) estatus() string {
	if q.Estatus == model.EstatusEliminado {
		return model.EstatusEliminado
	}
	return model.EstatusActivo
}

func (r *Resource) where(q DatatableQuery) (string, []any) {
	conds := []string{"t.estatus = @estatus"}
	args := []any{sql.Named("estatus", q.estatus())}

	for _, f := range r.Filters {
		raw := strings.TrimSpace(q.Filters[f.Param])
		if raw == "" {
			continue
		}
		name := "f_" + f.Param
		switch f.Kind {
		case FilterEqual:
			conds = append(conds, fmt.Sprintf("%s = @%s", f.Column, name))
			args = append(args, sql.Named(name, utils.SafeString(raw, utils.DefaultMaxLen, true)))
		case FilterInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s = @%s", f.Column, name))
			args = append(args, sql.Named(name, n))
		default:
			var frag string
			switch f.Kind {
			case FilterEmailLike:
				frag, _ = utils.SafeEmail(raw, true)
			case FilterRFCLike:
				frag, _ = utils.SafeRFC(raw, true)
			default:
				frag = utils.SafeString(raw, utils.DefaultMaxLen, true)
			}
			if frag == "" {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s LIKE @%s", f.Column, name))
			args = append(args, sql.Named(name, db.Like(frag)))
		}
	}
	return strings.Join(conds, " AND "), args
}

// Datatable returns one page of rows and the number of matching rows.
func (s *Store) Datatable(ctx context.Context, r *Resource, q DatatableQuery) ([]map[string]any, int, error) {
	where, args := r.where(q)

	var total int
	if err := s.c.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", r.from(), where), args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.Table, err)
	}

	order := r.Order
	if order == "" {
		order = "t.id"
	}
	query := s.c.Dialect.Paginate(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", r.selectList(), r.from(), where, order),
		q.Offset, q.Limit,
	)
	rows, err := s.c.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.Table, err)
	}
	data, err := scanMaps(rows)
	if err != nil {
		return nil, 0, err
	}
	if data == nil {
		data = []map[string]any{}
	}
	return data, total, nil
}

func (s *Store) Get(ctx context.Context, r *Resource, id int64) (map[string]any, error) {
	rows, err := s.c.Query(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE t.id = @id", r.selectList(), r.from()),
		sql.Named("id", id))
	if err != nil {
		return nil, err
	}
	data, err := scanMaps(rows)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s %d: %w", r.Table, id, ErrNotFound)
	}
	return data[0], nil
}

func (s *Store) checkUnique(ctx context.Context, r *Resource, id int64, values map[string]any) error {
	for _, col := range r.Unique {
		v, ok := values[col]
		if !ok {
			continue
		}
		var n int
		err := s.c.QueryRow(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = @v AND id <> @id", r.Table, col),
			sql.Named("v", v), sql.Named("id", id),
		).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%s %v: %w", col, v, ErrDuplicate)
		}
	}
	return nil
}

func sortedKeys(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Insert creates an active record and returns its id.
func (s *Store) Insert(ctx context.Context, r *Resource, values map[string]any) (int64, error) {
	if err := s.checkUnique(ctx, r, 0, values); err != nil {
		return 0, err
	}

	now := s.now()
	row := make(map[string]any, len(values)+3)
	for k, v := range values {
		row[k] = v
	}
	row["creado"], row["modificado"], row["estatus"] = now, now, model.EstatusActivo

	cols := sortedKeys(row)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = sql.Named(c, row[c])
	}
	return s.c.InsertID(ctx, r.Table, cols, args...)
}

func (s *Store) Update(ctx context.Context, r *Resource, id int64, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	if err := s.checkUnique(ctx, r, id, values); err != nil {
		return err
	}

	cols := sortedKeys(values)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = @%s", c, c))
		args = append(args, sql.Named(c, values[c]))
	}
	sets = append(sets, "modificado = @modificado")
	args = append(args, sql.Named("modificado", s.now()), sql.Named("id", id))

	res, err := s.c.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE id = @id", r.Table, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.Table, err)
	}
	return expectOne(res, r.Table, id)
}

// SetEstatus deletes (B) or recovers (A) a record and its cascades.
func (s *Store) SetEstatus(ctx context.Context, r *Resource, id int64, estatus string) error {
	now := s.now()
	res, err := s.c.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET estatus = @estatus, modificado = @now WHERE id = @id", r.Table),
		sql.Named("estatus", estatus), sql.Named("now", now), sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("estatus %s: %w", r.Table, err)
	}
	if err := expectOne(res, r.Table, id); err != nil {
		return err
	}

	for _, c := range r.Cascades {
		if _, err := s.c.Exec(ctx,
			fmt.Sprintf("UPDATE %s SET estatus = @estatus, modificado = @now WHERE %s = @id", c.Table, c.ForeignKey),
			sql.Named("estatus", estatus), sql.Named("now", now), sql.Named("id", id),
		); err != nil {
			return fmt.Errorf("estatus %s: %w", c.Table, err)
		}
	}
	return nil
}

func expectOne(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
