// Package postgres is a primary store client for a self-hosted Postgres
// database reached through database/sql and the pgx driver. Each collection
// is a table of the same name (see internal/database/migrations).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// DBTX is the subset of database/sql used here. Both *sql.DB and *sql.Tx
// satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Backend on Postgres tables.
type Store struct {
	db      DBTX
	columns map[string][]string
}

func New(db DBTX, schemas ...*store.Schema) *Store {
	s := &Store{db: db, columns: make(map[string][]string)}
	for _, sc := range schemas {
		s.columns[sc.Collection] = sc.Columns()
	}
	return s
}

func (s *Store) Name() string { return "postgres" }

func quote(name string) string { return pgx.Identifier{name}.Sanitize() }

func (s *Store) selectList(collection string) (string, error) {
	cols, ok := s.columns[collection]
	if !ok {
		return "", fmt.Errorf("postgres: unknown collection %q", collection)
	}
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", "), nil
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// arg converts a normalized value to a driver argument. Lists are stored as
// JSONB.
func arg(v any) any {
	if l, ok := v.([]string); ok {
		return store.FormatValue(l)
	}
	return v
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error) {
	sel, err := s.selectList(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", sel, quote(collection))
	var args []any
	if len(filter) > 0 {
		conds := make([]string, 0, len(filter))
		for _, k := range sortedKeys(filter) {
			args = append(args, arg(filter[k]))
			conds = append(conds, fmt.Sprintf("%s = $%d", quote(k), len(args)))
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	sel, err := s.selectList(collection)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(row)
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = quote(k)
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = arg(row[k])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		quote(collection), strings.Join(cols, ", "), strings.Join(marks, ", "), sel)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()
	out, err := scanRows(rows)
	if err != nil {
		return nil, wrap(err)
	}
	if len(out) == 0 {
		return row.Clone(), nil
	}
	return out[0], nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	sel, err := s.selectList(collection)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(patch)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, arg(patch[k]))
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(k), len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING %s",
		quote(collection), strings.Join(sets, ", "), quote("id"), len(args), sel)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()
	out, err := scanRows(rows)
	if err != nil {
		return nil, wrap(err)
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out[0], nil
}

func scanRows(rows *sql.Rows) ([]store.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(store.Row, len(cols))
		for i, c := range cols {
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// wrap maps unique violations to store.ErrConflict.
func wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("db error: %s: %w", pgErr.Message, store.ErrConflict)
	}
	return fmt.Errorf("db error: %w", err)
}
