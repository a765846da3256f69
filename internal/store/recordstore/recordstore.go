// Package recordstore is the local persistence backend: one CSV file per
// collection under a data directory. It is the fallback when the primary
// store is unreachable and the only backend in a fresh install.
package recordstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Store implements store.Backend on CSV files. Writes to a collection are
// serialized by a per-collection lock; reads share it.
type Store struct {
	dir     string
	columns map[string][]string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New returns a Store rooted at dir for the given collection schemas. The
// directory is created if needed.
func New(dir string, schemas ...*store.Schema) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recordstore: create %s: %w", dir, err)
	}
	s := &Store{dir: dir, columns: make(map[string][]string), locks: make(map[string]*sync.RWMutex)}
	for _, sc := range schemas {
		s.columns[sc.Collection] = sc.Columns()
	}
	return s, nil
}

func (s *Store) Name() string { return "recordstore" }

func (s *Store) lock(collection string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[collection] = l
	}
	return l
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".csv")
}

func (s *Store) header(collection string) ([]string, error) {
	cols, ok := s.columns[collection]
	if !ok {
		return nil, fmt.Errorf("recordstore: unknown collection %q", collection)
	}
	return cols, nil
}

// Find returns every row whose cells equal the filter values.
func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.header(collection); err != nil {
		return nil, err
	}
	l := s.lock(collection)
	l.RLock()
	defer l.RUnlock()

	rows, err := s.readAll(collection)
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, 0)
	for _, r := range rows {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Insert appends row. The caller assigns the id.
func (s *Store) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols, err := s.header(collection)
	if err != nil {
		return nil, err
	}
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	p := s.path(collection)
	_, statErr := os.Stat(p)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recordstore: open %s: %w", collection, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(cols); err != nil {
			return nil, err
		}
	}
	if err := w.Write(record(cols, row)); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("recordstore: write %s: %w", collection, err)
	}
	return textRow(cols, row), nil
}

// Update merges patch into the row with the given id and rewrites the file.
func (s *Store) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols, err := s.header(collection)
	if err != nil {
		return nil, err
	}
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	rows, err := s.readAll(collection)
	if err != nil {
		return nil, err
	}
	var updated store.Row
	for _, r := range rows {
		if r["id"] != id {
			continue
		}
		for k, v := range patch {
			r[k] = store.FormatValue(v)
		}
		updated = r
		break
	}
	if updated == nil {
		return nil, store.ErrNotFound
	}
	if err := s.rewrite(collection, cols, rows); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// readAll loads the collection. A missing file is an empty collection.
func (s *Store) readAll(collection string) ([]store.Row, error) {
	f, err := os.Open(s.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recordstore: open %s: %w", collection, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	head, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recordstore: read %s header: %w", collection, err)
	}

	var out []store.Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recordstore: read %s: %w", collection, err)
		}
		row := make(store.Row, len(head))
		for i, col := range head {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// rewrite replaces the collection file via a temp file and rename.
func (s *Store) rewrite(collection string, cols []string, rows []store.Row) error {
	tmp, err := os.CreateTemp(s.dir, collection+"-*.csv.tmp")
	if err != nil {
		return fmt.Errorf("recordstore: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(cols); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		if err := w.Write(record(cols, r)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("recordstore: write %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(collection))
}

func record(cols []string, r store.Row) []string {
	rec := make([]string, len(cols))
	for i, c := range cols {
		rec[i] = store.FormatValue(r[c])
	}
	return rec
}

func textRow(cols []string, r store.Row) store.Row {
	out := make(store.Row, len(cols))
	for _, c := range cols {
		out[c] = store.FormatValue(r[c])
	}
	return out
}

func matches(r store.Row, f store.Filter) bool {
	for k, want := range f {
		got, _ := r[k].(string)
		if got != store.FormatValue(want) {
			return false
		}
	}
	return true
}
