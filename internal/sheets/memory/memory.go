package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shopledger/internal/core"
	ports "shopledger/internal/sheets"
)

var _ ports.Source = (*Store)(nil)

// Store serves sheets from memory. Sheets not put explicitly are loaded
// lazily from <dir>/<spreadsheet>/<sheet>.json, a JSON array of objects in
// the opensheet shape.
type Store struct {
	mu     sync.Mutex
	dir    string
	sheets map[ports.Ref][]core.RawRow
	fail   map[ports.Ref]error
}

func New() *Store {
	return &Store{sheets: map[ports.Ref][]core.RawRow{}, fail: map[ports.Ref]error{}}
}

// NewFromDir returns a store backed by fixture files under dir.
func NewFromDir(dir string) *Store {
	s := New()
	s.dir = dir
	return s
}

// Put replaces the rows of ref.
func (s *Store) Put(ref ports.Ref, rows []core.RawRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[ref] = cloneRows(rows)
	delete(s.fail, ref)
}

// Fail makes every read of ref return err until the next Put.
func (s *Store) Fail(ref ports.Ref, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[ref] = err
}

// ReadRows returns a copy of the rows of ref.
func (s *Store) ReadRows(ctx context.Context, ref ports.Ref) ([]core.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail[ref]; err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if rows, ok := s.sheets[ref]; ok {
		return cloneRows(rows), nil
	}
	if s.dir == "" {
		return nil, fmt.Errorf("read %s: %w", ref, ports.ErrNotFound)
	}

	rows, err := readFile(filepath.Join(s.dir, fileName(ref.SpreadsheetID), fileName(ref.Sheet)+".json"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	s.sheets[ref] = rows
	return cloneRows(rows), nil
}

// ReadURL resolves rawURL to a Ref and reads it.
func (s *Store) ReadURL(ctx context.Context, rawURL string) ([]core.RawRow, error) {
	ref, err := ports.ParseSheetURL(rawURL)
	if err != nil {
		return nil, err
	}
	return s.ReadRows(ctx, ref)
}

// fileName keeps sheet names such as "STLM/TOPUP" inside one directory.
func fileName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func readFile(path string) ([]core.RawRow, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var objs []map[string]any
	if err := json.Unmarshal(b, &objs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	rows := make([]core.RawRow, 0, len(objs))
	for _, obj := range objs {
		row := make(core.RawRow, len(obj))
		for k, v := range obj {
			switch x := v.(type) {
			case nil:
				row[k] = ""
			case string:
				row[k] = x
			default:
				row[k] = fmt.Sprint(x)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cloneRows(in []core.RawRow) []core.RawRow {
	out := make([]core.RawRow, len(in))
	for i, r := range in {
		c := make(core.RawRow, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
