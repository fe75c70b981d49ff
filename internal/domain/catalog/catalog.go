// Package catalog loads the immutable, ordered list of reviewable items.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/okian/reviewdesk/internal/domain/model"
)

// SourceSample marks a catalog built from the built-in demo rows.
const SourceSample = "sample"

// ErrNoHeader is returned when a catalog file has no header row.
var ErrNoHeader = errors.New("catalog has no header row")

// Catalog is an immutable ordered sequence of items. Safe for concurrent reads.
type Catalog struct {
	columns []string
	items   []model.Item
	source  string
}

// New builds a catalog from rows already in memory. Row maps are copied.
func New(columns []string, rows []map[string]string, source string) *Catalog {
	c := &Catalog{
		columns: append([]string(nil), columns...),
		items:   make([]model.Item, len(rows)),
		source:  source,
	}
	for i, row := range rows {
		fields := make(map[string]string, len(row))
		for k, v := range row {
			fields[k] = v
		}
		c.items[i] = model.Item{Position: i, Fields: fields}
	}
	return c
}

// Load reads a CSV catalog with a header row. A missing file yields the
// sample catalog so the service can still start.
func Load(ctx context.Context, path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Sample(), nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Sample(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c.source = path
	return c, nil
}

// Read parses CSV from r. Short rows are padded with empty values and extra
// cells beyond the header are dropped.
func Read(ctx context.Context, r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return New(header, rows, "reader"), nil
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// At returns the item at pos.
func (c *Catalog) At(pos int) (model.Item, bool) {
	if pos < 0 || pos >= len(c.items) {
		return model.Item{}, false
	}
	return c.items[pos], true
}

// Columns returns the header in file order.
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Source names where the catalog came from.
func (c *Catalog) Source() string { return c.source }
