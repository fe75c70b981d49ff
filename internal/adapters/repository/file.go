package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/reviewdesk/internal/domain/state"
)

// FileStore keeps the document in a JSON file on local disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return BackendFile }

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*state.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	doc, err := state.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return doc, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target so readers never see a half-written document.
func (s *FileStore) Save(ctx context.Context, doc *state.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
