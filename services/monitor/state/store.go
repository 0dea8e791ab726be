package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is raw blob storage for the serialized history. Load returns
// (nil, nil) when no state has ever been saved.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
}

// FileStore keeps the history as a single json file. Writes go
// through a temp file and rename so a crash mid-write can't leave a
// half-written blob behind.
type FileStore struct {
	Path string
}

func NewFileStore(path string) FileStore {
	return FileStore{Path: path}
}

func (s FileStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	return blob, nil
}

func (s FileStore) Save(ctx context.Context, blob []byte) error {
	dir := filepath.Dir(s.Path)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(blob)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("closing state file: %w", err)
	}

	err = os.Rename(tmp.Name(), s.Path)
	if err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
