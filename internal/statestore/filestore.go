package statestore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fetchq/internal/model"
)

// FileStore keeps the snapshot in a single JSON file, written atomically via
// a temp file and rename so a crash mid-write never truncates prior state.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(snap model.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", s.path, err)
	}
	data = append(data, '\n')
	return writeFileAtomic(s.path, data)
}

func (s *FileStore) Load() model.Snapshot {
	var snap model.Snapshot
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: read state file %s: %v (starting empty)", s.path, err)
		}
		return normalizeLoaded(model.Snapshot{})
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("warning: state file %s is corrupt: %v (starting empty)", s.path, err)
		return normalizeLoaded(model.Snapshot{})
	}
	return normalizeLoaded(snap)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".fetchq-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
