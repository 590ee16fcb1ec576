package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Storer hands out content specs by identifier. Load-time validation means
// callers can trust whatever they get back.
type Storer[T ValidatingSpec] interface {
	Save(string, T) error
	Get(string) T
	GetAll() map[string]T
}

// FileStore keeps one catalog of specs, backed by a directory of JSON asset
// files. The whole tree under path is read once at construction; Save keeps
// the directory and the in-memory view in step afterwards.
type FileStore[T ValidatingSpec] struct {
	path string

	mu      sync.RWMutex
	records map[string]T
}

func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	s := &FileStore[T]{
		path:    path,
		records: map[string]T{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]T{}

	return filepath.WalkDir(s.path, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		asset, err := readAsset[T](path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", filepath.Base(path), err)
		}

		// Identifiers are global to the catalog, not to a subdirectory.
		if _, ok := s.records[asset.Id()]; ok {
			return fmt.Errorf("duplicate asset id %q", asset.Id())
		}
		s.records[asset.Id()] = asset.Spec

		return nil
	})
}

func readAsset[T ValidatingSpec](path string) (*Asset[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var asset Asset[T]
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("unmarshalling asset: %w", err)
	}
	return &asset, nil
}

// Save records the spec in memory and writes it back to the catalog
// directory under its identifier.
func (s *FileStore[T]) Save(id string, spec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = spec

	data, err := json.Marshal(&Asset[T]{
		Version:    1,
		Identifier: id,
		Spec:       spec,
	})
	if err != nil {
		return fmt.Errorf("marshalling asset: %w", err)
	}

	return atomicWrite(filepath.Join(s.path, id+".json"), data, 0644)
}

// atomicWrite stages to a temp file and renames into place so an interrupted
// write never leaves a truncated asset behind.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("removing temp file after failed rename", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func (s *FileStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.records[id]
	if !ok {
		var zero T
		return zero
	}
	return val
}

// GetAll returns a copy; mutating it does not touch the store.
func (s *FileStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]T, len(s.records))
	for id, v := range s.records {
		all[id] = v
	}
	return all
}
