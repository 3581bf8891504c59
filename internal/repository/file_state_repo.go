package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// fileStateRepository keeps every key in a single JSON document on disk.
// Values are stored verbatim as strings, or base64 when they are not valid UTF-8,
// so Get returns exactly the bytes given to Set.
type fileStateRepository struct {
	mu   sync.Mutex
	path string
	log  *logrus.Logger
}

func NewFileStateRepository(path string, logger *logrus.Logger) domain.StateRepository {
	return &fileStateRepository{
		path: path,
		log:  logger,
	}
}

type fileEntry struct {
	Raw   *string `json:"raw,omitempty"`
	Bytes []byte  `json:"bytes,omitempty"`
}

func (r *fileStateRepository) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create state directory %s: %w", dir, err)
		}
	}
	if _, err := r.readAll(); err != nil {
		// An unreadable document is replaced on the next write, same as a missing one.
		r.log.Warnf("Repository: State file %s is unreadable, starting empty: %v", r.path, err)
	}
	r.log.Infof("Repository: File state store initialized at %s", r.path)
	return nil
}

func (r *fileStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.readAll()
	if err != nil {
		return nil, err
	}
	entry, ok := entries[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	if entry.Raw != nil {
		return []byte(*entry.Raw), nil
	}
	if entry.Bytes == nil {
		return []byte{}, nil
	}
	return entry.Bytes, nil
}

func (r *fileStateRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.readAll()
	if err != nil {
		r.log.Warnf("Repository: Overwriting unreadable state file %s: %v", r.path, err)
		entries = make(map[string]fileEntry)
	}
	if utf8.Valid(value) {
		raw := string(value)
		entries[key] = fileEntry{Raw: &raw}
	} else {
		entries[key] = fileEntry{Bytes: append([]byte(nil), value...)}
	}
	return r.writeAll(entries)
}

func (r *fileStateRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.readAll()
	if err != nil {
		entries = make(map[string]fileEntry)
	}
	if _, ok := entries[key]; !ok && err == nil {
		return nil
	}
	delete(entries, key)
	return r.writeAll(entries)
}

func (r *fileStateRepository) Ping(ctx context.Context) bool {
	dir := filepath.Dir(r.path)
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func (r *fileStateRepository) Close() error {
	return nil
}

func (r *fileStateRepository) readAll() (map[string]fileEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]fileEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read state file %s: %w", r.path, err)
	}
	entries := make(map[string]fileEntry)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("could not decode state file %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *fileStateRepository) writeAll(entries map[string]fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".storefront-state-*")
	if err != nil {
		return fmt.Errorf("could not create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not replace state file %s: %w", r.path, err)
	}
	r.log.Debugf("Repository: Wrote %d keys to %s", len(entries), r.path)
	return nil
}
