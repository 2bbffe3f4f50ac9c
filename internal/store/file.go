package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pos-till/internal/model"

	"github.com/rs/zerolog"
)

// FileStore persists a collection as a single pretty-printed JSON array in
// <dir>/<collection>.json. Writes go to a temp file in the same directory and
// are renamed into place, so a crash mid-write never truncates the collection.
type FileStore[T any] struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a file-backed store for the named collection.
func NewFileStore[T any](dir, collection string, logger zerolog.Logger) *FileStore[T] {
	return &FileStore[T]{
		path:   filepath.Join(dir, collection+".json"),
		logger: logger.With().Str("store", collection).Logger(),
	}
}

// LoadAll reads the collection file. A missing file is an empty collection.
func (s *FileStore[T]) LoadAll(_ context.Context) ([]T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("path", s.path).Msg("collection file absent, loading empty")
			return []T{}, nil
		}
		return nil, model.NewPersistenceError("read "+s.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, model.NewPersistenceError("decode "+s.path, err)
	}
	if records == nil {
		records = []T{}
	}

	s.logger.Debug().Int("count", len(records)).Msg("collection loaded")
	return records, nil
}

// SaveAll rewrites the whole collection file.
func (s *FileStore[T]) SaveAll(_ context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return model.NewPersistenceError("encode "+s.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.NewPersistenceError("create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return model.NewPersistenceError("create temp for "+s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return model.NewPersistenceError("write "+s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return model.NewPersistenceError("write "+s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return model.NewPersistenceError(fmt.Sprintf("replace %s", s.path), err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("collection saved")
	return nil
}
