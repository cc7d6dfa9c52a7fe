// Package storage persists backtest analyses to a JSON file.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Interface defines the contract for analysis persistence.
//
// Implementations must be safe for concurrent use - callers can assume all
// methods are goroutine-safe. The provided JSONStorage implementation uses
// sync.RWMutex to serialize access.
type Interface interface {
	SaveAnalysis(a Analysis) error
	GetAnalysis(name string) (Analysis, error)
	ListAnalyses() []Analysis
	DeleteAnalysis(name string) error
}

// NewStorage creates a new storage implementation (currently JSON-based).
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}

// Ensure JSONStorage implements Interface
var _ Interface = (*JSONStorage)(nil)

// JSONStorage keeps every analysis in one JSON file, rewritten atomically
// on each save.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storageData
}

type storageData struct {
	Analyses    map[string]Analysis `json:"analyses"`
	LastUpdated time.Time           `json:"last_updated"`
}

// NewJSONStorage opens the file at filepath, loading existing analyses if
// present.
func NewJSONStorage(filepath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filepath,
		data:     &storageData{Analyses: make(map[string]Analysis)},
	}

	if _, err := os.Stat(filepath); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}

	return s, nil
}

func (s *JSONStorage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, s.data); err != nil {
		return err
	}
	if s.data.Analyses == nil {
		s.data.Analyses = make(map[string]Analysis)
	}
	return nil
}

// save writes the full state to a temp file and renames it into place.
// Callers must hold the write lock.
func (s *JSONStorage) save() error {
	s.data.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := s.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filepath)
}

// SaveAnalysis inserts or replaces the analysis under its name.
func (s *JSONStorage) SaveAnalysis(a Analysis) error {
	if a.Name == "" {
		return fmt.Errorf("analysis name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Analyses[a.Name] = a
	return s.save()
}

// GetAnalysis returns the analysis saved under name, or ErrNotFound.
func (s *JSONStorage) GetAnalysis(name string) (Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data.Analyses[name]
	if !ok {
		return Analysis{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, nil
}

// ListAnalyses returns every saved analysis, newest first.
func (s *JSONStorage) ListAnalyses() []Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Analysis, 0, len(s.data.Analyses))
	for _, a := range s.data.Analyses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DeleteAnalysis removes the analysis under name, or returns ErrNotFound.
func (s *JSONStorage) DeleteAnalysis(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Analyses[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.data.Analyses, name)
	return s.save()
}
