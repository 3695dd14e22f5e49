// Package capture persists mediated prompts and captured replies so
// other surfaces (the relay, report export) can retrieve the most
// recent one after the fact.
package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a captured record.
type Kind string

const (
	KindPrompt Kind = "prompt"
	KindReply  Kind = "reply"
)

// Record is one captured text with its redaction context.
type Record struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Text         string    `json:"text"`
	RedactedText string    `json:"redacted_text,omitempty"`
	Types        []string  `json:"types,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store manages capture files on disk.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create capture directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the default capture store directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "promptveil-captures")
	}
	return filepath.Join(home, ".promptveil", "captures")
}

// Remember persists a record, assigning its ID and timestamp.
func (s *Store) Remember(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	if rec.Kind == "" {
		rec.Kind = KindPrompt
	}

	if err := s.writeAtomic(s.path(rec), rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Last returns the most recent record of the given kind, or nil when
// nothing has been captured yet.
func (s *Store) Last(kind Kind) (*Record, error) {
	recs, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Kind == kind {
			return &recs[i], nil
		}
	}
	return nil, nil
}

// List returns all records, oldest first.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var recs []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		recs = append(recs, r)
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

// Cleanup removes all capture files.
func (s *Store) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) path(rec Record) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json",
		rec.CreatedAt.Format("20060102T150405.000000000Z"), rec.ID))
}

func (s *Store) writeAtomic(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
