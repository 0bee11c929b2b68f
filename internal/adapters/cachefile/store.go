// Package cachefile persists the tool's state as flat JSON documents: the
// users file, the performance cache, and the filtered sample. All writes are
// atomic (temp file + rename) so an interrupted multi-day fetch never leaves
// a half-written cache behind.
package cachefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/okian/patzer/internal/domain/model"
)

// filePermission is applied to freshly written cache files.
const filePermission = 0600

// Store holds the performance cache in memory between explicit Load and
// Flush calls. Only one process is expected to write a given cache file, so
// no file locking is done.
type Store struct {
	path    string
	records map[string]model.PerformanceRecord
}

// Load reads the performance cache at path. A missing file is an error;
// commands that merely read the cache must fail fast instead of silently
// operating on nothing.
func Load(ctx context.Context, path string) (*Store, error) {
	s, err := load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadOrEmpty reads the performance cache at path, starting empty when the
// file does not exist yet. The fetch command uses this on first run.
func LoadOrEmpty(ctx context.Context, path string) (*Store, error) {
	s, err := load(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return &Store{path: path, records: make(map[string]model.PerformanceRecord)}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func load(_ context.Context, path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}

	records := make(map[string]model.PerformanceRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return &Store{path: path, records: records}, nil
}

// Has reports whether user is cached, including negatively cached users
// that turned out to have no puzzle history.
func (s *Store) Has(user string) bool {
	_, ok := s.records[user]
	return ok
}

// Get returns the cached record for user.
func (s *Store) Get(user string) (model.PerformanceRecord, bool) {
	rec, ok := s.records[user]
	return rec, ok
}

// Put caches a record for user, replacing any previous entry. The map key
// guarantees the no-duplicate-users invariant.
func (s *Store) Put(user string, rec model.PerformanceRecord) {
	s.records[user] = rec
}

// Len returns the number of cached users.
func (s *Store) Len() int {
	return len(s.records)
}

// WithData returns the number of cached users that have puzzle history.
func (s *Store) WithData() int {
	n := 0
	for _, rec := range s.records {
		if rec.HasData() {
			n++
		}
	}
	return n
}

// Each visits every cached record in sorted user order, so derived outputs
// are deterministic across runs.
func (s *Store) Each(fn func(user string, rec model.PerformanceRecord)) {
	users := make([]string, 0, len(s.records))
	for u := range s.records {
		users = append(users, u)
	}
	sort.Strings(users)
	for _, u := range users {
		fn(u, s.records[u])
	}
}

// CurrentRatings returns the latest rating of every cached user that has
// data, in sorted user order.
func (s *Store) CurrentRatings() []int {
	var ratings []int
	s.Each(func(_ string, rec model.PerformanceRecord) {
		if rating, ok := rec.Current(); ok {
			ratings = append(ratings, rating)
		}
	})
	return ratings
}

// Flush writes the cache back to its file atomically.
func (s *Store) Flush(_ context.Context) error {
	return writeAtomic(s.path, s.records)
}

// LoadUsers reads the users file: a JSON array of usernames.
func LoadUsers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading users file %s: %w", path, err)
	}

	var users []string
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return users, nil
}

// SaveUsers writes the users file atomically.
func SaveUsers(path string, users []string) error {
	return writeAtomic(path, users)
}

// LoadSample reads a filtered sample file.
func LoadSample(path string) (model.Sample, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Sample{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return model.Sample{}, fmt.Errorf("reading sample file %s: %w", path, err)
	}

	var sample model.Sample
	if err := json.Unmarshal(data, &sample); err != nil {
		return model.Sample{}, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return sample, nil
}

// SaveSample writes a filtered sample file atomically.
func SaveSample(path string, sample model.Sample) error {
	return writeAtomic(path, sample)
}

// writeAtomic marshals v and renames a temp file over path, so readers and
// crashes never observe a partial document.
func writeAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, filePermission); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming %s over %s: %w", tmpName, path, err)
	}
	return nil
}
