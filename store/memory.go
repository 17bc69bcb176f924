package store

import (
	"context"
	"sync"
	"time"

	"github.com/ZaguanLabs/lexicache"
)

// MemoryStore is a thread-safe in-process Record Store.
// Records are lost when the process exits.
type MemoryStore struct {
	records []Record
	nextID  int64
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		now:    time.Now,
	}
}

// Init is a no-op.
func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

// Insert appends a record and returns its id.
func (s *MemoryStore) Insert(ctx context.Context, r Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC().Truncate(time.Second)
	}
	s.records = append(s.records, r)

	return r.ID, nil
}

// FindLatest returns the newest record for the key.
func (s *MemoryStore) FindLatest(ctx context.Context, source, fromLang, toLang string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Records are kept in id order, so the last match is the newest.
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.Source == source && r.FromLang == fromLang && r.ToLang == toLang {
			return &r, nil
		}
	}
	return nil, notFound("find")
}

// ListAll returns a copy of every record ordered by id.
func (s *MemoryStore) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// DeleteByIDs removes the given ids. Unknown ids are reported as not found.
func (s *MemoryStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.records[:0]
	for _, r := range s.records {
		if drop[r.ID] {
			delete(drop, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept

	if len(drop) == 0 {
		return nil
	}
	failed := make(map[int64]error, len(drop))
	for id := range drop {
		failed[id] = lexicache.ErrNotFound
	}
	return &lexicache.DeleteError{Failed: failed}
}

// DeleteAll removes every record. Ids keep counting from where they were.
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
