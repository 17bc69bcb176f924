package lexicache

import (
	"context"
	"errors"
	"log/slog"
)

// Store is the interface for the Record Store.
//
// Implementations serialize writes. Ids are assigned by the store, strictly
// increasing and never reused, including after DeleteAll.
type Store interface {
	// Init creates the backing schema. It is idempotent.
	Init(ctx context.Context) error
	// Insert persists a record and returns its assigned id. The ID of the
	// argument is ignored; a zero CreatedAt means now.
	Insert(ctx context.Context, r Record) (int64, error)
	// FindLatest returns the record with the largest id matching all three
	// key fields exactly, or an error matching ErrNotFound.
	FindLatest(ctx context.Context, source, fromLang, toLang string) (*Record, error)
	// ListAll returns every record ordered by id ascending.
	ListAll(ctx context.Context) ([]Record, error)
	// DeleteByIDs removes the given ids in one transaction. Ids that could
	// not be removed are reported in a *DeleteError.
	DeleteByIDs(ctx context.Context, ids []int64) error
	// DeleteAll removes every record. Later ids continue after the old ones.
	DeleteAll(ctx context.Context) error
	Close() error
}

// Resolver answers lookups from the Record Store.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil store always misses.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the most recent stored result for the key.
// Store failures are logged and reported as a miss.
func (r *Resolver) Resolve(ctx context.Context, text, fromLang, toLang string) (Hit, bool) {
	if r.store == nil {
		return Hit{}, false
	}

	rec, err := r.store.FindLatest(ctx, text, fromLang, toLang)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("cache read failed, treating as miss",
				"from", fromLang, "to", toLang, "error", err)
		}
		r.logger.Debug("cache miss", "from", fromLang, "to", toLang)
		return Hit{}, false
	}

	r.logger.Debug("cache hit", "id", rec.ID, "from", fromLang, "to", toLang)
	return Hit{RecordID: rec.ID, Target: rec.Target, Example: rec.Example}, true
}
