// Package store provides Record Store implementations.
//
// SQLiteStore is the default, file-backed store. MemoryStore keeps records in
// process and is meant for tests and throwaway sessions. RedisStore shares
// one history between several processes.
package store

import (
	"time"

	"github.com/ZaguanLabs/lexicache"
)

// Record is an alias to the main package type.
type Record = lexicache.Record

// Store is the interface for the Record Store.
// This is an alias to the main package interface for convenience.
type Store = lexicache.Store

// Verify implementations
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func unavailable(op string, cause error) error {
	return &lexicache.StoreError{Kind: lexicache.ErrStoreUnavailable, Op: op, Cause: cause}
}

func writeFailed(op string, cause error) error {
	return &lexicache.StoreError{Kind: lexicache.ErrWriteFailed, Op: op, Cause: cause}
}

func notFound(op string) error {
	return &lexicache.StoreError{Kind: lexicache.ErrNotFound, Op: op}
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// parseTimestamp reads the timestamp formats a store may hand back.
func parseTimestamp(s string) (time.Time, bool) {
	layouts := []string{
		lexicache.TimestampLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
