package lexicache

import "time"

// TimestampLayout is the layout used to render and match CreatedAt.
// It matches SQLite's CURRENT_TIMESTAMP format.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is one persisted translation, as owned by the Record Store.
// Callers only ever hold copies.
type Record struct {
	ID        int64     // Store-assigned, monotonically increasing, never reused
	Source    string    // Original query text
	Target    string    // Canonical display string produced by the Normalizer
	FromLang  string    // Source language tag (e.g., "en")
	ToLang    string    // Target language tag (e.g., "zh-CN")
	Example   string    // Formatted example sentence, may be empty
	CreatedAt time.Time // Insertion time
}

// Key returns the logical cache key of the record.
func (r Record) Key() string {
	return CacheKey(HashText(r.Source), r.FromLang, r.ToLang)
}

// Hit is a cache hit returned by the Resolver.
type Hit struct {
	RecordID int64
	Target   string
	Example  string
}

// FetchRequest contains the parameters for one provider request.
type FetchRequest struct {
	Text     string
	FromLang string
	ToLang   string
}

// Normalized is the Normalizer's view of a provider payload.
type Normalized struct {
	Display    string   // Numbered candidate list, persisted and shown
	Example    string   // Two-line example built from the first match
	Candidates []string // Deduplicated candidates in first-seen order
	Primary    string   // Resolved primary translation
}

// Result is the outcome of a lookup.
type Result struct {
	Source     string
	FromLang   string
	ToLang     string
	Display    string
	Example    string
	Candidates []string // Only populated for fresh fetches
	FromCache  bool     // True when served by the Record Store
	RecordID   int64    // ID of the stored record, 0 if not persisted
	PersistErr error    // Set when the fetch succeeded but persisting failed
}
