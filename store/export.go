package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaguanLabs/lexicache"
)

// ExportVersion is the version written into every export.
const ExportVersion = "1.0"

// ExportFormat represents the JSON structure for history export/import.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Records    []ExportRecord    `json:"records"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportRecord represents a single history record.
type ExportRecord struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	FromLang  string `json:"from_lang"`
	ToLang    string `json:"to_lang"`
	Example   string `json:"example,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Exporter provides history export functionality.
type Exporter struct {
	store Store
}

// NewExporter creates a new history exporter.
func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// Export writes every record to w in JSON format, ordered by id.
func (e *Exporter) Export(ctx context.Context, w io.Writer, metadata map[string]string) error {
	records, err := e.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	entries := make([]ExportRecord, 0, len(records))
	for _, r := range records {
		entry := ExportRecord{
			ID:       r.ID,
			Source:   r.Source,
			Target:   r.Target,
			FromLang: r.FromLang,
			ToLang:   r.ToLang,
			Example:  r.Example,
		}
		if !r.CreatedAt.IsZero() {
			entry.CreatedAt = r.CreatedAt.UTC().Format(lexicache.TimestampLayout)
		}
		entries = append(entries, entry)
	}

	export := ExportFormat{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Records:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ExportToFile exports the history to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(ctx context.Context, path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(ctx, f, metadata)
}

// Importer provides history import functionality.
type Importer struct {
	store Store
}

// NewImporter creates a new history importer.
func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Import reads records from r and inserts each one. Imported records get new
// ids; their timestamps are kept when present. Records without a source or
// language pair are counted as failed.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var export ExportFormat
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	result := &ImportResult{
		Version:  export.Version,
		Metadata: export.Metadata,
	}

	for _, entry := range export.Records {
		if entry.Source == "" || entry.FromLang == "" || entry.ToLang == "" {
			result.Failed++
			continue
		}

		rec := Record{
			Source:   entry.Source,
			Target:   entry.Target,
			FromLang: entry.FromLang,
			ToLang:   entry.ToLang,
			Example:  entry.Example,
		}
		if t, ok := parseTimestamp(entry.CreatedAt); ok {
			rec.CreatedAt = t
		}

		if _, err := i.store.Insert(ctx, rec); err != nil {
			result.Failed++
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ImportFromFile imports history records from a file.
// The path is provided by the caller and is intentionally user-controlled.
func (i *Importer) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f)
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}
