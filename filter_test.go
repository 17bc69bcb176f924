package lexicache

import (
	"testing"
	"time"
)

func filterFixture() []Record {
	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	return []Record{
		{ID: 1, Source: "cat", Target: "1. 猫\n2. 小猫", FromLang: "en", ToLang: "zh-CN", Example: "Original: cat\nTranslation: 猫", CreatedAt: at},
		{ID: 2, Source: "Dog", Target: "1. 狗", FromLang: "en", ToLang: "zh-CN", CreatedAt: at.Add(time.Hour)},
		{ID: 3, Source: "你好", Target: "1. Hello", FromLang: "zh-CN", ToLang: "en", CreatedAt: at.Add(24 * time.Hour)},
		{ID: 4, Source: "a+b", Target: "1. a加b", FromLang: "en", ToLang: "zh-CN", CreatedAt: at.Add(48 * time.Hour)},
	}
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterRecords(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected []int64
	}{
		{"empty pattern is identity", "", []int64{1, 2, 3, 4}},
		{"case insensitive source", "dog", []int64{2}},
		{"matches target", "小猫", []int64{1}},
		{"matches example", "translation:", []int64{1}},
		{"matches language", "^zh-cn$", []int64{1, 2, 3, 4}},
		{"matches reverse language", "^en$", []int64{1, 2, 3, 4}},
		{"matches created at", "2024-03-10", []int64{3}},
		{"matches created at time", "15:05:00", []int64{2}},
		{"regex alternation", "^(cat|dog)$", []int64{1, 2}},
		{"no match", "elephant", []int64{}},
		{"id is not visible", "^4$", []int64{}},
		{"malformed regex falls back to literal", "a+b(", []int64{}},
		{"malformed regex literal match", "[猫", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterRecords(filterFixture(), tt.pattern))
			if !equalIDs(got, tt.expected) {
				t.Errorf("FilterRecords(%q) = %v, want %v", tt.pattern, got, tt.expected)
			}
		})
	}
}

func TestFilterRecords_LiteralFallback(t *testing.T) {
	records := []Record{
		{ID: 1, Source: "f(x"},
		{ID: 2, Source: "F(X) = 1"},
		{ID: 3, Source: "fx"},
	}

	got := ids(FilterRecords(records, "f(x"))
	if !equalIDs(got, []int64{1, 2}) {
		t.Errorf("FilterRecords literal fallback = %v, want [1 2]", got)
	}
}

func TestFilterRecords_DoesNotAliasInput(t *testing.T) {
	records := filterFixture()
	out := FilterRecords(records, "")
	out[0].Source = "changed"

	if records[0].Source != "cat" {
		t.Error("FilterRecords result should not alias the input slice")
	}
}

func TestFilterRecords_ZeroTimestamp(t *testing.T) {
	records := []Record{{ID: 1, Source: "x"}}

	if got := FilterRecords(records, "0001"); len(got) != 0 {
		t.Errorf("zero CreatedAt should not be searchable, got %v", ids(got))
	}
}

func TestFormatTimestamp(t *testing.T) {
	shanghai := time.FixedZone("UTC+8", 8*60*60)

	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{"utc", time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC), "2024-03-09 23:30:00"},
		{"offset zone renders in utc", time.Date(2024, 3, 10, 7, 30, 0, 0, shanghai), "2024-03-09 23:30:00"},
		{"zero", time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.input); got != tt.expected {
				t.Errorf("FormatTimestamp() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFilterRecords_DisplayedTimestamp(t *testing.T) {
	shanghai := time.FixedZone("UTC+8", 8*60*60)
	records := []Record{
		{ID: 1, Source: "late", CreatedAt: time.Date(2024, 3, 10, 7, 30, 0, 0, shanghai)},
		{ID: 2, Source: "early", CreatedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)},
	}

	shown := FormatTimestamp(records[0].CreatedAt)
	if got := FilterRecords(records, shown); !equalIDs(ids(got), []int64{1}) {
		t.Errorf("filtering on %q = %v, want [1]", shown, ids(got))
	}

	// The local calendar date of record 1 is not what history shows.
	if got := FilterRecords(records, "2024-03-10 07"); len(got) != 0 {
		t.Errorf("local rendering should not match, got %v", ids(got))
	}
}
