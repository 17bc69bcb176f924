package lexicache

import (
	"regexp"
	"time"
)

// FilterRecords returns the records with at least one visible field matching
// pattern, in their original order.
//
// The pattern is a case-insensitive regular expression. A pattern that does
// not compile is matched as a literal case-insensitive substring instead.
// An empty pattern returns every record.
func FilterRecords(records []Record, pattern string) []Record {
	if pattern == "" {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}

	re := compilePattern(pattern)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matchRecord(re, r) {
			out = append(out, r)
		}
	}
	return out
}

func compilePattern(pattern string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	return re
}

// matchRecord checks every visible field. The id is not visible.
func matchRecord(re *regexp.Regexp, r Record) bool {
	fields := [...]string{
		r.Source,
		r.Target,
		r.FromLang,
		r.ToLang,
		r.Example,
		FormatTimestamp(r.CreatedAt),
	}
	for _, f := range fields {
		if re.MatchString(f) {
			return true
		}
	}
	return false
}

// FormatTimestamp renders t the way history shows it: UTC in TimestampLayout.
// A zero time renders as "". Displays must use it so that a timestamp copied
// from the screen matches in FilterRecords.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
