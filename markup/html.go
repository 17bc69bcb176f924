// Package markup cleans inline markup out of provider text.
package markup

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/lexicache"
	"golang.org/x/net/html"
)

var (
	tagPattern    = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(?:\s[^<>]*)?/?>`)
	entityPattern = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
)

// DefaultIgnoredTags are elements whose content is dropped entirely.
var DefaultIgnoredTags = []string{"script", "style", "noscript", "template"}

// HTMLCleaner strips tags and decodes entities in translation candidates.
// Translation memories sometimes return segments such as "<b>猫</b>" or
// "Tom &amp; Jerry".
type HTMLCleaner struct {
	ignoredTags map[string]bool
}

// NewHTMLCleaner creates a new cleaner with the default ignored tags.
func NewHTMLCleaner() *HTMLCleaner {
	return NewHTMLCleanerWithIgnoredTags(DefaultIgnoredTags)
}

// NewHTMLCleanerWithIgnoredTags creates a new cleaner with custom ignored tags.
func NewHTMLCleanerWithIgnoredTags(tags []string) *HTMLCleaner {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLCleaner{
		ignoredTags: ignored,
	}
}

// Clean returns the visible text of s with surrounding whitespace trimmed.
// Only well-formed tags and entities count as markup. Text without them is
// only trimmed, and a "<" that does not open a tag is kept as text.
func (c *HTMLCleaner) Clean(s string) string {
	tags := tagPattern.FindAllStringIndex(s, -1)
	if len(tags) == 0 && !entityPattern.MatchString(s) {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayLT(s, tags)))
	if err != nil {
		return strings.TrimSpace(s)
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if c.ignoredTags[strings.ToLower(n.Data)] {
				return
			}
			if n.Data == "br" {
				b.WriteString(" ")
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range body.Nodes {
		walk(n)
	}

	return strings.TrimSpace(b.String())
}

// escapeStrayLT rewrites every "<" outside the given tag spans as "&lt;" so
// the parser keeps it as text.
func escapeStrayLT(s string, tags [][]int) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	next := 0
	for i := 0; i < len(s); i++ {
		for next < len(tags) && tags[next][1] <= i {
			next++
		}
		if s[i] == '<' && (next >= len(tags) || i != tags[next][0]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Verify HTMLCleaner implements TextCleaner
var _ lexicache.TextCleaner = (*HTMLCleaner)(nil)
