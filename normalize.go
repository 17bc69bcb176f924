package lexicache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/antonholmquist/jason"
)

// TextCleaner rewrites provider text before it is deduplicated and rendered.
// Implementations must be deterministic.
type TextCleaner interface {
	Clean(text string) string
}

// NormalizerOption is a functional option for configuring the Normalizer.
type NormalizerOption func(*Normalizer)

// WithCleaner sets a cleaner applied to every string read from the payload.
func WithCleaner(c TextCleaner) NormalizerOption {
	return func(n *Normalizer) {
		n.cleaner = c
	}
}

// WithExampleLabels sets the labels of the two example lines.
func WithExampleLabels(original, translation string) NormalizerOption {
	return func(n *Normalizer) {
		n.originalLabel = original
		n.translationLabel = translation
	}
}

// Normalizer turns a raw provider payload into the canonical display form.
type Normalizer struct {
	cleaner          TextCleaner
	originalLabel    string
	translationLabel string
}

// NewNormalizer creates a Normalizer with default example labels.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		originalLabel:    "Original",
		translationLabel: "Translation",
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize parses payload and renders the display and example text.
//
// The payload must be a JSON object. Candidates come from
// matches[].translation, deduplicated by exact equality in first-seen order.
// The primary value is responseData.translatedText, then responseDetails,
// then the first candidate.
func (n *Normalizer) Normalize(payload []byte) (*Normalized, error) {
	if !json.Valid(payload) {
		return nil, &NormalizeError{Kind: ErrParse, Message: "payload is not well-formed JSON"}
	}

	root, err := jason.NewObjectFromBytes(payload)
	if err != nil {
		return nil, &NormalizeError{Kind: ErrParse, Message: "payload is not a JSON object", Cause: err}
	}

	var matches []*jason.Value
	if values, err := root.GetValueArray("matches"); err == nil {
		matches = values
	}

	candidates := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, v := range matches {
		t := n.clean(stringField(v, "translation"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		candidates = append(candidates, t)
	}

	example := ""
	if len(matches) > 0 {
		segment := n.clean(stringField(matches[0], "segment"))
		translation := n.clean(stringField(matches[0], "translation"))
		if segment != "" || translation != "" {
			example = fmt.Sprintf("%s: %s\n%s: %s", n.originalLabel, segment, n.translationLabel, translation)
		}
	}

	primary := n.clean(getString(root, "responseData", "translatedText"))
	if primary == "" {
		primary = n.clean(getString(root, "responseDetails"))
	}
	if primary == "" && len(candidates) > 0 {
		primary = candidates[0]
	}
	if primary == "" {
		return nil, &NormalizeError{Kind: ErrEmptyResult, Message: "payload carries no usable translation"}
	}

	var b strings.Builder
	if len(candidates) > 0 {
		for i, c := range candidates {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c)
		}
	} else {
		fmt.Fprintf(&b, "1. %s\n", primary)
	}

	return &Normalized{
		Display:    strings.TrimSpace(b.String()),
		Example:    example,
		Candidates: candidates,
		Primary:    primary,
	}, nil
}

func (n *Normalizer) clean(s string) string {
	if n.cleaner == nil || s == "" {
		return s
	}
	return n.cleaner.Clean(s)
}

// getString reads a string at the key path; anything else reads as "".
func getString(obj *jason.Object, keys ...string) string {
	s, err := obj.GetString(keys...)
	if err != nil {
		return ""
	}
	return s
}

// stringField reads a string field of an array element that should be an
// object; non-objects read as empty.
func stringField(v *jason.Value, key string) string {
	obj, err := v.Object()
	if err != nil {
		return ""
	}
	return getString(obj, key)
}
