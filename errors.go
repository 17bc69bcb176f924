package lexicache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every structured error below reports one of these through Is,
// so callers can write errors.Is(err, lexicache.ErrNetwork).
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrWriteFailed      = errors.New("write failed")
	ErrPartialFailure   = errors.New("partial failure")
	ErrNotFound         = errors.New("record not found")
	ErrNetwork          = errors.New("network error")
	ErrHTTPStatus       = errors.New("http error")
	ErrParse            = errors.New("parse error")
	ErrEmptyResult      = errors.New("empty result")
	ErrBusy             = errors.New("a lookup is already in flight")
	ErrEmptyQuery       = errors.New("query text is empty")
)

// StoreError indicates a Record Store failure.
type StoreError struct {
	Kind    error // ErrStoreUnavailable, ErrWriteFailed or ErrNotFound
	Op      string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("store error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("store error: %s", msg)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func (e *StoreError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// ProviderError indicates a provider failure (transport, timeout, bad status).
// Provider failures are terminal for the invocation; there is no retry.
type ProviderError struct {
	Kind       error // ErrNetwork or ErrHTTPStatus
	StatusCode int   // HTTP status for ErrHTTPStatus
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func (e *ProviderError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NormalizeError indicates a payload that could not be turned into a result.
type NormalizeError struct {
	Kind    error // ErrParse or ErrEmptyResult
	Message string
	Cause   error
}

func (e *NormalizeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("normalize error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("normalize error: %s", e.Message)
}

func (e *NormalizeError) Unwrap() error {
	return e.Cause
}

func (e *NormalizeError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// DeleteError reports the ids a batch delete could not remove.
// Ids not listed in Failed were deleted.
type DeleteError struct {
	Failed map[int64]error
}

func (e *DeleteError) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d (%v)", id, e.Failed[id])
	}
	return fmt.Sprintf("delete failed for %d id(s): %s", len(ids), strings.Join(parts, ", "))
}

func (e *DeleteError) Is(target error) bool {
	return target == ErrPartialFailure
}

// FailedIDs returns the failed ids in ascending order.
func (e *DeleteError) FailedIDs() []int64 {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
