package lexicache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultTimeout bounds a single provider fetch.
const DefaultTimeout = 15 * time.Second

// Provider is the interface for remote translation backends.
// Fetch performs exactly one request and returns the raw response payload.
type Provider interface {
	Fetch(ctx context.Context, req FetchRequest) ([]byte, error)
}

// Dictionary is the lookup-or-fetch engine.
//
// At most one lookup is in flight per Dictionary. A second Submit while one
// is unresolved fails with ErrBusy.
type Dictionary struct {
	provider   Provider
	store      Store
	resolver   *Resolver
	normalizer *Normalizer
	logger     *slog.Logger
	timeout    time.Duration
	guard      *semaphore.Weighted
}

// Option is a functional option for configuring the Dictionary.
type Option func(*Dictionary)

// WithStore sets the Record Store. Without one every lookup is fetched and
// history operations fail with ErrStoreUnavailable.
func WithStore(store Store) Option {
	return func(d *Dictionary) {
		d.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dictionary) {
		d.logger = logger
	}
}

// WithTimeout sets the provider fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dictionary) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithNormalizer sets the response normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(d *Dictionary) {
		d.normalizer = n
	}
}

// NewDictionary creates a new Dictionary backed by provider.
func NewDictionary(provider Provider, opts ...Option) *Dictionary {
	d := &Dictionary{
		provider: provider,
		timeout:  DefaultTimeout,
		guard:    semaphore.NewWeighted(1),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.normalizer == nil {
		d.normalizer = NewNormalizer()
	}
	d.resolver = NewResolver(d.store, d.logger)

	return d
}

// Pending is the eventual outcome of a submitted lookup.
type Pending struct {
	done   chan struct{}
	result *Result
	err    error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) complete(result *Result, err error) {
	p.result = result
	p.err = err
	close(p.done)
}

// Done returns a channel closed once the lookup has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the lookup completes or ctx is done. Giving up on the
// wait does not cancel the fetch; its result is still persisted.
func (p *Pending) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit starts a lookup of text in the given direction.
//
// A cache hit resolves immediately. A miss fetches from the provider on a
// separate goroutine, normalizes the payload and persists it before the
// Pending completes.
func (d *Dictionary) Submit(ctx context.Context, text string, dir Direction) (*Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	from, to := dir.Langs()

	if !d.guard.TryAcquire(1) {
		return nil, ErrBusy
	}

	p := newPending()

	if hit, ok := d.resolver.Resolve(ctx, text, from, to); ok {
		d.guard.Release(1)
		p.complete(&Result{
			Source:    text,
			FromLang:  from,
			ToLang:    to,
			Display:   hit.Target,
			Example:   hit.Example,
			FromCache: true,
			RecordID:  hit.RecordID,
		}, nil)
		return p, nil
	}

	go func() {
		result, err := d.fetch(context.WithoutCancel(ctx), text, from, to)
		d.guard.Release(1)
		p.complete(result, err)
	}()

	return p, nil
}

// Lookup submits a lookup and waits for it.
func (d *Dictionary) Lookup(ctx context.Context, text string, dir Direction) (*Result, error) {
	p, err := d.Submit(ctx, text, dir)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// fetch handles a cache miss: fetch, normalize, persist.
func (d *Dictionary) fetch(ctx context.Context, text, from, to string) (*Result, error) {
	if d.provider == nil {
		return nil, &ProviderError{Kind: ErrNetwork, Message: "no provider configured"}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	d.logger.Debug("fetching translation", "from", from, "to", to)

	payload, err := d.provider.Fetch(fetchCtx, FetchRequest{Text: text, FromLang: from, ToLang: to})
	if err != nil {
		var pe *ProviderError
		if !errors.As(err, &pe) {
			err = &ProviderError{Kind: ErrNetwork, Message: "fetch failed", Cause: err}
		}
		d.logger.Warn("fetch failed", "from", from, "to", to,
			"duration", time.Since(start), "error", err)
		return nil, err
	}

	d.logger.Info("fetched translation", "from", from, "to", to,
		"duration", time.Since(start), "bytes", len(payload))

	n, err := d.normalizer.Normalize(payload)
	if err != nil {
		d.logger.Warn("unusable provider response", "from", from, "to", to, "error", err)
		return nil, err
	}

	result := &Result{
		Source:     text,
		FromLang:   from,
		ToLang:     to,
		Display:    n.Display,
		Example:    n.Example,
		Candidates: n.Candidates,
	}

	if d.store == nil {
		return result, nil
	}

	id, err := d.store.Insert(ctx, Record{
		Source:   text,
		Target:   n.Display,
		FromLang: from,
		ToLang:   to,
		Example:  n.Example,
	})
	if err != nil {
		d.logger.Warn("failed to persist translation", "from", from, "to", to, "error", err)
		result.PersistErr = err
		return result, nil
	}
	result.RecordID = id

	return result, nil
}

// History returns the stored records matching pattern, ordered by id.
// An empty pattern returns all records.
func (d *Dictionary) History(ctx context.Context, pattern string) ([]Record, error) {
	if d.store == nil {
		return nil, &StoreError{Kind: ErrStoreUnavailable, Op: "list"}
	}

	records, err := d.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return FilterRecords(records, pattern), nil
}

// Recall returns the stored record with the given id.
func (d *Dictionary) Recall(ctx context.Context, id int64) (*Record, error) {
	if d.store == nil {
		return nil, &StoreError{Kind: ErrStoreUnavailable, Op: "recall"}
	}

	records, err := d.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, &StoreError{Kind: ErrNotFound, Op: "recall"}
}

// DeleteHistory removes the records with the given ids. Ids that could not be
// removed are reported in a *DeleteError; the others are gone.
func (d *Dictionary) DeleteHistory(ctx context.Context, ids []int64) error {
	if d.store == nil {
		return &StoreError{Kind: ErrStoreUnavailable, Op: "delete"}
	}
	if len(ids) == 0 {
		return nil
	}

	err := d.store.DeleteByIDs(ctx, ids)

	var de *DeleteError
	if errors.As(err, &de) {
		for _, id := range de.FailedIDs() {
			d.logger.Warn("failed to delete record", "id", id, "error", de.Failed[id])
		}
	}

	return err
}

// ClearHistory removes every record.
func (d *Dictionary) ClearHistory(ctx context.Context) error {
	if d.store == nil {
		return &StoreError{Kind: ErrStoreUnavailable, Op: "clear"}
	}
	return d.store.DeleteAll(ctx)
}

// Store returns the configured Record Store, or nil.
func (d *Dictionary) Store() Store {
	return d.store
}
