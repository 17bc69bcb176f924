package lexicache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// mockProvider is a simple mock for testing
type mockProvider struct {
	mu       sync.Mutex
	payloads map[string]string
	err      error
	block    chan struct{}
	calls    int
	lastReq  FetchRequest
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		payloads: map[string]string{
			"cat": `{"responseData":{"translatedText":""},"matches":[
				{"translation":"猫","segment":"cat"},
				{"translation":"猫","segment":"cat"},
				{"translation":"小猫","segment":"kitten"}]}`,
			"你好": `{"responseData":{"translatedText":"Hello"},"matches":[{"translation":"Hello","segment":"你好"}]}`,
			"junk":  `not json`,
			"empty": `{"responseData":{"translatedText":""},"responseDetails":"","matches":[]}`,
		},
	}
}

func (m *mockProvider) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.lastReq = req
	block := m.block
	err := m.err
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if p, ok := m.payloads[req.Text]; ok {
		return []byte(p), nil
	}
	return []byte(fmt.Sprintf(`{"responseData":{"translatedText":"[%s]"}}`, req.Text)), nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStore is a simple in-memory store for testing
type mockStore struct {
	mu          sync.Mutex
	records     []Record
	nextID      int64
	insertCount int
	findErr     error
	insertErr   error
	listErr     error
}

func newMockStore() *mockStore {
	return &mockStore{nextID: 1}
}

func (s *mockStore) Init(ctx context.Context) error { return nil }

func (s *mockStore) Insert(ctx context.Context, r Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	r.ID = s.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.nextID++
	s.insertCount++
	s.records = append(s.records, r)
	return r.ID, nil
}

func (s *mockStore) FindLatest(ctx context.Context, source, fromLang, toLang string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if r.Source == source && r.FromLang == fromLang && r.ToLang == toLang {
			return &r, nil
		}
	}
	return nil, &StoreError{Kind: ErrNotFound, Op: "find"}
}

func (s *mockStore) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *mockStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := make(map[int64]error)
	for _, id := range ids {
		found := false
		for i, r := range s.records {
			if r.ID == id {
				s.records = append(s.records[:i], s.records[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			failed[id] = ErrNotFound
		}
	}
	if len(failed) > 0 {
		return &DeleteError{Failed: failed}
	}
	return nil
}

func (s *mockStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *mockStore) Close() error { return nil }

var _ Store = (*mockStore)(nil)
var _ Provider = (*mockProvider)(nil)

func TestDictionary_MissThenHit(t *testing.T) {
	provider := newMockProvider()
	store := newMockStore()
	d := NewDictionary(provider, WithStore(store))
	ctx := context.Background()

	first, err := d.Lookup(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if first.FromCache {
		t.Error("first lookup should be fetched")
	}
	if first.Display != "1. 猫\n2. 小猫" {
		t.Errorf("Display = %q", first.Display)
	}
	if first.Example != "Original: cat\nTranslation: 猫" {
		t.Errorf("Example = %q", first.Example)
	}
	if first.RecordID != 1 {
		t.Errorf("RecordID = %d, want 1", first.RecordID)
	}

	second, err := d.Lookup(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !second.FromCache {
		t.Error("second lookup should be served from the store")
	}
	if second.Display != first.Display || second.Example != first.Example {
		t.Errorf("cache hit differs from fetched result: %+v vs %+v", second, first)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount())
	}
	if store.insertCount != 1 {
		t.Errorf("store inserted %d records, want 1", store.insertCount)
	}
}

func TestDictionary_HitIsDeterministic(t *testing.T) {
	store := newMockStore()
	store.Insert(context.Background(), Record{Source: "dog", Target: "1. 狗", FromLang: "en", ToLang: "zh-CN", Example: "ex"})
	provider := newMockProvider()
	d := NewDictionary(provider, WithStore(store))

	for i := 0; i < 3; i++ {
		res, err := d.Lookup(context.Background(), "dog", EnToZh)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if !res.FromCache || res.Display != "1. 狗" || res.Example != "ex" || res.RecordID != 1 {
			t.Errorf("unexpected result: %+v", res)
		}
	}
	if provider.callCount() != 0 {
		t.Errorf("provider should not be called on hits, got %d calls", provider.callCount())
	}
}

func TestDictionary_Direction(t *testing.T) {
	provider := newMockProvider()
	d := NewDictionary(provider, WithStore(newMockStore()))

	res, err := d.Lookup(context.Background(), "你好", ZhToEn)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if provider.lastReq.FromLang != "zh-CN" || provider.lastReq.ToLang != "en" {
		t.Errorf("unexpected request langs: %+v", provider.lastReq)
	}
	if res.FromLang != "zh-CN" || res.ToLang != "en" || res.Display != "1. Hello" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDictionary_TrimsQuery(t *testing.T) {
	provider := newMockProvider()
	store := newMockStore()
	d := NewDictionary(provider, WithStore(store))
	ctx := context.Background()

	if _, err := d.Lookup(ctx, "  cat\n", EnToZh); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if provider.lastReq.Text != "cat" {
		t.Errorf("provider got %q, want trimmed text", provider.lastReq.Text)
	}

	res, err := d.Lookup(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !res.FromCache {
		t.Error("trimmed query should hit the stored record")
	}
}

func TestDictionary_EmptyQuery(t *testing.T) {
	provider := newMockProvider()
	d := NewDictionary(provider)

	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := d.Submit(context.Background(), text, EnToZh); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Submit(%q) error = %v, want ErrEmptyQuery", text, err)
		}
	}
	if provider.callCount() != 0 {
		t.Error("empty queries should not reach the provider")
	}
}

func TestDictionary_Busy(t *testing.T) {
	provider := newMockProvider()
	provider.block = make(chan struct{})
	d := NewDictionary(provider, WithStore(newMockStore()))
	ctx := context.Background()

	p, err := d.Submit(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := d.Submit(ctx, "dog", EnToZh); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit error = %v, want ErrBusy", err)
	}

	close(provider.block)
	if _, err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	res, err := d.Lookup(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup after completion failed: %v", err)
	}
	if !res.FromCache {
		t.Error("record should be visible once the pending lookup completes")
	}
}

func TestDictionary_ProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"plain error becomes network error", errors.New("connection refused"), ErrNetwork},
		{"provider error passes through", &ProviderError{Kind: ErrHTTPStatus, StatusCode: 503, Message: "unexpected status"}, ErrHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newMockProvider()
			provider.err = tt.err
			store := newMockStore()
			d := NewDictionary(provider, WithStore(store))

			_, err := d.Lookup(context.Background(), "cat", EnToZh)
			if !errors.Is(err, tt.expected) {
				t.Errorf("error = %v, want %v", err, tt.expected)
			}
			if store.insertCount != 0 {
				t.Error("failed fetch should not persist anything")
			}

			// The guard is released after a failure.
			provider.mu.Lock()
			provider.err = nil
			provider.mu.Unlock()
			if _, err := d.Lookup(context.Background(), "cat", EnToZh); err != nil {
				t.Errorf("lookup after failure: %v", err)
			}
		})
	}
}

func TestDictionary_NormalizeErrors(t *testing.T) {
	tests := []struct {
		text     string
		expected error
	}{
		{"junk", ErrParse},
		{"empty", ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			store := newMockStore()
			d := NewDictionary(newMockProvider(), WithStore(store))

			_, err := d.Lookup(context.Background(), tt.text, EnToZh)
			if !errors.Is(err, tt.expected) {
				t.Errorf("error = %v, want %v", err, tt.expected)
			}
			if store.insertCount != 0 {
				t.Error("unusable payload should not be persisted")
			}
		})
	}
}

func TestDictionary_Timeout(t *testing.T) {
	provider := newMockProvider()
	provider.block = make(chan struct{})
	defer close(provider.block)
	d := NewDictionary(provider, WithTimeout(20*time.Millisecond))

	_, err := d.Lookup(context.Background(), "cat", EnToZh)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap the deadline, got %v", err)
	}

	// The timed-out fetch must have released the guard.
	p, err := d.Submit(context.Background(), "cat", EnToZh)
	if errors.Is(err, ErrBusy) {
		t.Fatal("guard still held after timeout")
	}
	if err != nil {
		t.Fatalf("Submit after timeout failed: %v", err)
	}
	if _, err := p.Wait(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Errorf("second lookup error = %v, want ErrNetwork", err)
	}
	if n := provider.callCount(); n != 2 {
		t.Errorf("provider calls = %d, want 2", n)
	}
}

func TestDictionary_CallerCancelAbandonsWaitOnly(t *testing.T) {
	provider := newMockProvider()
	provider.block = make(chan struct{})
	store := newMockStore()
	d := NewDictionary(provider, WithStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	p, err := d.Submit(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}

	close(provider.block)
	<-p.Done()

	res, err := p.Wait(context.Background())
	if err != nil {
		t.Fatalf("late result failed: %v", err)
	}
	if res.RecordID == 0 {
		t.Error("late result should still be persisted")
	}
	if store.insertCount != 1 {
		t.Errorf("insertCount = %d, want 1", store.insertCount)
	}
}

func TestDictionary_PersistFailureIsNonFatal(t *testing.T) {
	store := newMockStore()
	store.insertErr = &StoreError{Kind: ErrWriteFailed, Op: "insert"}
	d := NewDictionary(newMockProvider(), WithStore(store))

	res, err := d.Lookup(context.Background(), "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.Display != "1. 猫\n2. 小猫" {
		t.Errorf("Display = %q", res.Display)
	}
	if !errors.Is(res.PersistErr, ErrWriteFailed) {
		t.Errorf("PersistErr = %v, want ErrWriteFailed", res.PersistErr)
	}
	if res.RecordID != 0 {
		t.Errorf("RecordID = %d, want 0", res.RecordID)
	}
}

func TestDictionary_WithoutStore(t *testing.T) {
	provider := newMockProvider()
	d := NewDictionary(provider)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := d.Lookup(ctx, "cat", EnToZh)
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if res.FromCache {
			t.Error("lookup without a store should never hit")
		}
	}
	if provider.callCount() != 2 {
		t.Errorf("provider called %d times, want 2", provider.callCount())
	}

	if _, err := d.History(ctx, ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("History error = %v, want ErrStoreUnavailable", err)
	}
	if err := d.DeleteHistory(ctx, []int64{1}); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("DeleteHistory error = %v, want ErrStoreUnavailable", err)
	}
	if err := d.ClearHistory(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("ClearHistory error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := d.Recall(ctx, 1); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Recall error = %v, want ErrStoreUnavailable", err)
	}
}

func TestDictionary_NilProvider(t *testing.T) {
	d := NewDictionary(nil)

	if _, err := d.Lookup(context.Background(), "cat", EnToZh); !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}

func TestDictionary_History(t *testing.T) {
	store := newMockStore()
	d := NewDictionary(newMockProvider(), WithStore(store))
	ctx := context.Background()

	for _, text := range []string{"cat", "dog", "bird"} {
		if _, err := d.Lookup(ctx, text, EnToZh); err != nil {
			t.Fatalf("Lookup(%q) failed: %v", text, err)
		}
	}

	all, err := d.History(ctx, "")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !equalIDs(ids(all), []int64{1, 2, 3}) {
		t.Errorf("History ids = %v, want [1 2 3]", ids(all))
	}

	filtered, err := d.History(ctx, "DOG")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !equalIDs(ids(filtered), []int64{2}) {
		t.Errorf("filtered ids = %v, want [2]", ids(filtered))
	}

	store.listErr = &StoreError{Kind: ErrStoreUnavailable, Op: "list"}
	if _, err := d.History(ctx, ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("History error = %v, want ErrStoreUnavailable", err)
	}
}

func TestDictionary_Recall(t *testing.T) {
	store := newMockStore()
	d := NewDictionary(newMockProvider(), WithStore(store))
	ctx := context.Background()

	if _, err := d.Lookup(ctx, "cat", EnToZh); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	rec, err := d.Recall(ctx, 1)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if rec.Source != "cat" || rec.Target != "1. 猫\n2. 小猫" {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := d.Recall(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Recall error = %v, want ErrNotFound", err)
	}
	if store.insertCount != 1 {
		t.Error("Recall should not write")
	}
}

func TestDictionary_DeleteHistoryReportsFailedIDs(t *testing.T) {
	store := newMockStore()
	d := NewDictionary(newMockProvider(), WithStore(store))
	ctx := context.Background()

	for _, text := range []string{"cat", "dog", "bird"} {
		if _, err := d.Lookup(ctx, text, EnToZh); err != nil {
			t.Fatalf("Lookup(%q) failed: %v", text, err)
		}
	}

	err := d.DeleteHistory(ctx, []int64{2, 999})
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("error = %v, want ErrPartialFailure", err)
	}

	var de *DeleteError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeleteError, got %T", err)
	}
	if !equalIDs(de.FailedIDs(), []int64{999}) {
		t.Errorf("FailedIDs = %v, want [999]", de.FailedIDs())
	}

	remaining, _ := d.History(ctx, "")
	if !equalIDs(ids(remaining), []int64{1, 3}) {
		t.Errorf("remaining ids = %v, want [1 3]", ids(remaining))
	}

	if err := d.DeleteHistory(ctx, nil); err != nil {
		t.Errorf("empty delete should succeed, got %v", err)
	}
}

func TestDictionary_ClearHistory(t *testing.T) {
	store := newMockStore()
	d := NewDictionary(newMockProvider(), WithStore(store))
	ctx := context.Background()

	if _, err := d.Lookup(ctx, "cat", EnToZh); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if err := d.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	all, _ := d.History(ctx, "")
	if len(all) != 0 {
		t.Errorf("expected empty history, got %d records", len(all))
	}

	res, err := d.Lookup(ctx, "cat", EnToZh)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if res.FromCache {
		t.Error("cleared record should not be served")
	}
	if res.RecordID != 2 {
		t.Errorf("RecordID = %d, want 2 (ids are not reused)", res.RecordID)
	}
}
