package provider

import (
	"context"
	"encoding/json"
	"sync"
)

// MockProvider is a mock provider for testing.
// It answers with MyMemory-shaped payloads built from Translations.
type MockProvider struct {
	Translations map[string][]string // Map of source text to candidate translations
	Payloads     map[string]string   // Raw payloads, take precedence over Translations
	Err          error               // Returned from every Fetch when set
	CallCount    int                 // Number of times Fetch was called
	LastRequest  *FetchRequest       // Last request received

	mu sync.Mutex
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string][]string{
			"cat":   {"猫", "猫", "小猫"},
			"dog":   {"狗"},
			"hello": {"你好"},
			"你好":    {"Hello", "Hi"},
		},
		Payloads: map[string]string{},
	}
}

// Fetch returns a mock payload.
func (m *MockProvider) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = &req

	if m.Err != nil {
		return nil, m.Err
	}
	if payload, ok := m.Payloads[req.Text]; ok {
		return []byte(payload), nil
	}

	candidates, ok := m.Translations[req.Text]
	if !ok {
		// Return bracketed text for unknown translations
		candidates = []string{"[" + req.Text + "]"}
	}

	return buildPayload(req.Text, candidates), nil
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount = 0
	m.LastRequest = nil
}

// Calls returns the number of Fetch calls so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

type mockMatch struct {
	Segment     string `json:"segment"`
	Translation string `json:"translation"`
}

type mockPayload struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	Matches []mockMatch `json:"matches"`
}

func buildPayload(text string, candidates []string) []byte {
	var p mockPayload
	if len(candidates) > 0 {
		p.ResponseData.TranslatedText = candidates[0]
	}
	for _, c := range candidates {
		p.Matches = append(p.Matches, mockMatch{Segment: text, Translation: c})
	}

	data, _ := json.Marshal(p)
	return data
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
