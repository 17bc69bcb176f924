package provider

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ZaguanLabs/lexicache"
)

// DefaultMyMemoryEndpoint is the public MyMemory translation endpoint.
const DefaultMyMemoryEndpoint = "https://api.mymemory.translated.net/get"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// MyMemoryProvider implements Provider using the MyMemory HTTP API.
// Each Fetch issues exactly one GET request and is never retried.
type MyMemoryProvider struct {
	client    *http.Client
	endpoint  string
	userAgent string
	email     string
	timeout   time.Duration
}

// MyMemoryConfig holds configuration for the MyMemory provider.
type MyMemoryConfig struct {
	Endpoint   string        // API endpoint (default: DefaultMyMemoryEndpoint)
	UserAgent  string        // User-Agent header (default: lexicache.UserAgent())
	Email      string        // Optional contact address, raises the free quota
	Timeout    time.Duration // Per-request timeout (default: lexicache.DefaultTimeout)
	HTTPClient *http.Client  // Custom client (optional)
}

// NewMyMemoryProvider creates a new MyMemory provider.
func NewMyMemoryProvider(cfg MyMemoryConfig) *MyMemoryProvider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultMyMemoryEndpoint
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = lexicache.UserAgent()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = lexicache.DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &MyMemoryProvider{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		email:     cfg.Email,
		timeout:   timeout,
	}
}

// Fetch requests a translation of req.Text and returns the raw JSON payload.
func (p *MyMemoryProvider) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	u, err := p.buildURL(req)
	if err != nil {
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "invalid endpoint",
			Cause:   err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "building request failed",
			Cause:   err,
		}
	}
	httpReq.Header.Set("User-Agent", p.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "MyMemory request failed",
			Cause:   err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "reading MyMemory response failed",
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &lexicache.ProviderError{
			Kind:       lexicache.ErrHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status from MyMemory",
		}
	}

	return body, nil
}

func (p *MyMemoryProvider) buildURL(req FetchRequest) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("q", req.Text)
	q.Set("langpair", req.FromLang+"|"+req.ToLang)
	if p.email != "" {
		q.Set("de", p.email)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Verify MyMemoryProvider implements Provider
var _ Provider = (*MyMemoryProvider)(nil)
