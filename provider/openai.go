package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/lexicache"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using OpenAI's API.
//
// The model is asked to answer in the same JSON shape MyMemory returns, so the
// payload goes through the regular normalizer.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string       // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model       string       // Model to use (default: "gpt-4o-mini")
	Temperature float32      // Temperature for generation (default: 0.3)
	BaseURL     string       // Custom base URL (optional)
	HTTPClient  *http.Client // Custom client (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Fetch translates req.Text with a single chat completion and returns the
// model's JSON answer.
func (p *OpenAIProvider) Fetch(ctx context.Context, req FetchRequest) ([]byte, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if status := httpStatus(err); status != 0 {
			return nil, &lexicache.ProviderError{
				Kind:       lexicache.ErrHTTPStatus,
				StatusCode: status,
				Message:    "OpenAI API call failed",
				Cause:      err,
			}
		}
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "OpenAI API call failed",
			Cause:   err,
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &lexicache.ProviderError{
			Kind:    lexicache.ErrNetwork,
			Message: "no response from OpenAI",
		}
	}

	return []byte(stripCodeFence(resp.Choices[0].Message.Content)), nil
}

func (p *OpenAIProvider) buildSystemPrompt(req FetchRequest) string {
	sourceName := lexicache.GetLanguageName(req.FromLang)
	targetName := lexicache.GetLanguageName(req.ToLang)

	return fmt.Sprintf(`# Role
You are a bilingual dictionary. You translate words and short phrases from %s to %s.

# Task
Give the most common translation of the input, followed by up to three alternative translations a dictionary would list, most common first.

# Format
Return a valid JSON object exactly in this shape:
{
  "responseData": {"translatedText": "<best translation>"},
  "matches": [
    {"segment": "<input>", "translation": "<best translation>"},
    {"segment": "<input>", "translation": "<alternative translation>"}
  ]
}
- The first match repeats the best translation.
- Each further match carries one alternative translation.
- Do NOT wrap in Markdown code blocks.
- Do NOT add explanations or extra keys.`, sourceName, targetName)
}

func (p *OpenAIProvider) buildUserMessage(req FetchRequest) string {
	data, _ := json.Marshal(map[string]string{
		"text": req.Text,
		"from": req.FromLang,
		"to":   req.ToLang,
	})
	return string(data)
}

// httpStatus extracts the HTTP status of a failed API call, or 0 when the
// request never got a response.
func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// stripCodeFence removes a Markdown code fence some models add despite being
// told not to.
func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
