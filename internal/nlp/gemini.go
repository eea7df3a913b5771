package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"jack/internal/logging"
	"jack/internal/types"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the Gemini intent client.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		BaseURL:         defaultBaseURL,
		Model:           "gemini-2.5-flash",
		Timeout:         90 * time.Second,
		MaxOutputTokens: 8192,
	}
}

// GeminiClient implements IntentClient against the Gemini API.
type GeminiClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a client with default configuration.
func NewGeminiClient(apiKey string) *GeminiClient {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a client with custom configuration.
func NewGeminiClientWithConfig(config GeminiConfig) *GeminiClient {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(config.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &GeminiClient{
		apiKey:          config.APIKey,
		baseURL:         baseURL,
		model:           model,
		maxOutputTokens: config.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// ParseIntent sends the user text (plus context snapshot) through the
// model and decodes the returned JSON into an IntentParseResult.
func (c *GeminiClient) ParseIntent(ctx context.Context, text string, snapshot *types.ContextSnapshot) (*types.IntentParseResult, error) {
	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()
	logging.APIDebug("[Gemini] ParseIntent: model=%s text_len=%d", c.model, len(text))

	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	// Rate limiting: at most one request per 100ms.
	c.mu.Lock()
	if elapsed := time.Since(c.lastRequest); elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	userPrompt := buildUserPrompt(text, snapshot)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: intentSystemPrompt}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.2,
			MaxOutputTokens:  c.maxOutputTokens,
			ResponseMimeType: "application/json",
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	// Retry loop for rate limits and transient network failures.
	maxRetries := 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var geminiResp geminiResponse
		if err := json.Unmarshal(body, &geminiResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if geminiResp.Error != nil {
			return nil, fmt.Errorf("API error: %s", geminiResp.Error.Message)
		}
		if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("%w: no completion returned", ErrMalformedResponse)
		}

		var sb strings.Builder
		for _, part := range geminiResp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}

		result, err := decodeParseResult(sb.String())
		if err != nil {
			return nil, err
		}

		logging.API("[Gemini] ParseIntent: completed in %v intents=%d groups=%d clarify=%t",
			time.Since(start), len(result.Intents), len(result.ExecutionOrder), result.Clarification != nil)
		return result, nil
	}

	logging.APIError("[Gemini] ParseIntent: max retries exceeded after %v: %v", time.Since(start), lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// decodeParseResult decodes the model's JSON and applies the minimal
// well-formedness checks this side owns: unique intent IDs, and every
// execution-order reference resolving to a declared intent.
// Topological layering is the collaborator's responsibility.
func decodeParseResult(raw string) (*types.IntentParseResult, error) {
	raw = strings.TrimSpace(raw)
	// Models occasionally wrap JSON in a code fence despite the mime
	// type; strip it.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var result types.IntentParseResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	seen := make(map[string]bool, len(result.Intents))
	for _, intent := range result.Intents {
		if intent.ID == "" || intent.Action == "" {
			return nil, fmt.Errorf("%w: intent missing id or action", ErrMalformedResponse)
		}
		if seen[intent.ID] {
			return nil, fmt.Errorf("%w: duplicate intent id %q", ErrMalformedResponse, intent.ID)
		}
		seen[intent.ID] = true
	}
	for _, group := range result.ExecutionOrder {
		for _, id := range group {
			if !seen[id] {
				return nil, fmt.Errorf("%w: execution order references unknown intent %q", ErrMalformedResponse, id)
			}
		}
	}

	// A parse with intents but no execution order runs everything as
	// one parallel group.
	if len(result.ExecutionOrder) == 0 && len(result.Intents) > 0 {
		group := make([]string, 0, len(result.Intents))
		for _, intent := range result.Intents {
			group = append(group, intent.ID)
		}
		result.ExecutionOrder = types.ExecutionOrder{group}
	}

	return &result, nil
}

// buildUserPrompt folds the context snapshot into the request text.
func buildUserPrompt(text string, snapshot *types.ContextSnapshot) string {
	if snapshot == nil {
		return text
	}
	ctxJSON, err := json.Marshal(snapshot)
	if err != nil {
		return text
	}
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.Write(ctxJSON)
	sb.WriteString("\n\nUser input:\n")
	sb.WriteString(text)
	return sb.String()
}
