package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// LLMService talks to a locally hosted Ollama inference endpoint. A Generate
// call is single-shot and non-mutating, so callers may wrap it in their own
// retry policy without changing its semantics.
type LLMService struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// OllamaRequest represents a request to the Ollama generate API
type OllamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// OllamaResponse represents a response from the Ollama generate API
type OllamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewLLMService creates a gateway to the given endpoint and model.
func NewLLMService(baseURL, model string, timeout time.Duration) *LLMService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "phi4-mini:latest"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &LLMService{
		baseURL:    baseURL,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends the composed prompt to the model and returns the sanitized
// reply. Failures wrap ErrModelTimeout or ErrModelUnavailable so callers can
// tell them apart.
func (l *LLMService) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := OllamaRequest{
		Model:  l.model,
		Prompt: prompt,
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrModelTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var ollamaResp OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrModelUnavailable, err)
	}
	if ollamaResp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrModelUnavailable, ollamaResp.Error)
	}

	return stripReasoning(ollamaResp.Response), nil
}

// GenerateWithRetry wraps Generate with an at-most-attempts retry policy.
// Timeouts are not retried: the deadline already elapsed once.
func (l *LLMService) GenerateWithRetry(ctx context.Context, prompt string, attempts int, backoff time.Duration) (string, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Warnf("Retrying model request (attempt %d/%d)", i+1, attempts)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		reply, err := l.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if errors.Is(err, ErrModelTimeout) {
			break
		}
	}
	return "", lastErr
}

// IsAvailable checks whether the inference endpoint answers at all.
func (l *LLMService) IsAvailable() bool {
	resp, err := l.httpClient.Get(l.baseURL + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the model names the endpoint has available.
func (l *LLMService) ListModels() ([]string, error) {
	resp, err := l.httpClient.Get(l.baseURL + "/api/tags")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrModelUnavailable, err)
	}

	var names []string
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// GetModel returns the configured model name.
func (l *LLMService) GetModel() string {
	return l.model
}

// GetStatus returns the status of the LLM service
func (l *LLMService) GetStatus() map[string]interface{} {
	status := map[string]interface{}{
		"base_url": l.baseURL,
		"model":    l.model,
		"timeout":  l.timeout.String(),
	}

	if l.IsAvailable() {
		status["status"] = "available"
		if models, err := l.ListModels(); err == nil {
			status["available_models"] = models
		}
	} else {
		status["status"] = "unavailable"
	}

	return status
}

var reasoningBlockRe = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
var reasoningOpenRe = regexp.MustCompile(`(?is)<think(?:ing)?>.*$`)

// stripReasoning removes reasoning-block markers that small models sometimes
// leak despite the metacognitive instructions asking them not to. An
// unterminated opening marker drops the rest of the text.
func stripReasoning(s string) string {
	s = reasoningBlockRe.ReplaceAllString(s, "")
	s = reasoningOpenRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
