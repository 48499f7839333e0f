package llmclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"botfleet/internal/stats"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// httpDo is a package-level var so tests can substitute a fake transport
// without standing up a real listener.
var httpDo = func(client *http.Client, req *http.Request) (*http.Response, error) {
	return client.Do(req)
}

// httpError is the typed failure returned for a non-2xx response, carrying
// enough to render spec.md's Russian-language status-naming error string.
type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm: status %d: %s", e.StatusCode, e.Body)
}

// UserFacingError renders the Russian-language string spec.md §4.3 requires
// for a failed blocking call or a streaming error chunk.
func UserFacingError(err error) string {
	var he *httpError
	if ok := asHTTPError(err, &he); ok {
		return fmt.Sprintf("Ошибка AI сервиса (код %d).", he.StatusCode)
	}
	return "Не удалось связаться с AI сервисом."
}

func asHTTPError(err error, target **httpError) bool {
	he, ok := err.(*httpError)
	if ok {
		*target = he
	}
	return ok
}

// FriendlyMessage extracts the Russian-language prefix Call wraps onto its
// errors (via "%s: %w") so a caller can show it to a Telegram user without
// leaking the English detail chained after it.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[:i]
	}
	return msg
}

// Adapter is the LLM Adapter (C3): two shared *http.Clients (one for
// blocking calls, one with a longer timeout for streaming) dispatching by
// provider family, with counters threaded through from the caller.
type Adapter struct {
	blockingClient  *http.Client
	streamingClient *http.Client
	counters        *stats.Counters
}

func New(counters *stats.Counters) *Adapter {
	return &Adapter{
		blockingClient:  &http.Client{Timeout: 60 * time.Second},
		streamingClient: &http.Client{Timeout: 120 * time.Second},
		counters:        counters,
	}
}

// Call performs one blocking request and returns the extracted reply text,
// or a Russian-language user-facing error string as the error's message.
func (a *Adapter) Call(ctx context.Context, cfg Config, messages []Message) (string, error) {
	provider := classify(cfg.ApiUrl)
	req, err := a.buildRequest(ctx, provider, cfg, messages, false)
	if err != nil {
		return "", fmt.Errorf("%s: %w", UserFacingError(err), err)
	}

	a.counters.IncAPICall()
	resp, err := httpDo(a.blockingClient, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", UserFacingError(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: llm: read body: %w", UserFacingError(err), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &httpError{StatusCode: resp.StatusCode, Body: string(body)}
		return "", fmt.Errorf("%s: %w", UserFacingError(he), he)
	}

	text, err := extractReply(provider, body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", UserFacingError(err), err)
	}
	if text == "" {
		return "", errors.New("Получен пустой ответ от AI сервиса.")
	}
	return text, nil
}

func (a *Adapter) buildRequest(ctx context.Context, provider Provider, cfg Config, messages []Message, stream bool) (*http.Request, error) {
	endpoint := endpointFor(provider, cfg.ApiUrl, cfg.ApiKey)
	body, err := requestBody(provider, cfg, messages, stream)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch provider {
	case ProviderGemini:
		// key is in the query string, no Authorization header.
	case ProviderAnthropic:
		req.Header.Set("Authorization", "Bearer "+cfg.ApiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	default:
		req.Header.Set("Authorization", "Bearer "+cfg.ApiKey)
	}

	slog.Debug("llm request", "component", "llmclient", "provider", provider, "stream", stream)
	return req, nil
}
