package llmclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Chunk is one unit of a streamed reply.
type Chunk struct {
	Text string
	Done bool
	Err  error
}

// Stream emits incremental reply text over the returned channel, closing it
// after a final chunk with Done=true or an error chunk. Only the OpenAI
// family streams server-sent events; every other provider falls back to one
// blocking call delivered as a single chunk, per spec.md §4.3.
func (a *Adapter) Stream(ctx context.Context, cfg Config, messages []Message) (<-chan Chunk, error) {
	provider := classify(cfg.ApiUrl)
	ch := make(chan Chunk, 8)

	// Only Gemini and the Anthropic family lack a streaming shape here;
	// OpenAI-compatible and generic endpoints attempt SSE below.
	if provider == ProviderGemini || provider == ProviderAnthropic || provider == ProviderAnthropicLike {
		go a.fallbackSingleChunk(ctx, cfg, messages, ch)
		return ch, nil
	}

	req, err := a.buildRequest(ctx, provider, cfg, messages, true)
	if err != nil {
		return nil, err
	}
	a.counters.IncAPICall()
	resp, err := httpDo(a.streamingClient, req)
	if err != nil {
		go func() {
			ch <- Chunk{Err: errors.New(UserFacingError(err))}
			close(ch)
		}()
		return ch, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := &httpError{StatusCode: resp.StatusCode}
		resp.Body.Close()
		go func() {
			ch <- Chunk{Err: errors.New(UserFacingError(he))}
			close(ch)
		}()
		return ch, nil
	}

	go func() {
		defer resp.Body.Close()
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- Chunk{Err: ctx.Err()}
				return
			default:
			}
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				ch <- Chunk{Done: true}
				return
			}
			text := openAIDeltaText(payload)
			if text != "" {
				ch <- Chunk{Text: text}
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- Chunk{Err: errors.New("Не удалось связаться с AI сервисом.")}
			return
		}
		ch <- Chunk{Done: true}
	}()
	return ch, nil
}

func openAIDeltaText(payload string) string {
	var resp struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Delta.Content
}

// fallbackSingleChunk serves non-streaming-capable providers by making one
// blocking call and emitting the whole reply as a single chunk.
func (a *Adapter) fallbackSingleChunk(ctx context.Context, cfg Config, messages []Message, ch chan<- Chunk) {
	defer close(ch)
	text, err := a.Call(ctx, cfg, messages)
	if err != nil {
		ch <- Chunk{Err: err}
		return
	}
	ch <- Chunk{Text: text}
	ch <- Chunk{Done: true}
}
