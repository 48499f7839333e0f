package llmclient

import (
	"encoding/json"
	"fmt"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// requestBody marshals the provider-shaped request body, applying the
// per-family system-prompt placement spec.md §4.3 names.
func requestBody(provider Provider, cfg Config, messages []Message, stream bool) ([]byte, error) {
	switch provider {
	case ProviderAnthropic, ProviderAnthropicLike:
		return json.Marshal(anthropicRequest{
			Model:       cfg.AiModel,
			System:      cfg.SystemPrompt,
			Messages:    toChatMessages(messages),
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
			Stream:      stream,
		})
	case ProviderGemini:
		return json.Marshal(geminiRequest{
			Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenForGemini(cfg.SystemPrompt, messages)}}}},
		})
	default: // OpenAI, OpenAICompatibleNamed, Generic
		chatMessages := make([]chatMessage, 0, len(messages)+1)
		if cfg.SystemPrompt != "" {
			chatMessages = append(chatMessages, chatMessage{Role: "system", Content: cfg.SystemPrompt})
		}
		chatMessages = append(chatMessages, toChatMessages(messages)...)
		return json.Marshal(openAIRequest{
			Model:       cfg.AiModel,
			Messages:    chatMessages,
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
			Stream:      stream,
		})
	}
}

func toChatMessages(messages []Message) []chatMessage {
	out := make([]chatMessage, len(messages))
	for i, m := range messages {
		out[i] = chatMessage{Role: string(m.Role), Content: m.Text}
	}
	return out
}

// extractReply pulls the final text out of a non-streaming response body,
// trying the provider's documented shape and, for ProviderGeneric, the
// fallback chain spec.md §4.3 lists.
func extractReply(provider Provider, body []byte) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("llm: parse response: %w", err)
	}

	switch provider {
	case ProviderAnthropic, ProviderAnthropicLike:
		if text := anthropicContentText(raw); text != "" {
			return text, nil
		}
		return messageContentText(raw), nil
	case ProviderGemini:
		return geminiText(raw), nil
	case ProviderOpenAI, ProviderOpenAICompatibleNamed:
		return openAIChoiceText(raw), nil
	default:
		if text := openAIChoiceText(raw); text != "" {
			return text, nil
		}
		if text := anthropicContentText(raw); text != "" {
			return text, nil
		}
		for _, key := range []string{"response", "text", "content"} {
			if v, ok := raw[key]; ok {
				var s string
				if json.Unmarshal(v, &s) == nil {
					return s, nil
				}
			}
		}
		return "", nil
	}
}

func openAIChoiceText(raw map[string]json.RawMessage) string {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	data, ok := raw["choices"]
	if !ok {
		return ""
	}
	if err := json.Unmarshal(data, &resp.Choices); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func anthropicContentText(raw map[string]json.RawMessage) string {
	var content []struct {
		Text string `json:"text"`
	}
	data, ok := raw["content"]
	if !ok {
		return ""
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return ""
	}
	if len(content) == 0 {
		return ""
	}
	return content[0].Text
}

func messageContentText(raw map[string]json.RawMessage) string {
	data, ok := raw["message"]
	if !ok {
		return ""
	}
	var msg struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return ""
	}
	return msg.Content
}

func geminiText(raw map[string]json.RawMessage) string {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	data, ok := raw["candidates"]
	if !ok {
		return ""
	}
	if err := json.Unmarshal(data, &resp.Candidates); err != nil {
		return ""
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return resp.Candidates[0].Content.Parts[0].Text
}
