// Package llmclient implements the LLM Adapter (C3): a single entry point
// that turns a bot's {api_url, api_key, ai_model, system_prompt} plus a
// message history into a model reply, dispatching the wire shape by
// substring-matching the configured URL the way spec.md's provider table
// requires. Grounded on the doPost pattern of a sibling example repo's
// llm.Client: one *http.Client, context-aware requests, a typed HTTP error.
package llmclient

import "strings"

// Provider identifies which wire shape a configured api_url resolves to.
type Provider int

const (
	ProviderAnthropicLike Provider = iota
	ProviderAnthropic
	ProviderOpenAI
	ProviderOpenAICompatibleNamed
	ProviderGemini
	ProviderGeneric
)

// classify resolves a Provider from the configured URL, checked in the
// priority order spec.md's dispatch table names. langdock.com is checked
// before anthropic.com only incidentally — the two patterns don't overlap.
func classify(apiURL string) Provider {
	switch {
	case strings.Contains(apiURL, "langdock.com"):
		return ProviderAnthropicLike
	case strings.Contains(apiURL, "anthropic.com"):
		return ProviderAnthropic
	case strings.Contains(apiURL, "openai.com"):
		return ProviderOpenAI
	case strings.Contains(apiURL, "deepseek.com"):
		return ProviderOpenAICompatibleNamed
	case strings.Contains(apiURL, "googleapis.com"), strings.Contains(apiURL, "generativelanguage"):
		return ProviderGemini
	default:
		return ProviderGeneric
	}
}

// supportsStreaming matches spec.md §4.3: only the OpenAI family streams.
func (p Provider) supportsStreaming() bool {
	return p == ProviderOpenAI || p == ProviderOpenAICompatibleNamed || p == ProviderGeneric
}

// endpointFor returns the final request URL for the given provider,
// applying the per-family rewrite rules (append /chat/completions, append
// Gemini's ?key= query).
func endpointFor(p Provider, apiURL, apiKey string) string {
	switch p {
	case ProviderOpenAI, ProviderOpenAICompatibleNamed, ProviderGeneric:
		if !strings.HasSuffix(apiURL, "/chat/completions") {
			return strings.TrimRight(apiURL, "/") + "/chat/completions"
		}
		return apiURL
	case ProviderGemini:
		sep := "?"
		if strings.Contains(apiURL, "?") {
			sep = "&"
		}
		return apiURL + sep + "key=" + apiKey
	default:
		return apiURL
	}
}
