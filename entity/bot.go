// Package entity defines the domain types shared across the control plane.
package entity

import "net/http"

import "botfleet/lib/validate"

// Bot is one Telegram bot identity managed by this system: a Telegram
// binding, an LLM binding, an optional knowledge binding, and memory
// settings. is_running reflects the Supervisor's truth and is repaired by
// the reconciler when it is set for a bot that has no live worker.
type Bot struct {
	Id          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`

	Token string `json:"token" validate:"required"`

	TelegramUsername  string `json:"telegram_username"`
	TelegramFirstName string `json:"telegram_first_name"`
	TelegramBotId     int64  `json:"telegram_bot_id"`

	ApiUrl        string `json:"api_url" validate:"required"`
	ApiKey        string `json:"api_key" validate:"required"`
	AiModel       string `json:"ai_model" validate:"required"`
	SystemPrompt  string `json:"system_prompt"`
	DatabaseId    string `json:"database_id"`
	MemoryEnabled bool   `json:"memory_enabled"`
	// MemoryMessagesCount is clamped to [0, 50] by ClampMemoryCount wherever it is consumed.
	MemoryMessagesCount int `json:"memory_messages_count"`

	IsActive  bool `json:"is_active"`
	IsRunning bool `json:"is_running"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (b *Bot) Bind(_ *http.Request) error {
	return validate.Struct(b)
}

// ClampMemoryCount enforces the invariant from spec.md §8: the number of
// history rows pulled into a memory-aware call is always in [0, 50],
// regardless of what is stored on the bot row.
func ClampMemoryCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > 50 {
		return 50
	}
	return n
}

// LLMConfig is the subset of Bot the LLM Adapter needs, also used to
// shape the support-chat endpoint's fixed configuration (C9).
type LLMConfig struct {
	ApiUrl       string
	ApiKey       string
	AiModel      string
	SystemPrompt string
	DatabaseId   string
}

func (b *Bot) LLMConfig() LLMConfig {
	return LLMConfig{
		ApiUrl:       b.ApiUrl,
		ApiKey:       b.ApiKey,
		AiModel:      b.AiModel,
		SystemPrompt: b.SystemPrompt,
		DatabaseId:   b.DatabaseId,
	}
}
