// Package support implements the Support Chat endpoint (C9): reuses the
// LLM Adapter with a fixed system prompt sourced from the four
// support_ai_* settings rows, rather than a per-bot LLMConfig.
package support

import (
	"context"
	"fmt"
	"log/slog"

	"botfleet/entity"
	"botfleet/internal/llmclient"
	"botfleet/internal/store"
)

type Service struct {
	store *store.Store
	llm   *llmclient.Adapter
	log   *slog.Logger
}

func New(st *store.Store, llm *llmclient.Adapter, log *slog.Logger) *Service {
	return &Service{store: st, llm: llm, log: log.With("component", "support")}
}

// config reads the current support_ai_* settings into an llmclient.Config.
func (svc *Service) config() (llmclient.Config, error) {
	url, err := svc.store.GetSetting(entity.SettingSupportAIURL)
	if err != nil {
		return llmclient.Config{}, fmt.Errorf("load support config: %w", err)
	}
	key, err := svc.store.GetSetting(entity.SettingSupportAIKey)
	if err != nil {
		return llmclient.Config{}, fmt.Errorf("load support config: %w", err)
	}
	model, err := svc.store.GetSetting(entity.SettingSupportAIModel)
	if err != nil {
		return llmclient.Config{}, fmt.Errorf("load support config: %w", err)
	}
	prompt, err := svc.store.GetSetting(entity.SettingSupportAIPrompt)
	if err != nil {
		return llmclient.Config{}, fmt.Errorf("load support config: %w", err)
	}
	return llmclient.Config{ApiUrl: url, ApiKey: key, AiModel: model, SystemPrompt: prompt}, nil
}

// Reply performs one blocking support-chat call.
func (svc *Service) Reply(ctx context.Context, message string) (string, error) {
	cfg, err := svc.config()
	if err != nil {
		return "", err
	}
	if cfg.ApiUrl == "" {
		return "", fmt.Errorf("служба поддержки не настроена")
	}
	return svc.llm.Call(ctx, cfg, []llmclient.Message{{Role: llmclient.RoleUser, Text: message}})
}

// Stream performs one streaming support-chat call, same duality as bot
// replies (spec.md §4.3's streaming rules apply unchanged here).
func (svc *Service) Stream(ctx context.Context, message string) (<-chan llmclient.Chunk, error) {
	cfg, err := svc.config()
	if err != nil {
		return nil, err
	}
	if cfg.ApiUrl == "" {
		return nil, fmt.Errorf("служба поддержки не настроена")
	}
	return svc.llm.Stream(ctx, cfg, []llmclient.Message{{Role: llmclient.RoleUser, Text: message}})
}
