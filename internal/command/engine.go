package command

import (
	"context"
	"log/slog"
	"time"

	"botfleet/entity"
	"botfleet/internal/intentcache"
	"botfleet/internal/llmclient"
)

const preActionSystemPrompt = "Кратко (1-2 предложения) подтверди запрос пользователя естественным языком. Не перечисляй пункты меню."

// Engine is the Command Engine (C5): visible-command resolution, intent
// classification, and scripted-command execution. Stateless beyond its
// collaborators — every call re-derives behavior from the arguments it's
// given, matching the Message Pipeline's "never trust cached config" stance.
type Engine struct {
	llm   *llmclient.Adapter
	cache intentcache.Cache
	log   *slog.Logger
}

func New(llm *llmclient.Adapter, cache intentcache.Cache, log *slog.Logger) *Engine {
	return &Engine{llm: llm, cache: cache, log: log.With("component", "command")}
}

// PreActionReply makes the short natural-language acknowledgement call
// spec.md §4.5 requires before executing a text-matched, non-multi-command.
func (e *Engine) PreActionReply(ctx context.Context, bot *entity.Bot, utterance string) (string, error) {
	return e.llm.Call(ctx, llmclient.Config{
		ApiUrl:       bot.ApiUrl,
		ApiKey:       bot.ApiKey,
		AiModel:      bot.AiModel,
		SystemPrompt: preActionSystemPrompt,
	}, []llmclient.Message{{Role: llmclient.RoleUser, Text: utterance}})
}

// PreActionDelay is the pause between the natural reply and the command's
// scripted UI, giving the conversation a lead-in beat (spec.md §4.5).
const PreActionDelay = 500 * time.Millisecond
