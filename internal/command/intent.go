package command

import (
	"context"
	"strings"

	"botfleet/entity"
	"botfleet/internal/intentcache"
	"botfleet/internal/llmclient"
)

const intentSystemPrompt = "Ты помощник для определения команд. Отвечай кратко и точно."
const noMatchToken = "НЕТ"

// ClassifyIntent asks the LLM which of the visible commands (if any) a
// free-form utterance refers to, memoized for intentcache.TTL per
// spec.md's design note on the classification cache.
func (e *Engine) ClassifyIntent(ctx context.Context, bot *entity.Bot, visible []*entity.Command, utterance string) (*entity.Command, error) {
	if len(visible) == 0 {
		return nil, nil
	}

	names := make([]string, len(visible))
	for i, c := range visible {
		names[i] = c.Name
	}

	if cached, ok := e.cache.Get(ctx, bot.Id, names, utterance); ok {
		return findByName(visible, cached), nil
	}

	prompt := buildIntentProbe(visible)
	reply, err := e.llm.Call(ctx, llmclient.Config{
		ApiUrl:       bot.ApiUrl,
		ApiKey:       bot.ApiKey,
		AiModel:      bot.AiModel,
		SystemPrompt: intentSystemPrompt,
	}, []llmclient.Message{{Role: llmclient.RoleUser, Text: prompt + "\n\nСообщение пользователя: " + utterance}})
	if err != nil {
		return nil, err
	}

	matched := matchIntentReply(visible, reply)
	result := ""
	if matched != nil {
		result = matched.Name
	}
	e.cache.Set(ctx, bot.Id, names, utterance, result)
	return matched, nil
}

func buildIntentProbe(visible []*entity.Command) string {
	var b strings.Builder
	b.WriteString("Доступные команды:\n")
	for _, c := range visible {
		b.WriteString("- ")
		b.WriteString(c.Name)
		if c.Description != "" {
			b.WriteString(": ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nЕсли сообщение пользователя соответствует одной из команд, ответь названием этой команды. Если не соответствует ни одной, ответь ровно: " + noMatchToken)
	return b.String()
}

// matchIntentReply applies spec.md §4.5: a command matches when its name
// appears case-insensitively in the reply AND НЕТ does not, ties broken by
// first match in visibility order.
func matchIntentReply(visible []*entity.Command, reply string) *entity.Command {
	lower := strings.ToLower(reply)
	if strings.Contains(lower, strings.ToLower(noMatchToken)) {
		return nil
	}
	for _, c := range visible {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c
		}
	}
	return nil
}

func findByName(visible []*entity.Command, name string) *entity.Command {
	if name == "" {
		return nil
	}
	for _, c := range visible {
		if c.Name == name {
			return c
		}
	}
	return nil
}
