// Package pipeline implements the Message Pipeline (C6): the per-update
// orchestration that turns one Telegram message or callback query into a
// command execution or an LLM reply, re-reading bot configuration on every
// call so admin edits take effect without a bot restart.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"botfleet/entity"
	"botfleet/internal/command"
	"botfleet/internal/ctxreg"
	"botfleet/internal/llmclient"
	"botfleet/internal/logbuf"
	"botfleet/internal/stats"
	"botfleet/internal/store"
)

const (
	msgNonText    = "Извините, я работаю только с текстовыми сообщениями."
	msgUnexpected = "Извините, произошла ошибка при обработке вашего сообщения."
)

// ActiveChecker reports whether a bot currently has a live polling worker,
// satisfied by internal/supervisor.Supervisor. A separate interface avoids
// an import cycle between pipeline and supervisor.
type ActiveChecker interface {
	IsActive(botId string) bool
}

type Pipeline struct {
	store    *store.Store
	engine   *command.Engine
	llm      *llmclient.Adapter
	registry *ctxreg.Registry
	active   ActiveChecker
	counters *stats.Counters
	log      *slog.Logger
}

func New(st *store.Store, engine *command.Engine, llm *llmclient.Adapter, registry *ctxreg.Registry, active ActiveChecker, counters *stats.Counters, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:    st,
		engine:   engine,
		llm:      llm,
		registry: registry,
		active:   active,
		counters: counters,
		log:      log.With(logbuf.Category(entity.CategoryBot)),
	}
}

// loadActiveBot implements spec.md §4.6 step 1-2: re-read the bot row (never
// trust the config captured at worker start) and verify the supervisor
// still considers it active before doing any work.
func (p *Pipeline) loadActiveBot(botId string) (*entity.Bot, bool) {
	bot, err := p.store.GetBot(botId)
	if err != nil {
		p.log.Warn("bot lookup failed", "bot_id", botId, "error", err)
		return nil, false
	}
	if !bot.IsRunning || !p.active.IsActive(botId) {
		p.log.Warn("dropping update for inactive bot", "bot_id", botId)
		return nil, false
	}
	return bot, true
}

func replyText(tg *tgbotapi.Bot, chatId int64, text string) {
	_, _ = tg.SendMessage(chatId, text, nil)
}

// HandleMessage processes one incoming text (or non-text) message for botId,
// implementing spec.md §4.6 steps 1-7.
func (p *Pipeline) HandleMessage(ctx context.Context, tg *tgbotapi.Bot, botId string, ectx *ext.Context) (err error) {
	msg := ectx.EffectiveMessage
	if msg == nil {
		return nil
	}
	chatId := msg.Chat.Id

	ok := true
	defer func() {
		p.counters.IncRequest(ok)
		if r := recover(); r != nil {
			p.log.Error("pipeline panic", "bot_id", botId, "chat_id", chatId, "panic", r)
			replyText(tg, chatId, msgUnexpected)
		}
	}()

	bot, active := p.loadActiveBot(botId)
	if !active {
		return nil
	}

	if msg.Text == "" {
		replyText(tg, chatId, msgNonText)
		return nil
	}

	activeMultiCommandId, _ := p.registry.Get(botId, chatId)
	commands, cmdErr := p.store.ListActiveCommandsForBot(botId)
	if cmdErr != nil {
		p.log.Error("list commands failed", "bot_id", botId, "error", cmdErr)
		ok = false
		replyText(tg, chatId, msgUnexpected)
		return nil
	}
	visible := command.Visible(commands, activeMultiCommandId)

	matched, intentErr := p.engine.ClassifyIntent(ctx, bot, visible, msg.Text)
	if intentErr != nil {
		p.log.Error("intent classification failed", "bot_id", botId, "error", intentErr)
		ok = false
		replyText(tg, chatId, msgUnexpected)
		return nil
	}

	if matched != nil {
		p.runMatchedCommand(ctx, tg, bot, botId, chatId, nil, matched, msg.Text)
		return nil
	}

	reply, llmErr := p.llm.Call(ctx, p.llmConfig(bot), p.buildMemoryMessages(bot, chatId, msg.Text))
	if llmErr != nil {
		p.log.Error("llm call failed", "bot_id", botId, "chat_id", chatId, "error", llmErr)
		ok = false
		replyText(tg, chatId, llmclient.FriendlyMessage(llmErr))
		return nil
	}

	replyText(tg, chatId, reply)

	if histErr := p.store.AppendHistory(botId, chatId, msg.Text, reply); histErr != nil {
		p.log.Error("append history failed", "bot_id", botId, "chat_id", chatId, "error", histErr)
	}
	return nil
}

// HandleCallback processes one inline-button press for botId, implementing
// spec.md §4.6.2: no intent probe (exact name match on callback.data), edit
// in place using the original message id, and always answer the callback.
func (p *Pipeline) HandleCallback(ctx context.Context, tg *tgbotapi.Bot, botId string, ectx *ext.Context) (err error) {
	cq := ectx.CallbackQuery
	if cq == nil {
		return nil
	}

	defer func() {
		_, _ = cq.Answer(tg, nil)
		if r := recover(); r != nil {
			p.log.Error("callback pipeline panic", "bot_id", botId, "panic", r)
		}
	}()

	chatId := cq.From.Id
	var messageId *int64
	if im, ok := cq.Message.(tgbotapi.Message); ok {
		chatId = im.Chat.Id
		id := im.MessageId
		messageId = &id
	}

	if _, active := p.loadActiveBot(botId); !active {
		return nil
	}

	activeMultiCommandId, _ := p.registry.Get(botId, chatId)
	commands, cmdErr := p.store.ListActiveCommandsForBot(botId)
	if cmdErr != nil {
		p.log.Error("list commands failed", "bot_id", botId, "error", cmdErr)
		return nil
	}
	visible := command.Visible(commands, activeMultiCommandId)

	matched := command.MatchCallback(visible, cq.Data)
	if matched == nil {
		p.log.Info("callback data matched no visible command", "bot_id", botId, "data", cq.Data)
		return nil
	}

	p.counters.IncRequest(true)
	if err := p.engine.Execute(tg, p.registry, botId, chatId, messageId, matched); err != nil {
		p.log.Warn("command execution failed", "bot_id", botId, "command_id", matched.Id, "error", err)
	}
	return nil
}

// runMatchedCommand implements spec.md §4.5's pre-action reply (skipped for
// multi-command entry and always skipped on the callback path) followed by
// command execution.
func (p *Pipeline) runMatchedCommand(ctx context.Context, tg *tgbotapi.Bot, bot *entity.Bot, botId string, chatId int64, messageId *int64, matched *entity.Command, utterance string) {
	if !matched.IsMultiCommand {
		reply, preErr := p.engine.PreActionReply(ctx, bot, utterance)
		if preErr != nil {
			p.log.Warn("pre-action reply failed", "bot_id", botId, "error", preErr)
		} else if reply != "" {
			replyText(tg, chatId, reply)
			time.Sleep(command.PreActionDelay)
		}
	}

	if err := p.engine.Execute(tg, p.registry, botId, chatId, messageId, matched); err != nil {
		p.log.Warn("command execution failed", "bot_id", botId, "command_id", matched.Id, "error", err)
	}
}

// llmConfig derives the adapter Config for bot, injecting knowledge-base
// content into the system prompt when bot.DatabaseId resolves (spec.md §4.3).
func (p *Pipeline) llmConfig(bot *entity.Bot) llmclient.Config {
	systemPrompt := bot.SystemPrompt
	if bot.DatabaseId != "" {
		if db, err := p.store.GetDatabase(bot.DatabaseId); err == nil {
			systemPrompt = llmclient.ComposeSystemPrompt(bot.SystemPrompt, string(db.Type), db.Content)
		} else if err != store.ErrNotFound {
			p.log.Warn("database lookup failed", "bot_id", bot.Id, "database_id", bot.DatabaseId, "error", err)
		}
	}
	return llmclient.Config{
		ApiUrl:       bot.ApiUrl,
		ApiKey:       bot.ApiKey,
		AiModel:      bot.AiModel,
		SystemPrompt: systemPrompt,
	}
}

// buildMemoryMessages implements spec.md §4.6.1: when memory is disabled,
// just the current utterance; otherwise the newest clamp(memory_messages_count)
// history rows, reversed to chronological order, interleaved as
// user/assistant pairs ahead of the current utterance.
func (p *Pipeline) buildMemoryMessages(bot *entity.Bot, chatId int64, utterance string) []llmclient.Message {
	if !bot.MemoryEnabled {
		return []llmclient.Message{{Role: llmclient.RoleUser, Text: utterance}}
	}

	n := entity.ClampMemoryCount(bot.MemoryMessagesCount)
	if n == 0 {
		return []llmclient.Message{{Role: llmclient.RoleUser, Text: utterance}}
	}

	rows, err := p.store.RecentHistory(bot.Id, chatId, n)
	if err != nil {
		p.log.Warn("recent history lookup failed", "bot_id", bot.Id, "chat_id", chatId, "error", err)
		return []llmclient.Message{{Role: llmclient.RoleUser, Text: utterance}}
	}

	messages := make([]llmclient.Message, 0, len(rows)*2+1)
	for i := len(rows) - 1; i >= 0; i-- {
		messages = append(messages,
			llmclient.Message{Role: llmclient.RoleUser, Text: rows[i].UserMessage},
			llmclient.Message{Role: llmclient.RoleAssistant, Text: rows[i].AiResponse},
		)
	}
	messages = append(messages, llmclient.Message{Role: llmclient.RoleUser, Text: utterance})
	return messages
}
