package command

import (
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"botfleet/entity"
	"botfleet/internal/ctxreg"
)

const errExecutionFailed = "Ошибка выполнения команды."

// Execute runs a matched command's scripted UI, either sending a new
// message or, when messageId is non-nil, editing the referenced message in
// place (the callback-query path). Registers the Context Registry entry
// on multi_command entry, per spec.md §4.5; it never clears one.
func (e *Engine) Execute(tg *tgbotapi.Bot, registry *ctxreg.Registry, botId string, chatId int64, messageId *int64, cmd *entity.Command) error {
	spec, err := cmd.ParseSpec()
	if err != nil {
		e.log.Warn("malformed command spec", "command_id", cmd.Id, "error", err)
		e.sendOrFallback(tg, chatId, messageId, cmd.Pretty(), nil)
		return nil
	}

	switch spec.Type {
	case entity.CommandTypeMultiCommand:
		registry.Set(botId, chatId, cmd.Id)
		text := spec.WelcomeMessage
		if text == "" {
			text = cmd.Description
		}
		if text == "" {
			text = "Продолжайте: выберите одно из доступных действий."
		}
		return e.sendOrFallback(tg, chatId, messageId, text, nil)

	case entity.CommandTypeMenu:
		return e.sendOrFallback(tg, chatId, messageId, spec.Text, buildKeyboard(spec.Buttons))

	case entity.CommandTypeKeyboard:
		return e.sendKeyboardReply(tg, chatId, spec)

	case entity.CommandTypeMessage:
		return e.sendOrFallback(tg, chatId, messageId, spec.Text, nil)

	default:
		text := spec.Text
		if text == "" {
			text = cmd.Pretty()
		}
		return e.sendOrFallback(tg, chatId, messageId, text, nil)
	}
}

func buildKeyboard(rows [][]entity.ButtonSpec) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(rows))
	for i, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, b := range row {
			buttons[j] = tgbotapi.InlineKeyboardButton{Text: b.Text, CallbackData: b.CallbackData}
		}
		keyboard[i] = buttons
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func (e *Engine) sendKeyboardReply(tg *tgbotapi.Bot, chatId int64, spec entity.CommandSpec) error {
	rows := make([][]tgbotapi.KeyboardButton, len(spec.Buttons))
	for i, row := range spec.Buttons {
		buttons := make([]tgbotapi.KeyboardButton, len(row))
		for j, b := range row {
			buttons[j] = tgbotapi.KeyboardButton{Text: b.Text}
		}
		rows[i] = buttons
	}
	_, err := tg.SendMessage(chatId, spec.Text, &tgbotapi.SendMessageOpts{
		ReplyMarkup: tgbotapi.ReplyKeyboardMarkup{
			Keyboard:        rows,
			ResizeKeyboard:  true,
			OneTimeKeyboard: spec.OneTime,
		},
	})
	if err != nil {
		e.log.Warn("send keyboard command failed", "chat_id", chatId, "error", err)
		_, _ = tg.SendMessage(chatId, errExecutionFailed, nil)
		return err
	}
	return nil
}

// sendOrFallback implements spec.md §4.5's edit-in-place failure handling:
// unchanged content is a silent no-op, a missing/uneditable message falls
// back to a fresh send, anything else is logged and reported to the chat.
func (e *Engine) sendOrFallback(tg *tgbotapi.Bot, chatId int64, messageId *int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if messageId == nil {
		return e.send(tg, chatId, text, keyboard)
	}

	var err error
	if keyboard != nil {
		_, _, err = tg.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
			ChatId:      chatId,
			MessageId:   *messageId,
			ReplyMarkup: *keyboard,
		})
	} else {
		_, _, err = tg.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
			ChatId:    chatId,
			MessageId: *messageId,
		})
	}
	if err == nil {
		return nil
	}

	if isMessageNotModified(err) {
		e.log.Info("edit skipped, content unchanged", "chat_id", chatId, "message_id", *messageId)
		return nil
	}
	if isMessageUneditable(err) {
		return e.send(tg, chatId, text, keyboard)
	}

	e.log.Error("edit command message failed", "chat_id", chatId, "error", err)
	_, _ = tg.SendMessage(chatId, errExecutionFailed, nil)
	return err
}

func (e *Engine) send(tg *tgbotapi.Bot, chatId int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	opts := &tgbotapi.SendMessageOpts{}
	if keyboard != nil {
		opts.ReplyMarkup = *keyboard
	}
	_, err := tg.SendMessage(chatId, text, opts)
	if err != nil {
		e.log.Warn("send command message failed", "chat_id", chatId, "error", err)
		_, _ = tg.SendMessage(chatId, errExecutionFailed, nil)
	}
	return err
}

func isMessageNotModified(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

func isMessageUneditable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "message to edit not found") ||
		strings.Contains(msg, "message can't be edited")
}
