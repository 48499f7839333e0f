package supervisor

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// handler is the subset of pipeline.Pipeline a worker needs, kept as an
// interface to avoid a supervisor -> pipeline -> supervisor import cycle
// (the pipeline depends on ActiveChecker, which the Supervisor satisfies).
type handler interface {
	HandleMessage(ctx context.Context, tg *tgbotapi.Bot, botId string, ectx *ext.Context) error
	HandleCallback(ctx context.Context, tg *tgbotapi.Bot, botId string, ectx *ext.Context) error
}

// worker holds one running bot's polling loop and the last error it saw.
type worker struct {
	botId   string
	api     *tgbotapi.Bot
	updater *ext.Updater

	mu       sync.Mutex
	lastErr  error
	stopping bool
}

func newWorker(botId string, api *tgbotapi.Bot) *worker {
	return &worker{botId: botId, api: api}
}

// start builds the dispatcher, registers the generic message/callback
// handlers that delegate to h, and begins long-polling. onPollErr is invoked
// (from the dispatcher's own goroutine) for every update-processing error so
// the Supervisor can classify and react without blocking the dispatcher.
func (w *worker) start(h handler, log *slog.Logger, onPollErr func(botId string, err error)) error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ectx *ext.Context, err error) ext.DispatcherAction {
			go onPollErr(w.botId, err)
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})

	dispatcher.AddHandler(handlers.NewMessage(message.All, func(b *tgbotapi.Bot, ectx *ext.Context) error {
		return h.HandleMessage(context.Background(), b, w.botId, ectx)
	}))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, func(b *tgbotapi.Bot, ectx *ext.Context) error {
		return h.HandleCallback(context.Background(), b, w.botId, ectx)
	}))

	w.updater = ext.NewUpdater(dispatcher, nil)

	err := w.updater.StartPolling(w.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return err
	}

	log.Info("polling started", "bot_id", w.botId)
	return nil
}

// stop implements spec.md §4.7's Stop sequence: best-effort deleteWebhook,
// then up to 3 stopPolling attempts with 1s backoff. Never returns an error
// to the caller — residual failures are logged and the worker is force
// removed from the active set regardless.
func (w *worker) stop(log *slog.Logger) {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()

	_, _ = w.api.DeleteWebhook(nil)

	if w.updater == nil {
		return
	}

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = w.updater.Stop()
		if err == nil {
			return
		}
		log.Warn("stop polling attempt failed", "bot_id", w.botId, "attempt", attempt, "error", err)
		time.Sleep(time.Second)
	}
	log.Error("stop polling failed after retries, forcing removal", "bot_id", w.botId, "error", err)
}

func (w *worker) recordError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = err
}

// classifyPollErr maps a dispatcher error to the §4.7 polling-error policy
// by substring matching on the error text, since gotgbot surfaces Telegram
// API failures as plain wrapped errors rather than typed status codes.
type pollErrClass int

const (
	pollErrOther pollErrClass = iota
	pollErrConflict
	pollErrServerSide
)

func classifyPollErr(err error) pollErrClass {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "409") || strings.Contains(msg, "conflict"):
		return pollErrConflict
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return pollErrServerSide
	default:
		return pollErrOther
	}
}
