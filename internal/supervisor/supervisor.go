// Package supervisor implements the Bot Supervisor (C7): the set of running
// bot workers, their lifecycle (start/stop/restart/delete), Telegram
// polling-error policy, and the periodic reconciler that repairs drift
// between the persisted is_running flag and the actual active set.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"botfleet/entity"
	"botfleet/internal/ctxreg"
	"botfleet/internal/logbuf"
	"botfleet/internal/store"
)

const (
	startDelay       = time.Second
	stopQuiesceDelay = 500 * time.Millisecond
	reconcileEvery   = 60 * time.Second
)

// Supervisor owns the active-bots map exclusively; every mutation is
// serialized per botId via perBotMu.
type Supervisor struct {
	store    *store.Store
	registry *ctxreg.Registry
	buf      *logbuf.Buffer
	log      *slog.Logger

	mu      sync.RWMutex
	workers map[string]*worker

	perBotMu sync.Map // botId -> *sync.Mutex, serializes Start/Stop per bot

	handler   handler
	cancelRec context.CancelFunc
}

func New(st *store.Store, registry *ctxreg.Registry, buf *logbuf.Buffer, log *slog.Logger) *Supervisor {
	return &Supervisor{
		store:    st,
		registry: registry,
		buf:      buf,
		log:      log.With(logbuf.Category(entity.CategoryTelegram)),
		workers:  make(map[string]*worker),
	}
}

// SetPipeline wires the Message Pipeline in after both it and the
// Supervisor are constructed, breaking the otherwise-circular dependency
// (the pipeline needs an ActiveChecker the Supervisor itself satisfies).
func (s *Supervisor) SetPipeline(h handler) {
	s.handler = h
}

// IsActive satisfies pipeline.ActiveChecker.
func (s *Supervisor) IsActive(botId string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.workers[botId]
	return ok
}

func (s *Supervisor) lockFor(botId string) *sync.Mutex {
	v, _ := s.perBotMu.LoadOrStore(botId, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Start implements spec.md §4.7: load the row, wait 1s, open a polling
// worker, asynchronously refresh Telegram identity, register handlers and
// an error callback, insert into the active set, persist is_running=1.
func (s *Supervisor) Start(botId string) error {
	lock := s.lockFor(botId)
	lock.Lock()
	defer lock.Unlock()

	if s.IsActive(botId) {
		return nil
	}

	bot, err := s.store.GetBot(botId)
	if err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	time.Sleep(startDelay)

	api, err := tgbotapi.NewBot(bot.Token, nil)
	if err != nil {
		return fmt.Errorf("start bot: create api: %w", err)
	}

	w := newWorker(botId, api)
	if err := w.start(s.handler, s.log, s.handlePollError); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}

	s.mu.Lock()
	s.workers[botId] = w
	s.mu.Unlock()

	if err := s.store.SetBotRunning(botId, true); err != nil {
		s.log.Error("persist is_running failed", "bot_id", botId, "error", err)
	}

	go s.refreshIdentityAsync(botId, api)

	logbuf.AppendSuccess(s.buf, entity.CategoryTelegram, "Бот запущен", bot.Name)
	s.log.Info("bot started", "bot_id", botId, "name", bot.Name)
	return nil
}

// refreshIdentityAsync performs the one-shot getMe lookup Start kicks off in
// the background, so a slow Telegram API call never delays Start's return.
func (s *Supervisor) refreshIdentityAsync(botId string, api *tgbotapi.Bot) {
	me, err := api.GetMe(nil)
	if err != nil {
		s.log.Warn("getMe failed", "bot_id", botId, "error", err)
		return
	}
	if err := s.store.SetBotTelegramInfo(botId, me.Username, me.FirstName, me.Id); err != nil {
		s.log.Warn("persist telegram info failed", "bot_id", botId, "error", err)
	}
}

// Stop implements spec.md §4.7: remove from the active set first so
// in-flight pipeline calls see the bot as inactive and drop their output,
// then unwind the worker, clear registry entries, quiesce, persist.
func (s *Supervisor) Stop(botId string) error {
	lock := s.lockFor(botId)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	w, ok := s.workers[botId]
	delete(s.workers, botId)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	w.stop(s.log)
	s.registry.ClearByBot(botId)
	time.Sleep(stopQuiesceDelay)

	if err := s.store.SetBotRunning(botId, false); err != nil {
		s.log.Error("persist is_running failed", "bot_id", botId, "error", err)
	}
	s.log.Info("bot stopped", "bot_id", botId)
	return nil
}

// Toggle flips the running state, per spec.md §4.7.
func (s *Supervisor) Toggle(botId string) (running bool, err error) {
	if s.IsActive(botId) {
		return false, s.Stop(botId)
	}
	if err := s.Start(botId); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateConfig implements spec.md §4.7's hot-reload rule: a running bot
// whose token changed gets restarted; for a running bot whose token is
// unchanged nothing happens beyond the row the caller already persisted,
// since the Message Pipeline re-reads configuration on every message.
func (s *Supervisor) UpdateConfig(botId string, tokenChanged bool) error {
	if !s.IsActive(botId) {
		return nil
	}
	if tokenChanged {
		if err := s.Stop(botId); err != nil {
			return err
		}
		return s.Start(botId)
	}
	return nil
}

// RefreshInfo performs a one-shot getMe and persists the result, usable
// whether or not the bot is currently running.
func (s *Supervisor) RefreshInfo(botId string) (*entity.Bot, error) {
	bot, err := s.store.GetBot(botId)
	if err != nil {
		return nil, fmt.Errorf("refresh info: %w", err)
	}
	api, err := tgbotapi.NewBot(bot.Token, nil)
	if err != nil {
		return nil, fmt.Errorf("refresh info: create api: %w", err)
	}
	me, err := api.GetMe(nil)
	if err != nil {
		return nil, fmt.Errorf("refresh info: getMe: %w", err)
	}
	if err := s.store.SetBotTelegramInfo(botId, me.Username, me.FirstName, me.Id); err != nil {
		return nil, fmt.Errorf("refresh info: persist: %w", err)
	}
	return s.store.GetBot(botId)
}

// Delete implements spec.md §4.7: stop if running, then delete the row
// (the Store's schema cascades to commands/history).
func (s *Supervisor) Delete(botId string) error {
	if err := s.Stop(botId); err != nil {
		return err
	}
	return s.store.DeleteBot(botId)
}

// handlePollError applies spec.md §4.7's polling-error policy. It runs on
// its own goroutine (spawned by the dispatcher's Error callback) so it never
// blocks update processing.
func (s *Supervisor) handlePollError(botId string, err error) {
	s.mu.RLock()
	w, ok := s.workers[botId]
	s.mu.RUnlock()
	if ok {
		w.recordError(err)
	}

	switch classifyPollErr(err) {
	case pollErrConflict:
		s.log.Warn("telegram conflict, stopping bot", "bot_id", botId, "error", err)
		if stopErr := s.Stop(botId); stopErr != nil {
			s.log.Error("stop after conflict failed", "bot_id", botId, "error", stopErr)
		}
	case pollErrServerSide:
		s.log.Error("telegram server error", "bot_id", botId, "error", err)
	default:
		s.log.Error("polling error", "bot_id", botId, "error", err)
	}
}

// StartReconciler launches the 60s drift-repair loop (spec.md §4.7),
// stopping when ctx is canceled.
func (s *Supervisor) StartReconciler(ctx context.Context) {
	rctx, cancel := context.WithCancel(ctx)
	s.cancelRec = cancel

	go func() {
		ticker := time.NewTicker(reconcileEvery)
		defer ticker.Stop()
		for {
			select {
			case <-rctx.Done():
				return
			case <-ticker.C:
				s.reconcileOnce()
			}
		}
	}()
}

func (s *Supervisor) reconcileOnce() {
	flagged, err := s.store.ListRunningFlagged()
	if err != nil {
		s.log.Error("reconciler: list running flagged failed", "error", err)
		return
	}
	for _, bot := range flagged {
		if s.IsActive(bot.Id) {
			continue
		}
		s.log.Warn("reconciler: repairing drift", "bot_id", bot.Id, "name", bot.Name)
		if err := s.store.SetBotRunning(bot.Id, false); err != nil {
			s.log.Error("reconciler: persist failed", "bot_id", bot.Id, "error", err)
		}
	}
}

// AutoStart starts every bot flagged is_active=1 on process boot, logging
// failures without aborting the rest.
func (s *Supervisor) AutoStart() {
	bots, err := s.store.ListBots()
	if err != nil {
		s.log.Error("auto-start: list bots failed", "error", err)
		return
	}
	for _, bot := range bots {
		if !bot.IsActive {
			continue
		}
		if err := s.Start(bot.Id); err != nil {
			s.log.Error("auto-start failed", "bot_id", bot.Id, "error", err)
		}
	}
}

// ShutdownAll implements spec.md §4.7's graceful shutdown: stop every
// active worker in parallel, then clear the context registry entirely.
func (s *Supervisor) ShutdownAll(ctx context.Context) {
	if s.cancelRec != nil {
		s.cancelRec()
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(botId string) {
			defer wg.Done()
			if err := s.Stop(botId); err != nil {
				s.log.Error("shutdown: stop failed", "bot_id", botId, "error", err)
			}
		}(id)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("shutdown: timed out waiting for workers")
	}

	s.registry.ClearAll()
}
