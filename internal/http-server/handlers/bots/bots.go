package bots

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/internal/store"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

// Core is the subset of the Store and Supervisor the bot handlers depend
// on; the Supervisor side is what makes toggling/refreshing hot rather
// than a plain DB write.
type Core interface {
	ListBots() ([]*entity.Bot, error)
	GetBot(id string) (*entity.Bot, error)
	CreateBot(b *entity.Bot) (string, error)
	UpdateBot(b *entity.Bot) error
	DeleteBot(id string) error

	StartSupervisor(botId string) error
	StopSupervisor(botId string) error
	ToggleSupervisor(botId string) (bool, error)
	UpdateSupervisorConfig(botId string, tokenChanged bool) error
	RefreshSupervisorInfo(botId string) (*entity.Bot, error)
	IsSupervisorActive(botId string) bool
}

// List returns every bot row, reconciling the in-memory is_running flag
// against the Supervisor's active set on read (spec.md §6).
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bots, err := handler.ListBots()
		if err != nil {
			log.Error("list bots", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить список ботов"))
			return
		}
		for _, b := range bots {
			b.IsRunning = handler.IsSupervisorActive(b.Id)
		}
		render.JSON(w, r, response.Ok(bots))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b entity.Bot
		if err := render.Bind(r, &b); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные бота: "+err.Error()))
			return
		}

		id, err := handler.CreateBot(&b)
		if err != nil {
			log.Error("create bot", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось создать бота"))
			return
		}

		if b.IsActive {
			if err := handler.StartSupervisor(id); err != nil {
				log.Warn("auto-start new bot failed", "bot_id", id, sl.Err(err))
			}
		}
		render.JSON(w, r, response.Ok(map[string]any{"bot_id": id}))
	}
}

// Update persists edits and applies spec.md §4.7's hot-reload rule: a
// token change on a running bot forces a restart, otherwise the change is
// picked up on the next message since the pipeline re-reads every time.
func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		existing, err := handler.GetBot(id)
		if errors.Is(err, store.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Бот не найден"))
			return
		}
		if err != nil {
			log.Error("get bot", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить бота"))
			return
		}

		var b entity.Bot
		if err := render.Bind(r, &b); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные бота: "+err.Error()))
			return
		}
		b.Id = id

		if err := handler.UpdateBot(&b); err != nil {
			log.Error("update bot", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось обновить бота"))
			return
		}

		tokenChanged := existing.Token != b.Token
		if err := handler.UpdateSupervisorConfig(id, tokenChanged); err != nil {
			log.Warn("hot-reload after update failed", "bot_id", id, sl.Err(err))
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

func Toggle(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		running, err := handler.ToggleSupervisor(id)
		if err != nil {
			log.Error("toggle bot", "bot_id", id, sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось переключить бота"))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{"is_running": running}))
	}
}

func RefreshInfo(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		bot, err := handler.RefreshSupervisorInfo(id)
		if err != nil {
			log.Error("refresh bot info", "bot_id", id, sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("Не удалось обновить данные из Telegram"))
			return
		}
		render.JSON(w, r, response.Ok(bot))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := handler.StopSupervisor(id); err != nil {
			log.Warn("stop bot before delete failed", "bot_id", id, sl.Err(err))
		}
		if err := handler.DeleteBot(id); err != nil {
			log.Error("delete bot", "bot_id", id, sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось удалить бота"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
