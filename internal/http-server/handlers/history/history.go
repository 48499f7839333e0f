package history

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

const defaultLimit = 100

type Core interface {
	ListHistory(botId string, chatId *int64, limit int) ([]*entity.ChatHistoryEntry, error)
	DeleteHistoryEntry(botId string, id int64) error
	DeleteAllHistory(botId string) error
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")

		var chatId *int64
		if raw := r.URL.Query().Get("chat_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Некорректный chat_id"))
				return
			}
			chatId = &id
		}

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		entries, err := handler.ListHistory(botId, chatId, limit)
		if err != nil {
			log.Error("list history", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить историю"))
			return
		}
		render.JSON(w, r, response.Ok(entries))
	}
}

func DeleteEntry(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		msgId, err := strconv.ParseInt(chi.URLParam(r, "msgId"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректный идентификатор"))
			return
		}
		if err := handler.DeleteHistoryEntry(botId, msgId); err != nil {
			log.Error("delete history entry", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось удалить запись"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

func DeleteAll(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		if err := handler.DeleteAllHistory(botId); err != nil {
			log.Error("delete all history", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось очистить историю"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
