package commands

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

type Core interface {
	ListCommandsForBot(botId string) ([]*entity.Command, error)
	GetCommand(id string) (*entity.Command, error)
	CreateCommand(c *entity.Command) (string, error)
	UpdateCommand(c *entity.Command) error
	DeleteCommand(id string) error
	ClearMultiCommandContext(botId, commandId string) int
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		cmds, err := handler.ListCommandsForBot(botId)
		if err != nil {
			log.Error("list commands", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить список команд"))
			return
		}
		render.JSON(w, r, response.Ok(cmds))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		var c entity.Command
		if err := render.Bind(r, &c); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные команды: "+err.Error()))
			return
		}
		c.BotId = botId

		id, err := handler.CreateCommand(&c)
		if errors.Is(err, store.ErrDuplicateName) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Команда с таким именем уже существует"))
			return
		}
		if err != nil {
			log.Error("create command", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось создать команду"))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{"command_id": id}))
	}
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		cmdId := chi.URLParam(r, "cmdId")

		var c entity.Command
		if err := render.Bind(r, &c); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные команды: "+err.Error()))
			return
		}
		c.Id = cmdId
		c.BotId = botId

		err := handler.UpdateCommand(&c)
		if errors.Is(err, store.ErrDuplicateName) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Команда с таким именем уже существует"))
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Команда не найдена"))
			return
		}
		if err != nil {
			log.Error("update command", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось обновить команду"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmdId := chi.URLParam(r, "cmdId")
		if err := handler.DeleteCommand(cmdId); err != nil {
			log.Error("delete command", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось удалить команду"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

// ClearContext clears every Context Registry entry across chats whose
// active multi-command is cmdId, per spec.md §6.
func ClearContext(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		botId := chi.URLParam(r, "botId")
		cmdId := chi.URLParam(r, "cmdId")
		cleared := handler.ClearMultiCommandContext(botId, cmdId)
		log.Info("cleared multi-command context", "bot_id", botId, "command_id", cmdId, "count", cleared)
		render.JSON(w, r, response.Ok(map[string]any{"cleared_count": cleared}))
	}
}
