package databases

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
	ListDatabases() ([]*entity.Database, error)
	GetDatabase(id string) (*entity.Database, error)
	CreateDatabase(d *entity.Database) (string, error)
	UpdateDatabase(d *entity.Database) error
	DeleteDatabase(id string) error
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbs, err := handler.ListDatabases()
		if err != nil {
			log.Error("list databases", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить список баз знаний"))
			return
		}
		render.JSON(w, r, response.Ok(dbs))
	}
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		d, err := handler.GetDatabase(id)
		if errors.Is(err, store.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("База знаний не найдена"))
			return
		}
		if err != nil {
			log.Error("get database", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить базу знаний"))
			return
		}
		render.JSON(w, r, response.Ok(d))
	}
}

func Create(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var d entity.Database
		if err := render.Bind(r, &d); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные: "+err.Error()))
			return
		}
		id, err := handler.CreateDatabase(&d)
		if err != nil {
			log.Error("create database", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось создать базу знаний"))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{"database_id": id}))
	}
}

func Update(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var d entity.Database
		if err := render.Bind(r, &d); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректные данные: "+err.Error()))
			return
		}
		d.Id = id
		if err := handler.UpdateDatabase(&d); err != nil {
			log.Error("update database", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось обновить базу знаний"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}

// Delete implements spec.md §7's reference-protection rule: a database
// still pointed at by a bot cannot be removed.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := handler.DeleteDatabase(id)
		if errors.Is(err, store.ErrReferenced) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("База знаний используется одним из ботов"))
			return
		}
		if err != nil {
			log.Error("delete database", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось удалить базу знаний"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
