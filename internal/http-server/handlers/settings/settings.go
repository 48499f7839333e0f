// Package settings exposes the support_ai_* key/value rows the Support
// Chat endpoint (C9) reads its configuration from.
package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

type Core interface {
	ListSettings() ([]entity.Setting, error)
	SetSettings(settings []entity.Setting) error
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := handler.ListSettings()
		if err != nil {
			log.Error("list settings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить настройки"))
			return
		}
		render.JSON(w, r, response.Ok(settings))
	}
}

func Set(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var settings []entity.Setting
		if err := render.DecodeJSON(r.Body, &settings); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректный список настроек: "+err.Error()))
			return
		}
		if err := handler.SetSettings(settings); err != nil {
			log.Error("set settings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось сохранить настройки"))
			return
		}
		render.JSON(w, r, response.Ok(nil))
	}
}
