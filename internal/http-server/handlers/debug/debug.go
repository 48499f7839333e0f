// Package debug serves the Log Buffer (C1) and request-stats snapshot
// behind the admin UI's diagnostics screen.
package debug

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/lib/api/response"
)

const defaultLogLimit = 200

type Core interface {
	ReadLogs(limit int, level entity.LogLevel, category entity.LogCategory) (entries []entity.LogEntry, total int)
	RequestStats() entity.RequestStats
	CountBots() (total, active, running int, err error)
}

func Logs(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLogLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		level := entity.LogLevel(r.URL.Query().Get("level"))
		category := entity.LogCategory(r.URL.Query().Get("category"))

		logs, total := handler.ReadLogs(limit, level, category)
		render.JSON(w, r, response.Ok(map[string]any{
			"logs":  logs,
			"total": total,
		}))
	}
}

func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := handler.RequestStats()
		_, _, running, err := handler.CountBots()
		if err != nil {
			log.Error("count bots", "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить статистику"))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{
			"requests":      stats,
			"uptime_seconds": stats.UptimeSeconds(),
			"active_bots":   running,
		}))
	}
}
