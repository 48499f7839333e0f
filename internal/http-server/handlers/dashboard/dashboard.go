// Package dashboard serves the bot-count/request-stats/mem snapshot and the
// period-bucketed charts behind the admin UI's overview screen.
package dashboard

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/internal/store"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

type Core interface {
	CountBots() (total, active, running int, err error)
	RequestStats() entity.RequestStats
	MessagesChart(botId, period string) ([]store.ChartPoint, error)
}

func Stats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, active, running, err := handler.CountBots()
		if err != nil {
			log.Error("count bots", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось получить статистику"))
			return
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		stats := handler.RequestStats()

		render.JSON(w, r, response.Ok(map[string]any{
			"bots_total":      total,
			"bots_active":     active,
			"bots_running":    running,
			"requests":        stats,
			"uptime_seconds":  stats.UptimeSeconds(),
			"memory_alloc_mb": float64(mem.Alloc) / (1024 * 1024),
		}))
	}
}

func MessagesChart(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		botId := r.URL.Query().Get("bot_id")

		points, err := handler.MessagesChart(botId, period)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректный период"))
			return
		}
		render.JSON(w, r, response.Ok(points))
	}
}

// AIRequestsChart is synthetic: the control plane keeps only a process-
// lifetime counter, not a per-call timestamp table, so the "series" is the
// single current snapshot rather than a bucketed history.
func AIRequestsChart(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := handler.RequestStats()
		render.JSON(w, r, response.Ok([]map[string]any{
			{"bucket": "now", "count": stats.ApiCalls},
		}))
	}
}

func SystemChart(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		stats := handler.RequestStats()
		render.JSON(w, r, response.Ok(map[string]any{
			"uptime_seconds":  stats.UptimeSeconds(),
			"memory_alloc_mb": float64(mem.Alloc) / (1024 * 1024),
			"total_requests":  stats.TotalRequests,
			"failed_requests": stats.FailedRequests,
		}))
	}
}
