// Package api wires the chi router: middleware chain, route groups and
// the authenticate gate, assembled the same way the teacher's own api.go
// does it.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"botfleet/internal/config"
	"botfleet/internal/http-server/handlers/auth"
	"botfleet/internal/http-server/handlers/bots"
	"botfleet/internal/http-server/handlers/commands"
	"botfleet/internal/http-server/handlers/dashboard"
	"botfleet/internal/http-server/handlers/databases"
	"botfleet/internal/http-server/handlers/debug"
	"botfleet/internal/http-server/handlers/errors"
	"botfleet/internal/http-server/handlers/history"
	"botfleet/internal/http-server/handlers/settings"
	"botfleet/internal/http-server/handlers/support"
	"botfleet/internal/http-server/middleware/authenticate"
	"botfleet/internal/http-server/middleware/timeout"
	"botfleet/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler is the union of every handler package's Core interface plus the
// authenticate middleware's, all satisfied by api.Service.
type Handler interface {
	authenticate.Authenticate
	auth.Core
	bots.Core
	databases.Core
	commands.Core
	history.Core
	dashboard.Core
	debug.Core
	settings.Core
	support.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) (*Server, error) {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	cookieName := conf.Session.CookieName
	sessionTTL := time.Duration(conf.Session.TTLHours) * time.Hour

	router := chi.NewRouter()
	router.Use(timeout.Timeout(30 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(a chi.Router) {
			a.Post("/login", auth.Login(log, handler, cookieName, sessionTTL))
			a.Get("/check", auth.Check(log, handler, cookieName))
		})

		r.Group(func(protected chi.Router) {
			protected.Use(authenticate.New(log, cookieName, handler))

			protected.Post("/auth/logout", auth.Logout(log, handler, cookieName))

			protected.Route("/bots", func(b chi.Router) {
				b.Get("/", bots.List(log, handler))
				b.Post("/", bots.Create(log, handler))
				b.Put("/{id}", bots.Update(log, handler))
				b.Post("/{id}/toggle", bots.Toggle(log, handler))
				b.Post("/{id}/refresh", bots.RefreshInfo(log, handler))
				b.Delete("/{id}", bots.Delete(log, handler))

				b.Route("/{botId}/commands", func(c chi.Router) {
					c.Get("/", commands.List(log, handler))
					c.Post("/", commands.Create(log, handler))
					c.Put("/{cmdId}", commands.Update(log, handler))
					c.Delete("/{cmdId}", commands.Delete(log, handler))
				})
				b.Delete("/{botId}/multi-command-context/{cmdId}", commands.ClearContext(log, handler))

				b.Route("/{botId}/history", func(h chi.Router) {
					h.Get("/", history.List(log, handler))
					h.Delete("/{msgId}", history.DeleteEntry(log, handler))
					h.Delete("/", history.DeleteAll(log, handler))
				})
			})

			protected.Route("/databases", func(d chi.Router) {
				d.Get("/", databases.List(log, handler))
				d.Get("/{id}", databases.Get(log, handler))
				d.Post("/", databases.Create(log, handler))
				d.Put("/{id}", databases.Update(log, handler))
				d.Delete("/{id}", databases.Delete(log, handler))
			})

			protected.Route("/dashboard", func(d chi.Router) {
				d.Get("/stats", dashboard.Stats(log, handler))
				d.Get("/charts/messages", dashboard.MessagesChart(log, handler))
				d.Get("/charts/ai-requests", dashboard.AIRequestsChart(log, handler))
				d.Get("/charts/system", dashboard.SystemChart(log, handler))
			})

			protected.Route("/debug", func(d chi.Router) {
				d.Get("/logs", debug.Logs(log, handler))
				d.Get("/stats", debug.Stats(log, handler))
			})

			protected.Route("/settings", func(s chi.Router) {
				s.Get("/", settings.List(log, handler))
				s.Put("/", settings.Set(log, handler))
			})

			protected.Post("/support/chat", support.Chat(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // SSE support-chat streams can run long
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return nil, err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	go func() {
		if err := server.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			server.log.Error("http server error", sl.Err(err))
		}
	}()

	return server, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
