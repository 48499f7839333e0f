package authenticate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"botfleet/entity"
	"botfleet/lib/api/cont"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

// Authenticate is satisfied by the Store: a session cookie resolves to the
// admin user it was issued for, or ErrNotFound / an expired session.
type Authenticate interface {
	SessionUser(sessionId string) (*entity.AdminUser, error)
}

// New builds the session-cookie auth middleware, adapted from the
// teacher's Bearer-token authenticate.go: same request-id/timing logging
// and response.Error envelope, cookie instead of header as the credential.
func New(log *slog.Logger, cookieName string, auth Authenticate) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.authenticate")
	log.With(mod).Info("authenticate middleware initialized")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming request")
			}()

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				authFailed(ww, r, "Не авторизован")
				return
			}

			user, err := auth.SessionUser(cookie.Value)
			if err != nil {
				logger = logger.With(sl.Err(err))
				authFailed(ww, r, "Сессия истекла или недействительна")
				return
			}

			ctx := cont.PutUser(r.Context(), user)
			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
