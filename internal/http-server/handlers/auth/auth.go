package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"botfleet/entity"
	"botfleet/lib/api/response"
	"botfleet/lib/sl"
)

// Core is the Store subset the auth handlers depend on.
type Core interface {
	GetAdminByEmail(email string) (*entity.AdminUser, error)
	CreateSession(userId string, ttl time.Duration) (string, error)
	DeleteSession(id string) error
	SessionUser(sessionId string) (*entity.AdminUser, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *loginRequest) Bind(_ *http.Request) error { return nil }

// Login bcrypt-verifies credentials and sets the session cookie, per
// spec.md §6.
func Login(log *slog.Logger, handler Core, cookieName string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.auth"))

		var req loginRequest
		if err := render.Bind(r, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Некорректный запрос"))
			return
		}

		user, err := handler.GetAdminByEmail(req.Email)
		if err != nil {
			logger.Warn("login failed: unknown email", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Неверный email или пароль"))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			logger.Warn("login failed: bad password", slog.String("email", req.Email))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Неверный email или пароль"))
			return
		}

		sessionId, err := handler.CreateSession(user.Id, ttl)
		if err != nil {
			logger.Error("create session failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Не удалось создать сессию"))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sessionId,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(ttl),
		})
		render.JSON(w, r, response.Ok(nil))
	}
}

func Logout(log *slog.Logger, handler Core, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.auth"))

		if cookie, err := r.Cookie(cookieName); err == nil {
			if err := handler.DeleteSession(cookie.Value); err != nil {
				logger.Warn("delete session failed", sl.Err(err))
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
		render.JSON(w, r, response.Ok(nil))
	}
}

// Check reports whether the request carries a valid session cookie. Unlike
// every other protected route it sits in front of the authenticate
// middleware, since an absent/expired session is its normal "not logged
// in" answer rather than a failure.
func Check(_ *slog.Logger, handler Core, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			render.JSON(w, r, response.Ok(map[string]any{"authenticated": false}))
			return
		}
		if _, err := handler.SessionUser(cookie.Value); err != nil {
			render.JSON(w, r, response.Ok(map[string]any{"authenticated": false}))
			return
		}
		render.JSON(w, r, response.Ok(map[string]any{"authenticated": true}))
	}
}
