// Package authenticate guards the operator API with bearer tokens.
package authenticate

import (
	"log/slog"
	"net/http"
	"time"

	"brincafacil/entity"
	"brincafacil/lib/api/bearer"
	"brincafacil/lib/api/cont"
	"brincafacil/lib/api/response"
	"brincafacil/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const (
	msgMissingToken = "Token não informado"
	msgUnauthorized = "Não autorizado"
)

type Authenticate interface {
	AuthenticateByToken(token string) (*entity.User, error)
}

// New rejects requests without a known operator token and logs one line per request.
func New(log *slog.Logger, auth Authenticate) func(next http.Handler) http.Handler {
	log = log.With(sl.Module("middleware.authenticate"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			logger := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remoteAddr(r)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("operator request")
			}()

			token, ok := bearer.Parse(r.Header.Get("Authorization"))
			if !ok {
				logger = logger.With(slog.String("reason", "missing bearer token"))
				fail(ww, r, msgMissingToken)
				return
			}
			if auth == nil {
				logger = logger.With(slog.String("reason", "authentication disabled"))
				fail(ww, r, msgUnauthorized)
				return
			}
			user, err := auth.AuthenticateByToken(token)
			if err != nil {
				logger = logger.With(sl.Err(err))
				fail(ww, r, msgUnauthorized)
				return
			}
			logger = logger.With(slog.String("user", user.Username))

			ww.Header().Set("X-User", user.Username)
			next.ServeHTTP(ww, r.WithContext(cont.PutUser(r.Context(), user)))
		})
	}
}

// remoteAddr prefers the proxy header when present.
func remoteAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}

func fail(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
