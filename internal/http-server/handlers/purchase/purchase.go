package purchase

import (
	"context"
	"log/slog"
	"net/http"

	"brincafacil/internal/webhook"
	"brincafacil/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Flow is a provider webhook flow: *webhook.Handler or *webhook.StripeHandler.
type Flow interface {
	Handle(ctx context.Context, req webhook.Request) webhook.Response
}

// Event adapts net/http to the normalized webhook flow. It is mounted for every
// method so that the flow answers non-POST requests itself.
func Event(log *slog.Logger, flow Flow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.purchase")

		logger := log.With(
			mod,
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var resp webhook.Response
		req, err := webhook.FromHTTP(r)
		if err != nil {
			logger.Warn("normalize request", sl.Err(err))
			resp = webhook.ParseErrorResponse(r.Method, err)
		} else {
			resp = flow.Handle(r.Context(), req)
		}

		logger.With(
			slog.Int("status", resp.Status),
			slog.String("outcome", resp.Outcome.String()),
		).Debug("webhook handled")

		render.Status(r, resp.Status)
		render.JSON(w, r, resp.Body)
	}
}
