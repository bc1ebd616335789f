package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"brincafacil/entity"
	"brincafacil/lib/api/cont"
	"brincafacil/lib/api/response"
	"brincafacil/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	GrantAccess(ctx context.Context, email string, source entity.Source, status, saleId string) (*entity.UserAccessRecord, error)
	AccessByEmail(ctx context.Context, email string) (*entity.UserAccessRecord, error)
	PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error)
}

const maxLogs = 500

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.access")
		email := entity.NormalizeEmail(chi.URLParam(r, "email"))

		logger := log.With(
			mod,
			sl.Email(email),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		rec, err := handler.AccessByEmail(r.Context(), email)
		if errors.Is(err, entity.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Acesso não encontrado"))
			return
		}
		if err != nil {
			logger.Error("get access", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Erro ao consultar acesso"))
			return
		}

		render.JSON(w, r, response.Ok("Acesso encontrado", rec))
	}
}

func Grant(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.access")
		user := cont.GetUser(r.Context())

		logger := log.With(
			mod,
			slog.String("user", user.Username),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.AccessRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Requisição inválida: %v", err)))
			return
		}
		logger = logger.With(sl.Email(req.Email))

		rec, err := handler.GrantAccess(r.Context(), req.Email, entity.SourceManual, req.Status, req.SaleId)
		if err != nil {
			logger.Error("manual grant", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Erro ao liberar acesso"))
			return
		}
		logger.Info("manual access granted")

		render.JSON(w, r, response.Ok("Acesso liberado", rec))
	}
}

func Payments(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.access")
		email := entity.NormalizeEmail(chi.URLParam(r, "email"))

		logger := log.With(
			mod,
			sl.Email(email),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Parâmetro limit inválido"))
				return
			}
			limit = min(n, maxLogs)
		}

		logs, err := handler.PaymentLogs(r.Context(), email, limit)
		if err != nil {
			logger.Error("list payments", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Erro ao consultar pagamentos"))
			return
		}
		if logs == nil {
			logs = []*entity.PaymentLogRecord{}
		}

		render.JSON(w, r, response.Ok("Pagamentos", logs))
	}
}
