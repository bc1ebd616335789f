package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brincafacil/entity"
	"brincafacil/lib/sl"

	"github.com/google/uuid"
)

// Store persists access records keyed by e-mail and the append-only payment log.
// UpsertAccess must be a single atomic insert-or-update backed by a unique key.
type Store interface {
	UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error)
	GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error)
	AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error
	PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error)
}

type AuthService interface {
	UserByToken(token string) (*entity.User, error)
}

type Core struct {
	store Store
	auth  AuthService
	log   *slog.Logger
	now   func() time.Time
}

func New(store Store, log *slog.Logger) *Core {
	if store == nil {
		panic("store is nil")
	}
	return &Core{
		store: store,
		log:   log.With(sl.Module("core")),
		now:   time.Now,
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.UserByToken(token)
}

// GrantAccess upserts the access record for email. It does not retry: providers
// redeliver on non-2xx and a repeated call is harmless.
func (c *Core) GrantAccess(ctx context.Context, email string, source entity.Source, status, saleId string) (*entity.UserAccessRecord, error) {
	email = entity.NormalizeEmail(email)
	log := c.log.With(
		sl.Email(email),
		slog.String("source", string(source)),
		slog.String("sale_id", saleId),
	)
	if email == "" {
		return nil, fmt.Errorf("email is empty")
	}

	t1 := time.Now()
	rec, err := c.store.UpsertAccess(ctx, &entity.UserAccessRecord{
		Email:         email,
		AccessGranted: true,
		Source:        source,
		LastStatus:    status,
		SaleId:        saleId,
	})
	if err != nil {
		log.With(sl.Err(err)).Error("access grant failed")
		return nil, fmt.Errorf("grant access: %w", err)
	}
	log.With(
		slog.String("tg_topic", entity.TopicAccess),
		slog.Time("created_at", rec.CreatedAt),
		slog.String("duration", fmt.Sprintf("%.3fms", float64(time.Since(t1))/float64(time.Millisecond))),
	).Info("access granted")
	return rec, nil
}

func (c *Core) AppendPaymentLog(ctx context.Context, evt *entity.WebhookEvent, source entity.Source) error {
	rec := &entity.PaymentLogRecord{
		Id:         uuid.NewString(),
		SaleId:     evt.SaleId,
		Email:      evt.Email,
		Status:     evt.Status,
		Source:     source,
		RawPayload: redact(evt.Raw),
		CreatedAt:  c.now().UTC(),
	}
	if err := c.store.AppendPaymentLog(ctx, rec); err != nil {
		return fmt.Errorf("append payment log: %w", err)
	}
	return nil
}

func (c *Core) AccessByEmail(ctx context.Context, email string) (*entity.UserAccessRecord, error) {
	return c.store.GetAccess(ctx, entity.NormalizeEmail(email))
}

func (c *Core) PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	return c.store.PaymentLogs(ctx, entity.NormalizeEmail(email), limit)
}

// redact drops the shared token from the stored payload copy.
func redact(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if k == "token" {
			continue
		}
		out[k] = v
	}
	return out
}
