package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"brincafacil/entity"
	"brincafacil/lib/sl"
	"brincafacil/lib/validate"
)

// Granter upserts access for an e-mail; calling it twice for the same address is a no-op the second time.
type Granter interface {
	GrantAccess(ctx context.Context, email string, source entity.Source, status, saleId string) (*entity.UserAccessRecord, error)
}

// Auditor appends one payment log row per accepted delivery.
type Auditor interface {
	AppendPaymentLog(ctx context.Context, evt *entity.WebhookEvent, source entity.Source) error
}

type Config struct {
	Token              string
	SignatureSecret    string
	SignatureHeader    string
	SignatureTolerance time.Duration
	Source             entity.Source
	Now                func() time.Time
}

type Handler struct {
	conf    Config
	granter Granter
	auditor Auditor
	log     *slog.Logger
}

// New builds the flow; auditor may be nil.
func New(conf Config, granter Granter, auditor Auditor, log *slog.Logger) *Handler {
	if conf.Source == "" {
		conf.Source = entity.SourceKirvano
	}
	if conf.SignatureHeader == "" {
		conf.SignatureHeader = "X-Kirvano-Signature"
	}
	if conf.SignatureTolerance == 0 {
		conf.SignatureTolerance = 5 * time.Minute
	}
	if conf.Now == nil {
		conf.Now = time.Now
	}
	return &Handler{
		conf:    conf,
		granter: granter,
		auditor: auditor,
		log:     log.With(sl.Module("webhook")),
	}
}

// ParseErrorResponse maps a normalization failure to its response.
func ParseErrorResponse(method string, err error) Response {
	if method != "" && strings.ToUpper(method) != http.MethodPost {
		return MethodNotAllowed()
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return BadRequest(MsgBodyTooLarge)
	}
	return BadRequest(MsgMalformedBody)
}

// Handle runs method check, token, signature, payload, status and grant in that order.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	log := h.log.With(slog.String("method", req.Method))

	if req.Method != http.MethodPost {
		log.Debug("method not allowed")
		return MethodNotAllowed()
	}

	if h.conf.Token == "" {
		log.Error("webhook token is not configured, rejecting delivery")
		return Unauthorized(MsgInvalidToken)
	}
	if !ValidateToken(req, h.conf.Token) {
		log.With(slog.String("tg_topic", entity.TopicSecurity)).Warn("invalid webhook token")
		return Unauthorized(MsgInvalidToken)
	}

	if h.conf.SignatureSecret != "" {
		if !VerifySignature(req, h.conf.SignatureSecret, h.conf.SignatureHeader, h.conf.SignatureTolerance, h.conf.Now()) {
			log.With(slog.String("tg_topic", entity.TopicSecurity)).Warn("invalid webhook signature")
			return Unauthorized(MsgInvalidSignature)
		}
	}

	evt := Interpret(req.Body)
	log = log.With(
		sl.Email(evt.Email),
		slog.String("status", evt.Status),
		slog.String("sale_id", evt.SaleId),
	)

	if h.auditor != nil {
		if err := h.auditor.AppendPaymentLog(ctx, &evt, h.conf.Source); err != nil {
			log.Error("append payment log", sl.Err(err))
		}
	}

	if !evt.Approved {
		log.Info("event ignored: status not approved")
		return Success(MsgEventReceived, &ResultData{Email: evt.Email, Status: evt.Status})
	}

	if !evt.HasEmail() {
		log.Warn("approved event without email")
		return BadRequest(MsgMissingEmail)
	}
	if !validate.Email(evt.Email) {
		log.Warn("invalid email in payload")
		return BadRequest(MsgInvalidEmail)
	}

	if h.granter == nil {
		log.Error("access granter not configured")
		return InternalError(MsgGrantFailed)
	}

	record, err := h.granter.GrantAccess(ctx, evt.Email, h.conf.Source, evt.Status, evt.SaleId)
	if err != nil {
		log.Error("grant access", sl.Err(err))
		return InternalError(MsgGrantFailed)
	}

	return Success(MsgAccessGranted, &ResultData{Email: record.Email, Status: evt.Status})
}
