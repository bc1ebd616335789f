package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"brincafacil/entity"
	"brincafacil/lib/sl"
	"brincafacil/lib/validate"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const StripeSignatureHeader = "Stripe-Signature"

// StripeHandler grants access for paid Stripe checkout sessions.
type StripeHandler struct {
	secret  string
	granter Granter
	auditor Auditor
	log     *slog.Logger
}

func NewStripe(secret string, granter Granter, auditor Auditor, log *slog.Logger) *StripeHandler {
	return &StripeHandler{
		secret:  secret,
		granter: granter,
		auditor: auditor,
		log:     log.With(sl.Module("webhook.stripe")),
	}
}

func (h *StripeHandler) Handle(ctx context.Context, req Request) Response {
	log := h.log.With(slog.String("method", req.Method))

	if req.Method != http.MethodPost {
		return MethodNotAllowed()
	}
	if h.secret == "" {
		log.Error("stripe webhook secret is not configured")
		return Unauthorized(MsgInvalidSignature)
	}

	evt, err := webhook.ConstructEventWithOptions(req.RawBody, req.Header(StripeSignatureHeader), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.With(slog.String("tg_topic", entity.TopicSecurity)).Warn("invalid stripe signature", sl.Err(err))
		return Unauthorized(MsgInvalidSignature)
	}
	log = log.With(
		slog.String("event_id", evt.ID),
		slog.String("type", string(evt.Type)),
	)

	switch evt.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		log.Info("ignored event")
		return Success(MsgEventReceived, nil)
	}

	var sess stripe.CheckoutSession
	if err = json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		log.Warn("unmarshal checkout session", sl.Err(err))
		return BadRequest(MsgMalformedBody)
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	status := string(sess.PaymentStatus)
	wh := &entity.WebhookEvent{
		Email:    entity.NormalizeEmail(email),
		Status:   status,
		SaleId:   sess.ID,
		Approved: IsApproved(status),
	}
	log = log.With(sl.Email(wh.Email), slog.String("payment_status", status))

	if h.auditor != nil {
		if err = h.auditor.AppendPaymentLog(ctx, wh, entity.SourceStripe); err != nil {
			log.Error("append payment log", sl.Err(err))
		}
	}

	if !wh.Approved {
		log.Info("checkout not paid yet")
		return Success(MsgEventReceived, &ResultData{Email: wh.Email, Status: status})
	}
	if !wh.HasEmail() {
		log.Warn("paid checkout without email")
		return BadRequest(MsgMissingEmail)
	}
	if !validate.Email(wh.Email) {
		log.Warn("invalid email in checkout session")
		return BadRequest(MsgInvalidEmail)
	}
	if h.granter == nil {
		log.Error("access granter not configured")
		return InternalError(MsgGrantFailed)
	}

	record, err := h.granter.GrantAccess(ctx, wh.Email, entity.SourceStripe, status, wh.SaleId)
	if err != nil {
		log.Error("grant access", sl.Err(err))
		return InternalError(MsgGrantFailed)
	}
	return Success(MsgAccessGranted, &ResultData{Email: record.Email, Status: status})
}
