package webhook

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"brincafacil/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const stripeSecret = "whsec_test_secret"

func stripeEvent(eventType, paymentStatus, email string) string {
	return fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"type": %q,
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": %q,
			"customer_details": {"email": %q}
		}}
	}`, eventType, paymentStatus, email)
}

func signedStripeRequest(t *testing.T, payload string, secret string) Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return post(t, map[string]string{StripeSignatureHeader: signed.Header}, payload, nil)
}

func TestStripePaidCheckoutGrantsAccess(t *testing.T) {
	g := &countingGranter{}
	h := NewStripe(stripeSecret, g, nil, testLogger())

	resp := h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "paid", "Kid@Parent.com"), stripeSecret))
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, g.calls)

	data := bodyJSON(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "kid@parent.com", data["email"])
}

func TestStripeBadSignature(t *testing.T) {
	g := &countingGranter{}
	h := NewStripe(stripeSecret, g, nil, testLogger())

	resp := h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "paid", "a@b.com"), "whsec_other"))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	resp = h.Handle(context.Background(), post(t, nil, stripeEvent("checkout.session.completed", "paid", "a@b.com"), nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Zero(t, g.calls)
}

func TestStripeUnpaidAndOtherEventsAreNoOp(t *testing.T) {
	g := &countingGranter{}
	h := NewStripe(stripeSecret, g, nil, testLogger())

	resp := h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "unpaid", "a@b.com"), stripeSecret))
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("invoice.finalized", "paid", "a@b.com"), stripeSecret))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Zero(t, g.calls)
}

func TestStripePaidWithoutEmail(t *testing.T) {
	g := &countingGranter{}
	h := NewStripe(stripeSecret, g, nil, testLogger())
	resp := h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "paid", ""), stripeSecret))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Zero(t, g.calls)
}

func TestStripeMethodAndSecret(t *testing.T) {
	h := NewStripe(stripeSecret, &countingGranter{}, nil, testLogger())
	req, err := FromEvent(http.MethodGet, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, h.Handle(context.Background(), req).Status)

	unset := NewStripe("", &countingGranter{}, nil, testLogger())
	resp := unset.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "paid", "a@b.com"), stripeSecret))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestStripeSourceLabel(t *testing.T) {
	var got entity.Source
	g := granterFunc(func(source entity.Source) { got = source })
	h := NewStripe(stripeSecret, g, nil, testLogger())
	h.Handle(context.Background(), signedStripeRequest(t, stripeEvent("checkout.session.completed", "paid", "a@b.com"), stripeSecret))
	assert.Equal(t, entity.SourceStripe, got)
}

type granterFunc func(source entity.Source)

func (f granterFunc) GrantAccess(_ context.Context, email string, source entity.Source, status, saleId string) (*entity.UserAccessRecord, error) {
	f(source)
	return &entity.UserAccessRecord{Email: email, AccessGranted: true, Source: source}, nil
}
