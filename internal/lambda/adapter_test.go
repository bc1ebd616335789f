package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"brincafacil/impl/core"
	"brincafacil/internal/database"
	"brincafacil/internal/webhook"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) (*Adapter, *database.Memory) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemory()
	c := core.New(store, log)
	kirvano := webhook.New(webhook.Config{Token: "brincafacil01"}, c, c, log)
	return New(kirvano, nil, log), store
}

func decode(t *testing.T, resp events.APIGatewayProxyResponse) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	return out
}

func TestAdapterGrantsAccess(t *testing.T) {
	a, store := newAdapter(t)
	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/.netlify/functions/webhook",
		Headers:    map[string]string{"Authorization": "Bearer brincafacil01"},
		Body:       `{"email":"a@b.com","status":"compra_aprovada"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, true, decode(t, resp)["success"])
	assert.Equal(t, 1, store.Count())
}

func TestAdapterBase64AndQueryToken(t *testing.T) {
	a, store := newAdapter(t)
	body := base64.StdEncoding.EncodeToString([]byte(`{"buyer":{"email":"x@y.com"},"status":"PAID"}`))
	resp, err := a.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Body:                  body,
		IsBase64Encoded:       true,
		QueryStringParameters: map[string]string{"token": "brincafacil01"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, store.Count())
}

func TestAdapterErrors(t *testing.T) {
	a, _ := newAdapter(t)

	resp, _ := a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Método não permitido", decode(t, resp)["error"])

	resp, _ = a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: "{oops"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: "%%%", IsBase64Encoded: true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `{"email":"a@b.com","status":"approved"}`})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
