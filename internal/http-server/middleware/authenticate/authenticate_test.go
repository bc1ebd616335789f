package authenticate

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"brincafacil/entity"
	"brincafacil/lib/api/cont"

	"github.com/stretchr/testify/assert"
)

type tokens map[string]string

func (t tokens) AuthenticateByToken(token string) (*entity.User, error) {
	if name, ok := t[token]; ok {
		return &entity.User{Username: name, Token: token}, nil
	}
	return nil, errors.New("user not found")
}

func serve(auth Authenticate, header string) (*httptest.ResponseRecorder, string) {
	var user string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = cont.GetUser(r.Context()).Username
		w.WriteHeader(http.StatusNoContent)
	})
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), auth)(next)

	req := httptest.NewRequest(http.MethodGet, "/v1/access/a@b.com", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, user
}

func TestAuthenticate(t *testing.T) {
	auth := tokens{"operator-token": "ops"}

	rec, user := serve(auth, "Bearer operator-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ops", user)
	assert.Equal(t, "ops", rec.Header().Get("X-User"))

	for _, header := range []string{"", "operator-token", "Basic operator-token", "Bearer ", "Bearer wrong"} {
		rec, user = serve(auth, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Empty(t, user, header)
		assert.Contains(t, rec.Body.String(), `"success":false`, header)
	}
}

func TestAuthenticateWithoutService(t *testing.T) {
	rec, user := serve(nil, "Bearer operator-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, user)
	assert.Contains(t, rec.Body.String(), msgUnauthorized)
}
