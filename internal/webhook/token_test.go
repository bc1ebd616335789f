package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func requestWith(header, body, query string) Request {
	req := Request{
		Method:  "POST",
		Headers: map[string]string{},
		Body:    map[string]interface{}{},
		Query:   map[string]string{},
	}
	if header != "" {
		req.Headers["authorization"] = header
	}
	if body != "" {
		req.Body["token"] = body
	}
	if query != "" {
		req.Query["token"] = query
	}
	return req
}

func TestValidateToken(t *testing.T) {
	const secret = "brincafacil01"
	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"bearer header", requestWith("Bearer brincafacil01", "", ""), true},
		{"bearer with spaces", requestWith("Bearer   brincafacil01  ", "", ""), true},
		{"lowercase scheme", requestWith("bearer brincafacil01", "", ""), true},
		{"raw header", requestWith("brincafacil01", "", ""), true},
		{"body token", requestWith("", "brincafacil01", ""), true},
		{"query token", requestWith("", "", "brincafacil01"), true},
		{"wrong header, right body", requestWith("Bearer wrong", "brincafacil01", ""), true},
		{"wrong header only", requestWith("Bearer wrongtoken", "", ""), false},
		{"all wrong", requestWith("Bearer a", "b", "c"), false},
		{"none", requestWith("", "", ""), false},
		{"empty bearer", requestWith("Bearer ", "", ""), false},
		{"prefix of secret", requestWith("", "brincafacil", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateToken(tt.req, secret))
		})
	}
}

func TestValidateTokenFailsClosedWithoutSecret(t *testing.T) {
	assert.False(t, ValidateToken(requestWith("Bearer x", "", ""), ""))
	assert.False(t, ValidateToken(requestWith("", "", ""), ""))
}

func TestValidateTokenIgnoresNonStringBodyToken(t *testing.T) {
	req := requestWith("", "", "")
	req.Body["token"] = 12345
	assert.False(t, ValidateToken(req, "12345"))
}
