package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com \n"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestAccessRequestBind(t *testing.T) {
	req := &AccessRequest{Email: " Maria@Example.COM "}
	require.NoError(t, req.Bind(nil))
	assert.Equal(t, "maria@example.com", req.Email)

	bad := &AccessRequest{Email: "maria"}
	assert.Error(t, bad.Bind(nil))
}
