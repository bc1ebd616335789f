package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretShapes(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]interface{}
		email  string
		status string
		saleId string
	}{
		{
			name:   "flat",
			body:   map[string]interface{}{"email": " A@B.com ", "status": "compra_aprovada"},
			email:  "a@b.com",
			status: "compra_aprovada",
		},
		{
			name: "customer",
			body: map[string]interface{}{
				"customer": map[string]interface{}{"email": "c@d.com"},
				"sale_id":  "S-1",
				"status":   "APPROVED",
			},
			email:  "c@d.com",
			status: "APPROVED",
			saleId: "S-1",
		},
		{
			name:  "buyer",
			body:  map[string]interface{}{"buyer": map[string]interface{}{"email": "e@f.com"}},
			email: "e@f.com",
		},
		{
			name: "flat wins over nested",
			body: map[string]interface{}{
				"email":    "first@x.com",
				"customer": map[string]interface{}{"email": "second@x.com"},
			},
			email: "first@x.com",
		},
		{
			name: "empty flat falls through",
			body: map[string]interface{}{
				"email": "",
				"buyer": map[string]interface{}{"email": "buyer@x.com"},
			},
			email: "buyer@x.com",
		},
		{
			name:   "event fallback and numeric id",
			body:   map[string]interface{}{"event": "PAID", "id": float64(12345)},
			status: "PAID",
			saleId: "12345",
		},
		{
			name: "wrong types",
			body: map[string]interface{}{"email": 42, "customer": "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := Interpret(tt.body)
			assert.Equal(t, tt.email, evt.Email)
			assert.Equal(t, tt.status, evt.Status)
			assert.Equal(t, tt.saleId, evt.SaleId)
		})
	}
}

func TestIsApproved(t *testing.T) {
	for _, s := range []string{"compra_aprovada", "COMPRA_APROVADA", "approved", "Completed", "active", "PAID", "paid", " paid "} {
		assert.True(t, IsApproved(s), s)
	}
	for _, s := range []string{"", "pending", "refused", "compra_recusada", "refunded", "approve"} {
		assert.False(t, IsApproved(s), s)
	}
}
