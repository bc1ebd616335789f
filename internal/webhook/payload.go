package webhook

import (
	"fmt"
	"strings"

	"brincafacil/entity"
)

var emailPaths = [][]string{
	{"email"},
	{"customer", "email"},
	{"buyer", "email"},
}

var statusPaths = [][]string{
	{"status"},
	{"event"},
}

var saleIdPaths = [][]string{
	{"sale_id"},
	{"id"},
}

var approvedStatuses = map[string]struct{}{
	"COMPRA_APROVADA": {},
	"APPROVED":        {},
	"COMPLETED":       {},
	"ACTIVE":          {},
	"PAID":            {},
}

// IsApproved matches status against the approved set, case-insensitively.
func IsApproved(status string) bool {
	_, ok := approvedStatuses[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}

// Interpret reads the first non-empty value of each field across the known payload shapes.
func Interpret(body map[string]interface{}) entity.WebhookEvent {
	status := firstString(body, statusPaths)
	evt := entity.WebhookEvent{
		Email:    entity.NormalizeEmail(firstString(body, emailPaths)),
		Status:   status,
		SaleId:   firstString(body, saleIdPaths),
		Approved: IsApproved(status),
		Raw:      body,
	}
	if t, ok := body["token"].(string); ok {
		evt.Token = t
	}
	return evt
}

func firstString(body map[string]interface{}, paths [][]string) string {
	for _, path := range paths {
		if s := lookup(body, path); s != "" {
			return s
		}
	}
	return ""
}

func lookup(body map[string]interface{}, path []string) string {
	var current interface{} = body
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = m[key]
	}
	switch v := current.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", v))
	default:
		return ""
	}
}
