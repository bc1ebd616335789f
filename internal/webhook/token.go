package webhook

import (
	"crypto/subtle"
	"strings"

	"brincafacil/lib/api/bearer"
)

// tokenCandidates lists supplied tokens in precedence order: bearer header, body, query.
func tokenCandidates(req Request) []string {
	var candidates []string
	if h := req.Header("Authorization"); h != "" {
		if t, ok := bearer.Parse(h); ok {
			candidates = append(candidates, t)
		} else if t = strings.TrimSpace(h); t != "" && !strings.EqualFold(t, "Bearer") {
			candidates = append(candidates, t)
		}
	}
	if t, ok := req.Body["token"].(string); ok && t != "" {
		candidates = append(candidates, t)
	}
	if t := req.Query["token"]; t != "" {
		candidates = append(candidates, t)
	}
	return candidates
}

// ValidateToken fails closed when expected is empty or no candidate is present.
func ValidateToken(req Request, expected string) bool {
	if expected == "" {
		return false
	}
	for _, candidate := range tokenCandidates(req) {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}
