package bearer

import "strings"

// Parse extracts the token of an "Authorization: Bearer <token>" value.
// ok is false when the value does not use the Bearer scheme or the token is empty.
func Parse(header string) (token string, ok bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(value)
	return token, token != ""
}
