package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// VerifySignature checks an HMAC-SHA256 of the raw body. The header is either
// a bare hex digest (optionally "sha256=" prefixed) or "t=<unix>,v1=<hex>", in
// which case the digest covers "<t>.<body>" and t must be within tolerance.
func VerifySignature(req Request, secret, header string, tolerance time.Duration, now time.Time) bool {
	if secret == "" {
		return false
	}
	value := strings.TrimSpace(req.Header(header))
	if value == "" {
		return false
	}

	var ts, sig string
	if strings.Contains(value, "v1=") {
		for _, p := range strings.Split(value, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "t=") {
				ts = strings.TrimPrefix(p, "t=")
			}
			if strings.HasPrefix(p, "v1=") {
				sig = strings.TrimPrefix(p, "v1=")
			}
		}
		if ts == "" || sig == "" {
			return false
		}
		tsInt, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return false
		}
		age := now.Sub(time.Unix(tsInt, 0))
		if age > tolerance || age < -tolerance {
			return false
		}
	} else {
		sig = strings.TrimPrefix(value, "sha256=")
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, Sign(secret, ts, req.RawBody))
}

// Sign returns the raw digest; ts is empty for the bare form.
func Sign(secret, ts string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	if ts != "" {
		mac.Write([]byte(ts))
		mac.Write([]byte("."))
	}
	mac.Write(payload)
	return mac.Sum(nil)
}
