package webhook

import (
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signedRequest(header string) Request {
	return Request{
		Method:  "POST",
		Headers: map[string]string{"x-kirvano-signature": header},
		RawBody: []byte(`{"email":"a@b.com"}`),
	}
}

func TestVerifySignatureBare(t *testing.T) {
	body := []byte(`{"email":"a@b.com"}`)
	sig := hex.EncodeToString(Sign("s3cret", "", body))
	now := time.Now()

	assert.True(t, VerifySignature(signedRequest(sig), "s3cret", "X-Kirvano-Signature", time.Minute, now))
	assert.True(t, VerifySignature(signedRequest("sha256="+sig), "s3cret", "X-Kirvano-Signature", time.Minute, now))
	assert.False(t, VerifySignature(signedRequest(sig), "other", "X-Kirvano-Signature", time.Minute, now))
	assert.False(t, VerifySignature(signedRequest("zz"), "s3cret", "X-Kirvano-Signature", time.Minute, now))
	assert.False(t, VerifySignature(signedRequest(""), "s3cret", "X-Kirvano-Signature", time.Minute, now))
	assert.False(t, VerifySignature(signedRequest(sig), "", "X-Kirvano-Signature", time.Minute, now))
}

func TestVerifySignatureTimestamped(t *testing.T) {
	body := []byte(`{"email":"a@b.com"}`)
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	header := "t=" + ts + ",v1=" + hex.EncodeToString(Sign("s3cret", ts, body))

	assert.True(t, VerifySignature(signedRequest(header), "s3cret", "X-Kirvano-Signature", 5*time.Minute, now))
	assert.True(t, VerifySignature(signedRequest(header), "s3cret", "X-Kirvano-Signature", 5*time.Minute, now.Add(4*time.Minute)))
	assert.False(t, VerifySignature(signedRequest(header), "s3cret", "X-Kirvano-Signature", 5*time.Minute, now.Add(6*time.Minute)))
	assert.False(t, VerifySignature(signedRequest("t="+ts), "s3cret", "X-Kirvano-Signature", 5*time.Minute, now))
	assert.False(t, VerifySignature(signedRequest("t=abc,v1=00"), "s3cret", "X-Kirvano-Signature", 5*time.Minute, now))
}
