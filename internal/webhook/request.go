// Package webhook holds the platform independent purchase webhook flow.
// Adapters turn their native request into a Request, call Handle and write
// the returned Response back in their own shape.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

var (
	ErrMalformedBody = errors.New("malformed JSON body")
	ErrBodyTooLarge  = errors.New("body too large")
)

type Request struct {
	Method  string
	Headers map[string]string
	Body    map[string]interface{}
	RawBody []byte
	Query   map[string]string
}

func (r Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// FromHTTP normalizes a net/http request.
func FromHTTP(r *http.Request) (Request, error) {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	var raw []byte
	if r.Body != nil {
		var err error
		raw, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return Request{}, fmt.Errorf("read body: %w", err)
		}
	}
	return build(r.Method, headers, raw, query)
}

// FromEvent normalizes platforms that deliver the body as a string (Lambda, Netlify).
func FromEvent(method string, headers map[string]string, body string, query map[string]string) (Request, error) {
	lower := make(map[string]string, len(headers))
	for k, v := range headers {
		lower[strings.ToLower(k)] = v
	}
	q := make(map[string]string, len(query))
	for k, v := range query {
		q[k] = v
	}
	return build(method, lower, []byte(body), q)
}

func build(method string, headers map[string]string, raw []byte, query map[string]string) (Request, error) {
	if len(raw) > maxBodyBytes {
		return Request{Method: strings.ToUpper(method)}, ErrBodyTooLarge
	}
	req := Request{
		Method:  strings.ToUpper(method),
		Headers: headers,
		RawBody: raw,
		Query:   query,
		Body:    map[string]interface{}{},
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return req, nil
	}
	// only POST bodies are interpreted; other methods are rejected before the body matters
	if req.Method != http.MethodPost {
		return req, nil
	}
	var body map[string]interface{}
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	req.Body = body
	return req, nil
}
