// Package lambda adapts API Gateway proxy events (AWS Lambda, Netlify Functions)
// to the webhook flows.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"brincafacil/internal/webhook"
	"brincafacil/lib/api/response"
	"brincafacil/lib/sl"

	"github.com/aws/aws-lambda-go/events"
)

type Flow interface {
	Handle(ctx context.Context, req webhook.Request) webhook.Response
}

type Adapter struct {
	kirvano Flow
	stripe  Flow
	log     *slog.Logger
}

// New returns an adapter; stripe may be nil, then every path goes to kirvano.
func New(kirvano, stripe Flow, log *slog.Logger) *Adapter {
	return &Adapter{
		kirvano: kirvano,
		stripe:  stripe,
		log:     log.With(sl.Module("lambda")),
	}
}

func (a *Adapter) Handle(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := evt.Body
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			a.log.Warn("decode base64 body", sl.Err(err))
			return a.write(webhook.BadRequest(webhook.MsgMalformedBody)), nil
		}
		body = string(decoded)
	}

	headers := make(map[string]string, len(evt.Headers)+len(evt.MultiValueHeaders))
	for k, v := range evt.MultiValueHeaders {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	for k, v := range evt.Headers {
		headers[k] = v
	}

	flow := a.kirvano
	if a.stripe != nil && strings.HasSuffix(strings.TrimRight(evt.Path, "/"), "/stripe") {
		flow = a.stripe
	}

	req, err := webhook.FromEvent(evt.HTTPMethod, headers, body, evt.QueryStringParameters)
	if err != nil {
		a.log.Warn("normalize event", sl.Err(err))
		return a.write(webhook.ParseErrorResponse(evt.HTTPMethod, err)), nil
	}
	resp := flow.Handle(ctx, req)
	a.log.With(
		slog.String("path", evt.Path),
		slog.Int("status", resp.Status),
	).Debug("webhook handled")
	return a.write(resp), nil
}

func (a *Adapter) write(resp webhook.Response) events.APIGatewayProxyResponse {
	data, err := json.Marshal(resp.Body)
	if err != nil {
		a.log.Error("marshal response", sl.Err(err))
		data, _ = json.Marshal(response.Error(webhook.MsgGrantFailed))
		resp.Status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.Status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
