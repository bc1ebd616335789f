// Package app wires configuration, store, core and webhook flows for the entry points.
package app

import (
	"context"
	"log/slog"

	"brincafacil/impl/auth"
	"brincafacil/impl/core"
	"brincafacil/internal/config"
	"brincafacil/internal/database"
	"brincafacil/internal/webhook"
)

type App struct {
	Core    *core.Core
	Store   database.Store
	Kirvano *webhook.Handler
	Stripe  *webhook.StripeHandler
}

func Build(ctx context.Context, conf *config.Config, log *slog.Logger) (*App, error) {
	store, err := database.Open(ctx, conf, log)
	if err != nil {
		return nil, err
	}

	c := core.New(store, log)
	c.SetAuthService(auth.New(conf.Api.Users))

	var auditor webhook.Auditor
	if conf.Webhook.Audit {
		auditor = c
	}

	if conf.Webhook.Token == "" {
		log.Error("KIRVANO_TOKEN is not set: every webhook delivery will be rejected")
	}
	log.With(
		slog.Bool("token_set", conf.Webhook.Token != ""),
		slog.Bool("signature", conf.Webhook.SignatureSecret != ""),
		slog.Bool("audit", conf.Webhook.Audit),
	).Info("webhook configured")

	a := &App{
		Core:  c,
		Store: store,
		Kirvano: webhook.New(webhook.Config{
			Token:              conf.Webhook.Token,
			SignatureSecret:    conf.Webhook.SignatureSecret,
			SignatureHeader:    conf.Webhook.SignatureHeader,
			SignatureTolerance: conf.Webhook.SignatureTolerance,
		}, c, auditor, log),
	}
	if conf.Stripe.WebhookSecret != "" {
		a.Stripe = webhook.NewStripe(conf.Stripe.WebhookSecret, c, auditor, log)
	}
	return a, nil
}

func (a *App) Close() {
	a.Store.Close()
}
