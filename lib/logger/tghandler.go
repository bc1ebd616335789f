package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"brincafacil/bot"
	"brincafacil/entity"
)

const topicKey = "tg_topic"

// Notifier must not block the caller: records are handled on the request path.
type Notifier interface {
	SendMessage(msg string)
}

// TelegramHandler is a slog.Handler that sends log messages to Telegram
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	attrs    []slog.Attr
	group    string
}

// NewTelegramHandler creates a new TelegramHandler
func NewTelegramHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled defers to the wrapped handler: access grants at Info must still pass through.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle
func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}
	if h.notifier == nil || !h.shouldForward(record) {
		return nil
	}

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, bot.Sanitize(record.Message))
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), bot.Sanitize(record.Message))
	}

	for _, attr := range h.attrs {
		msg += formatAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += formatAttr(attr)
		return true
	})

	h.notifier.SendMessage(msg)
	return nil
}

func (h *TelegramHandler) shouldForward(record slog.Record) bool {
	if record.Level >= h.minLevel {
		return true
	}
	found := false
	check := func(attr slog.Attr) bool {
		if attr.Key == topicKey && attr.Value.String() == entity.TopicAccess {
			found = true
			return false
		}
		return true
	}
	for _, attr := range h.attrs {
		if !check(attr) {
			break
		}
	}
	if !found {
		record.Attrs(check)
	}
	return found
}

func formatAttr(attr slog.Attr) string {
	if attr.Key == topicKey {
		return ""
	}
	if attr.Key == "error" {
		return fmt.Sprintf("\n%s: ```error %s ```", attr.Key, strings.ReplaceAll(attr.Value.String(), "`", "'"))
	}
	return bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    newAttrs,
		group:    h.group,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	var group string
	if h.group != "" {
		group = h.group + "." + name
	} else {
		group = name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}
