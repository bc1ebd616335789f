// Package entity defines domain types shared across the application.

package entity

// Notification topics attached to log records with slog.String("tg_topic", ...).
const (
	TopicAccess   = "access"
	TopicPayment  = "payment"
	TopicError    = "error"
	TopicSystem   = "system"
	TopicSecurity = "security"
)
