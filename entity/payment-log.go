package entity

import "time"

// PaymentLogRecord is append-only: one row per accepted delivery, never updated.
type PaymentLogRecord struct {
	Id         string                 `json:"id" bson:"id"`
	SaleId     string                 `json:"sale_id" bson:"sale_id"`
	Email      string                 `json:"email" bson:"email"`
	Status     string                 `json:"status" bson:"status"`
	Source     Source                 `json:"source" bson:"source"`
	RawPayload map[string]interface{} `json:"raw_payload,omitempty" bson:"raw_payload,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
