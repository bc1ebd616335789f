package entity

// WebhookEvent is built fresh for every delivery and never stored as is.
type WebhookEvent struct {
	Email    string                 `json:"email"`
	Status   string                 `json:"status"`
	Token    string                 `json:"-"`
	SaleId   string                 `json:"sale_id,omitempty"`
	Approved bool                   `json:"approved"`
	Raw      map[string]interface{} `json:"-"`
}

// HasEmail reports whether any of the known payload shapes carried an address
func (e *WebhookEvent) HasEmail() bool {
	return e.Email != ""
}
