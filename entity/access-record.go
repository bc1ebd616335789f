package entity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"brincafacil/lib/validate"
)

var ErrNotFound = errors.New("not found")

type Source string

const (
	SourceKirvano Source = "kirvano"
	SourceStripe  Source = "stripe"
	SourceManual  Source = "manual"
)

// UserAccessRecord is unique by Email; CreatedAt is written on the first grant only.
type UserAccessRecord struct {
	Email         string    `json:"email" bson:"email"`
	AccessGranted bool      `json:"access_granted" bson:"access_granted"`
	Source        Source    `json:"source" bson:"source"`
	LastStatus    string    `json:"last_status,omitempty" bson:"last_status,omitempty"`
	SaleId        string    `json:"sale_id,omitempty" bson:"sale_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// AccessRequest is the body of a manual grant made through the operator API.
type AccessRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"omitempty,max=64"`
	SaleId string `json:"sale_id" validate:"omitempty,max=128"`
}

func (a *AccessRequest) Bind(_ *http.Request) error {
	a.Email = NormalizeEmail(a.Email)
	return validate.Struct(a)
}

// NormalizeEmail produces the key every store uses for UserAccessRecord.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
