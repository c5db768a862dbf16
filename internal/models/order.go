package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is the local record of one purchase attempt, linked to a Stripe
// payment intent. The intent ID is the join key between the primary store
// and the MySQL mirror and is never reassigned once set.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                    string        `bun:"id,pk" json:"id"`
	FullName              string        `bun:"full_name,notnull" json:"full_name"`
	Email                 string        `bun:"email,notnull" json:"email"`
	Phone                 string        `bun:"phone,notnull" json:"phone"`
	BirthDate             string        `bun:"birth_date,nullzero" json:"birth_date,omitempty"`
	CPF                   string        `bun:"cpf,nullzero" json:"cpf,omitempty"`
	CNPJ                  string        `bun:"cnpj,nullzero" json:"cnpj,omitempty"`
	AreaAtuacao           string        `bun:"area_atuacao,nullzero" json:"area_atuacao,omitempty"`
	Tier                  string        `bun:"tier,notnull" json:"tier"`
	AmountCents           int64         `bun:"amount_cents,notnull" json:"amount_cents"`
	PaymentMethod         string        `bun:"payment_method,nullzero" json:"payment_method,omitempty"`
	PaymentStatus         PaymentStatus `bun:"payment_status,notnull" json:"payment_status"`
	StripePaymentIntentID string        `bun:"stripe_payment_intent_id,unique" json:"stripe_payment_intent_id"`
	StripeCustomerID      string        `bun:"stripe_customer_id,nullzero" json:"stripe_customer_id,omitempty"`
	CreatedAt             time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt             time.Time     `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Lead is a minimal pre-sale contact capture, unrelated to orders.
// Append-only, no status field.
type Lead struct {
	bun.BaseModel `bun:"table:leads"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,notnull" json:"email"`
	Phone     string    `bun:"phone,notnull" json:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// IntentRequest carries the checkout form fields for intent creation.
type IntentRequest struct {
	Tier        string `json:"tier"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BirthDate   string `json:"birthDate,omitempty"`
	PrimaryID   string `json:"primaryId,omitempty"`   // CPF, 11 digits
	SecondaryID string `json:"secondaryId,omitempty"` // CNPJ, 14 digits
	Category    string `json:"category,omitempty"`    // area of work
}

type IntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         string `json:"orderId,omitempty"`
}

type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmResponse struct {
	Status        string        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
}

type LeadRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type LeadResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId,omitempty"`
	Message string `json:"message,omitempty"`
}
