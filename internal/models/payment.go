package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents one attempted collection of money against a case via the
// external payment processor
type Payment struct {
	ID                      string          `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID                  string          `gorm:"type:uuid;not null;index" json:"case_id"`
	Amount                  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status                  string          `gorm:"default:pending;not null;index" json:"status"`
	Method                  string          `gorm:"default:stripe;not null" json:"method"`
	StripeCustomerID        *string         `gorm:"index" json:"stripe_customer_id"`
	StripeCheckoutSessionID *string         `gorm:"uniqueIndex" json:"stripe_checkout_session_id"`
	PaymentLinkURL          *string         `json:"payment_link_url"`
	Reference               *string         `json:"reference"` // processor settlement reference (payment intent)
	ScheduledDate           *time.Time      `gorm:"type:date" json:"scheduled_date"`
	ProcessedDate           *time.Time      `gorm:"type:date" json:"processed_date"`
	CreatedAt               time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`

	// Associations
	Case Case `gorm:"foreignKey:CaseID" json:"case,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns a UUID primary key
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCleared   = "cleared"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
)

// Payment method constants
const (
	PaymentMethodStripe = "stripe"
)

// IsTerminal returns true if the payment has reached a terminal status
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCleared ||
		p.Status == PaymentStatusRejected ||
		p.Status == PaymentStatusCancelled
}

// MayClear returns true if the payment can transition to cleared
func (p *Payment) MayClear() bool {
	return p.Status == PaymentStatusPending
}

// MayReject returns true if the payment can transition to rejected
func (p *Payment) MayReject() bool {
	return p.Status == PaymentStatusPending
}

// MayCancel returns true if the payment can be cancelled
func (p *Payment) MayCancel() bool {
	return p.Status == PaymentStatusPending
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID             string          `json:"id"`
	CaseID         string          `json:"case_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	Method         string          `json:"method"`
	PaymentLinkURL *string         `json:"payment_link_url"`
	Reference      *string         `json:"reference"`
	ScheduledDate  *time.Time      `json:"scheduled_date"`
	ProcessedDate  *time.Time      `json:"processed_date"`
	CreatedAt      time.Time       `json:"created_at"`

	// Case details
	CaseReference string `json:"case_reference,omitempty"`
	DebtorName    string `json:"debtor_name,omitempty"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID,
		CaseID:         p.CaseID,
		Amount:         p.Amount,
		Status:         p.Status,
		Method:         p.Method,
		PaymentLinkURL: p.PaymentLinkURL,
		Reference:      p.Reference,
		ScheduledDate:  p.ScheduledDate,
		ProcessedDate:  p.ProcessedDate,
		CreatedAt:      p.CreatedAt,
	}

	if p.Case.ID != "" {
		resp.CaseReference = p.Case.Reference()
		if p.Case.Debtor.ID != "" {
			resp.DebtorName = p.Case.Debtor.DisplayName()
		}
	}

	return resp
}
