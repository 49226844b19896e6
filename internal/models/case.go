package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Case represents a single tracked debt obligation owed by a debtor to an organization
type Case struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    string          `gorm:"type:uuid;not null;index" json:"organization_id"`
	DebtorID          string          `gorm:"type:uuid;not null;index" json:"debtor_id"`
	Status            string          `gorm:"default:new;not null;index" json:"status"`
	OriginalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"original_amount"`
	CurrentBalance    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"current_balance"`
	InterestRate      decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"interest_rate"`
	ExternalReference *string         `gorm:"index" json:"external_reference"`
	DueDate           *time.Time      `gorm:"type:date;index" json:"due_date"`
	LastContactDate   *time.Time      `gorm:"type:date" json:"last_contact_date"`
	NextActionDate    *time.Time      `gorm:"type:date;index" json:"next_action_date"`
	Details           *string         `gorm:"type:jsonb" json:"details"`
	CreatedAt         time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Associations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Debtor       Debtor       `gorm:"foreignKey:DebtorID" json:"debtor,omitempty"`
	Payments     []Payment    `gorm:"foreignKey:CaseID" json:"payments,omitempty"`
	Events       []CaseEvent  `gorm:"foreignKey:CaseID" json:"events,omitempty"`
}

// TableName specifies the table name for Case
func (Case) TableName() string {
	return "cases"
}

// BeforeCreate assigns a UUID primary key
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Case status constants
const (
	CaseStatusNew             = "new"
	CaseStatusActive          = "active"
	CaseStatusPendingApproval = "pending_approval"
	CaseStatusBrokenPromise   = "broken_promise"
	CaseStatusPaidInFull      = "paid_in_full"
	CaseStatusUncollectible   = "uncollectible"
	CaseStatusClosed          = "closed"
)

// IsTerminal returns true if the case is in a terminal status
func (c *Case) IsTerminal() bool {
	return c.Status == CaseStatusPaidInFull ||
		c.Status == CaseStatusUncollectible ||
		c.Status == CaseStatusClosed
}

// IsOverdue returns true if the case is open and past its due date
func (c *Case) IsOverdue() bool {
	if c.IsTerminal() || c.DueDate == nil {
		return false
	}
	return time.Now().After(*c.DueDate)
}

// NextActionDue returns true if the case has a next-action date in the past
func (c *Case) NextActionDue() bool {
	if c.IsTerminal() || c.NextActionDate == nil {
		return false
	}
	return time.Now().After(*c.NextActionDate)
}

// MayActivate returns true if the case can transition to active
func (c *Case) MayActivate() bool {
	return c.Status == CaseStatusNew ||
		c.Status == CaseStatusPendingApproval ||
		c.Status == CaseStatusBrokenPromise
}

// MaySubmitForApproval returns true if the case can go to pending_approval
func (c *Case) MaySubmitForApproval() bool {
	return c.Status == CaseStatusActive
}

// MayMarkBrokenPromise returns true if the case can go to broken_promise
func (c *Case) MayMarkBrokenPromise() bool {
	return c.Status == CaseStatusActive || c.Status == CaseStatusPendingApproval
}

// MayMarkPaid returns true if the case can be marked paid in full
func (c *Case) MayMarkPaid() bool {
	return !c.IsTerminal()
}

// MayMarkUncollectible returns true if the case can be written off
func (c *Case) MayMarkUncollectible() bool {
	return c.Status == CaseStatusActive ||
		c.Status == CaseStatusPendingApproval ||
		c.Status == CaseStatusBrokenPromise
}

// MayClose returns true if the case can be closed
func (c *Case) MayClose() bool {
	return c.Status != CaseStatusClosed
}

// MayReopen returns true if the case can be reopened
func (c *Case) MayReopen() bool {
	return c.Status == CaseStatusClosed || c.Status == CaseStatusUncollectible
}

// Reference returns the external reference when set, otherwise the internal id
func (c *Case) Reference() string {
	if c.ExternalReference != nil && *c.ExternalReference != "" {
		return *c.ExternalReference
	}
	return c.ID
}

// CaseResponse is the JSON response format for cases
type CaseResponse struct {
	ID                string              `json:"id"`
	OrganizationID    string              `json:"organization_id"`
	DebtorID          string              `json:"debtor_id"`
	DebtorName        string              `json:"debtor_name,omitempty"`
	OrganizationName  string              `json:"organization_name,omitempty"`
	Status            string              `json:"status"`
	OriginalAmount    decimal.Decimal     `json:"original_amount"`
	CurrentBalance    decimal.Decimal     `json:"current_balance"`
	InterestRate      decimal.Decimal     `json:"interest_rate"`
	ExternalReference *string             `json:"external_reference"`
	DueDate           *time.Time          `json:"due_date"`
	LastContactDate   *time.Time          `json:"last_contact_date"`
	NextActionDate    *time.Time          `json:"next_action_date"`
	Overdue           bool                `json:"overdue"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Payments          []PaymentResponse   `json:"payments,omitempty"`
	Events            []CaseEventResponse `json:"events,omitempty"`
}

// ToResponse converts Case to CaseResponse
func (c *Case) ToResponse() CaseResponse {
	resp := CaseResponse{
		ID:                c.ID,
		OrganizationID:    c.OrganizationID,
		DebtorID:          c.DebtorID,
		Status:            c.Status,
		OriginalAmount:    c.OriginalAmount,
		CurrentBalance:    c.CurrentBalance,
		InterestRate:      c.InterestRate,
		ExternalReference: c.ExternalReference,
		DueDate:           c.DueDate,
		LastContactDate:   c.LastContactDate,
		NextActionDate:    c.NextActionDate,
		Overdue:           c.IsOverdue(),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if c.Debtor.ID != "" {
		resp.DebtorName = c.Debtor.DisplayName()
	}
	if c.Organization.ID != "" {
		resp.OrganizationName = c.Organization.Name
	}

	for _, p := range c.Payments {
		resp.Payments = append(resp.Payments, p.ToResponse())
	}
	for _, e := range c.Events {
		resp.Events = append(resp.Events, e.ToResponse())
	}

	return resp
}
