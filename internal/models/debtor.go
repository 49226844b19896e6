package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Debtor represents an individual or company that owes money on one or more cases
type Debtor struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID string  `gorm:"type:uuid;not null;index" json:"organization_id"`
	Type           string  `gorm:"not null;index" json:"type"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	CompanyName    *string `json:"company_name"`
	Email          *string `gorm:"index" json:"email"`
	Phone          *string `json:"phone"`
	TaxID          *string `json:"tax_id"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	PostalCode     *string `json:"postal_code"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Cases        []Case       `gorm:"foreignKey:DebtorID" json:"cases,omitempty"`
}

// TableName specifies the table name for Debtor
func (Debtor) TableName() string {
	return "debtors"
}

// BeforeCreate assigns a UUID primary key
func (d *Debtor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Debtor type constants
const (
	DebtorTypeIndividual = "individual"
	DebtorTypeCompany    = "company"
)

// DisplayName returns a human readable name for the debtor
func (d *Debtor) DisplayName() string {
	if d.Type == DebtorTypeCompany {
		if d.CompanyName != nil {
			return *d.CompanyName
		}
		return ""
	}
	parts := []string{}
	if d.FirstName != nil && *d.FirstName != "" {
		parts = append(parts, *d.FirstName)
	}
	if d.LastName != nil && *d.LastName != "" {
		parts = append(parts, *d.LastName)
	}
	return strings.Join(parts, " ")
}

// DebtorResponse is the JSON response format for debtors
type DebtorResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Type           string    `json:"type"`
	Name           string    `json:"name"`
	Email          *string   `json:"email"`
	Phone          *string   `json:"phone"`
	TaxID          *string   `json:"tax_id"`
	Address        *string   `json:"address"`
	City           *string   `json:"city"`
	PostalCode     *string   `json:"postal_code"`
	CaseCount      int       `json:"case_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse converts Debtor to DebtorResponse
func (d *Debtor) ToResponse() DebtorResponse {
	return DebtorResponse{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Type:           d.Type,
		Name:           d.DisplayName(),
		Email:          d.Email,
		Phone:          d.Phone,
		TaxID:          d.TaxID,
		Address:        d.Address,
		City:           d.City,
		PostalCode:     d.PostalCode,
		CaseCount:      len(d.Cases),
		CreatedAt:      d.CreatedAt,
	}
}
