package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization represents a collection agency or creditor company
type Organization struct {
	ID          string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	ExternalRef *string `gorm:"uniqueIndex" json:"external_ref"` // identity provider organization id
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Debtors []Debtor `gorm:"foreignKey:OrganizationID" json:"debtors,omitempty"`
	Cases   []Case   `gorm:"foreignKey:OrganizationID" json:"cases,omitempty"`
	Roles   []Role   `gorm:"foreignKey:OrganizationID" json:"roles,omitempty"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate assigns a UUID primary key
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
