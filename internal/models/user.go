package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a person known to the identity provider. Authentication and
// session management are delegated to the provider; this row exists so case
// events can be attributed to the person who caused them.
type User struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalRef string    `gorm:"uniqueIndex;not null" json:"external_ref"` // identity provider subject
	Email       string    `gorm:"index;not null" json:"email"`
	FullName    string    `gorm:"not null" json:"full_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Roles []Role `gorm:"foreignKey:UserID" json:"roles,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID primary key
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Role links a user to an organization with a role tag
type Role struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"type:uuid;not null;index" json:"user_id"`
	OrganizationID string    `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"default:agent;not null" json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// TableName specifies the table name for Role
func (Role) TableName() string {
	return "roles"
}

// BeforeCreate assigns a UUID primary key
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Role name constants
const (
	RoleOwner = "owner"
	RoleAgent = "agent"
)
