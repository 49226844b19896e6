package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CaseEvent is an audit trail entry recorded against a case
type CaseEvent struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    string    `gorm:"type:uuid;not null;index" json:"case_id"`
	RoleID    *string   `gorm:"type:uuid;index" json:"role_id"` // unset for system-generated events
	EventType string    `gorm:"not null;index" json:"event_type"`
	Notes     string    `gorm:"type:text" json:"notes"`
	Payload   *string   `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Associations
	Case Case  `gorm:"foreignKey:CaseID" json:"-"`
	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName specifies the table name for CaseEvent
func (CaseEvent) TableName() string {
	return "case_events"
}

// BeforeCreate assigns a UUID primary key
func (e *CaseEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Case event type constants
const (
	EventTypePaymentLinkCreated = "payment_link_created"
	EventTypePaymentCleared     = "payment_cleared"
	EventTypePaymentRejected    = "payment_rejected"
	EventTypePaymentLinkExpired = "payment_link_expired"
	EventTypePaymentCancelled   = "payment_cancelled"
	EventTypeStatusChanged      = "status_changed"
	EventTypeNextActionDue      = "next_action_due"
	EventTypeAssistantCall      = "assistant_call"
)

// CaseEventResponse is the JSON response format for case events
type CaseEventResponse struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	EventType string    `json:"event_type"`
	Notes     string    `json:"notes"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts CaseEvent to CaseEventResponse
func (e *CaseEvent) ToResponse() CaseEventResponse {
	resp := CaseEventResponse{
		ID:        e.ID,
		CaseID:    e.CaseID,
		EventType: e.EventType,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
	}
	if e.Role != nil && e.Role.User.ID != "" {
		resp.Actor = e.Role.User.FullName
	}
	return resp
}
