package models

import "time"

// Audit actions recorded for administrator operations.
const (
	AuditActionLogin   = "login"
	AuditActionApprove = "approve"
	AuditActionReject  = "reject"
	AuditActionEdit    = "edit"
	AuditActionDelete  = "delete"
)

// AuditLog records an administrator action against a member record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    []byte    `db:"details" json:"details,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
