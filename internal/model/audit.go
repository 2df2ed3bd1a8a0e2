package model

import "time"

// AuditAction is the kind of authentication event being recorded.
type AuditAction string

const (
	ActionLogin  AuditAction = "Login"
	ActionLogout AuditAction = "Logout"
)

// AuditRecord is one row of the append-only login history.
//
// Records are written on every successful login and every logout attempt and
// are never mutated or deleted by this application. IPAddress may be empty
// when the source address could not be determined.
type AuditRecord struct {
	ID         string      `json:"id"         db:"id"`
	UserEmail  string      `json:"userEmail"  db:"user_email"`
	Provider   string      `json:"provider"   db:"provider"`
	Action     AuditAction `json:"action"     db:"action"`
	IPAddress  string      `json:"ipAddress"  db:"ip_address"`
	ActionTime time.Time   `json:"actionTime" db:"action_time"`
}
