// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a local user account reconciled from a provider-asserted
// identity.
//
// Email is the reconciliation key: the database enforces a UNIQUE constraint
// on it, so one email maps to exactly one account no matter how many times
// (or how concurrently) the provider asserts it. The provider subject ID
// (ProviderKey) is stored for reference but is NOT the lookup key.
//
// CreatedOn is set once, at first login, and never touched again.
// LastLogin is refreshed on every successful login.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`         // display name asserted by the provider
	Email       string    `json:"email"       db:"email"`        // unique reconciliation key
	Provider    string    `json:"provider"    db:"provider"`     // e.g. "Google"
	ProviderKey string    `json:"providerKey" db:"provider_key"` // provider-scoped subject ID (the "sub" claim)
	CreatedOn   time.Time `json:"createdOn"   db:"created_on"`
	LastLogin   time.Time `json:"lastLogin"   db:"last_login"`
}
