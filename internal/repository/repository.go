// Package repository declares the persistence interfaces the services
// depend on. The sqlite subpackage provides the real implementation; tests
// substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/tahsin/medistock/internal/model"
)

// ListOptions controls medicine listing.
type ListOptions struct {
	Search   string // matches name or company, substring
	Sort     string // name_asc, name_desc, price_asc, price_desc; anything else = insertion order
	Page     int    // 1-based
	PageSize int
}

// UserRepository persists local user accounts.
//
// Insert returns apperror.ErrConflict (wrapped) when a row with the same
// email already exists — the database's UNIQUE constraint is the arbiter of
// the one-account-per-email invariant, and the reconciler converts that
// conflict into an update.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context) ([]model.User, error)
}

// AuditRepository persists the append-only login history.
type AuditRepository interface {
	Insert(ctx context.Context, rec *model.AuditRecord) error
	List(ctx context.Context) ([]model.AuditRecord, error)
}

// MedicineRepository persists inventory items. List returns the page of
// items plus the total match count so handlers can report page counts.
type MedicineRepository interface {
	Create(ctx context.Context, med *model.Medicine) error
	GetByID(ctx context.Context, id string) (*model.Medicine, error)
	List(ctx context.Context, opts ListOptions) ([]model.Medicine, int, error)
	Update(ctx context.Context, med *model.Medicine) error
	Delete(ctx context.Context, id string) error
}
