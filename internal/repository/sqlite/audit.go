package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

// compile-time check that *AuditStore implements repository.AuditRepository
var _ repository.AuditRepository = (*AuditStore)(nil)

// AuditStore implements repository.AuditRepository over the shared pool.
type AuditStore struct {
	conn *sql.DB
}

// NewAuditStore creates an AuditStore backed by db.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{conn: db.conn}
}

// Insert appends one audit record. The table is append-only — there are no
// update or delete methods on purpose.
func (s *AuditStore) Insert(ctx context.Context, rec *model.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = xid.New().String()
	}
	if rec.ActionTime.IsZero() {
		rec.ActionTime = time.Now()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO login_history (id, user_email, provider, action, ip_address, action_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserEmail,
		rec.Provider,
		string(rec.Action),
		rec.IPAddress,
		rec.ActionTime,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting audit record (%s %s): %w", rec.Action, rec.UserEmail, err)
	}
	return nil
}

// List returns the full login history, most recent event first.
func (s *AuditStore) List(ctx context.Context) ([]model.AuditRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_email, provider, action, ip_address, action_time
		 FROM login_history ORDER BY action_time DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing login history: %w", err)
	}
	defer rows.Close()

	records := []model.AuditRecord{}
	for rows.Next() {
		var rec model.AuditRecord
		var action string
		if err := rows.Scan(&rec.ID, &rec.UserEmail, &rec.Provider, &action, &rec.IPAddress, &rec.ActionTime); err != nil {
			return nil, fmt.Errorf("sqlite: scanning audit row: %w", err)
		}
		rec.Action = model.AuditAction(action)
		records = append(records, rec)
	}
	return records, rows.Err()
}
