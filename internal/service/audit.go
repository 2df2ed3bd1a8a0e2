// Package service — the business logic layer, between HTTP handlers and the
// repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tahsin/medistock/internal/model"
	"github.com/tahsin/medistock/internal/repository"
)

// AuditLogger appends login/logout records to the login history.
//
// It exposes the same write twice with different failure contracts:
//
//   - Record surfaces the store error. CompleteLogin uses it so a login that
//     cannot be audited fails closed instead of leaving an untraceable
//     session in the wild.
//   - RecordBestEffort logs and swallows. Logout uses it — a user must
//     always be able to log out, audit trail or not.
//
// The best-effort path is an explicit wrapper rather than callers ignoring
// returned errors, so the contract is visible and testable.
type AuditLogger struct {
	records repository.AuditRepository
	logger  *slog.Logger
}

// NewAuditLogger creates an AuditLogger.
func NewAuditLogger(records repository.AuditRepository, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{records: records, logger: logger}
}

// Record appends one audit record and reports any persistence failure.
func (l *AuditLogger) Record(ctx context.Context, action model.AuditAction, email, provider, sourceIP string) error {
	rec := &model.AuditRecord{
		UserEmail: email,
		Provider:  provider,
		Action:    action,
		IPAddress: sourceIP,
	}
	if err := l.records.Insert(ctx, rec); err != nil {
		return fmt.Errorf("service/audit: recording %s for %s: %w", action, email, err)
	}
	return nil
}

// RecordBestEffort appends one audit record, logging any failure instead of
// returning it.
func (l *AuditLogger) RecordBestEffort(ctx context.Context, action model.AuditAction, email, provider, sourceIP string) {
	if err := l.Record(ctx, action, email, provider, sourceIP); err != nil {
		l.logger.Error("audit record dropped",
			slog.String("action", string(action)),
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
	}
}

// History returns the login history, most recent first.
func (l *AuditLogger) History(ctx context.Context) ([]model.AuditRecord, error) {
	records, err := l.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/audit: listing history: %w", err)
	}
	return records, nil
}
