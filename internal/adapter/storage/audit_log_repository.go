package storage

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

type AuditLogRepository struct {
	session *session
}

func (r *AuditLogRepository) Create(ctx context.Context, entry domain.AuditLog) error {
	_, err := r.session.querier().ExecContext(ctx, `
		INSERT INTO audit_log (action, details, created_at)
		VALUES (?, ?, ?)`,
		entry.Action, entry.Details, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.Unexpected("insert audit log", err)
	}
	return nil
}

func (r *AuditLogRepository) GetAll(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	rows, err := r.session.querier().QueryContext(ctx, `
		SELECT id, action, details, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, domain.Unexpected("query audit log", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0)
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, domain.Unexpected("scan audit log", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected("iterate audit log", err)
	}
	return entries, nil
}
