package service

import (
	"context"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/port"
)

type AuditLogService struct {
	newUnitOfWork port.UnitOfWorkFactory
	defaultLimit  int
}

// NewAuditLogService uses domain.DefaultAuditLogLimit when defaultLimit is
// not positive.
func NewAuditLogService(newUnitOfWork port.UnitOfWorkFactory, defaultLimit int) *AuditLogService {
	if defaultLimit <= 0 {
		defaultLimit = domain.DefaultAuditLogLimit
	}
	return &AuditLogService{
		newUnitOfWork: newUnitOfWork,
		defaultLimit:  defaultLimit,
	}
}

// GetAuditLogs returns the newest entries first. There is no upper bound on
// limit; callers are expected to pass something sensible.
func (s *AuditLogService) GetAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	uow := s.newUnitOfWork()
	defer uow.Close()

	return uow.AuditLogs().GetAll(ctx, limit)
}
