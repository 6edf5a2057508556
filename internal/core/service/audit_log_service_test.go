package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
)

func seedAuditLogs(store *fakeStore, n int) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		store.state.auditLogs = append(store.state.auditLogs, domain.AuditLog{
			ID:        int64(i),
			Action:    domain.ActionOrderCreated,
			Details:   fmt.Sprintf("OrderId=%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestGetAuditLogs_NewestFirstWithLimit(t *testing.T) {
	store := newFakeStore()
	seedAuditLogs(store, 5)
	svc := NewAuditLogService(store.factory(), 100)

	logs, err := svc.GetAuditLogs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(5), logs[0].ID)
	assert.Equal(t, int64(4), logs[1].ID)

	begins, _, _, _ := store.counters()
	assert.Zero(t, begins)
}

func TestGetAuditLogs_DefaultLimit(t *testing.T) {
	store := newFakeStore()
	seedAuditLogs(store, 5)
	svc := NewAuditLogService(store.factory(), 3)

	logs, err := svc.GetAuditLogs(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestNewAuditLogService_FallsBackToPackageDefault(t *testing.T) {
	svc := NewAuditLogService(newFakeStore().factory(), 0)
	assert.Equal(t, domain.DefaultAuditLogLimit, svc.defaultLimit)
}

func TestGetAuditLogs_StorageError(t *testing.T) {
	store := newFakeStore()
	store.fail("auditLogs.GetAll", errInjected)
	svc := NewAuditLogService(store.factory(), 0)

	_, err := svc.GetAuditLogs(context.Background(), 10)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, domain.KindUnexpected, domain.KindOf(err))
}
