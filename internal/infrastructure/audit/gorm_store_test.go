package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/internal/infrastructure/audit"
	"github.com/rampartlabs/rampart/pkg/constants"
	"github.com/rampartlabs/rampart/pkg/errors"
)

func newGormStore(t *testing.T) *audit.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditRecord{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM audit_records")
	})
	return audit.NewGormStore(db, nil)
}

func recordAt(tenantID string, ts time.Time) *models.AuditRecord {
	record := models.NewAuditRecord(tenantID, constants.EventTypeAnalysis)
	record.Timestamp = ts
	record.RiskScore = 0.3
	record.RiskLevel = models.RiskLevelLow
	record.Disposition = models.DispositionAllow
	record.Signature = "sig"
	return record
}

func TestGormStore_AppendAndFindByID(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	record := recordAt("tenant-a", time.Now().UTC().Truncate(time.Second))
	record.FindingSummary = models.FindingSummary{models.CategoryPII: 0.8}
	record.RedactionCount = 3

	require.Nil(t, store.Append(ctx, record))

	got, appErr := store.FindByID(ctx, record.ID)
	require.Nil(t, appErr)
	assert.Equal(t, record.TenantID, got.TenantID)
	assert.Equal(t, record.Signature, got.Signature)
	assert.Equal(t, 3, got.RedactionCount)
	assert.InDelta(t, 0.8, got.FindingSummary[models.CategoryPII], 1e-9)
}

func TestGormStore_FindByIDUnknown(t *testing.T) {
	store := newGormStore(t)

	_, appErr := store.FindByID(context.Background(), "no-such-record")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestGormStore_ListNewestFirstWithFilters(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	oldest := recordAt("tenant-a", base)
	middle := recordAt("tenant-a", base.Add(time.Hour))
	newest := recordAt("tenant-a", base.Add(2*time.Hour))
	foreign := recordAt("tenant-b", base.Add(30*time.Minute))
	for _, r := range []*models.AuditRecord{oldest, middle, newest, foreign} {
		require.Nil(t, store.Append(ctx, r))
	}

	records, appErr := store.List(ctx, repository.AuditQuery{TenantID: "tenant-a"})
	require.Nil(t, appErr)
	require.Len(t, records, 3)
	assert.Equal(t, newest.ID, records[0].ID)
	assert.Equal(t, middle.ID, records[1].ID)
	assert.Equal(t, oldest.ID, records[2].ID)

	records, appErr = store.List(ctx, repository.AuditQuery{
		TenantID: "tenant-a",
		Since:    base.Add(30 * time.Minute),
		Until:    base.Add(90 * time.Minute),
	})
	require.Nil(t, appErr)
	require.Len(t, records, 1)
	assert.Equal(t, middle.ID, records[0].ID)

	records, appErr = store.List(ctx, repository.AuditQuery{TenantID: "tenant-a", Limit: 1, Offset: 1})
	require.Nil(t, appErr)
	require.Len(t, records, 1)
	assert.Equal(t, middle.ID, records[0].ID)
}

func TestGormStore_CountByTenant(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	require.Nil(t, store.Append(ctx, recordAt("tenant-a", base)))
	require.Nil(t, store.Append(ctx, recordAt("tenant-a", base.Add(time.Hour))))
	require.Nil(t, store.Append(ctx, recordAt("tenant-b", base)))

	count, appErr := store.CountByTenant(ctx, "tenant-a", time.Time{})
	require.Nil(t, appErr)
	assert.Equal(t, int64(2), count)

	count, appErr = store.CountByTenant(ctx, "tenant-a", base.Add(30*time.Minute))
	require.Nil(t, appErr)
	assert.Equal(t, int64(1), count)
}
