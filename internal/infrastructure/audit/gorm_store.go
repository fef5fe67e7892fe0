package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// GormStore is the GORM-backed audit repository. It only ever inserts and
// reads; the table carries no update path.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

var _ repository.AuditRepository = (*GormStore)(nil)

// NewGormStore creates the audit repository over an open GORM handle.
func NewGormStore(db *gorm.DB, log logger.Logger) *GormStore {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &GormStore{db: db, logger: log.WithComponent("audit_store")}
}

// Append implements repository.AuditRepository.
func (s *GormStore) Append(ctx context.Context, record *models.AuditRecord) *errors.AppError {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error(ctx, "failed to append audit record", err,
			logger.String("record_id", record.ID),
			logger.String("tenant_id", record.TenantID),
		)
		return errors.ErrUnavailable.WithError(err).WithDescription("audit store write failed")
	}
	return nil
}

// FindByID implements repository.AuditRepository.
func (s *GormStore) FindByID(ctx context.Context, id string) (*models.AuditRecord, *errors.AppError) {
	var record models.AuditRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound.WithDetail("record_id", id)
		}
		return nil, errors.ErrUnavailable.WithError(err)
	}
	return &record, nil
}

// List implements repository.AuditRepository.
func (s *GormStore) List(ctx context.Context, query repository.AuditQuery) ([]*models.AuditRecord, *errors.AppError) {
	tx := s.db.WithContext(ctx).Model(&models.AuditRecord{})
	if query.TenantID != "" {
		tx = tx.Where("tenant_id = ?", query.TenantID)
	}
	if !query.Since.IsZero() {
		tx = tx.Where("timestamp >= ?", query.Since)
	}
	if !query.Until.IsZero() {
		tx = tx.Where("timestamp < ?", query.Until)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}
	if query.Offset > 0 {
		tx = tx.Offset(query.Offset)
	}

	var records []*models.AuditRecord
	if err := tx.Order("timestamp DESC").Find(&records).Error; err != nil {
		return nil, errors.ErrUnavailable.WithError(err)
	}
	return records, nil
}

// CountByTenant implements repository.AuditRepository.
func (s *GormStore) CountByTenant(ctx context.Context, tenantID string, since time.Time) (int64, *errors.AppError) {
	var count int64
	tx := s.db.WithContext(ctx).Model(&models.AuditRecord{}).Where("tenant_id = ?", tenantID)
	if !since.IsZero() {
		tx = tx.Where("timestamp >= ?", since)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, errors.ErrUnavailable.WithError(err)
	}
	return count, nil
}
