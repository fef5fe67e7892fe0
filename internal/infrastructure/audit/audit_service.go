package audit

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/internal/domain/repository"
	"github.com/rampartlabs/rampart/internal/domain/service"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// Streamer fans signed records out to a streaming sink.
type Streamer interface {
	Publish(ctx context.Context, record *models.AuditRecord) error
}

// Service implements service.AuditService: it signs records, appends them to
// the repository, and optionally streams them out. The repository write is
// authoritative; the stream is best-effort.
type Service struct {
	signer  *Signer
	repo    repository.AuditRepository
	stream  Streamer
	metrics service.Metrics
	logger  logger.Logger
}

var _ service.AuditService = (*Service)(nil)

// NewService wires the signer to the audit sinks. stream may be nil.
func NewService(signer *Signer, repo repository.AuditRepository, stream Streamer, metrics service.Metrics, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Service{
		signer:  signer,
		repo:    repo,
		stream:  stream,
		metrics: metrics,
		logger:  log.WithComponent("audit_service"),
	}
}

// Record implements service.AuditService.
func (s *Service) Record(ctx context.Context, record *models.AuditRecord) *errors.AppError {
	if record == nil {
		return errors.ErrInternal.WithDescription("audit record must not be nil")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	signature, appErr := s.signer.Sign(record)
	if appErr != nil {
		return appErr
	}
	record.Signature = signature

	if appErr := s.repo.Append(ctx, record); appErr != nil {
		s.recordWrite("postgres", false)
		return appErr
	}
	s.recordWrite("postgres", true)

	if s.stream != nil {
		if err := s.stream.Publish(ctx, record); err != nil {
			// The trail already holds the record; losing a stream copy is
			// an operational signal, not a request failure.
			s.recordWrite("kafka", false)
		} else {
			s.recordWrite("kafka", true)
		}
	}

	s.logger.Debug(ctx, "audit record written",
		logger.String("record_id", record.ID),
		logger.String("tenant_id", record.TenantID),
		logger.String("event_type", string(record.EventType)),
	)
	return nil
}

// Verify implements service.AuditService.
func (s *Service) Verify(ctx context.Context, record *models.AuditRecord) (bool, *errors.AppError) {
	if record == nil {
		return false, errors.ErrInternal.WithDescription("audit record must not be nil")
	}
	ok, appErr := s.signer.Verify(record)
	if appErr != nil {
		return false, appErr
	}
	if !ok {
		s.logger.Warn(ctx, "audit record failed signature verification",
			logger.String("record_id", record.ID),
			logger.String("tenant_id", record.TenantID),
		)
	}
	return ok, nil
}

func (s *Service) recordWrite(sink string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordAuditWrite(sink, success)
	}
}
