package services

import (
	"context"

	"github.com/pratik-mahalle/altseo/internal/domain/audit"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
)

// AuditService implements audit.Service
type AuditService struct {
	repo   audit.Repository
	logger *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo audit.Repository, log *logger.Logger) *AuditService {
	return &AuditService{repo: repo, logger: log}
}

// Record appends an entry
func (s *AuditService) Record(ctx context.Context, e *audit.Entry) error {
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"action":    e.Action,
			"target_id": e.TargetID,
		}).ErrorWithErr(err, "Failed to write audit log")
		return err
	}
	return nil
}

// List returns entries newest first
func (s *AuditService) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
