package service

import (
	"context"

	"github.com/sourcingbee/challan/internal/domain/audit"
	ierr "github.com/sourcingbee/challan/internal/errors"
)

type AuditService interface {
	QueryByVehicle(ctx context.Context, vehicleID string) ([]*audit.Record, error)
	QueryByRun(ctx context.Context, runID string) ([]*audit.Record, error)
	ExportSummary(ctx context.Context) (*audit.Summary, error)
}

type auditService struct {
	ServiceParams
}

func NewAuditService(params ServiceParams) AuditService {
	return &auditService{ServiceParams: params}
}

func (s *auditService) QueryByVehicle(ctx context.Context, vehicleID string) ([]*audit.Record, error) {
	if vehicleID == "" {
		return nil, ierr.NewError("vehicle id is required").
			Mark(ierr.ErrValidation)
	}
	return s.AuditRepo.QueryByVehicle(ctx, vehicleID)
}

func (s *auditService) QueryByRun(ctx context.Context, runID string) ([]*audit.Record, error) {
	if runID == "" {
		return nil, ierr.NewError("run id is required").
			Mark(ierr.ErrValidation)
	}
	return s.AuditRepo.QueryByRun(ctx, runID)
}

func (s *auditService) ExportSummary(ctx context.Context) (*audit.Summary, error) {
	return s.AuditRepo.ExportSummary(ctx)
}
