package services

import (
	"bytes"
	"context"
	"io"

	"github.com/blogem/registros/models"
	"github.com/blogem/registros/repositories"
	"github.com/blogem/registros/tabular"
)

// RecordService handles record import, listing and export
type RecordService interface {
	Import(ctx context.Context, actor string, r io.Reader) (int, error)
	List(ctx context.Context) ([]models.Record, error)
	Export(ctx context.Context, actor string) (*bytes.Buffer, error)
}

type recordService struct {
	records repositories.RecordRepository
	audit   AuditService
}

// NewRecordService creates a new record service
func NewRecordService(records repositories.RecordRepository, audit AuditService) RecordService {
	return &recordService{records: records, audit: audit}
}

// Import parses an xlsx workbook, appends its rows and records an upload event.
// Parse failures wrap tabular.ErrInvalidSheet; nothing is stored in that case.
func (s *recordService) Import(ctx context.Context, actor string, r io.Reader) (int, error) {
	records, err := tabular.ReadRecords(r)
	if err != nil {
		return 0, err
	}

	count, err := s.records.InsertBatch(ctx, records)
	if err != nil {
		return 0, err
	}

	if err := s.audit.Record(ctx, actor, models.ActionUpload); err != nil {
		return 0, err
	}
	return count, nil
}

// List returns all records, newest first
func (s *recordService) List(ctx context.Context) ([]models.Record, error) {
	return s.records.ListNewestFirst(ctx)
}

// Export renders all records, newest first, as an xlsx workbook and records a download event
func (s *recordService) Export(ctx context.Context, actor string) (*bytes.Buffer, error) {
	records, err := s.records.ListNewestFirst(ctx)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := tabular.WriteRecords(buf, records); err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, actor, models.ActionDownload); err != nil {
		return nil, err
	}
	return buf, nil
}
