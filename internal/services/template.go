package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/processor"
	"AUTOFILL/internal/spreadsheet"
	"AUTOFILL/internal/storage"

	"go.uber.org/zap"
)

var ErrTemplateNotFound = errors.New("template workbook not found")

// TemplateService finds the original workbook of a format. Uploaded
// templates in the bucket take precedence over the files shipped in
// localDir.
type TemplateService struct {
	blobs    BlobStore
	localDir string
	logger   *zap.Logger
}

func NewTemplateService(blobs BlobStore, localDir string, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		blobs:    blobs,
		localDir: localDir,
		logger:   logger,
	}
}

func (s *TemplateService) Open(ctx context.Context, format *models.ExcelFormat) (io.ReadCloser, error) {
	if s.blobs != nil {
		r, err := s.blobs.ReadFile(ctx, storage.TemplateObjectName(format.ID))
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("failed to read uploaded template, trying local copy",
				zap.String("format_id", format.ID), zap.Error(err))
		}
	}

	if s.localDir == "" || format.FilePath == "" {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, format.ID)
	}
	f, err := os.Open(filepath.Join(s.localDir, filepath.Clean(format.FilePath)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, format.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	return f, nil
}

// UploadTemplate checks the workbook against the format and stores it. A
// workbook missing sheets or with unusable cell references is rejected with
// the report as error.
func (s *TemplateService) UploadTemplate(ctx context.Context, format *models.ExcelFormat, r io.Reader) (*processor.TemplateReport, error) {
	if s.blobs == nil {
		return nil, errors.New("blob storage not configured")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	report, err := processor.InspectTemplate(bytes.NewReader(raw), format)
	if err != nil {
		return nil, err
	}
	if !report.OK() {
		return report, report
	}

	objectName := storage.TemplateObjectName(format.ID)
	if _, err := s.blobs.UploadFile(ctx, bytes.NewReader(raw), objectName, spreadsheet.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload to GCS: %w", err)
	}
	s.logger.Info("template uploaded",
		zap.String("format_id", format.ID),
		zap.Strings("prefilled_cells", report.PrefilledCells))
	return report, nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, formatID string) error {
	if s.blobs == nil {
		return nil
	}
	return s.blobs.DeleteFile(ctx, storage.TemplateObjectName(formatID))
}
