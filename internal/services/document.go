package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"AUTOFILL/internal/models"
	"AUTOFILL/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentStore keeps the metadata of generated documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

type DocumentFilter struct {
	FormatID    string
	SubmittedBy string
	Limit       int
	Offset      int
}

type GormDocumentStore struct {
	db *gorm.DB
}

func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

func (s *GormDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormDocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentMissing, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

func (s *GormDocumentStore) List(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Document{})
	if filter.FormatID != "" {
		query = query.Where("format_id = ?", filter.FormatID)
	}
	if filter.SubmittedBy != "" {
		query = query.Where("submitted_by = ?", filter.SubmittedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var docs []models.Document
	if err := query.Omit("data").Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return docs, total, nil
}

func (s *GormDocumentStore) Update(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Save(doc).Error
}

func (s *GormDocumentStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id).Error
}

// DocumentService serves stored documents.
type DocumentService struct {
	blobs     BlobStore
	documents DocumentStore
	logger    *zap.Logger
}

func NewDocumentService(blobs BlobStore, documents DocumentStore, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		blobs:     blobs,
		documents: documents,
		logger:    logger,
	}
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.documents.Get(ctx, id)
}

func (s *DocumentService) ListDocuments(ctx context.Context, filter DocumentFilter) ([]models.Document, int64, error) {
	return s.documents.List(ctx, filter)
}

// GetDocumentReader opens the spreadsheet, or the PDF when pdf is set.
func (s *DocumentService) GetDocumentReader(ctx context.Context, id string, pdf bool) (io.ReadCloser, *models.Document, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	path := doc.GCSPath
	if pdf {
		if doc.GCSPathPDF == "" {
			return nil, nil, fmt.Errorf("%w: no pdf for %s", ErrDocumentMissing, id)
		}
		path = doc.GCSPathPDF
	}

	reader, err := s.blobs.ReadFile(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document from GCS: %w", err)
	}
	return reader, doc, nil
}

// DeleteDocument removes the stored files and soft deletes the row. Blob
// failures are logged and do not stop the row deletion.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, path := range []string{doc.GCSPath, doc.GCSPathPDF} {
		if path == "" {
			continue
		}
		if err := s.blobs.DeleteFile(ctx, path); err != nil {
			s.logger.Warn("failed to delete GCS file", zap.String("path", path), zap.Error(err))
		}
	}

	return s.documents.Delete(ctx, id)
}

// ObjectLister is implemented by blob stores that can page through a prefix.
type ObjectLister interface {
	ListObjects(ctx context.Context, prefix string, limit int, pageToken string) ([]storage.ObjectInfo, string, error)
}

var _ ObjectLister = (*storage.GCSClient)(nil)

// StoredDocument is a generated file found in the bucket, whether or not it
// still has a metadata row.
type StoredDocument struct {
	storage.ObjectInfo
	storage.DocumentInfo
}

// ListStoredDocuments pages through documentos/ narrowed to a date.
func (s *DocumentService) ListStoredDocuments(ctx context.Context, year, month, day, limit int, pageToken string) ([]StoredDocument, string, error) {
	lister, ok := s.blobs.(ObjectLister)
	if !ok {
		return nil, "", errors.New("blob storage cannot list objects")
	}
	objects, next, err := lister.ListObjects(ctx, storage.DocumentPrefix(year, month, day), limit, pageToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]StoredDocument, 0, len(objects))
	for _, obj := range objects {
		out = append(out, StoredDocument{ObjectInfo: obj, DocumentInfo: storage.ParseDocumentObjectName(obj.Name)})
	}
	return out, next, nil
}
