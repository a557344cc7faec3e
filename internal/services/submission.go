package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/gitsync"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/spreadsheet"
	"AUTOFILL/internal/storage"
	"AUTOFILL/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotReadyError lists why a session cannot be submitted yet.
type NotReadyError struct {
	Missing []formstate.MissingField `json:"missing,omitempty"`
	Message string                   `json:"message,omitempty"`
}

func (e *NotReadyError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d required fields are empty", len(e.Missing))
}

func (e *NotReadyError) Unwrap() error { return ErrNotReady }

type SubmissionService struct {
	sessions  *SessionManager
	templates *TemplateService
	generator *spreadsheet.Generator
	blobs     BlobStore
	documents DocumentStore
	pdf       Converter
	git       Committer
	now       func() time.Time
	logger    *zap.Logger
}

type SubmissionOption func(*SubmissionService)

// WithPDF also stores a PDF rendering of every submission.
func WithPDF(c Converter) SubmissionOption {
	return func(s *SubmissionService) { s.pdf = c }
}

// WithGitArchive commits the submitted values as JSON.
func WithGitArchive(c Committer) SubmissionOption {
	return func(s *SubmissionService) { s.git = c }
}

func WithSubmissionClock(now func() time.Time) SubmissionOption {
	return func(s *SubmissionService) { s.now = now }
}

func NewSubmissionService(sessions *SessionManager, templates *TemplateService, blobs BlobStore, documents DocumentStore, logger *zap.Logger, opts ...SubmissionOption) *SubmissionService {
	s := &SubmissionService{
		sessions:  sessions,
		templates: templates,
		generator: spreadsheet.NewGenerator(logger),
		blobs:     blobs,
		documents: documents,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit generates the filled workbook of a session, uploads it and records
// the document. PDF rendering and the git archive are best effort.
func (s *SubmissionService) Submit(ctx context.Context, sessionID string) (*models.Document, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	store := sess.Store

	format := store.SelectedFormat()
	data := store.CurrentFormData()
	if format == nil || data == nil {
		return nil, formstate.ErrNoForm
	}
	if !store.IsReadyToSubmit() {
		return nil, &NotReadyError{Missing: store.MissingRequiredFields()}
	}
	if res := s.sessions.validateAll(sess); !res.Valid {
		return nil, &NotReadyError{Message: res.Message}
	}
	if !validation.AllSignaturesSelected(format, data) {
		return nil, &NotReadyError{Message: "Seleccione todas las firmas antes de enviar"}
	}

	original, err := s.templates.Open(ctx, format)
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		s.logger.Warn("no template workbook, generating a blank one", zap.String("format_id", format.ID))
		original = nil
	case err != nil:
		return nil, err
	}
	var src io.Reader
	if original != nil {
		defer original.Close()
		src = original
	}

	signatures := make(map[string]models.Signature)
	for _, sig := range store.Library().Signatures() {
		signatures[sig.ID] = sig
	}

	buf, err := s.generator.Fill(ctx, src, format, data, signatures)
	if err != nil {
		return nil, fmt.Errorf("failed to generate spreadsheet: %w", err)
	}
	xlsx := buf.Bytes()

	now := s.now()
	objectName := storage.GenerateDocumentObjectName(format.Name, now)
	result, err := s.blobs.UploadFile(ctx, bytes.NewReader(xlsx), objectName, spreadsheet.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document to GCS: %w", err)
	}

	completed := *data
	completed.Metadata.CompletedAt = &now
	dataJSON, err := json.Marshal(completed)
	if err != nil {
		s.cleanup(ctx, objectName)
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	doc := &models.Document{
		ID:          uuid.New().String(),
		FormatID:    format.ID,
		FormatName:  format.Name,
		Filename:    path.Base(objectName),
		GCSPath:     objectName,
		PublicURL:   result.PublicURL,
		FileSize:    result.Size,
		MimeType:    spreadsheet.ContentType,
		Data:        string(dataJSON),
		SubmittedBy: sess.UserID,
		Status:      "completed",
	}

	if s.pdf != nil {
		if pdfPath, err := s.storePDF(ctx, xlsx, objectName); err != nil {
			s.logger.Warn("pdf not generated", zap.String("document", objectName), zap.Error(err))
		} else {
			doc.GCSPathPDF = pdfPath
		}
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		s.cleanup(ctx, objectName, doc.GCSPathPDF)
		return nil, fmt.Errorf("failed to save document metadata: %w", err)
	}

	if s.git != nil {
		if sha, err := s.archive(ctx, doc, dataJSON); err != nil {
			s.logger.Warn("submission not archived to git", zap.String("document_id", doc.ID), zap.Error(err))
		} else {
			doc.CommitSHA = sha
			if err := s.documents.Update(ctx, doc); err != nil {
				s.logger.Warn("failed to record commit sha", zap.String("document_id", doc.ID), zap.Error(err))
			}
		}
	}

	if !store.MarkCompleted(data, now) {
		s.logger.Info("form changed during submission, completion not recorded",
			zap.String("session_id", sess.ID))
	}
	s.logger.Info("form submitted",
		zap.String("session_id", sess.ID),
		zap.String("document_id", doc.ID),
		zap.String("format_id", format.ID),
		zap.Int64("size", doc.FileSize))
	return doc, nil
}

func (s *SubmissionService) storePDF(ctx context.Context, xlsx []byte, objectName string) (string, error) {
	body, err := s.pdf.ConvertSpreadsheetToPDF(ctx, bytes.NewReader(xlsx), path.Base(objectName))
	if err != nil {
		return "", err
	}
	defer body.Close()

	pdfName := strings.TrimSuffix(objectName, ".xlsx") + ".pdf"
	if _, err := s.blobs.UploadFile(ctx, body, pdfName, "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to upload pdf: %w", err)
	}
	return pdfName, nil
}

func (s *SubmissionService) archive(ctx context.Context, doc *models.Document, dataJSON []byte) (string, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, dataJSON, "", "  "); err != nil {
		return "", err
	}
	file := gitsync.File{
		Path:    fmt.Sprintf("submissions/%s/%s.json", doc.FormatID, strings.TrimSuffix(doc.Filename, ".xlsx")),
		Content: pretty.Bytes(),
	}
	res, err := s.git.Commit(ctx, fmt.Sprintf("docs: Add %s submission %s", doc.FormatID, doc.ID), []gitsync.File{file})
	if err != nil {
		return "", err
	}
	return res.SHA, nil
}

func (s *SubmissionService) cleanup(ctx context.Context, objectNames ...string) {
	for _, name := range objectNames {
		if name == "" {
			continue
		}
		if err := s.blobs.DeleteFile(ctx, name); err != nil {
			s.logger.Warn("failed to delete GCS file", zap.String("path", name), zap.Error(err))
		}
	}
}
