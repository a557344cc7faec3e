package services

import (
	"context"
	"errors"
	"io"

	"AUTOFILL/internal/gitsync"
	"AUTOFILL/internal/storage"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotReady        = errors.New("form is not ready to submit")
	ErrDocumentMissing = errors.New("document not found")
	ErrRosterReadOnly  = errors.New("roster is read-only")
)

// BlobStore is the part of storage.GCSClient the services use.
type BlobStore interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*storage.UploadResult, error)
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// Committer is implemented by gitsync.Client.
type Committer interface {
	Commit(ctx context.Context, message string, files []gitsync.File) (*gitsync.CommitResult, error)
}

// Converter turns a spreadsheet into a PDF.
type Converter interface {
	ConvertSpreadsheetToPDF(ctx context.Context, r io.Reader, filename string) (io.ReadCloser, error)
}

var (
	_ BlobStore = (*storage.GCSClient)(nil)
	_ Committer = (*gitsync.Client)(nil)
	_ Converter = (*PDFService)(nil)
)
