package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
	"go.uber.org/zap"
)

type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

func NewPDFService(gotenbergURL string, timeoutStr string, logger *zap.Logger) (*PDFService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		logger.Warn("invalid gotenberg timeout, using 30s", zap.String("timeout", timeoutStr), zap.Error(err))
	}

	client, err := gotenberg.NewClient(gotenbergURL, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
		logger:     logger,
	}, nil
}

// ConvertSpreadsheetToPDF renders the workbook in landscape through
// LibreOffice. The input is buffered so it can be resent on retry.
func (s *PDFService) ConvertSpreadsheetToPDF(ctx context.Context, r io.Reader, filename string) (io.ReadCloser, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		body, err := s.convert(ctx, raw, filename)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger.Warn("pdf conversion failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxRetries),
			zap.Error(err))

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, raw []byte, filename string) (io.ReadCloser, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := document.FromReader(filename, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	req := gotenberg.NewLibreOfficeRequest(doc)
	req.Landscape()

	resp, err := s.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("gotenberg returned %s", resp.Status)
	}

	// the body must outlive convertCtx
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}
