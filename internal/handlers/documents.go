package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"AUTOFILL/internal/services"
	"AUTOFILL/internal/spreadsheet"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentsHandler struct {
	documents *services.DocumentService
	logger    *zap.Logger
}

func NewDocumentsHandler(documents *services.DocumentService, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documents, logger: logger}
}

func (h *DocumentsHandler) ListDocuments(c *gin.Context) {
	page, limit, offset := pagination(c, 20, 200)

	docs, total, err := h.documents.ListDocuments(c.Request.Context(), services.DocumentFilter{
		FormatID:    c.Query("format_id"),
		SubmittedBy: c.Query("submitted_by"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents":   docs,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}

func (h *DocumentsHandler) GetDocument(c *gin.Context) {
	doc, err := h.documents.GetDocument(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DownloadDocument streams the spreadsheet, or the PDF with ?format=pdf.
func (h *DocumentsHandler) DownloadDocument(c *gin.Context) {
	wantPDF := strings.EqualFold(c.Query("format"), "pdf")

	reader, doc, err := h.documents.GetDocumentReader(c.Request.Context(), c.Param("documentId"), wantPDF)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	filename, contentType := doc.Filename, spreadsheet.ContentType
	if wantPDF {
		filename = strings.TrimSuffix(filename, path.Ext(filename)) + ".pdf"
		contentType = "application/pdf"
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Warn("download interrupted", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (h *DocumentsHandler) DeleteDocument(c *gin.Context) {
	if err := h.documents.DeleteDocument(c.Request.Context(), c.Param("documentId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// ListStoredDocuments lists generated files straight from the bucket,
// narrowed by ?year=&month=&day=.
func (h *DocumentsHandler) ListStoredDocuments(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	day, _ := strconv.Atoi(c.Query("day"))
	_, limit, _ := pagination(c, 100, 1000)

	files, next, err := h.documents.ListStoredDocuments(c.Request.Context(), year, month, day, limit, c.Query("page_token"))
	if err != nil {
		h.logger.Error("failed to list stored documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stored documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "next_page_token": next})
}
