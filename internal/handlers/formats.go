package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/processor"
	"AUTOFILL/internal/services"

	"github.com/gin-gonic/gin"
)

type FormatsHandler struct {
	catalog   *catalog.Catalog
	templates *services.TemplateService
}

func NewFormatsHandler(cat *catalog.Catalog, templates *services.TemplateService) *FormatsHandler {
	return &FormatsHandler{catalog: cat, templates: templates}
}

type FormatSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sheets      int    `json:"sheets"`
	Steps       int    `json:"steps"`
}

func (h *FormatsHandler) ListFormats(c *gin.Context) {
	formats := h.catalog.List()
	out := make([]FormatSummary, 0, len(formats))
	for _, f := range formats {
		steps := 0
		for _, sheet := range f.Sheets {
			steps += len(sheet.Sections)
		}
		out = append(out, FormatSummary{ID: f.ID, Name: f.Name, Description: f.Description, Sheets: len(f.Sheets), Steps: steps})
	}
	c.JSON(http.StatusOK, gin.H{"formats": out})
}

func (h *FormatsHandler) GetFormat(c *gin.Context) {
	format, err := h.catalog.Get(c.Param("formatId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, format)
}

// UploadTemplate replaces the original workbook of a format after checking
// it has every sheet and cell the format writes to.
func (h *FormatsHandler) UploadTemplate(c *gin.Context) {
	format, err := h.catalog.Get(c.Param("formatId"))
	if err != nil {
		respondError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("template")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx files are supported"})
		return
	}

	report, err := h.templates.UploadTemplate(c.Request.Context(), format, file)
	var mismatch *processor.TemplateReport
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Template does not match format", "report": mismatch})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"format_id": format.ID,
		"report":    report,
		"message":   "Template uploaded successfully",
	})
}

func (h *FormatsHandler) DeleteTemplate(c *gin.Context) {
	if _, err := h.catalog.Get(c.Param("formatId")); err != nil {
		respondError(c, err)
		return
	}
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("formatId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}
