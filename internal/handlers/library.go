package handlers

import (
	"net/http"
	"strings"
	"time"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LibraryHandler manages the signatures and presets shared by all sessions.
type LibraryHandler struct {
	library *formstate.Library
	now     func() time.Time
}

func NewLibraryHandler(library *formstate.Library) *LibraryHandler {
	return &LibraryHandler{library: library, now: time.Now}
}

type CreateSignatureRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required"`
	ImageData string `json:"image_data" binding:"required"`
}

type CreatePresetRequest struct {
	ID   string            `json:"id"`
	Name string            `json:"name" binding:"required"`
	Data models.PresetData `json:"data"`
}

func (h *LibraryHandler) ListSignatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"signatures": h.library.Signatures()})
}

func (h *LibraryHandler) CreateSignature(c *gin.Context) {
	var req CreateSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and image_data are required"})
		return
	}
	if !strings.HasPrefix(req.ImageData, "data:image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_data must be an image data URL"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	sig := models.Signature{ID: req.ID, Name: req.Name, ImageData: req.ImageData, CreatedAt: h.now()}
	if err := h.library.AddSignature(c.Request.Context(), sig); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sig)
}

func (h *LibraryHandler) DeleteSignature(c *gin.Context) {
	if err := h.library.RemoveSignature(c.Request.Context(), c.Param("signatureId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signature deleted"})
}

func (h *LibraryHandler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.library.Presets()})
}

func (h *LibraryHandler) CreatePreset(c *gin.Context) {
	var req CreatePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Data == nil {
		req.Data = models.PresetData{}
	}

	p := models.UserPreset{ID: req.ID, Name: req.Name, Data: req.Data, CreatedAt: h.now()}
	if err := h.library.AddPreset(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *LibraryHandler) DeletePreset(c *gin.Context) {
	if err := h.library.RemovePreset(c.Request.Context(), c.Param("presetId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preset deleted"})
}
