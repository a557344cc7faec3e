package handlers

import (
	"net/http"
	"strconv"

	"AUTOFILL/internal/models"

	"github.com/gin-gonic/gin"
)

// SelectRequest picks one roster entry for a section. An empty id clears
// the selection.
type SelectRequest struct {
	SheetIndex   int    `json:"sheet_index"`
	SectionIndex int    `json:"section_index"`
	ID           string `json:"id"`
}

func sectionQuery(c *gin.Context) (sheet, section int) {
	sheet, _ = strconv.Atoi(c.DefaultQuery("sheet", "0"))
	section, _ = strconv.Atoi(c.DefaultQuery("section", "0"))
	return sheet, section
}

func (h *SessionsHandler) GetVehicles(c *gin.Context) {
	sheet, section := sectionQuery(c)
	vehicles, selected, err := h.sessions.Vehicles(c.Param("id"), sheet, section)
	if err != nil {
		respondError(c, err)
		return
	}
	if vehicles == nil {
		vehicles = []models.Camioneta{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles, "selected_id": selected})
}

func (h *SessionsHandler) SelectVehicle(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := h.sessions.SelectVehicle(c.Param("id"), req.SheetIndex, req.SectionIndex, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle updated"})
}

func (h *SessionsHandler) GetCranes(c *gin.Context) {
	sheet, section := sectionQuery(c)
	cranes, selected, err := h.sessions.Cranes(c.Param("id"), sheet, section)
	if err != nil {
		respondError(c, err)
		return
	}
	if cranes == nil {
		cranes = []models.Grua{}
	}
	c.JSON(http.StatusOK, gin.H{"cranes": cranes, "selected_id": selected})
}

func (h *SessionsHandler) SelectCrane(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := h.sessions.SelectCrane(c.Param("id"), req.SheetIndex, req.SectionIndex, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Crane updated"})
}

func (h *SessionsHandler) GetCrews(c *gin.Context) {
	if _, err := h.sessions.Get(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	crews := h.sessions.Crews()
	if crews == nil {
		crews = []models.Cuadrilla{}
	}
	c.JSON(http.StatusOK, gin.H{"crews": crews})
}

func (h *SessionsHandler) SelectCrew(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := h.sessions.SelectCrew(c.Param("id"), req.SheetIndex, req.SectionIndex, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Crew updated"})
}

// SelectWorker fills one numbered slot of a worker list.
func (h *SessionsHandler) SelectWorker(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker slot"})
		return
	}
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := h.sessions.SelectWorker(c.Param("id"), req.SheetIndex, req.SectionIndex, slot, req.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Worker updated"})
}

func (h *SessionsHandler) GetSignatureOptions(c *gin.Context) {
	sheet, section := sectionQuery(c)
	field := c.Query("field")
	if field == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field is required"})
		return
	}
	signatures, err := h.sessions.SignatureOptions(c.Param("id"), sheet, section, field)
	if err != nil {
		respondError(c, err)
		return
	}
	if signatures == nil {
		signatures = []models.Signature{}
	}
	c.JSON(http.StatusOK, gin.H{"signatures": signatures})
}
