package handlers

import (
	"net/http"

	"AUTOFILL/internal/roster"
	"AUTOFILL/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RosterHandler struct {
	roster *services.RosterService
	logger *zap.Logger
}

func NewRosterHandler(rosterService *services.RosterService, logger *zap.Logger) *RosterHandler {
	return &RosterHandler{roster: rosterService, logger: logger}
}

func (h *RosterHandler) GetRoster(c *gin.Context) {
	c.JSON(http.StatusOK, h.roster.Current())
}

func (h *RosterHandler) GetWorkers(c *gin.Context) {
	snap := h.roster.Current()
	if c.Query("active") == "true" {
		c.JSON(http.StatusOK, gin.H{"workers": snap.ActiveWorkers()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": snap.Workers})
}

// SyncRoster refreshes the snapshot from its source immediately.
func (h *RosterHandler) SyncRoster(c *gin.Context) {
	applied, err := h.roster.Sync(c.Request.Context())
	if err != nil {
		h.logger.Warn("manual roster sync failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to sync roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

// SaveRoster replaces the roster with the posted snapshot.
func (h *RosterHandler) SaveRoster(c *gin.Context) {
	var snap roster.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.roster.Save(c.Request.Context(), snap)
	if err != nil && res == nil {
		respondError(c, err)
		return
	}
	if err != nil {
		// the roster is live; only the git archive failed
		c.JSON(http.StatusAccepted, gin.H{"message": "Roster saved, commit failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Roster saved", "commit": res.Commit})
}
