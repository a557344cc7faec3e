package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionsHandler struct {
	sessions    *services.SessionManager
	submissions *services.SubmissionService
	logger      *zap.Logger
}

func NewSessionsHandler(sessions *services.SessionManager, submissions *services.SubmissionService, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions:    sessions,
		submissions: submissions,
		logger:      logger,
	}
}

type CreateSessionRequest struct {
	UserID   string `json:"user_id"`
	FormatID string `json:"format_id"`
}

type SessionResponse struct {
	Session *services.Session `json:"session"`
	State   formstate.State   `json:"state"`
	// Complete mirrors IsFormComplete; Ready also requires every required field.
	Complete bool `json:"complete"`
	Ready    bool `json:"ready"`
}

type SelectFormatRequest struct {
	FormatID string `json:"format_id" binding:"required"`
}

type UpdateFieldRequest struct {
	SheetIndex   *int   `json:"sheet_index" binding:"required"`
	SectionIndex *int   `json:"section_index" binding:"required"`
	FieldID      string `json:"field_id" binding:"required"`
	Value        any    `json:"value"`
}

type SectionRequest struct {
	SheetIndex   int `json:"sheet_index"`
	SectionIndex int `json:"section_index"`
}

type GoToStepRequest struct {
	Step *int `json:"step" binding:"required"`
}

type SelectReviewerRequest struct {
	SheetIndex   int    `json:"sheet_index"`
	SectionIndex int    `json:"section_index"`
	WorkerID     string `json:"worker_id"`
}

func respondSession(c *gin.Context, status int, s *services.Session) {
	c.JSON(status, SessionResponse{
		Session:  s,
		State:    s.Store.Snapshot(),
		Complete: s.Store.IsFormComplete(),
		Ready:    s.Store.IsReadyToSubmit(),
	})
}

// CreateSession starts a session. The user id comes from the body or the
// X-User-ID header.
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader(services.UserHeader)
	}

	s, err := h.sessions.Create(req.UserID, req.FormatID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusCreated, s)
}

func (h *SessionsHandler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *SessionsHandler) DeleteSession(c *gin.Context) {
	if _, err := h.sessions.Get(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.sessions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// ResetSession clears the form. Signatures and presets stay.
func (h *SessionsHandler) ResetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	s.Store.ResetForm()
	respondSession(c, http.StatusOK, s)
}

func (h *SessionsHandler) SelectFormat(c *gin.Context) {
	var req SelectFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format_id is required"})
		return
	}
	s, err := h.sessions.SelectFormat(c.Param("id"), req.FormatID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, s)
}

func (h *SessionsHandler) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sheet_index, section_index and field_id are required"})
		return
	}
	section, err := h.sessions.UpdateField(c.Param("id"), *req.SheetIndex, *req.SectionIndex, req.FieldID, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section})
}

func (h *SessionsHandler) GetSteps(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"steps":        s.Store.WizardSteps(),
		"current_step": s.Store.CurrentStep(),
	})
}

func (h *SessionsHandler) NextStep(c *gin.Context) {
	h.moveStep(c, (*formstate.Store).GoToNextStep)
}

func (h *SessionsHandler) PreviousStep(c *gin.Context) {
	h.moveStep(c, (*formstate.Store).GoToPreviousStep)
}

func (h *SessionsHandler) moveStep(c *gin.Context, move func(*formstate.Store)) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	move(s.Store)
	h.respondCurrentStep(c, s)
}

func (h *SessionsHandler) GoToStep(c *gin.Context) {
	var req GoToStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step is required"})
		return
	}
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.Store.TryGoToStep(*req.Step); err != nil {
		respondError(c, err)
		return
	}
	h.respondCurrentStep(c, s)
}

func (h *SessionsHandler) respondCurrentStep(c *gin.Context, s *services.Session) {
	step, ok := s.Store.CurrentWizardStep()
	resp := gin.H{"current_step": s.Store.CurrentStep()}
	if ok {
		resp["step"] = step
		if display := h.sessions.Display(s, step.SheetIndex, step.SectionIndex); display != nil {
			resp["display"] = display
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionsHandler) Autofill(c *gin.Context) {
	var req SectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	n, err := h.sessions.Autofill(c.Param("id"), req.SheetIndex, req.SectionIndex)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": n})
}

func (h *SessionsHandler) GetReviewers(c *gin.Context) {
	sheet, section := sectionQuery(c)

	workers, selected, err := h.sessions.Reviewers(c.Param("id"), sheet, section)
	if err != nil {
		respondError(c, err)
		return
	}
	if workers == nil {
		workers = []models.Worker{}
	}
	c.JSON(http.StatusOK, gin.H{"reviewers": workers, "selected_id": selected})
}

func (h *SessionsHandler) SelectReviewer(c *gin.Context) {
	var req SelectReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := h.sessions.SelectReviewer(c.Param("id"), req.SheetIndex, req.SectionIndex, req.WorkerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reviewer updated"})
}

func (h *SessionsHandler) ApplyPreset(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := s.Store.TryApplyPreset(c.Request.Context(), c.Param("presetId"))
	if errors.Is(err, formstate.ErrNotFound) || errors.Is(err, formstate.ErrNoForm) {
		respondError(c, err)
		return
	}
	if err != nil {
		// only the LastUsed write-through failed
		h.logger.Warn("failed to persist preset usage", zap.String("preset_id", c.Param("presetId")), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"written": n})
}

// Validate checks one step, or every step with ?all=true. Without a step
// parameter the current step is checked.
func (h *SessionsHandler) Validate(c *gin.Context) {
	id := c.Param("id")
	if c.Query("all") == "true" {
		res, err := h.sessions.ValidateAll(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	step := -1
	if raw := c.Query("step"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "step must be a non-negative integer"})
			return
		}
		step = n
	}
	res, err := h.sessions.ValidateStep(id, step)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SessionsHandler) Submit(c *gin.Context) {
	doc, err := h.submissions.Submit(c.Request.Context(), c.Param("id"))
	var notReady *services.NotReadyError
	if errors.As(err, &notReady) {
		c.JSON(http.StatusConflict, gin.H{"error": notReady.Error(), "missing": notReady.Missing})
		return
	}
	if err != nil {
		h.logger.Error("submission failed", zap.String("session_id", c.Param("id")), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"document": doc,
		"message":  "Form submitted successfully",
	})
}
