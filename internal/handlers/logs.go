package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"AUTOFILL/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
}

func NewLogsHandler(activityLogService *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
	}
}

type LogsResponse struct {
	Logs       any   `json:"logs"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// GetAllLogs returns activity logs filtered by method, path, session or user.
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	page, limit, offset := pagination(c, 50, 1000)

	logs, total, err := h.activityLogService.Query(services.LogFilter{
		Method:    c.Query("method"),
		Path:      c.Query("path"),
		SessionID: c.Query("session_id"),
		UserID:    c.Query("user_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}

func (h *LogsHandler) GetLogStats(c *gin.Context) {
	logs, total, err := h.activityLogService.Query(services.LogFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}

	methodCounts := make(map[string]int)
	pathCounts := make(map[string]int)
	statusCounts := make(map[int]int)
	for _, log := range logs {
		methodCounts[log.Method]++
		pathCounts[log.Path]++
		statusCounts[log.StatusCode]++
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests": total,
		"methods":        methodCounts,
		"paths":          pathCounts,
		"status_codes":   statusCounts,
	})
}

// GetSubmissionLogs returns the field edits users sent, newest first. It is
// the audit trail of how a submitted form was filled.
func (h *LogsHandler) GetSubmissionLogs(c *gin.Context) {
	page, limit, offset := pagination(c, 50, 1000)

	logs, total, err := h.activityLogService.Query(services.LogFilter{
		Method:    http.MethodPut,
		Path:      "/fields",
		SessionID: c.Query("session_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch field logs"})
		return
	}

	edits := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		sessionID := log.SessionID
		if sessionID == "" {
			sessionID = sessionFromPath(log.Path)
		}
		entry := gin.H{
			"timestamp":     log.CreatedAt,
			"session_id":    sessionID,
			"user_id":       log.UserID,
			"ip_address":    log.IPAddress,
			"response_time": log.ResponseTime,
		}
		var body map[string]any
		if err := json.Unmarshal([]byte(log.RequestBody), &body); err == nil {
			entry["user_data"] = body
		} else {
			entry["raw_data"] = log.RequestBody
		}
		edits = append(edits, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"edits":       edits,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}

// sessionFromPath extracts the id from paths like /api/v1/sessions/<id>/fields.
func sessionFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "sessions" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
