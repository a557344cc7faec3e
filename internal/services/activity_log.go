package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"AUTOFILL/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SessionHeader = "X-Session-ID"
	UserHeader    = "X-User-ID"

	maxLoggedBody = 10000
)

type ActivityLogService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewActivityLogService(db *gorm.DB, logger *zap.Logger) *ActivityLogService {
	return &ActivityLogService{db: db, logger: logger}
}

// LogFilter narrows Query. Empty fields match everything; Path matches as
// a substring.
type LogFilter struct {
	Method    string
	Path      string
	SessionID string
	UserID    string
	Limit     int
	Offset    int
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, exists := c.Get("request_body"); exists {
		requestBody, _ = body.(string)
	}

	sessionID := c.Param("id")
	if !strings.Contains(c.FullPath(), "/sessions/") {
		sessionID = ""
	}
	if h := c.GetHeader(SessionHeader); h != "" {
		sessionID = h
	}

	now := time.Now()
	entry := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		SessionID:    sessionID,
		UserID:       c.GetHeader(UserHeader),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// never block the request on the log write
	go func() {
		if err := s.db.Create(entry).Error; err != nil {
			s.logger.Warn("failed to save activity log", zap.String("path", entry.Path), zap.Error(err))
		}
	}()
}

func (s *ActivityLogService) Query(filter LogFilter) ([]models.ActivityLog, int64, error) {
	query := s.db.Model(&models.ActivityLog{})
	if filter.Method != "" {
		query = query.Where("method = ?", strings.ToUpper(filter.Method))
	}
	if filter.Path != "" {
		query = query.Where("path LIKE ?", "%"+filter.Path+"%")
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}
	return logs, total, nil
}

// LoggingMiddleware records every request once it has been handled.
// Signature uploads carry large data URLs, so bodies are truncated.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if (c.Request.Method == "POST" || c.Request.Method == "PUT") && c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > maxLoggedBody {
					c.Set("request_body", fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
				} else if len(bodyBytes) > 0 {
					c.Set("request_body", string(bodyBytes))
				}
			}
		}

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
