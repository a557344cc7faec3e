package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Router groups the handlers mounted under /api/v1. Nil handlers leave
// their routes out.
type Router struct {
	Formats   *FormatsHandler
	Sessions  *SessionsHandler
	Library   *LibraryHandler
	Roster    *RosterHandler
	Documents *DocumentsHandler
	Logs      *LogsHandler
}

func (rt Router) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	if h := rt.Formats; h != nil {
		v1.GET("/formats", h.ListFormats)
		v1.GET("/formats/:formatId", h.GetFormat)
		v1.POST("/formats/:formatId/template", h.UploadTemplate)
		v1.DELETE("/formats/:formatId/template", h.DeleteTemplate)
	}

	if h := rt.Sessions; h != nil {
		v1.POST("/sessions", h.CreateSession)
		v1.GET("/sessions/:id", h.GetSession)
		v1.DELETE("/sessions/:id", h.DeleteSession)
		v1.POST("/sessions/:id/reset", h.ResetSession)
		v1.PUT("/sessions/:id/format", h.SelectFormat)
		v1.PUT("/sessions/:id/fields", h.UpdateField)
		v1.GET("/sessions/:id/steps", h.GetSteps)
		v1.POST("/sessions/:id/steps/next", h.NextStep)
		v1.POST("/sessions/:id/steps/previous", h.PreviousStep)
		v1.PUT("/sessions/:id/steps/current", h.GoToStep)
		v1.POST("/sessions/:id/autofill", h.Autofill)
		v1.GET("/sessions/:id/reviewers", h.GetReviewers)
		v1.PUT("/sessions/:id/reviewer", h.SelectReviewer)
		v1.GET("/sessions/:id/vehicles", h.GetVehicles)
		v1.PUT("/sessions/:id/vehicle", h.SelectVehicle)
		v1.GET("/sessions/:id/cranes", h.GetCranes)
		v1.PUT("/sessions/:id/crane", h.SelectCrane)
		v1.GET("/sessions/:id/crews", h.GetCrews)
		v1.PUT("/sessions/:id/crew", h.SelectCrew)
		v1.PUT("/sessions/:id/workers/:slot", h.SelectWorker)
		v1.GET("/sessions/:id/signature-options", h.GetSignatureOptions)
		v1.POST("/sessions/:id/presets/:presetId/apply", h.ApplyPreset)
		v1.GET("/sessions/:id/validation", h.Validate)
		v1.POST("/sessions/:id/submit", h.Submit)
	}

	if h := rt.Library; h != nil {
		v1.GET("/signatures", h.ListSignatures)
		v1.POST("/signatures", h.CreateSignature)
		v1.DELETE("/signatures/:signatureId", h.DeleteSignature)
		v1.GET("/presets", h.ListPresets)
		v1.POST("/presets", h.CreatePreset)
		v1.DELETE("/presets/:presetId", h.DeletePreset)
	}

	if h := rt.Roster; h != nil {
		v1.GET("/roster", h.GetRoster)
		v1.GET("/roster/workers", h.GetWorkers)
		v1.POST("/roster/sync", h.SyncRoster)
		v1.PUT("/roster", h.SaveRoster)
	}

	if h := rt.Documents; h != nil {
		v1.GET("/documents", h.ListDocuments)
		v1.GET("/documents/stored", h.ListStoredDocuments)
		v1.GET("/documents/:documentId", h.GetDocument)
		v1.GET("/documents/:documentId/download", h.DownloadDocument)
		v1.DELETE("/documents/:documentId", h.DeleteDocument)
	}

	if h := rt.Logs; h != nil {
		v1.GET("/logs", h.GetAllLogs)
		v1.GET("/logs/stats", h.GetLogStats)
		v1.GET("/logs/fields", h.GetSubmissionLogs)
	}
}
