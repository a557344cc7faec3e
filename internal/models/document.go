package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is a completed form that was generated and uploaded to storage.
type Document struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	FormatID    string         `gorm:"not null;index" json:"format_id"`
	FormatName  string         `json:"format_name"`
	Filename    string         `gorm:"not null" json:"filename"`
	GCSPath     string         `gorm:"not null" json:"gcs_path"`
	GCSPathPDF  string         `json:"gcs_path_pdf,omitempty"`
	PublicURL   string         `json:"public_url"`
	FileSize    int64          `json:"file_size"`
	MimeType    string         `json:"mime_type"`
	Data        string         `gorm:"type:json" json:"data"` // JSON of the submitted FormData
	SubmittedBy string         `json:"submitted_by,omitempty"`
	CommitSHA   string         `json:"commit_sha,omitempty"`
	Status      string         `gorm:"default:'completed'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}
