package models

import "time"

// Signature images survive form resets and template switches.
type Signature struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	ImageData string    `gorm:"type:longtext" json:"image_data"` // data URL, base64 PNG
	CreatedAt time.Time `json:"created_at"`
}

func (Signature) TableName() string {
	return "signatures"
}

// Well-known preset keys matched against field labels.
const (
	PresetKeyRealizadoPor     = "realizadoPor"
	PresetKeyCargo            = "cargo"
	PresetKeyLugarZonaTrabajo = "lugarZonaTrabajo"
)

// PresetData is an open bag of values keyed by preset key.
type PresetData map[string]string

type UserPreset struct {
	ID        string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Data      PresetData `gorm:"type:json;serializer:json" json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

func (UserPreset) TableName() string {
	return "presets"
}
