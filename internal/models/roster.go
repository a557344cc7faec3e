package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type Worker struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Nombre      string    `gorm:"not null" json:"nombre"`
	Cargo       string    `json:"cargo"`
	Cedula      string    `json:"cedula"`
	CuadrillaID string    `gorm:"type:varchar(64);index" json:"cuadrillaId,omitempty"`
	SignatureID string    `gorm:"type:varchar(64)" json:"signatureId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsActive    bool      `json:"isActive"`
}

func (Worker) TableName() string {
	return "workers"
}

type Cuadrilla struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Nombre      string    `gorm:"not null" json:"nombre"`
	Descripcion string    `json:"descripcion,omitempty"`
	WorkerIDs   []string  `gorm:"type:json;serializer:json" json:"workerIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsActive    bool      `json:"isActive"`
}

func (Cuadrilla) TableName() string {
	return "cuadrillas"
}

type Camioneta struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Marca     string    `json:"marca"`
	Linea     string    `json:"linea"`
	Placa     string    `gorm:"not null" json:"placa"`
	Modelo    string    `json:"modelo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
}

func (Camioneta) TableName() string {
	return "camionetas"
}

type Grua struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Placa     string    `gorm:"not null" json:"placa"`
	Marca     string    `json:"marca"`
	Modelo    string    `json:"modelo"`
	Linea     string    `json:"linea"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
}

func (Grua) TableName() string {
	return "gruas"
}

type Zona struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Nombre    string    `gorm:"not null" json:"nombre"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
}

func (Zona) TableName() string {
	return "zonas"
}

type User struct {
	ID        string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Nombre    string     `gorm:"not null" json:"nombre"`
	Email     string     `json:"email,omitempty"`
	Role      UserRole   `gorm:"type:varchar(16)" json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
