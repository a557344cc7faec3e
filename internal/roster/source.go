package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"AUTOFILL/internal/models"

	"gorm.io/gorm"
)

// Source fetches a complete roster.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// File names inside a roster data directory.
const (
	WorkersFile    = "workers.json"
	CuadrillasFile = "cuadrillas.json"
	CamionetasFile = "camionetas.json"
	GruasFile      = "gruas.json"
	ZonasFile      = "zonas.json"
	UsersFile      = "users.json"
)

// FileSource reads the roster from JSON files in Dir. A missing file is an
// empty collection.
type FileSource struct {
	Dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (s *FileSource) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	loads := []struct {
		name string
		dst  any
	}{
		{WorkersFile, &snap.Workers},
		{CuadrillasFile, &snap.Cuadrillas},
		{CamionetasFile, &snap.Camionetas},
		{GruasFile, &snap.Gruas},
		{ZonasFile, &snap.Zonas},
		{UsersFile, &snap.Users},
	}
	for _, l := range loads {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
		if err := readJSON(filepath.Join(s.Dir, l.name), l.dst); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// Files renders snap as the JSON documents FileSource reads, keyed by the
// path relative to the data directory.
func Files(snap Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, 6)
	docs := map[string]any{
		WorkersFile:    snap.Workers,
		CuadrillasFile: snap.Cuadrillas,
		CamionetasFile: snap.Camionetas,
		GruasFile:      snap.Gruas,
		ZonasFile:      snap.Zonas,
		UsersFile:      snap.Users,
	}
	for name, v := range docs {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// DBSource reads the roster tables through gorm.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	db := s.db.WithContext(ctx)
	if err := db.Order("nombre").Find(&snap.Workers).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch workers: %w", err)
	}
	if err := db.Order("nombre").Find(&snap.Cuadrillas).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch cuadrillas: %w", err)
	}
	if err := db.Order("placa").Find(&snap.Camionetas).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch camionetas: %w", err)
	}
	if err := db.Order("placa").Find(&snap.Gruas).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch gruas: %w", err)
	}
	if err := db.Order("nombre").Find(&snap.Zonas).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch zonas: %w", err)
	}
	if err := db.Order("nombre").Find(&snap.Users).Error; err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch users: %w", err)
	}
	return snap, nil
}

// Save replaces the roster tables with snap inside one transaction.
func (s *DBSource) Save(ctx context.Context, snap Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := []struct {
			model any
			rows  any
			n     int
		}{
			{&models.Worker{}, &snap.Workers, len(snap.Workers)},
			{&models.Cuadrilla{}, &snap.Cuadrillas, len(snap.Cuadrillas)},
			{&models.Camioneta{}, &snap.Camionetas, len(snap.Camionetas)},
			{&models.Grua{}, &snap.Gruas, len(snap.Gruas)},
			{&models.Zona{}, &snap.Zonas, len(snap.Zonas)},
			{&models.User{}, &snap.Users, len(snap.Users)},
		}
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model).Error; err != nil {
				return fmt.Errorf("failed to clear roster table: %w", err)
			}
			if t.n == 0 {
				continue
			}
			if err := tx.Create(t.rows).Error; err != nil {
				return fmt.Errorf("failed to insert roster rows: %w", err)
			}
		}
		return nil
	})
}
