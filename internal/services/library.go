package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	_ formstate.Persister = (*GormLibraryPersister)(nil)
	_ formstate.Persister = (*FileLibraryPersister)(nil)
)

// GormLibraryPersister keeps signatures and presets in the signatures and
// presets tables. Each save replaces the whole collection.
type GormLibraryPersister struct {
	db *gorm.DB
}

func NewGormLibraryPersister(db *gorm.DB) *GormLibraryPersister {
	return &GormLibraryPersister{db: db}
}

func (p *GormLibraryPersister) Load(ctx context.Context) ([]models.Signature, []models.UserPreset, error) {
	var signatures []models.Signature
	if err := p.db.WithContext(ctx).Order("created_at").Find(&signatures).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load signatures: %w", err)
	}
	var presets []models.UserPreset
	if err := p.db.WithContext(ctx).Order("created_at").Find(&presets).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load presets: %w", err)
	}
	return signatures, presets, nil
}

func (p *GormLibraryPersister) SaveSignatures(ctx context.Context, signatures []models.Signature) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Signature{}).Error; err != nil {
			return fmt.Errorf("failed to clear signatures: %w", err)
		}
		if len(signatures) == 0 {
			return nil
		}
		if err := tx.Create(&signatures).Error; err != nil {
			return fmt.Errorf("failed to save signatures: %w", err)
		}
		return nil
	})
}

func (p *GormLibraryPersister) SavePresets(ctx context.Context, presets []models.UserPreset) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.UserPreset{}).Error; err != nil {
			return fmt.Errorf("failed to clear presets: %w", err)
		}
		if len(presets) == 0 {
			return nil
		}
		if err := tx.Create(&presets).Error; err != nil {
			return fmt.Errorf("failed to save presets: %w", err)
		}
		return nil
	})
}

const (
	signaturesFile = "signatures.json"
	presetsFile    = "presets.json"
)

// FileLibraryPersister stores the library as two JSON files in Dir. Files
// are replaced atomically through a rename.
type FileLibraryPersister struct {
	Dir string
	mu  sync.Mutex
}

func (p *FileLibraryPersister) Load(context.Context) ([]models.Signature, []models.UserPreset, error) {
	var signatures []models.Signature
	if err := p.read(signaturesFile, &signatures); err != nil {
		return nil, nil, err
	}
	var presets []models.UserPreset
	if err := p.read(presetsFile, &presets); err != nil {
		return nil, nil, err
	}
	return signatures, presets, nil
}

func (p *FileLibraryPersister) SaveSignatures(_ context.Context, signatures []models.Signature) error {
	return p.write(signaturesFile, signatures)
}

func (p *FileLibraryPersister) SavePresets(_ context.Context, presets []models.UserPreset) error {
	return p.write(presetsFile, presets)
}

func (p *FileLibraryPersister) read(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(p.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (p *FileLibraryPersister) write(name string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create library dir: %w", err)
	}
	tmp, err := os.CreateTemp(p.Dir, name+".*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(p.Dir, name))
}

// SignatureImageService mirrors signature images to the bucket so the
// generated spreadsheets and other clients can reference them by URL.
type SignatureImageService struct {
	blobs  BlobStore
	logger *zap.Logger
}

func NewSignatureImageService(blobs BlobStore, logger *zap.Logger) *SignatureImageService {
	return &SignatureImageService{blobs: blobs, logger: logger}
}

var ErrNotPNG = errors.New("signature image must be a base64 PNG data url")

const pngDataURLPrefix = "data:image/png;base64,"

// Upload stores the signature as firmas/<id>.png and returns its object name.
func (s *SignatureImageService) Upload(ctx context.Context, sig models.Signature) (*storage.UploadResult, error) {
	if len(sig.ImageData) <= len(pngDataURLPrefix) || sig.ImageData[:len(pngDataURLPrefix)] != pngDataURLPrefix {
		return nil, ErrNotPNG
	}
	raw, err := base64.StdEncoding.DecodeString(sig.ImageData[len(pngDataURLPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPNG, err)
	}
	result, err := s.blobs.UploadFile(ctx, bytes.NewReader(raw), storage.SignatureObjectName(sig.ID), "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to upload signature: %w", err)
	}
	s.logger.Info("signature image uploaded", zap.String("signature_id", sig.ID), zap.Int64("size", result.Size))
	return result, nil
}

// Subscribe uploads newly added signatures whenever the library changes.
// Uploads run in the notifying goroutine. Failures are only logged.
func (s *SignatureImageService) Subscribe(lib *formstate.Library) (cancel func()) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	for _, sig := range lib.Signatures() {
		seen[sig.ID] = true
	}
	return lib.Subscribe(func() {
		mu.Lock()
		var fresh []models.Signature
		for _, sig := range lib.Signatures() {
			if !seen[sig.ID] {
				seen[sig.ID] = true
				fresh = append(fresh, sig)
			}
		}
		mu.Unlock()
		for _, sig := range fresh {
			if _, err := s.Upload(context.Background(), sig); err != nil {
				s.logger.Warn("failed to mirror signature image", zap.String("signature_id", sig.ID), zap.Error(err))
			}
		}
	})
}
