package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/gitsync"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
	"AUTOFILL/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 7, 14, 5, 0, 0, time.UTC)

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failWrite bool
	deleted   []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (m *memBlobs) UploadFile(_ context.Context, r io.Reader, name, _ string) (*storage.UploadResult, error) {
	if m.failWrite {
		return nil, errors.New("bucket unavailable")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.objects[name] = raw
	m.mu.Unlock()
	return &storage.UploadResult{ObjectName: name, PublicURL: "https://storage.test/" + name, Size: int64(len(raw))}, nil
}

func (m *memBlobs) ReadFile(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memBlobs) DeleteFile(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, name)
	}
	delete(m.objects, name)
	return nil
}

func (m *memBlobs) ListObjects(_ context.Context, prefix string, limit int, _ string) ([]storage.ObjectInfo, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	out := make([]storage.ObjectInfo, len(names))
	for i, name := range names {
		out[i] = storage.ObjectInfo{Name: name, Size: int64(len(m.objects[name]))}
	}
	return out, "", nil
}

func (m *memBlobs) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for name := range m.objects {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type memDocuments struct {
	mu         sync.Mutex
	docs       map[string]*models.Document
	failCreate bool
	updates    int
}

func newMemDocuments() *memDocuments {
	return &memDocuments{docs: make(map[string]*models.Document)}
}

func (m *memDocuments) Create(_ context.Context, doc *models.Document) error {
	if m.failCreate {
		return errors.New("database is down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocuments) Get(_ context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentMissing, id)
	}
	cp := *doc
	return &cp, nil
}

func (m *memDocuments) List(_ context.Context, filter DocumentFilter) ([]models.Document, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, doc := range m.docs {
		if filter.FormatID != "" && doc.FormatID != filter.FormatID {
			continue
		}
		out = append(out, *doc)
	}
	return out, int64(len(out)), nil
}

func (m *memDocuments) Update(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *memDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

type fakeCommitter struct {
	mu       sync.Mutex
	messages []string
	files    [][]gitsync.File
	err      error
}

func (f *fakeCommitter) Commit(_ context.Context, message string, files []gitsync.File) (*gitsync.CommitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, message)
	f.files = append(f.files, files)
	return &gitsync.CommitResult{SHA: "abc123", Message: message, Files: len(files)}, nil
}

type fakeConverter struct {
	err error
}

func (f fakeConverter) ConvertSpreadsheetToPDF(_ context.Context, r io.Reader, _ string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("%PDF-1.7")), nil
}

// testFormat has one required basic_info section and one optional
// observations section on a single sheet.
func testFormat() models.ExcelFormat {
	return models.ExcelFormat{
		ID:   "control-diario",
		Name: "Control Diario",
		Sheets: []models.SheetStructure{{
			Name: "Hoja1",
			Sections: []models.Section{
				{ID: "datos", Type: models.SectionBasicInfo, Title: "Datos", Fields: []models.Field{
					{ID: "nombre", Label: "Realizado por", Type: models.FieldText, CellRef: "A1", Required: true},
					{ID: "fecha", Label: "Fecha", Type: models.FieldDate, CellRef: "B1", Required: true},
				}},
				{ID: "obs", Type: models.SectionObservations, Title: "Observaciones", Fields: []models.Field{
					{ID: "notas", Label: "Notas", Type: models.FieldTextarea, CellRef: "A3"},
				}},
			},
		}},
	}
}

func testRoster() roster.Snapshot {
	return roster.Snapshot{
		Workers: []models.Worker{
			{ID: "w1", Nombre: "Ana Pérez", Cargo: "Técnico", IsActive: true},
			{ID: "w2", Nombre: "Luis Gómez", Cargo: "Supervisor", IsActive: true},
			{ID: "w3", Nombre: "Pedro Díaz", Cargo: "Operario", IsActive: true},
		},
		Users: []models.User{{ID: "u1", Nombre: "Marta Ruiz", Role: models.RoleUser}},
	}
}

func newTestManager(t *testing.T, opts ...SessionOption) *SessionManager {
	t.Helper()
	cat, err := catalog.New(testFormat())
	require.NoError(t, err)
	lib, err := formstate.NewLibrary(context.Background(), nil, zap.NewNop())
	require.NoError(t, err)
	opts = append([]SessionOption{WithSessionClock(func() time.Time { return testNow })}, opts...)
	return NewSessionManager(lib, cat, roster.NewProvider(testRoster()), zap.NewNop(), opts...)
}

// fillRequired answers every required field of testFormat.
func fillRequired(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Store.TryUpdateFieldValue(0, 0, "nombre", "Ana Pérez"))
	require.NoError(t, s.Store.TryUpdateFieldValue(0, 0, "fecha", "07/03/2026"))
}
