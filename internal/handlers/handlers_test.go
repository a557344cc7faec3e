package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"
	"AUTOFILL/internal/roster"
	"AUTOFILL/internal/services"
	"AUTOFILL/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memBlobs) UploadFile(_ context.Context, r io.Reader, name, _ string) (*storage.UploadResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = raw
	return &storage.UploadResult{ObjectName: name, Size: int64(len(raw))}, nil
}

func (m *memBlobs) ReadFile(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.objects[name]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memBlobs) DeleteFile(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
	return nil
}

type memDocuments struct {
	mu   sync.Mutex
	docs map[string]models.Document
}

func (m *memDocuments) Create(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocuments) Get(_ context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrDocumentMissing, id)
	}
	return &doc, nil
}

func (m *memDocuments) List(context.Context, services.DocumentFilter) ([]models.Document, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Document
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (m *memDocuments) Update(ctx context.Context, doc *models.Document) error {
	return m.Create(ctx, doc)
}

func (m *memDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

type testServer struct {
	engine   *gin.Engine
	sessions *services.SessionManager
	blobs    *memBlobs
	docs     *memDocuments
}

type serverSetup struct {
	persister formstate.Persister
	formats   []models.ExcelFormat
	roster    roster.Snapshot
}

type serverOption func(*serverSetup)

func withPersister(p formstate.Persister) serverOption {
	return func(s *serverSetup) { s.persister = p }
}

func withFormats(formats ...models.ExcelFormat) serverOption {
	return func(s *serverSetup) { s.formats = append(s.formats, formats...) }
}

func withRoster(snap roster.Snapshot) serverOption {
	return func(s *serverSetup) { s.roster = snap }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	logger := zap.NewNop()
	setup := serverSetup{
		formats: []models.ExcelFormat{{
			ID:   "control-diario",
			Name: "Control Diario",
			Sheets: []models.SheetStructure{{
				Name: "Hoja1",
				Sections: []models.Section{
					{ID: "datos", Type: models.SectionBasicInfo, Title: "Datos", Fields: []models.Field{
						{ID: "nombre", Label: "Realizado por", Type: models.FieldText, CellRef: "A1", Required: true},
					}},
					{ID: "obs", Type: models.SectionObservations, Title: "Observaciones", Fields: []models.Field{
						{ID: "notas", Label: "Notas", Type: models.FieldTextarea, CellRef: "A3"},
					}},
				},
			}},
		}},
		roster: roster.Snapshot{Workers: []models.Worker{
			{ID: "w1", Nombre: "Ana Pérez", Cargo: "Técnico", IsActive: true},
			{ID: "w2", Nombre: "Luis Gómez", Cargo: "Supervisor", IsActive: true},
		}},
	}
	for _, opt := range opts {
		opt(&setup)
	}
	cat, err := catalog.New(setup.formats...)
	require.NoError(t, err)

	lib, err := formstate.NewLibrary(context.Background(), setup.persister, logger)
	require.NoError(t, err)
	provider := roster.NewProvider(setup.roster)

	ts := &testServer{
		blobs: &memBlobs{objects: make(map[string][]byte)},
		docs:  &memDocuments{docs: make(map[string]models.Document)},
	}
	ts.sessions = services.NewSessionManager(lib, cat, provider, logger)
	templates := services.NewTemplateService(ts.blobs, "", logger)
	submissions := services.NewSubmissionService(ts.sessions, templates, ts.blobs, ts.docs, logger)

	ts.engine = gin.New()
	Router{
		Formats:   NewFormatsHandler(cat, templates),
		Sessions:  NewSessionsHandler(ts.sessions, submissions, logger),
		Library:   NewLibraryHandler(lib),
		Roster:    NewRosterHandler(services.NewRosterService(provider, nil, nil, nil, "", logger), logger),
		Documents: NewDocumentsHandler(services.NewDocumentService(ts.blobs, ts.docs, logger), logger),
	}.Register(ts.engine)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSessions_FullWizardFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"user_id": "w1", "format_id": "control-diario"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[SessionResponse](t, w)
	id := created.Session.ID
	require.NotEmpty(t, id)
	assert.Len(t, created.State.WizardSteps, 2)
	assert.False(t, created.Ready)

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"field_id":"nombre"`)

	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/validation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[map[string]any](t, w)["valid"].(bool))

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/fields", gin.H{
		"sheet_index": 0, "section_index": 0, "field_id": "nombre", "value": "Ana Pérez",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/steps/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["current_step"])

	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/validation?all=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[map[string]any](t, w)["valid"].(bool))

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	docID := decode[struct {
		Document models.Document `json:"document"`
	}](t, w).Document.ID

	w = ts.do(t, http.MethodGet, "/api/v1/documents/"+docID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "control-diario-")
	assert.NotZero(t, w.Body.Len())

	w = ts.do(t, http.MethodGet, "/api/v1/documents/"+docID+"/download?format=pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_Errors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"format_id": "unknown"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[SessionResponse](t, w).Session.ID

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/fields", gin.H{
		"sheet_index": 0, "section_index": 0, "field_id": "nombre", "value": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code, "no form loaded")

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/fields", gin.H{"field_id": "nombre"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/format", gin.H{"format_id": "control-diario"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/fields", gin.H{
		"sheet_index": 4, "section_index": 0, "field_id": "nombre", "value": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/steps/current", gin.H{"step": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, ts.sessions.Len())
}

func TestSessions_ReviewersAndPresets(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"user_id": "w1", "format_id": "control-diario"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[SessionResponse](t, w).Session.ID

	w = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/reviewers?sheet=0&section=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reviewers := decode[struct {
		Reviewers []models.Worker `json:"reviewers"`
	}](t, w).Reviewers
	require.Len(t, reviewers, 1)
	assert.Equal(t, "w2", reviewers[0].ID)

	w = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/reviewer", gin.H{"sheet_index": 0, "section_index": 0, "worker_id": "w1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/presets", gin.H{"id": "p1", "name": "Base", "data": gin.H{"realizadoPor": "Ana Pérez"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/presets/p1/apply", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["written"])

	w = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/presets/zzz/apply", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibrary_Signatures(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/signatures", gin.H{"id": "s1", "name": "Ana", "image_data": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/signatures", gin.H{"id": "s1", "name": "Ana", "image_data": "data:image/png;base64,AAAA"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/signatures", gin.H{"name": "Ana", "image_data": "not a data url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/signatures", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Signatures []models.Signature `json:"signatures"`
	}](t, w).Signatures, 1)

	w = ts.do(t, http.MethodDelete, "/api/v1/signatures/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormatsAndRoster(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/formats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	formats := decode[struct {
		Formats []FormatSummary `json:"formats"`
	}](t, w).Formats
	require.Len(t, formats, 1)
	assert.Equal(t, 2, formats[0].Steps)

	w = ts.do(t, http.MethodGet, "/api/v1/formats/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/roster/workers?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Luis Gómez")

	w = ts.do(t, http.MethodPut, "/api/v1/roster", gin.H{"workers": []gin.H{}})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

type countingExpirer struct{ calls int }

func (c *countingExpirer) Expire() int {
	c.calls++
	return 0
}

func TestJanitor_RunOnce(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.xlsx")
	fresh := filepath.Join(dir, "fresh.xlsx")
	require.NoError(t, os.WriteFile(old, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("b"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	exp := &countingExpirer{}
	j := NewJanitor(exp, []string{dir, filepath.Join(dir, "missing")}, 24*time.Hour, time.Hour, zap.NewNop())

	assert.Equal(t, 1, j.RunOnce())
	assert.Equal(t, 1, exp.calls)
	_, err := os.Stat(old)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestJanitor_StartStop(t *testing.T) {
	j := NewJanitor(&countingExpirer{}, nil, time.Hour, 10*time.Millisecond, zap.NewNop())
	j.Start()
	time.Sleep(30 * time.Millisecond)
	j.Stop()
	j.Stop()
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", services.ErrSessionNotFound)))
	assert.Equal(t, http.StatusConflict, statusFor(formstate.ErrDuplicateID))
	assert.Equal(t, http.StatusBadRequest, statusFor(formstate.ErrStepOutOfRange))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestSessionFromPath(t *testing.T) {
	assert.Equal(t, "abc", sessionFromPath("/api/v1/sessions/abc/fields"))
	assert.Equal(t, "", sessionFromPath("/api/v1/formats"))
}
