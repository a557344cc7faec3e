package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type submissionFixture struct {
	manager *SessionManager
	blobs   *memBlobs
	docs    *memDocuments
	git     *fakeCommitter
	svc     *SubmissionService
}

func newSubmissionFixture(t *testing.T, opts ...SubmissionOption) *submissionFixture {
	t.Helper()
	f := &submissionFixture{
		manager: newTestManager(t),
		blobs:   newMemBlobs(),
		docs:    newMemDocuments(),
		git:     &fakeCommitter{},
	}
	templates := NewTemplateService(f.blobs, "", zap.NewNop())
	opts = append([]SubmissionOption{WithSubmissionClock(func() time.Time { return testNow })}, opts...)
	f.svc = NewSubmissionService(f.manager, templates, f.blobs, f.docs, zap.NewNop(), opts...)
	return f
}

func TestSubmit_GeneratesUploadsAndRecords(t *testing.T) {
	f := newSubmissionFixture(t)
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	doc, err := f.svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, "documentos/2026/03/07/control-diario-1772892300000.xlsx", doc.GCSPath)
	assert.Equal(t, "control-diario-1772892300000.xlsx", doc.Filename)
	assert.Equal(t, "w1", doc.SubmittedBy)
	assert.Equal(t, "completed", doc.Status)
	assert.Empty(t, doc.GCSPathPDF)
	assert.Empty(t, doc.CommitSHA)

	stored, err := f.docs.Get(t.Context(), doc.ID)
	require.NoError(t, err)
	var data models.FormData
	require.NoError(t, json.Unmarshal([]byte(stored.Data), &data))
	require.NotNil(t, data.Metadata.CompletedAt)
	assert.True(t, data.Metadata.CompletedAt.Equal(testNow))
	require.NotNil(t, s.Store.CurrentFormData().Metadata.CompletedAt)

	wb, err := excelize.OpenReader(bytes.NewReader(f.blobs.objects[doc.GCSPath]))
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Hoja1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", v)
}

func TestSubmit_NotReady(t *testing.T) {
	f := newSubmissionFixture(t)
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	require.NoError(t, s.Store.TryUpdateFieldValue(0, 0, "nombre", "Ana"))

	_, err = f.svc.Submit(t.Context(), s.ID)

	require.ErrorIs(t, err, ErrNotReady)
	var notReady *NotReadyError
	require.True(t, errors.As(err, &notReady))
	require.Len(t, notReady.Missing, 1)
	assert.Equal(t, "fecha", notReady.Missing[0].FieldID)
	assert.Empty(t, f.blobs.names())
}

func TestSubmit_NoFormLoaded(t *testing.T) {
	f := newSubmissionFixture(t)
	s, err := f.manager.Create("w1", "")
	require.NoError(t, err)

	_, err = f.svc.Submit(t.Context(), s.ID)
	assert.ErrorIs(t, err, formstate.ErrNoForm)

	_, err = f.svc.Submit(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubmit_UsesUploadedTemplate(t *testing.T) {
	f := newSubmissionFixture(t)

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "Hoja1"))
	require.NoError(t, wb.SetCellValue("Hoja1", "D10", "CODIGO: F-01"))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	f.blobs.objects["plantillas/control-diario.xlsx"] = buf.Bytes()

	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	doc, err := f.svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)

	out, err := excelize.OpenReader(bytes.NewReader(f.blobs.objects[doc.GCSPath]))
	require.NoError(t, err)
	defer out.Close()
	v, _ := out.GetCellValue("Hoja1", "D10")
	assert.Equal(t, "CODIGO: F-01", v)
	v, _ = out.GetCellValue("Hoja1", "A1")
	assert.Equal(t, "Ana Pérez", v)
}

func TestSubmit_PDFAndGitArchive(t *testing.T) {
	git := &fakeCommitter{}
	f := newSubmissionFixture(t, WithPDF(fakeConverter{}), WithGitArchive(git))
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	doc, err := f.svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, strings.TrimSuffix(doc.GCSPath, ".xlsx")+".pdf", doc.GCSPathPDF)
	assert.Equal(t, "%PDF-1.7", string(f.blobs.objects[doc.GCSPathPDF]))

	assert.Equal(t, "abc123", doc.CommitSHA)
	require.Len(t, git.files, 1)
	assert.Equal(t, "submissions/control-diario/control-diario-1772892300000.json", git.files[0][0].Path)
	assert.Contains(t, string(git.files[0][0].Content), `"format_id": "control-diario"`)

	stored, err := f.docs.Get(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", stored.CommitSHA)
	assert.Equal(t, 1, f.docs.updates)
}

func TestSubmit_OptionalStepsFailSoftly(t *testing.T) {
	git := &fakeCommitter{err: errors.New("bad credentials")}
	f := newSubmissionFixture(t, WithPDF(fakeConverter{err: errors.New("gotenberg down")}), WithGitArchive(git))
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	doc, err := f.svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)
	assert.Empty(t, doc.GCSPathPDF)
	assert.Empty(t, doc.CommitSHA)
	assert.Zero(t, f.docs.updates)
}

func TestSubmit_MetadataFailureRemovesUpload(t *testing.T) {
	f := newSubmissionFixture(t)
	f.docs.failCreate = true
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	_, err = f.svc.Submit(t.Context(), s.ID)
	require.Error(t, err)
	assert.Empty(t, f.blobs.names())
	assert.Nil(t, s.Store.CurrentFormData().Metadata.CompletedAt)
}

func TestSubmit_UploadFailure(t *testing.T) {
	f := newSubmissionFixture(t)
	f.blobs.failWrite = true
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	_, err = f.svc.Submit(t.Context(), s.ID)
	assert.ErrorContains(t, err, "failed to upload document")
	assert.Empty(t, f.docs.docs)
}

// resettingDocuments resets the session while the document row is written.
type resettingDocuments struct {
	*memDocuments
	during func()
}

func (r *resettingDocuments) Create(ctx context.Context, doc *models.Document) error {
	r.during()
	return r.memDocuments.Create(ctx, doc)
}

func TestSubmit_ResetDuringSubmitIsKept(t *testing.T) {
	f := newSubmissionFixture(t)
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	docs := &resettingDocuments{memDocuments: f.docs, during: s.Store.ResetForm}
	templates := NewTemplateService(f.blobs, "", zap.NewNop())
	svc := NewSubmissionService(f.manager, templates, f.blobs, docs, zap.NewNop(),
		WithSubmissionClock(func() time.Time { return testNow }))

	doc, err := svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)

	assert.Nil(t, s.Store.SelectedFormat())
	assert.Nil(t, s.Store.CurrentFormData())
}

func TestSubmit_EditDuringSubmitIsKept(t *testing.T) {
	f := newSubmissionFixture(t)
	s, err := f.manager.Create("w1", "control-diario")
	require.NoError(t, err)
	fillRequired(t, s)

	docs := &resettingDocuments{memDocuments: f.docs, during: func() {
		s.Store.UpdateFieldValue(0, 1, "notas", "agregado tarde")
	}}
	templates := NewTemplateService(f.blobs, "", zap.NewNop())
	svc := NewSubmissionService(f.manager, templates, f.blobs, docs, zap.NewNop(),
		WithSubmissionClock(func() time.Time { return testNow }))

	_, err = svc.Submit(t.Context(), s.ID)
	require.NoError(t, err)

	data := s.Store.CurrentFormData()
	require.NotNil(t, data)
	assert.Nil(t, data.Metadata.CompletedAt)
	sec, ok := data.SectionAt(0, 1)
	require.True(t, ok)
	assert.Equal(t, "agregado tarde", sec.Value("notas"))
}
