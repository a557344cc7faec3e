package services

import (
	"io"
	"testing"

	"AUTOFILL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedDocument(t *testing.T, blobs *memBlobs, docs *memDocuments, withPDF bool) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:       "d1",
		FormatID: "control-diario",
		Filename: "control-diario-1.xlsx",
		GCSPath:  "documentos/2026/03/07/control-diario-1.xlsx",
	}
	blobs.objects[doc.GCSPath] = []byte("xlsx")
	if withPDF {
		doc.GCSPathPDF = "documentos/2026/03/07/control-diario-1.pdf"
		blobs.objects[doc.GCSPathPDF] = []byte("pdf")
	}
	require.NoError(t, docs.Create(t.Context(), doc))
	return doc
}

func TestDocumentService_Reader(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocuments()
	seedDocument(t, blobs, docs, false)
	svc := NewDocumentService(blobs, docs, zap.NewNop())

	r, doc, err := svc.GetDocumentReader(t.Context(), "d1", false)
	require.NoError(t, err)
	raw, _ := io.ReadAll(r)
	r.Close()
	assert.Equal(t, "xlsx", string(raw))
	assert.Equal(t, "control-diario-1.xlsx", doc.Filename)

	_, _, err = svc.GetDocumentReader(t.Context(), "d1", true)
	assert.ErrorIs(t, err, ErrDocumentMissing)

	_, _, err = svc.GetDocumentReader(t.Context(), "zzz", false)
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

func TestDocumentService_DeleteRemovesFiles(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocuments()
	seedDocument(t, blobs, docs, true)
	svc := NewDocumentService(blobs, docs, zap.NewNop())

	require.NoError(t, svc.DeleteDocument(t.Context(), "d1"))
	assert.Empty(t, blobs.names())
	_, err := svc.GetDocument(t.Context(), "d1")
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

func TestDocumentService_DeleteToleratesMissingBlob(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocuments()
	doc := seedDocument(t, blobs, docs, false)
	delete(blobs.objects, doc.GCSPath)
	svc := NewDocumentService(blobs, docs, zap.NewNop())

	require.NoError(t, svc.DeleteDocument(t.Context(), "d1"))
	assert.Empty(t, docs.docs)
}

func TestDocumentService_ListStoredDocuments(t *testing.T) {
	blobs, docs := newMemBlobs(), newMemDocuments()
	blobs.objects["documentos/2026/03/07/control-diario-1772892300000.xlsx"] = []byte("a")
	blobs.objects["documentos/2026/04/01/ats-1775000000000.xlsx"] = []byte("b")
	blobs.objects["firmas/s1.png"] = []byte("c")
	svc := NewDocumentService(blobs, docs, zap.NewNop())

	got, next, err := svc.ListStoredDocuments(t.Context(), 2026, 3, 0, 10, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, got, 1)
	assert.Equal(t, "03", got[0].Month)
	assert.Equal(t, "07", got[0].Day)
	assert.Equal(t, "Control Diario", got[0].FormatName)

	all, _, err := svc.ListStoredDocuments(t.Context(), 0, 0, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
