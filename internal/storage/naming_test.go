package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDocumentObjectName(t *testing.T) {
	now := time.Date(2026, 3, 7, 14, 5, 0, 0, time.UTC)
	got := GenerateDocumentObjectName("Inspección de Herramientas!", now)
	assert.Equal(t, "documentos/2026/03/07/inspeccin-de-herramientas-1772892300000.xlsx", got)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "ats-anlisis", CleanName("ATS  (Análisis)"))
	assert.Equal(t, "a-b", CleanName("a\tb"))
}

func TestDocumentPrefix(t *testing.T) {
	assert.Equal(t, "documentos/", DocumentPrefix(0, 5, 1))
	assert.Equal(t, "documentos/2026/", DocumentPrefix(2026, 0, 1))
	assert.Equal(t, "documentos/2026/03/", DocumentPrefix(2026, 3, 0))
	assert.Equal(t, "documentos/2026/03/07/", DocumentPrefix(2026, 3, 7))
}

func TestParseDocumentObjectName(t *testing.T) {
	info := ParseDocumentObjectName("documentos/2026/03/07/inspeccion-de-herramientas-1772892300000.xlsx")
	assert.Equal(t, DocumentInfo{
		FormatName: "Inspeccion De Herramientas",
		Year:       "2026",
		Month:      "03",
		Day:        "07",
		Filename:   "inspeccion-de-herramientas-1772892300000.xlsx",
	}, info)

	info = ParseDocumentObjectName("documentos/suelto.xlsx")
	assert.Equal(t, "suelto", info.FormatName)
	assert.Empty(t, info.Year)
}

func TestSignatureObjectName(t *testing.T) {
	assert.Equal(t, "firmas/abc.png", SignatureObjectName("abc"))
}
