// Package spreadsheet writes wizard values back into the template workbook.
package spreadsheet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"regexp"
	"strings"
	"time"

	"AUTOFILL/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	signatureWidth  = 150
	signatureHeight = 50
)

var (
	ErrInvalidDataURL = errors.New("invalid signature data url")

	cellInID = regexp.MustCompile(`[A-Z]+\d+`)
	dataURL  = regexp.MustCompile(`^data:image/(\w+);base64,`)

	dateLayouts = []string{"02/01/2006", "2006-01-02", time.RFC3339}
)

type Generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// Fill opens the original workbook, writes every completed value into the
// cell its template field points at and returns the new file. A nil
// original starts from NewBlank. Sheets missing from the workbook are
// skipped.
func (g *Generator) Fill(ctx context.Context, original io.Reader, format *models.ExcelFormat, data *models.FormData, signatures map[string]models.Signature) (*bytes.Buffer, error) {
	if data == nil {
		return nil, errors.New("no form data")
	}

	var f *excelize.File
	var err error
	if original != nil {
		f, err = excelize.OpenReader(original)
		if err != nil {
			return nil, fmt.Errorf("failed to open template workbook: %w", err)
		}
	} else {
		f, err = NewBlank(format)
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	w := &writer{file: f, logger: g.logger, signatures: signatures}
	for i, sheet := range data.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx, err := f.GetSheetIndex(sheet.SheetName); err != nil || idx < 0 {
			g.logger.Warn("sheet not in workbook", zap.String("sheet", sheet.SheetName))
			continue
		}
		for j, section := range sheet.Sections {
			tmpl, _ := format.SectionAt(i, j)
			for _, fd := range section.Fields {
				if !fd.Completed {
					continue
				}
				field, ok := resolveField(tmpl, fd.FieldID)
				if !ok {
					continue
				}
				if err := w.write(sheet.SheetName, field, fd.Value); err != nil {
					return nil, fmt.Errorf("failed to write field %s: %w", fd.FieldID, err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// NewBlank builds an empty workbook with one sheet per template sheet.
func NewBlank(format *models.ExcelFormat) (*excelize.File, error) {
	f := excelize.NewFile()
	if format == nil || len(format.Sheets) == 0 {
		return f, nil
	}
	first := f.GetSheetList()[0]
	if err := f.SetSheetName(first, format.Sheets[0].Name); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, s := range format.Sheets[1:] {
		if _, err := f.NewSheet(s.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.Name, err)
		}
	}
	return f, nil
}

// resolveField finds the template field for id. Without a template entry
// the cell reference is read from the id itself, e.g. "basic_A5".
func resolveField(section *models.Section, id string) (models.Field, bool) {
	if section != nil {
		if f, ok := section.FieldByID(id); ok && f.CellRef != "" {
			return *f, true
		}
	}
	if ref := cellInID.FindString(id); ref != "" {
		return models.Field{ID: id, Type: models.FieldText, CellRef: ref}, true
	}
	return models.Field{}, false
}

type writer struct {
	file        *excelize.File
	logger      *zap.Logger
	signatures  map[string]models.Signature
	centered    int
	dateStyle   int
	stylesReady bool
}

func (w *writer) styles() error {
	if w.stylesReady {
		return nil
	}
	var err error
	w.centered, err = w.file.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	dateFmt := "dd/mm/yyyy"
	w.dateStyle, err = w.file.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}
	w.stylesReady = true
	return nil
}

func (w *writer) write(sheet string, field models.Field, value any) error {
	if err := w.styles(); err != nil {
		return err
	}
	cell := field.CellRef

	switch field.Type {
	case models.FieldSignature:
		id, _ := value.(string)
		sig, ok := w.signatures[id]
		if !ok {
			return nil
		}
		if err := w.insertSignature(sheet, cell, sig); err != nil {
			w.logger.Warn("signature image not inserted", zap.String("signature_id", sig.ID), zap.Error(err))
			return w.file.SetCellValue(sheet, cell, fmt.Sprintf("[Firma: %s]", sig.Name))
		}
		return nil

	case models.FieldCheckbox:
		if !checked(value) {
			return nil
		}
		return w.mark(sheet, cell)

	case models.FieldRadio:
		if target, ok := radioCell(field, value); ok {
			return w.mark(sheet, target)
		}
		return w.file.SetCellValue(sheet, cell, value)

	case models.FieldDate:
		t, ok := parseDate(value)
		if !ok {
			return w.file.SetCellValue(sheet, cell, value)
		}
		if err := w.file.SetCellValue(sheet, cell, t); err != nil {
			return err
		}
		return w.file.SetCellStyle(sheet, cell, cell, w.dateStyle)
	}

	switch v := value.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		return w.file.SetCellValue(sheet, cell, strings.Join(parts, ", "))
	case []string:
		return w.file.SetCellValue(sheet, cell, strings.Join(v, ", "))
	}
	return w.file.SetCellValue(sheet, cell, value)
}

func (w *writer) mark(sheet, cell string) error {
	if err := w.file.SetCellValue(sheet, cell, "X"); err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, cell, cell, w.centered)
}

func (w *writer) insertSignature(sheet, cell string, sig models.Signature) error {
	ext, raw, err := decodeDataURL(sig.ImageData)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode signature image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return errors.New("empty signature image")
	}
	return w.file.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ext,
		File:      raw,
		Format: &excelize.GraphicOptions{
			AltText: sig.Name,
			ScaleX:  float64(signatureWidth) / float64(cfg.Width),
			ScaleY:  float64(signatureHeight) / float64(cfg.Height),
		},
	})
}

// decodeDataURL splits "data:image/png;base64,..." into ".png" and bytes.
func decodeDataURL(s string) (string, []byte, error) {
	m := dataURL.FindStringSubmatch(s)
	if m == nil {
		return "", nil, ErrInvalidDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(s[len(m[0]):])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return "." + strings.ToLower(m[1]), raw, nil
}

// radioCell maps a radio answer to its own cell when the field carries an
// option-to-cell map in its validation pattern.
func radioCell(field models.Field, value any) (string, bool) {
	answer, ok := value.(string)
	if !ok || field.Validation == nil || field.Validation.Pattern == "" {
		return "", false
	}
	var cells map[string]string
	if err := json.Unmarshal([]byte(field.Validation.Pattern), &cells); err != nil {
		return "", false
	}
	cell, ok := cells[answer]
	return cell, ok && cell != ""
}

func checked(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case int:
		return t != 0
	case float64:
		return t != 0
	}
	return v != nil
}

func parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
