package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	DocumentsPrefix  = "documentos/"
	SignaturesPrefix = "firmas/"
)

var (
	spaces      = regexp.MustCompile(`\s+`)
	notSlugChar = regexp.MustCompile(`[^a-z0-9-]`)
	docFilename = regexp.MustCompile(`^(.+)-(\d+)\.xlsx$`)
)

// CleanName lower-cases name, turns whitespace runs into "-" and drops any
// other character outside [a-z0-9-].
func CleanName(name string) string {
	s := strings.ToLower(name)
	s = spaces.ReplaceAllString(s, "-")
	return notSlugChar.ReplaceAllString(s, "")
}

// GenerateDocumentObjectName returns
// documentos/YYYY/MM/DD/<clean-name>-<unix-millis>.xlsx for now.
func GenerateDocumentObjectName(formatName string, now time.Time) string {
	return fmt.Sprintf("%s%s/%s-%d.xlsx", DocumentsPrefix, now.Format("2006/01/02"), CleanName(formatName), now.UnixMilli())
}

// DocumentPrefix narrows a listing to a year, month or day. Zero values
// stop the narrowing at that level.
func DocumentPrefix(year, month, day int) string {
	p := DocumentsPrefix
	if year == 0 {
		return p
	}
	p += fmt.Sprintf("%04d/", year)
	if month == 0 {
		return p
	}
	p += fmt.Sprintf("%02d/", month)
	if day == 0 {
		return p
	}
	return p + fmt.Sprintf("%02d/", day)
}

// DocumentInfo is what can be recovered from a document object name.
type DocumentInfo struct {
	FormatName string `json:"format_name"`
	Year       string `json:"year"`
	Month      string `json:"month"`
	Day        string `json:"day"`
	Filename   string `json:"filename"`
}

func ParseDocumentObjectName(name string) DocumentInfo {
	parts := strings.Split(strings.TrimPrefix(name, DocumentsPrefix), "/")
	var info DocumentInfo
	if len(parts) == 4 {
		info.Year, info.Month, info.Day = parts[0], parts[1], parts[2]
	}
	info.Filename = path.Base(name)

	if m := docFilename.FindStringSubmatch(info.Filename); m != nil {
		info.FormatName = titleWords(strings.ReplaceAll(m[1], "-", " "))
	} else {
		info.FormatName = strings.TrimSuffix(info.Filename, ".xlsx")
	}
	return info
}

func SignatureObjectName(signatureID string) string {
	return SignaturesPrefix + signatureID + ".png"
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

const TemplatesPrefix = "plantillas/"

func TemplateObjectName(formatID string) string {
	return TemplatesPrefix + formatID + ".xlsx"
}
