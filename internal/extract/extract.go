// Package extract turns uploaded file bytes into plain text, keyed by file extension.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrEmpty       = errors.New("no extractable text")
)

var plainTextExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".html": true,
	".js":   true,
	".css":  true,
}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of data. An unsupported extension yields ErrUnsupported,
// and a supported file with no text yields ErrEmpty.
func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = pdfText(data)
	case ext == ".docx":
		text, err = docxText(data)
	case plainTextExtensions[ext]:
		// Invalid bytes (Latin-1 and friends) become U+FFFD so the rest stays searchable.
		text = strings.ToValidUTF8(string(data), "\uFFFD")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s failed: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".pdf" || ext == ".docx" || plainTextExtensions[ext]
}
