// Package converter turns uploaded CV and job description documents into
// plain text.
package converter

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// MaxChars caps extracted document text
const MaxChars = 20000

// TextExtractor extracts plain text from a named document
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// InputType represents the type of input
type InputType string

const (
	InputTypeFile InputType = "file"
	InputTypeURL  InputType = "url"
	InputTypeText InputType = "text"
)

// InputInfo contains parsed input information
type InputInfo struct {
	Type InputType
	Path string
	URL  *url.URL
	Ext  string
}

// ParseInput parses an input string and returns its type and info
func ParseInput(input string) InputInfo {
	info := InputInfo{}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		if parsedURL, err := url.Parse(input); err == nil {
			info.Type = InputTypeURL
			info.URL = parsedURL
			info.Ext = strings.ToLower(filepath.Ext(parsedURL.Path))
			return info
		}
	}

	if _, err := os.Stat(input); err == nil {
		info.Type = InputTypeFile
		info.Path = input
		info.Ext = strings.ToLower(filepath.Ext(input))
		return info
	}

	info.Type = InputTypeText
	return info
}

var supportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".docx": true,
	".html": true,
	".htm":  true,
}

// IsSupportedExtension checks if the extension is supported
func IsSupportedExtension(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// Extractor dispatches on the file extension. The PDF engine is started on
// first use and must be released with Close.
type Extractor struct {
	logger *slog.Logger

	pdfOnce sync.Once
	pdf     *pdfEngine
	pdfErr  error
}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{logger: slog.Default()}
}

// WithLogger sets the logger
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	e.logger = logger
	return e
}

// ExtractText returns the cleaned text of data. The format is chosen by the
// extension of filename.
func (e *Extractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text = decodeText(data)
	case ".pdf":
		var engine *pdfEngine
		engine, err = e.pdfEngine()
		if err == nil {
			text, err = engine.extract(ctx, data)
		}
	case ".docx":
		text, err = docxText(data)
	case ".html", ".htm":
		text, err = HTMLText(data, nil)
	default:
		return "", &UnsupportedFormatError{Filename: filename, Ext: ext}
	}
	if err != nil {
		return "", &ConversionError{OriginalError: err, Path: filename, Hint: "failed to extract " + strings.TrimPrefix(ext, ".") + " text"}
	}

	text = Clean(text)
	e.logger.DebugContext(ctx, "document text extracted", "filename", filename, "format", ext, "chars", len([]rune(text)))
	return text, nil
}

func (e *Extractor) pdfEngine() (*pdfEngine, error) {
	e.pdfOnce.Do(func() {
		e.pdf, e.pdfErr = newPDFEngine()
	})
	return e.pdf, e.pdfErr
}

// Close releases the PDF engine if it was started
func (e *Extractor) Close() error {
	if e.pdf != nil {
		return e.pdf.close()
	}
	return nil
}

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Clean replaces NUL bytes, collapses runs of spaces and tabs, squeezes three
// or more newlines into two and trims the result.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate cuts text to at most maxChars runes
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
