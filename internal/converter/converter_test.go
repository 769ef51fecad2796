package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput_URL(t *testing.T) {
	info := ParseInput("https://example.com/jobs/backend.html")

	assert.Equal(t, InputTypeURL, info.Type)
	require.NotNil(t, info.URL)
	assert.Equal(t, "example.com", info.URL.Host)
	assert.Equal(t, ".html", info.Ext)
}

func TestParseInput_LocalFile(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "cv-*.docx")
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	info := ParseInput(tmpFile.Name())

	assert.Equal(t, InputTypeFile, info.Type)
	assert.Equal(t, tmpFile.Name(), info.Path)
	assert.Equal(t, ".docx", info.Ext)
}

func TestParseInput_Text(t *testing.T) {
	info := ParseInput("Senior Go engineer wanted")

	assert.Equal(t, InputTypeText, info.Type)
	assert.Empty(t, info.Path)
	assert.Nil(t, info.URL)
}

func TestIsSupportedExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".pdf", true},
		{".PDF", true},
		{".docx", true},
		{".txt", true},
		{".md", true},
		{".html", true},
		{".doc", false},
		{".xlsx", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupportedExtension(tt.ext))
		})
	}
}

func TestClean(t *testing.T) {
	in := "  Jane\x00Doe \t\t Engineer\r\n\n\n\nSkills:  Go\n\n"
	assert.Equal(t, "Jane Doe Engineer\n\nSkills: Go", Clean(in))
	assert.Equal(t, Clean(in), Clean(Clean(in)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "any", Truncate("any", 0))
	assert.Len(t, []rune(Truncate(strings.Repeat("ж", MaxChars+5), MaxChars)), MaxChars)
}

func TestExtractText_PlainText(t *testing.T) {
	e := NewExtractor()
	defer e.Close()

	t.Run("utf8 with bom", func(t *testing.T) {
		text, err := e.ExtractText(context.Background(), "cv.txt", []byte("\xEF\xBB\xBFJosé   Pérez\n\n\n\nGo"))
		require.NoError(t, err)
		assert.Equal(t, "José Pérez\n\nGo", text)
	})

	t.Run("latin-1 fallback", func(t *testing.T) {
		text, err := e.ExtractText(context.Background(), "cv.md", []byte{'J', 'o', 's', 0xE9})
		require.NoError(t, err)
		assert.Equal(t, "José", text)
	})
}

func TestExtractText_Unsupported(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), "sheet.xlsx", []byte("x"))

	var unsupported *UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, ".xlsx", unsupported.Ext)
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_Docx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Go</w:t><w:tab/><w:t>Kubernetes</w:t></w:r></w:p>`)

	text, err := NewExtractor().ExtractText(context.Background(), "cv.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSenior Engineer\nGo Kubernetes", text)
}

func TestExtractText_DocxInvalid(t *testing.T) {
	_, err := NewExtractor().ExtractText(context.Background(), "cv.docx", []byte("not a zip"))

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "cv.docx", convErr.Path)
}

func TestExtractText_HTML(t *testing.T) {
	page := `<html><head><title>Job</title><style>p{}</style></head>
<body><script>var x = 1;</script><h1>Backend Engineer</h1><p>We use Go and PostgreSQL.</p></body></html>`

	text, err := NewExtractor().ExtractText(context.Background(), "jd.html", []byte(page))
	require.NoError(t, err)
	assert.Contains(t, text, "We use Go and PostgreSQL.")
	assert.NotContains(t, text, "var x")
}

func TestHTMLText_Empty(t *testing.T) {
	_, err := HTMLText([]byte("<html><body><script>1</script></body></html>"), nil)
	assert.ErrorIs(t, err, ErrNoReadableContent)
}

func TestExtractText_PDFInvalid(t *testing.T) {
	if testing.Short() {
		t.Skip("starts the pdfium runtime")
	}
	e := NewExtractor()
	defer e.Close()

	_, err := e.ExtractText(context.Background(), "cv.pdf", []byte("%PDF-garbage"))
	var convErr *ConversionError
	assert.True(t, errors.As(err, &convErr))
}

func TestPageFetcher_Static(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><article><h1>Data Engineer</h1><p>Spark, Airflow and SQL every day.</p></article></body></html>`))
	}))
	defer srv.Close()

	f := NewPageFetcher().WithBrowser(false).WithHTTPClient(srv.Client())
	defer f.Close()

	t.Run("ok", func(t *testing.T) {
		text, err := f.Fetch(context.Background(), srv.URL+"/job")
		require.NoError(t, err)
		assert.Contains(t, text, "Spark, Airflow and SQL every day.")
	})

	t.Run("http error without browser", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		var httpErr *HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.False(t, httpErr.Retryable())
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "file:///etc/passwd")
		var convErr *ConversionError
		assert.True(t, errors.As(err, &convErr))
	})
}
