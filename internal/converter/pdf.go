package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const pdfInstanceTimeout = 30 * time.Second

// pdfEngine extracts PDF text with PDFium compiled to WebAssembly, so no
// native library is needed at runtime.
type pdfEngine struct {
	pool pdfium.Pool
}

func newPDFEngine() (*pdfEngine, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pdfium: %w", err)
	}
	return &pdfEngine{pool: pool}, nil
}

// extract joins the text of every page with blank lines
func (p *pdfEngine) extract(ctx context.Context, data []byte) (string, error) {
	instance, err := p.pool.GetInstance(pdfInstanceTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to get pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	count, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return "", fmt.Errorf("failed to count PDF pages: %w", err)
	}

	pages := make([]string, 0, count.PageCount)
	for i := 0; i < count.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page, err := instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{Document: doc.Document, Index: i},
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to read PDF page %d: %w", i+1, err)
		}
		if text := strings.TrimSpace(page.Text); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func (p *pdfEngine) close() error {
	return p.pool.Close()
}
