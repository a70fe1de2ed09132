package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"docuchat/internal/models"
)

// extractPDF concatenates per-page text in page order, pages joined by a
// single space. Files over the size ceiling are rejected before any
// parsing.
func (d *Dispatcher) extractPDF(_ context.Context, up Upload) (Result, error) {
	if int64(len(up.Data)) > maxPDFBytes {
		return Result{}, models.ErrFileTooLarge
	}

	doc, err := fitz.NewFromMemory(up.Data)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return Result{}, fmt.Errorf("pdf page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return Result{Text: strings.Join(pages, " ")}, nil
}
